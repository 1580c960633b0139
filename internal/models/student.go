package models

import "strings"

// Student is a stored student record. ID is assigned by the store and is
// never taken from client input.
type Student struct {
	ID    uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Name  string `json:"name" gorm:"type:varchar(100);not null"`
	Age   int    `json:"age" gorm:"not null"`
	Email string `json:"email" gorm:"type:varchar(100);not null;uniqueIndex"`
}

// StudentInput is the client payload for create and update: every field
// of a Student except its ID.
type StudentInput struct {
	Name  string `json:"name" validate:"required,max=100"`
	Age   *int   `json:"age" validate:"required,gte=0"`
	Email string `json:"email" validate:"required,email,max=100"`
}

// Normalize trims surrounding whitespace from the text fields.
func (in StudentInput) Normalize() StudentInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	return in
}

// ToStudent builds the record stored under id. A nil Age becomes 0; callers
// validate before storing.
func (in StudentInput) ToStudent(id uint) Student {
	s := Student{ID: id, Name: in.Name, Email: in.Email}
	if in.Age != nil {
		s.Age = *in.Age
	}
	return s
}
