package models

import "time"

// Student lifecycle event types.
const (
	EventStudentCreated = "student.created"
	EventStudentUpdated = "student.updated"
	EventStudentDeleted = "student.deleted"
)

// StudentEvent describes a committed change to a student record. Student is
// nil for deletions.
type StudentEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	StudentID  uint      `json:"student_id"`
	Student    *Student  `json:"student,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
