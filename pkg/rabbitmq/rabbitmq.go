package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"students/internal/models"

	"github.com/google/uuid"
	amqp "github.com/streadway/amqp"
)

// Channel is the subset of *amqp.Channel the client uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Client publishes and consumes student events on one durable queue.
type Client struct {
	conn    *amqp.Connection
	channel Channel
	queue   string
	log     *slog.Logger
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL   string
	Queue string
}

// NewClient connects to RabbitMQ, opens a channel and declares the queue.
func NewClient(cfg Config, log *slog.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c, err := newClient(ch, cfg.Queue, log)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	c.conn = conn
	return c, nil
}

// NewClientWithChannel builds a client over an already open channel.
func NewClientWithChannel(ch Channel, queue string, log *slog.Logger) (*Client, error) {
	return newClient(ch, queue, log)
}

func newClient(ch Channel, queue string, log *slog.Logger) (*Client, error) {
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	log.Info("rabbitmq queue declared", "queue", queue)
	return &Client{channel: ch, queue: queue, log: log}, nil
}

// Close closes the channel and the connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PublishStudentEvent sends event to the queue as persistent JSON. An empty
// event ID is filled with a random UUID.
func (c *Client) PublishStudentEvent(ctx context.Context, event models.StudentEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal student event: %w", err)
	}

	err = c.channel.Publish(
		"",      // default exchange
		c.queue, // routing key: the queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    event.ID,
			Type:         event.Type,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	c.log.Debug("student event published", "type", event.Type, "student_id", event.StudentID)
	return nil
}

// ConsumeStudentEvents delivers decoded events to handler until ctx is done
// or the delivery channel closes. Messages are acked when handler returns
// nil, nacked with requeue when it fails, and rejected without requeue when
// the body cannot be decoded.
func (c *Client) ConsumeStudentEvents(ctx context.Context, handler func(context.Context, models.StudentEvent) error) error {
	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				c.handle(ctx, msg, handler)
			}
		}
	}()
	return nil
}

func (c *Client) handle(ctx context.Context, msg amqp.Delivery, handler func(context.Context, models.StudentEvent) error) {
	var event models.StudentEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.log.Warn("dropping undecodable student event", "tag", msg.DeliveryTag, "err", err)
		if err := msg.Reject(false); err != nil {
			c.log.Error("failed to reject message", "tag", msg.DeliveryTag, "err", err)
		}
		return
	}
	if err := handler(ctx, event); err != nil {
		c.log.Warn("student event handler failed", "tag", msg.DeliveryTag, "type", event.Type, "err", err)
		if err := msg.Nack(false, true); err != nil {
			c.log.Error("failed to nack message", "tag", msg.DeliveryTag, "err", err)
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		c.log.Error("failed to ack message", "tag", msg.DeliveryTag, "err", err)
	}
}

// LogStudentEvent is a consumer handler that records each event in the log.
func LogStudentEvent(log *slog.Logger) func(context.Context, models.StudentEvent) error {
	return func(_ context.Context, event models.StudentEvent) error {
		log.Info("student event received", "id", event.ID, "type", event.Type, "student_id", event.StudentID)
		return nil
	}
}
