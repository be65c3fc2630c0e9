// Package broker publishes taught-lesson facts to RabbitMQ so downstream
// consumers (reporting, payroll) can follow the ledger without polling.
// Publishing is best effort: callers log failures and carry on.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
)

// Publisher sends LessonFacts somewhere after they are durably written.
type Publisher interface {
	PublishTaught(ctx context.Context, facts []model.LessonFact) error
}

// Noop discards everything. Used when no broker URL is configured.
type Noop struct{}

func (Noop) PublishTaught(context.Context, []model.LessonFact) error { return nil }

// TaughtMessage is the JSON body of one queue message.
type TaughtMessage struct {
	FactID    string  `json:"factId"`
	EventID   string  `json:"eventId"`
	LessonID  string  `json:"lessonId"`
	DanceID   *string `json:"danceId,omitempty"`
	DanceName *string `json:"danceName,omitempty"`
	Venue     string  `json:"venue"`
	TaughtAt  string  `json:"date"`
}

// AMQPPublisher dials the broker per call. Commits are rare enough that a
// long-lived connection with reconnect handling is not worth carrying.
type AMQPPublisher struct {
	url         string
	queue       string
	dialTimeout time.Duration
	now         func() time.Time
}

// defaultDialTimeout bounds connect plus handshake. Publishing happens
// inside the commit request, so an unreachable broker must fail fast.
const defaultDialTimeout = 2 * time.Second

// NewAMQPPublisher constructs an AMQPPublisher for a durable queue.
func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	return &AMQPPublisher{url: url, queue: queue, dialTimeout: defaultDialTimeout, now: time.Now}
}

// dial connects with a timeout no longer than what is left on ctx.
func (p *AMQPPublisher) dial(ctx context.Context) (*amqp.Connection, error) {
	timeout := p.dialTimeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return amqp.DialConfig(p.url, amqp.Config{Locale: "en_US", Dial: amqp.DefaultDial(timeout)})
}

// PublishTaught sends one persistent message per fact to the default
// exchange with the queue name as routing key.
func (p *AMQPPublisher) PublishTaught(ctx context.Context, facts []model.LessonFact) error {
	if len(facts) == 0 {
		return nil
	}
	conn, err := p.dial(ctx)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("amqp declare %s: %w", p.queue, err)
	}

	for _, f := range facts {
		msg, err := p.encode(f)
		if err != nil {
			return err
		}
		if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
			return fmt.Errorf("amqp publish fact %s: %w", f.ID, err)
		}
	}
	return nil
}

func (p *AMQPPublisher) encode(f model.LessonFact) (amqp.Publishing, error) {
	body, err := json.Marshal(TaughtMessage{
		FactID:    f.ID,
		EventID:   f.EventID,
		LessonID:  f.LessonID,
		DanceID:   f.DanceID,
		DanceName: f.DanceName,
		Venue:     f.Venue,
		TaughtAt:  f.TaughtAt,
	})
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode fact %s: %w", f.ID, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    f.ID,
		Timestamp:    p.now().UTC(),
		Type:         "lesson.taught",
		Body:         body,
	}, nil
}
