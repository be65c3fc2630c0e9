package broker

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
)

func TestAMQPPublisher_Encode(t *testing.T) {
	p := NewAMQPPublisher("amqp://unused", "lesson.taught")
	fixed := time.Date(2024, 1, 3, 1, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	name := "Waltz"
	msg, err := p.encode(model.LessonFact{
		ID:        "f1",
		EventID:   "ev1",
		LessonID:  "s1",
		DanceName: &name,
		Venue:     "Hall",
		TaughtAt:  "2024-01-02T18:00:00-07:00",
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "f1", msg.MessageId)
	assert.Equal(t, fixed, msg.Timestamp)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, "Waltz", body["danceName"])
	assert.Equal(t, "2024-01-02T18:00:00-07:00", body["date"])
	assert.NotContains(t, body, "danceId")
}

func TestAMQPPublisher_NothingToSend(t *testing.T) {
	// No dial happens for an empty batch, so an unreachable URL is fine.
	p := NewAMQPPublisher("amqp://127.0.0.1:1/", "q")
	assert.NoError(t, p.PublishTaught(context.Background(), nil))
}

// A listener that accepts but never speaks AMQP stalls the handshake.
func silentListener(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		var held []net.Conn
		for {
			conn, err := ln.Accept()
			if err != nil {
				for _, c := range held {
					_ = c.Close()
				}
				return
			}
			held = append(held, conn)
		}
	}()
	return ln.Addr().String()
}

func TestAMQPPublisher_DialIsBounded(t *testing.T) {
	p := NewAMQPPublisher("amqp://guest:guest@"+silentListener(t)+"/", "q")
	p.dialTimeout = 100 * time.Millisecond

	start := time.Now()
	err := p.PublishTaught(context.Background(), []model.LessonFact{{ID: "f"}})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestAMQPPublisher_DialHonoursContextDeadline(t *testing.T) {
	p := NewAMQPPublisher("amqp://guest:guest@"+silentListener(t)+"/", "q")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := p.PublishTaught(ctx, []model.LessonFact{{ID: "f"}})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), defaultDialTimeout)
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.PublishTaught(context.Background(), []model.LessonFact{{ID: "f"}}))
}
