package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyTopic    = errors.New("task_topic_empty")
	ErrInvalidTask   = errors.New("task_envelope_invalid")
	ErrNotConfigured = errors.New("task_queue_not_configured")
)

// Queue publishes tasks for asynchronous handling.
type Queue interface {
	Send(ctx context.Context, topic string, payload any) error
}

// Handler consumes tasks of a single topic.
type Handler interface {
	Topic() string
	Handle(ctx context.Context, payload []byte) error
}

// Envelope is the stored form of a queued task.
type Envelope struct {
	ID         string          `json:"id"`
	Topic      string          `json:"topic"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

func newEnvelope(topic string, payload any, now time.Time) (Envelope, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Envelope{}, ErrEmptyTopic
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:         uuid.NewString(),
		Topic:      topic,
		Payload:    raw,
		EnqueuedAt: now.UTC(),
	}, nil
}

func decodeEnvelope(raw string) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return Envelope{}, errors.Join(ErrInvalidTask, err)
	}
	if env.Topic == "" {
		return Envelope{}, ErrInvalidTask
	}
	return env, nil
}
