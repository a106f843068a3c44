package taskqueue

import (
	"context"
	"sync"

	"github.com/smallbiznis/tally/internal/clock"
)

// MemoryQueue keeps sent tasks in process.
type MemoryQueue struct {
	mu    sync.Mutex
	clock clock.Clock
	tasks []Envelope
}

func NewMemoryQueue(clk clock.Clock) *MemoryQueue {
	if clk == nil {
		clk = clock.New()
	}
	return &MemoryQueue{clock: clk}
}

func (q *MemoryQueue) Send(_ context.Context, topic string, payload any) error {
	env, err := newEnvelope(topic, payload, q.clock.Now())
	if err != nil {
		return err
	}
	q.mu.Lock()
	q.tasks = append(q.tasks, env)
	q.mu.Unlock()
	return nil
}

// Sent returns the tasks published on topic, oldest first.
func (q *MemoryQueue) Sent(topic string) []Envelope {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []Envelope
	for _, env := range q.tasks {
		if env.Topic == topic {
			out = append(out, env)
		}
	}
	return out
}

// Drain removes and returns every queued task.
func (q *MemoryQueue) Drain() []Envelope {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.tasks
	q.tasks = nil
	return out
}

// Receive pops the oldest task of any of topics without blocking.
func (q *MemoryQueue) Receive(_ context.Context, topics []string) (Envelope, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, env := range q.tasks {
		for _, topic := range topics {
			if env.Topic != topic {
				continue
			}
			q.tasks = append(q.tasks[:i:i], q.tasks[i+1:]...)
			return env, true, nil
		}
	}
	return Envelope{}, false, nil
}
