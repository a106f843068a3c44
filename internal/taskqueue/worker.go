package taskqueue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/smallbiznis/tally/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrUnknownTopic = errors.New("task_topic_unknown")

// Receiver yields queued tasks. RedisQueue implements it.
type Receiver interface {
	Receive(ctx context.Context, topics []string) (Envelope, bool, error)
}

type WorkerParams struct {
	fx.In

	Log      *zap.Logger
	Receiver Receiver
	Handlers []Handler        `group:"task_handlers"`
	Config   Config           `optional:"true"`
	Metrics  *metrics.Metrics `optional:"true"`
}

type Worker struct {
	log      *zap.Logger
	receiver Receiver
	handlers map[string]Handler
	cfg      Config
	metrics  *metrics.Metrics
}

func NewWorker(p WorkerParams) (*Worker, error) {
	handlers := make(map[string]Handler, len(p.Handlers))
	for _, h := range p.Handlers {
		if h == nil {
			continue
		}
		topic := h.Topic()
		if topic == "" {
			return nil, ErrEmptyTopic
		}
		if _, dup := handlers[topic]; dup {
			return nil, fmt.Errorf("duplicate task handler for topic %q", topic)
		}
		handlers[topic] = h
	}
	return &Worker{
		log:      p.Log.Named("taskqueue.worker"),
		receiver: p.Receiver,
		handlers: handlers,
		cfg:      p.Config.withDefaults(),
		metrics:  p.Metrics,
	}, nil
}

// Topics lists the handled topics in a stable order.
func (w *Worker) Topics() []string {
	topics := make([]string, 0, len(w.handlers))
	for topic := range w.handlers {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// RunForever consumes tasks with the configured concurrency until ctx ends.
func (w *Worker) RunForever(ctx context.Context) error {
	topics := w.Topics()
	if len(topics) == 0 {
		w.log.Warn("no task handlers registered")
		<-ctx.Done()
		return nil
	}

	w.log.Info("task worker started", zap.Strings("topics", topics), zap.Int("concurrency", w.cfg.Concurrency))
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < w.cfg.Concurrency; i++ {
		g.Go(func() error {
			w.loop(gctx, topics)
			return nil
		})
	}
	return g.Wait()
}

func (w *Worker) loop(ctx context.Context, topics []string) {
	for {
		if ctx.Err() != nil {
			return
		}
		if _, err := w.RunOnce(ctx, topics); err != nil && ctx.Err() == nil {
			w.log.Warn("receive task failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}
}

// RunOnce receives at most one task and dispatches it. Handler failures are
// logged and counted, not returned.
func (w *Worker) RunOnce(ctx context.Context, topics []string) (bool, error) {
	env, ok, err := w.receiver.Receive(ctx, topics)
	if err != nil || !ok {
		return false, err
	}
	if err := w.Dispatch(ctx, env); err != nil {
		w.log.Error("task failed",
			zap.String("task_id", env.ID),
			zap.String("topic", env.Topic),
			zap.Error(err),
		)
	}
	return true, nil
}

// Dispatch runs the handler registered for the envelope's topic.
func (w *Worker) Dispatch(ctx context.Context, env Envelope) error {
	h, ok := w.handlers[env.Topic]
	if !ok {
		w.metrics.IncTaskError(env.Topic, ErrUnknownTopic)
		return ErrUnknownTopic
	}

	ctx, cancel := context.WithTimeout(ctx, w.cfg.HandlerTimeout)
	defer cancel()

	started := time.Now()
	err := h.Handle(ctx, env.Payload)
	w.metrics.ObserveTaskDuration(env.Topic, time.Since(started))
	if err != nil {
		w.metrics.IncTaskError(env.Topic, err)
		return err
	}
	return nil
}
