package taskqueue

import (
	"context"

	"go.uber.org/fx"
)

// Module wires the redis backed queue. Producers depend on Queue.
var Module = fx.Module("taskqueue",
	fx.Provide(ConfigFromApp),
	fx.Provide(NewRedisClient),
	fx.Provide(provideRedisQueue),
	fx.Provide(
		func(q *RedisQueue) Queue { return q },
		func(q *RedisQueue) Receiver { return q },
		func(q *RedisQueue, cfg Config) *Locker { return NewLocker(q.store, cfg) },
	),
)

// WorkerModule starts the consumer loop for every registered task handler.
var WorkerModule = fx.Module("taskqueue.worker",
	fx.Provide(NewWorker),
	fx.Invoke(runWorker),
)

// AsHandler annotates a constructor so its result joins the task_handlers group.
func AsHandler(f any) any {
	return fx.Annotate(f, fx.As(new(Handler)), fx.ResultTags(`group:"task_handlers"`))
}

func runWorker(lc fx.Lifecycle, worker *Worker) {
	var cancel context.CancelFunc
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			go func() {
				defer close(done)
				_ = worker.RunForever(ctx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
			}
			return nil
		},
	})
}
