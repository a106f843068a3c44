package retention

import (
	"context"

	"go.uber.org/fx"
)

// Module provides the policy only. WorkerModule also runs the purge loop.
var Module = fx.Module("retention",
	fx.Provide(PolicyFromApp),
)

var WorkerModule = fx.Module("retention.worker",
	fx.Provide(DefaultConfig),
	fx.Provide(NewWorker),
	fx.Invoke(runWorker),
)

func runWorker(lc fx.Lifecycle, worker *Worker) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go worker.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
