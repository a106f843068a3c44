package main

import (
	"github.com/smallbiznis/tally/internal/migration"
	"github.com/smallbiznis/tally/internal/observability"
	"github.com/smallbiznis/tally/internal/retention"
	"github.com/smallbiznis/tally/internal/taskqueue"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newWorkerCmd() *cobra.Command {
	var skipMigrations bool
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume sync, capacity and metering tasks and run the retention purge",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := coreModules()
			if !skipMigrations {
				opts = append(opts, migration.Module)
			}
			opts = append(opts,
				taskqueue.WorkerModule,
				retention.WorkerModule,
				observability.MetricsServerModule,
			)
			app := fx.New(opts...)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply database migrations on start")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			stop, err := oneShot(cmd.Context(), []fx.Option{migration.Module})
			if err != nil {
				return err
			}
			stop()
			cmd.Println("migrations applied")
			return nil
		},
	}
}
