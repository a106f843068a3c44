package main

import (
	"fmt"
	"time"

	meteringdomain "github.com/smallbiznis/tally/internal/metering/domain"
	"github.com/smallbiznis/tally/internal/retention"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newCollectMetricsCmd() *cobra.Command {
	var (
		start   string
		end     string
		enqueue bool
	)
	cmd := &cobra.Command{
		Use:   "collect-metrics <account-id> <metric-kind>",
		Short: "Ingest usage events from Prometheus for an hour aligned window",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			endAt, err := parseTimeFlag("end", end, time.Now().UTC())
			if err != nil {
				return err
			}
			startAt, err := parseTimeFlag("start", start, endAt.Add(-time.Hour))
			if err != nil {
				return err
			}

			var svc meteringdomain.Service
			stop, err := oneShot(cmd.Context(), nil, &svc)
			if err != nil {
				return err
			}
			defer stop()

			if enqueue {
				return svc.EnqueueCollectMetrics(cmd.Context(), meteringdomain.MeteringTask{
					AccountID:  args[0],
					MetricKind: args[1],
					Start:      startAt,
					End:        endAt,
				})
			}
			saved, err := svc.CollectMetrics(cmd.Context(), args[0], args[1], startAt, endAt)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d usage events\n", saved)
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "Window start in RFC3339, defaults to one hour before end")
	cmd.Flags().StringVar(&end, "end", "", "Window end in RFC3339, defaults to now")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "Queue a metering task instead of running inline")
	return cmd
}

func parseTimeFlag(name, value string, def time.Time) (time.Time, error) {
	if value == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t.UTC(), nil
}

func newPurgeUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-usage",
		Short: "Delete usage events older than the retention cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var worker *retention.Worker
			stop, err := oneShot(cmd.Context(), []fx.Option{fx.Provide(retention.NewWorker)}, &worker)
			if err != nil {
				return err
			}
			defer stop()

			deleted, err := worker.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d usage events\n", deleted)
			return nil
		},
	}
}
