package main

import (
	"fmt"

	capacitydomain "github.com/smallbiznis/tally/internal/capacity/domain"
	"github.com/spf13/cobra"
)

func newReconcileOfferingCmd() *cobra.Command {
	var (
		enqueue bool
		offset  int
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "reconcile-offering <sku>",
		Short: "Reconcile capacity of every subscription of an offering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc capacitydomain.Service
			stop, err := oneShot(cmd.Context(), nil, &svc)
			if err != nil {
				return err
			}
			defer stop()

			if enqueue {
				if err := svc.EnqueueReconcileCapacityForOffering(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "queued capacity reconciliation for %s\n", args[0])
				return nil
			}

			page, err := svc.ReconcileCapacityForOffering(cmd.Context(), args[0], offset, limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sku %s: processed=%d updated=%d\n", page.SKU, page.Processed, page.Updated)
			if page.NextOffset != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "next page queued at offset %d\n", *page.NextOffset)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "Queue the first page instead of running it inline")
	cmd.Flags().IntVar(&offset, "offset", 0, "First row of the page")
	cmd.Flags().IntVar(&limit, "limit", capacitydomain.DefaultPageSize, "Rows per page")
	return cmd
}
