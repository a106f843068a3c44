package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	subscriptiondomain "github.com/smallbiznis/tally/internal/subscription/domain"
	"github.com/spf13/cobra"
)

func newSyncOrgCmd() *cobra.Command {
	var paygOnly bool
	cmd := &cobra.Command{
		Use:   "sync-org <org-id>",
		Short: "Reconcile one organization's subscriptions with the upstream service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc subscriptiondomain.Service
			stop, err := oneShot(cmd.Context(), nil, &svc)
			if err != nil {
				return err
			}
			defer stop()

			report, err := svc.ForceSyncSubscriptionsForOrg(cmd.Context(), args[0], paygOnly)
			printReport(cmd, report)
			return err
		},
	}
	cmd.Flags().BoolVar(&paygOnly, "payg-only", false, "Only sync marketplace billed subscriptions")
	return cmd
}

func printReport(cmd *cobra.Command, report subscriptiondomain.ReconcileReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "org %s: fetched=%d skipped=%d deleted=%d\n", report.OrgID, report.Fetched, report.Skipped, report.Deleted)
	outcomes := make([]string, 0, len(report.Outcomes))
	for outcome := range report.Outcomes {
		outcomes = append(outcomes, string(outcome))
	}
	sort.Strings(outcomes)
	for _, outcome := range outcomes {
		fmt.Fprintf(out, "  %s=%d\n", outcome, report.Outcomes[subscriptiondomain.SyncOutcome(outcome)])
	}
}

func newSyncAllOrgsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-all-orgs",
		Short: "Queue a sync task for every sync enabled organization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc subscriptiondomain.Service
			stop, err := oneShot(cmd.Context(), nil, &svc)
			if err != nil {
				return err
			}
			defer stop()

			sent, err := svc.SyncAllSubscriptionsForAllOrgs(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %d organizations\n", sent)
			return nil
		},
	}
}

func newSyncSubscriptionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-subscription <subscription-id>",
		Short: "Fetch one subscription upstream and sync it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc subscriptiondomain.Service
			stop, err := oneShot(cmd.Context(), nil, &svc)
			if err != nil {
				return err
			}
			defer stop()

			outcome, err := svc.SyncSubscriptionByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "subscription %s: %s\n", args[0], outcome)
			return nil
		},
	}
}

func newTerminateCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "terminate <subscription-id>",
		Short: "End the active version of a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when := time.Now().UTC()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at: %w", err)
				}
				when = parsed
			}

			var svc subscriptiondomain.Service
			stop, err := oneShot(cmd.Context(), nil, &svc)
			if err != nil {
				return err
			}
			defer stop()

			msg, err := svc.TerminateSubscription(cmd.Context(), args[0], when)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Termination time in RFC3339, defaults to now")
	return cmd
}

func newImportSubscriptionsCmd() *cobra.Command {
	var reconcile bool
	cmd := &cobra.Command{
		Use:   "import-subscriptions <file.json>",
		Short: "Store a JSON array of upstream subscriptions as new rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			var svc subscriptiondomain.Service
			stop, err := oneShot(cmd.Context(), nil, &svc)
			if err != nil {
				return err
			}
			defer stop()

			saved, err := svc.SaveSubscriptions(cmd.Context(), payload, reconcile)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d subscriptions\n", len(saved))
			return err
		},
	}
	cmd.Flags().BoolVar(&reconcile, "reconcile-capacity", false, "Reconcile capacity of each imported subscription")
	return cmd
}
