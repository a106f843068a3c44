package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tally",
		Short:         "Subscription capacity reconciliation and usage metering",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newWorkerCmd(),
		newMigrateCmd(),
		newSyncOrgCmd(),
		newSyncAllOrgsCmd(),
		newSyncSubscriptionCmd(),
		newTerminateCmd(),
		newImportSubscriptionsCmd(),
		newFindSubscriptionsCmd(),
		newReconcileOfferingCmd(),
		newCollectMetricsCmd(),
		newPurgeUsageCmd(),
	)
	return root
}
