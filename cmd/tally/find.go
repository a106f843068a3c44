package main

import (
	"fmt"
	"strings"
	"time"

	subscriptiondomain "github.com/smallbiznis/tally/internal/subscription/domain"
	subscriptionservice "github.com/smallbiznis/tally/internal/subscription/service"
	"github.com/spf13/cobra"
)

const anyValue = "_ANY"

type usageKeyFlags struct {
	serviceLevel     string
	usage            string
	billingProvider  string
	billingAccountID string
}

func matchFlag(v string) subscriptiondomain.Match[string] {
	if v == anyValue {
		return subscriptiondomain.Any[string]()
	}
	return subscriptiondomain.Exactly(v)
}

func (f usageKeyFlags) key(tag string) subscriptiondomain.UsageKey {
	provider := subscriptiondomain.Any[subscriptiondomain.BillingProvider]()
	if f.billingProvider != anyValue {
		provider = subscriptiondomain.Exactly(subscriptiondomain.BillingProvider(f.billingProvider))
	}
	return subscriptiondomain.UsageKey{
		ProductTag:       tag,
		ServiceLevel:     matchFlag(f.serviceLevel),
		Usage:            matchFlag(f.usage),
		BillingProvider:  provider,
		BillingAccountID: matchFlag(f.billingAccountID),
	}
}

func newFindSubscriptionsCmd() *cobra.Command {
	var (
		flags      usageKeyFlags
		account    string
		tags       []string
		start, end string
		paygOnly   bool
	)
	cmd := &cobra.Command{
		Use:   "find-subscriptions [org-id]",
		Short: "List subscriptions covering product tags, syncing the org when none are stored",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var orgID string
			if len(args) == 1 {
				orgID = args[0]
			}
			if orgID == "" && strings.TrimSpace(account) == "" {
				return fmt.Errorf("an org id or --account is required")
			}
			now := time.Now().UTC()
			rangeStart, err := parseTimeFlag("start", start, now.AddDate(0, -1, 0))
			if err != nil {
				return err
			}
			rangeEnd, err := parseTimeFlag("end", end, now)
			if err != nil {
				return err
			}

			var svc subscriptiondomain.Service
			stop, err := oneShot(cmd.Context(), nil, &svc)
			if err != nil {
				return err
			}
			defer stop()

			ctx := subscriptionservice.WithSyncMemo(cmd.Context())
			out := cmd.OutOrStdout()
			for _, tag := range tags {
				subs, err := svc.FindSubscriptionsAndSyncIfNeeded(ctx, account, orgID, flags.key(tag), rangeStart, rangeEnd, paygOnly)
				if err != nil {
					return fmt.Errorf("tag %s: %w", tag, err)
				}
				for _, sub := range subs {
					fmt.Fprintf(out, "%s\t%s\t%s\tqty=%d\tstart=%s\n",
						tag, sub.SubscriptionID, sub.SKU, sub.Quantity, sub.StartDate.Format(time.RFC3339))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "Account number")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Product tag, repeatable")
	cmd.Flags().StringVar(&flags.serviceLevel, "service-level", "", "Service level")
	cmd.Flags().StringVar(&flags.usage, "usage", "", "Usage")
	cmd.Flags().StringVar(&flags.billingProvider, "billing-provider", anyValue, "Billing provider or "+anyValue)
	cmd.Flags().StringVar(&flags.billingAccountID, "billing-account", anyValue, "Billing account id or "+anyValue)
	cmd.Flags().StringVar(&start, "start", "", "Range start in RFC3339, defaults to a month ago")
	cmd.Flags().StringVar(&end, "end", "", "Range end in RFC3339, defaults to now")
	cmd.Flags().BoolVar(&paygOnly, "payg-only", false, "Only sync marketplace billed subscriptions")
	_ = cmd.MarkFlagRequired("tag")
	return cmd
}
