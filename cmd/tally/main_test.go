package main

import (
	"testing"
	"time"

	"github.com/smallbiznis/tally/internal/config"
	subscriptiondomain "github.com/smallbiznis/tally/internal/subscription/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterSnowflake(t *testing.T) {
	node, err := RegisterSnowflake(config.Config{InstanceID: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(7), node.Generate().Node())

	_, err = RegisterSnowflake(config.Config{InstanceID: 5000})
	assert.Error(t, err)
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"worker", "migrate", "sync-org", "sync-all-orgs", "reconcile-offering", "collect-metrics", "terminate", "purge-usage", "find-subscriptions"} {
		assert.True(t, names[want], want)
	}
}

func TestUsageKeyFlags(t *testing.T) {
	key := usageKeyFlags{
		serviceLevel:     "Premium",
		usage:            anyValue,
		billingProvider:  "aws",
		billingAccountID: anyValue,
	}.key("RHEL")

	assert.Equal(t, "RHEL", key.ProductTag)
	level, ok := key.ServiceLevel.Value()
	assert.True(t, ok)
	assert.Equal(t, "Premium", level)
	assert.True(t, key.Usage.IsAny())
	assert.True(t, key.BillingProvider.Matches(subscriptiondomain.BillingProviderAWS))
	assert.False(t, key.BillingProvider.Matches(subscriptiondomain.BillingProviderAzure))
	assert.True(t, key.BillingAccountID.IsAny())
	assert.ErrorIs(t, key.Validate(), subscriptiondomain.ErrInvalidUsageKey)
}

func TestParseTimeFlag(t *testing.T) {
	def := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := parseTimeFlag("start", "", def)
	require.NoError(t, err)
	assert.Equal(t, def, got)

	got, err = parseTimeFlag("start", "2024-05-15T12:30:00+02:00", def)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC), got)

	_, err = parseTimeFlag("start", "yesterday", def)
	assert.Error(t, err)
}
