package domain

import (
	"context"
	"errors"
)

type SyncResult string

const (
	SyncSuccess         SyncResult = "SUCCESS"
	SyncSkippedMatching SyncResult = "SKIPPED_MATCHING"
	SyncFailed          SyncResult = "FAILED"
)

// Syncer pulls an offering from the upstream catalog into the local store.
// Failures are reported as SyncFailed, never as an error.
type Syncer interface {
	SyncOffering(ctx context.Context, sku string) SyncResult
}

// CapacityEnqueuer schedules capacity reconciliation for every subscription
// of a SKU without doing any work inline.
type CapacityEnqueuer interface {
	EnqueueReconcileCapacityForOffering(ctx context.Context, sku string) error
}

var (
	ErrInvalidSKU = errors.New("invalid_sku")
	ErrNotFound   = errors.New("offering_not_found")
)
