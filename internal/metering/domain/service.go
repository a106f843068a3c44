package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// TopicMetering carries MeteringTask payloads.
const TopicMetering = "metering"

type MeteringTask struct {
	AccountID  string    `json:"accountId"`
	MetricKind string    `json:"metricKind"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

type QueryStatus string

const (
	StatusSuccess QueryStatus = "success"
	StatusError   QueryStatus = "error"
)

type Sample struct {
	Time  time.Time
	Value float64
}

// Series is one labelled time series of a range query.
type Series struct {
	Labels  map[string]string
	Samples []Sample
}

// QueryResult is a range query response. Error is set when Status is
// StatusError.
type QueryResult struct {
	Status QueryStatus
	Error  string
	Series []Series
}

// Backend runs range queries against the metrics store.
type Backend interface {
	QueryRange(ctx context.Context, query string, start, end time.Time, step time.Duration) (QueryResult, error)
}

type Repository interface {
	SaveAll(ctx context.Context, db *gorm.DB, events []UsageEvent) error
	// DeleteOlderThan removes events with a timestamp before cutoff.
	DeleteOlderThan(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error)
	CountByAccount(ctx context.Context, db *gorm.DB, accountID string) (int64, error)
}

type Service interface {
	// CollectMetrics ingests samples for the hour aligned window and returns
	// how many events were saved.
	CollectMetrics(ctx context.Context, accountID, metricKind string, start, end time.Time) (int, error)
	EnqueueCollectMetrics(ctx context.Context, task MeteringTask) error
}
