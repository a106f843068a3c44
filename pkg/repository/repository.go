package repository

import (
	"context"

	"github.com/smallbiznis/tally/pkg/db/option"
)

// Repository is a thin generic store over a single gorm model.
type Repository[T any] interface {
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Exists(ctx context.Context, query *T) (bool, error)
	Count(ctx context.Context, query *T) (int64, error)
	// Upsert inserts resource or overwrites the row conflicting on columns.
	Upsert(ctx context.Context, resource *T, columns ...string) error
	BatchCreate(ctx context.Context, resources []T, batchSize int) error
	DeleteWhere(ctx context.Context, query string, args ...any) (int64, error)
}
