package repository

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"github.com/smallbiznis/tally/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultBatchSize = 500

type store[T any] struct {
	db *gorm.DB
}

func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return &store[T]{db: db}
}

// FindOne returns nil without error when nothing matches.
func (r *store[T]) FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error) {
	var result T
	stmt := r.db.WithContext(ctx).Where(query)
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}
	if err := stmt.First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *store[T]) Exists(ctx context.Context, query *T) (bool, error) {
	count, err := r.Count(ctx, query)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *store[T]) Count(ctx context.Context, query *T) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(new(T)).Where(query).Count(&count).Error
	return count, err
}

func (r *store[T]) Upsert(ctx context.Context, resource *T, columns ...string) error {
	conflict := clause.OnConflict{UpdateAll: true}
	conflict.Columns = lo.Map(columns, func(name string, _ int) clause.Column {
		return clause.Column{Name: name}
	})
	return r.db.WithContext(ctx).Clauses(conflict).Create(resource).Error
}

// BatchCreate inserts resources in chunks of batchSize, or defaultBatchSize
// when batchSize is not positive.
func (r *store[T]) BatchCreate(ctx context.Context, resources []T, batchSize int) error {
	if len(resources) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return r.db.WithContext(ctx).CreateInBatches(resources, batchSize).Error
}

func (r *store[T]) DeleteWhere(ctx context.Context, query string, args ...any) (int64, error) {
	res := r.db.WithContext(ctx).Where(query, args...).Delete(new(T))
	return res.RowsAffected, res.Error
}
