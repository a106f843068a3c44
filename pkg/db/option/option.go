// Package option carries reusable query modifiers for gorm statements.
package option

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type QueryOptionFunc func(db *gorm.DB) *gorm.DB

func (f QueryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

// ApplyOffsetLimit pages with offset and limit. A non-positive limit is ignored.
func ApplyOffsetLimit(offset, limit int) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if offset > 0 {
			db = db.Offset(offset)
		}
		if limit > 0 {
			db = db.Limit(limit)
		}
		return db
	})
}

// WithSortBy orders by a column. Direction defaults to ascending.
func WithSortBy(column, direction string) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		column = strings.TrimSpace(column)
		if column == "" {
			return db
		}
		dir := "ASC"
		if strings.EqualFold(strings.TrimSpace(direction), "desc") {
			dir = "DESC"
		}
		return db.Order(fmt.Sprintf("%s %s", column, dir))
	})
}

// WithPreload eager loads an association.
func WithPreload(association string) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Preload(association)
	})
}

// WithSelect narrows the loaded columns.
func WithSelect(columns ...string) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if len(columns) == 0 {
			return db
		}
		return db.Select(columns)
	})
}

// Apply runs opts over db in order.
func Apply(db *gorm.DB, opts ...QueryOption) *gorm.DB {
	for _, opt := range opts {
		db = opt.Apply(db)
	}
	return db
}

// NextPage reports whether more rows follow. Callers fetch Limit+1 rows and
// trim the extra one.
func NextPage[T any](rows []T, limit int) ([]T, bool) {
	if limit <= 0 || len(rows) <= limit {
		return rows, false
	}
	return rows[:limit], true
}
