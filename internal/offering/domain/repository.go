package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// GetBySKU returns nil without error when the SKU is unknown.
	GetBySKU(ctx context.Context, db *gorm.DB, sku string) (*Offering, error)
	ExistsBySKU(ctx context.Context, db *gorm.DB, sku string) (bool, error)
	FindProductNameBySKU(ctx context.Context, db *gorm.DB, sku string) (string, bool, error)
	Save(ctx context.Context, db *gorm.DB, offering *Offering) error
}
