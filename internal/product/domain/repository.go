package domain

import (
	"context"

	"github.com/smallbiznis/catalog/pkg/db/pagination"
	"gorm.io/gorm"
)

// SearchFilter selects products for listing. A zero Page.Limit returns every match.
type SearchFilter struct {
	Term string
	Page pagination.Pagination
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	BatchCreate(ctx context.Context, db *gorm.DB, products []*Product) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Product, error)
	Search(ctx context.Context, db *gorm.DB, filter SearchFilter) ([]*Product, int64, error)
	SKUTaken(ctx context.Context, db *gorm.DB, sku string, excludeID int64) (bool, error)
	Update(ctx context.Context, db *gorm.DB, id int64, fields map[string]any) error
	Delete(ctx context.Context, db *gorm.DB, id int64) error
}
