package repository

import (
	"context"

	"github.com/smallbiznis/catalog/internal/product/domain"
	"github.com/smallbiznis/catalog/pkg/db/option"
	"github.com/smallbiznis/catalog/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) store(db *gorm.DB) repository.Repository[domain.Product] {
	return repository.ProvideStore[domain.Product](db)
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return r.store(db).Create(ctx, product)
}

func (r *repo) BatchCreate(ctx context.Context, db *gorm.DB, products []*domain.Product) error {
	return r.store(db).BatchCreate(ctx, products)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Product, error) {
	return r.store(db).FindOne(ctx, &domain.Product{ID: id})
}

func (r *repo) Search(ctx context.Context, db *gorm.DB, filter domain.SearchFilter) ([]*domain.Product, int64, error) {
	var opts []option.QueryOption
	if expr := SearchExpression(filter.Term, db.Dialector.Name()); expr != nil {
		opts = append(opts, option.ApplyExpression(expr))
	}

	store := r.store(db)
	total, err := store.Count(ctx, nil, opts...)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*domain.Product{}, 0, nil
	}

	opts = append(opts,
		option.WithSortBy(option.QuerySortBy{TieBreak: "id", TieBreakAsc: true}),
		option.ApplyPagination(filter.Page),
	)
	items, err := store.Find(ctx, nil, opts...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repo) SKUTaken(ctx context.Context, db *gorm.DB, sku string, excludeID int64) (bool, error) {
	opts := []option.QueryOption{}
	if excludeID != 0 {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "id",
			Operator: option.NEQ,
			Value:    excludeID,
		}))
	}
	count, err := r.store(db).Count(ctx, &domain.Product{SKU: sku}, opts...)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, id int64, fields map[string]any) error {
	return r.store(db).Update(ctx, id, fields)
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) error {
	return r.store(db).Delete(ctx, id)
}
