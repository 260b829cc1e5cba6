package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/smallbiznis/catalog/internal/product/domain"
	"github.com/smallbiznis/catalog/internal/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ImportRow is one CSV line of a product import. The header row is required.
type ImportRow struct {
	Name        string `csv:"name"`
	SKU         string `csv:"sku"`
	Price       string `csv:"price"`
	Description string `csv:"description"`
	Categories  string `csv:"categories"`
}

// Import inserts every valid row in one transaction and reports the rest.
// Row numbers are 1-based file lines, so the first data row is row 2.
func (s *Service) Import(ctx context.Context, r io.Reader) (*domain.ImportResult, error) {
	var rows []*ImportRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImportFile, err)
	}

	result := &domain.ImportResult{Errors: []domain.ImportRowError{}}
	seen := make(map[string]int, len(rows))
	products := make([]*domain.Product, 0, len(rows))

	for i, row := range rows {
		line := i + 2
		product, errs := s.importRow(ctx, row)
		if errs == nil && product != nil {
			if first, dup := seen[product.SKU]; dup {
				errs = []string{fmt.Sprintf("The sku duplicates row %d.", first)}
			} else {
				seen[product.SKU] = line
			}
		}
		if len(errs) > 0 {
			result.Errors = append(result.Errors, domain.ImportRowError{
				Row:    line,
				SKU:    strings.TrimSpace(row.SKU),
				Errors: errs,
			})
			continue
		}
		products = append(products, product)
	}

	if len(products) > 0 {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.repo.BatchCreate(ctx, tx, products)
		})
		if err != nil {
			s.metrics.RecordProductWrite(ctx, "import", "error")
			return nil, fmt.Errorf("import products: %w", err)
		}
		s.invalidate(ctx)
	}

	result.Imported = len(products)
	s.metrics.RecordProductWrite(ctx, "import", "success")
	s.log.Info("products imported", zap.Int("imported", result.Imported), zap.Int("rejected", len(result.Errors)))
	return result, nil
}

func (s *Service) importRow(ctx context.Context, row *ImportRow) (*domain.Product, []string) {
	input := productInput{
		Name:       strings.TrimSpace(row.Name),
		SKU:        strings.TrimSpace(row.SKU),
		Price:      strings.TrimSpace(row.Price),
		Categories: strings.TrimSpace(row.Categories),
	}

	errs := &validation.Errors{}
	if err := mergeErrors(errs, s.validator.Struct(input)); err != nil {
		return nil, []string{err.Error()}
	}
	price := decimalZero
	if !errs.Has("price") {
		price = parsePrice(input.Price, errs)
	}
	if !errs.Has("sku") {
		taken, err := s.repo.SKUTaken(ctx, s.db, input.SKU, 0)
		if err != nil {
			return nil, []string{err.Error()}
		}
		if taken {
			skuTakenError(errs)
		}
	}
	if len(errs.Fields) > 0 {
		return nil, messages(errs)
	}

	now := s.clock.Now()
	description := row.Description
	return &domain.Product{
		ID:          s.genID.Generate().Int64(),
		Name:        input.Name,
		SKU:         input.SKU,
		Price:       price,
		Description: optionalText(&description),
		Categories:  input.Categories,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func messages(errs *validation.Errors) []string {
	out := make([]string, 0, len(errs.Fields))
	for _, f := range errs.Fields {
		out = append(out, f.Message)
	}
	return out
}
