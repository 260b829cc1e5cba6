package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/smallbiznis/catalog/internal/product/domain"
	"github.com/smallbiznis/catalog/internal/providers/pdf"
)

type exportRow struct {
	ID          string `csv:"id"`
	Name        string `csv:"name"`
	SKU         string `csv:"sku"`
	Price       string `csv:"price"`
	Description string `csv:"description"`
	Categories  string `csv:"categories"`
	ImageURL    string `csv:"image_url"`
	CreatedAt   string `csv:"created_at"`
}

// Export renders every product matching req.Search, newest first.
func (s *Service) Export(ctx context.Context, req domain.ExportRequest) (*domain.ExportFile, error) {
	format := domain.ExportFormat(strings.ToLower(strings.TrimSpace(string(req.Format))))
	if format == "" {
		format = domain.ExportCSV
	}
	if format != domain.ExportCSV && format != domain.ExportPDF {
		return nil, domain.ErrInvalidFormat
	}

	term := strings.TrimSpace(req.Search)
	items, _, err := s.repo.Search(ctx, s.db, domain.SearchFilter{Term: term})
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}

	stamp := s.clock.Now().Format("20060102-150405")
	switch format {
	case domain.ExportPDF:
		body, err := s.renderPDF(ctx, term, items)
		if err != nil {
			return nil, err
		}
		return &domain.ExportFile{
			Filename:    "products-" + stamp + ".pdf",
			ContentType: "application/pdf",
			Body:        body,
		}, nil
	default:
		body, err := s.renderCSV(items)
		if err != nil {
			return nil, err
		}
		return &domain.ExportFile{
			Filename:    "products-" + stamp + ".csv",
			ContentType: "text/csv",
			Body:        body,
		}, nil
	}
}

func (s *Service) renderCSV(items []*domain.Product) ([]byte, error) {
	rows := make([]*exportRow, 0, len(items))
	for _, item := range items {
		resp := s.toResponse(item)
		row := &exportRow{
			ID:         resp.ID,
			Name:       resp.Name,
			SKU:        resp.SKU,
			Price:      resp.Price,
			Categories: resp.Categories,
			CreatedAt:  resp.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
		if resp.Description != nil {
			row.Description = *resp.Description
		}
		if resp.ImageURL != nil {
			row.ImageURL = *resp.ImageURL
		}
		rows = append(rows, row)
	}

	body, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return body, nil
}

func (s *Service) renderPDF(ctx context.Context, term string, items []*domain.Product) ([]byte, error) {
	list := pdf.PriceList{
		Title:       "Product Price List",
		GeneratedAt: s.clock.Now().Format("2006-01-02 15:04 MST"),
		Filter:      term,
		Items:       make([]pdf.PriceListItem, 0, len(items)),
	}
	for _, item := range items {
		list.Items = append(list.Items, pdf.PriceListItem{
			SKU:        item.SKU,
			Name:       item.Name,
			Categories: item.Categories,
			Price:      item.Price.StringFixed(2),
		})
	}

	r, err := s.pdf.GeneratePriceList(ctx, list)
	if err != nil {
		return nil, fmt.Errorf("render price list: %w", err)
	}
	if r == nil {
		return nil, nil
	}
	return io.ReadAll(r)
}
