package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/smallbiznis/catalog/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, req ExportRequest) (*ExportFile, error)
	Import(ctx context.Context, r io.Reader) (*ImportResult, error)
}

type ListRequest struct {
	Search string `form:"search"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

type ListResponse struct {
	Data []Response `json:"data"`
	pagination.PageInfo
}

// FileUpload is an image supplied with a create or update request.
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

type CreateRequest struct {
	Name        string  `json:"name"`
	SKU         string  `json:"sku"`
	Price       string  `json:"price"`
	Description *string `json:"description"`
	Categories  string  `json:"categories"`
	Image       *FileUpload
}

// UpdateRequest changes only the non-nil fields. An empty Description clears it.
type UpdateRequest struct {
	Name        *string `json:"name"`
	SKU         *string `json:"sku"`
	Price       *string `json:"price"`
	Description *string `json:"description"`
	Categories  *string `json:"categories"`
	Image       *FileUpload
}

type Response struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	SKU         string    `json:"sku"`
	Price       string    `json:"price"`
	Description *string   `json:"description"`
	Categories  string    `json:"categories"`
	Image       *string   `json:"image"`
	ImageURL    *string   `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

type ExportRequest struct {
	Search string
	Format ExportFormat
}

type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

type ImportRowError struct {
	Row    int      `json:"row"`
	SKU    string   `json:"sku,omitempty"`
	Errors []string `json:"errors"`
}

type ImportResult struct {
	Imported int              `json:"imported"`
	Errors   []ImportRowError `json:"errors"`
}

var (
	ErrNotFound          = errors.New("not_found")
	ErrInvalidFormat     = errors.New("invalid_export_format")
	ErrInvalidImportFile = errors.New("invalid_import_file")
)
