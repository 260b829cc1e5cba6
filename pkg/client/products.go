package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"github.com/smallbiznis/catalog/pkg/db/pagination"
)

type Product struct {
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

type ListParams struct {
	Search string
	Page   int
	Limit  int
}

type ListResult struct {
	Data []Product `json:"data"`
	pagination.PageInfo
}

// Image is an optional file attached to a create or update call.
// An empty ContentType is derived from the filename extension.
type Image struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

type ProductInput struct {
	Name        string
	SKU         string
	Price       string
	Description *string
	Categories  string
}

// ProductPatch sends only the non-nil fields.
type ProductPatch struct {
	Name        *string
	SKU         *string
	Price       *string
	Description *string
	Categories  *string
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

type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

type productEnvelope struct {
	Message string  `json:"message"`
	Data    Product `json:"data"`
}

func (c *Client) ListProducts(ctx context.Context, p ListParams) (*ListResult, error) {
	q := url.Values{}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}

	var out ListResult
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products", query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	var out Product
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products/" + url.PathEscape(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProduct(ctx context.Context, in ProductInput, img *Image) (*Product, error) {
	fields := []formField{
		{"name", in.Name},
		{"sku", in.SKU},
		{"price", in.Price},
		{"categories", in.Categories},
	}
	if in.Description != nil {
		fields = append(fields, formField{"description", *in.Description})
	}
	return c.sendProductForm(ctx, "/products", fields, img)
}

func (c *Client) UpdateProduct(ctx context.Context, id string, patch ProductPatch, img *Image) (*Product, error) {
	var fields []formField
	add := func(name string, v *string) {
		if v != nil {
			fields = append(fields, formField{name, *v})
		}
	}
	add("name", patch.Name)
	add("sku", patch.SKU)
	add("price", patch.Price)
	add("description", patch.Description)
	add("categories", patch.Categories)
	return c.sendProductForm(ctx, "/products/"+url.PathEscape(id), fields, img)
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/products/" + url.PathEscape(id)}, nil)
}

// ExportProducts downloads the listing matching search as csv or pdf.
func (c *Client) ExportProducts(ctx context.Context, search, format string) (*ExportFile, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	if format != "" {
		q.Set("format", format)
	}

	resp, err := c.send(ctx, request{method: http.MethodGet, path: "/products/export", query: q})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	file := &ExportFile{ContentType: resp.Header.Get("Content-Type"), Body: body}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		file.Filename = params["filename"]
	}
	return file, nil
}

func (c *Client) ImportProducts(ctx context.Context, filename string, r io.Reader) (*ImportResult, error) {
	body, contentType, err := buildForm(nil, "file", &Image{Filename: filename, Content: r})
	if err != nil {
		return nil, err
	}
	var out ImportResult
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/products/import",
		body:        body,
		contentType: contentType,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type formField struct {
	name  string
	value string
}

func (c *Client) sendProductForm(ctx context.Context, path string, fields []formField, img *Image) (*Product, error) {
	body, contentType, err := buildForm(fields, "image", img)
	if err != nil {
		return nil, err
	}
	var out productEnvelope
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        body,
		contentType: contentType,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func buildForm(fields []formField, fileField string, file *Image) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	if file != nil && file.Content != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, filepath.Base(file.Filename)))
		h.Set("Content-Type", partContentType(file))
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, "", fmt.Errorf("copy %s: %w", fileField, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func partContentType(file *Image) string {
	if file.ContentType != "" {
		return file.ContentType
	}
	if ct := mime.TypeByExtension(filepath.Ext(file.Filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
