package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/smallbiznis/catalog/internal/product/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_CSV(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "Laptop", "LP-1", "5000")
	f.create(t, "Mouse", "MS-1", "25")

	file, err := f.svc.Export(context.Background(), domain.ExportRequest{Search: "lp-"})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))

	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,name,sku,price,description,categories,image_url,created_at", lines[0])
	assert.Contains(t, lines[1], "Laptop,LP-1,5000.00")
}

func TestExport_PDF(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "Laptop", "LP-1", "5000")

	file, err := f.svc.Export(context.Background(), domain.ExportRequest{Format: "PDF"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))
}

func TestExport_InvalidFormat(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Export(context.Background(), domain.ExportRequest{Format: "xlsx"})
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
}

func TestImport(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "Existing", "EX-1", "10")

	csv := strings.Join([]string{
		"name,sku,price,description,categories",
		"Desk,DSK-1,700,Oak desk,furniture",
		",NO-NAME,10,,misc",
		"Chair,EX-1,90,,furniture",
		"Lamp,LMP-1,abc,,lighting",
		"Stool,DSK-1,20,,furniture",
		"Shelf,SHF-1,120.5,,furniture",
	}, "\n")

	result, err := f.svc.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	require.Len(t, result.Errors, 4)

	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, []string{"The name field is required."}, result.Errors[0].Errors)
	assert.Equal(t, 4, result.Errors[1].Row)
	assert.Equal(t, []string{"The sku has already been taken."}, result.Errors[1].Errors)
	assert.Equal(t, 5, result.Errors[2].Row)
	assert.Equal(t, 6, result.Errors[3].Row)
	assert.Equal(t, []string{"The sku duplicates row 2."}, result.Errors[3].Errors)

	list, err := f.svc.List(context.Background(), domain.ListRequest{Search: "furniture"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)
}

func TestImport_EmptyFile(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Import(context.Background(), strings.NewReader(""))
	assert.ErrorIs(t, err, domain.ErrInvalidImportFile)
}
