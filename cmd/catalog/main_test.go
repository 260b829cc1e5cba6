package main

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	productdomain "github.com/smallbiznis/catalog/internal/product/domain"
	"github.com/smallbiznis/catalog/pkg/client"
	"github.com/smallbiznis/catalog/pkg/client/listview"
	"github.com/smallbiznis/catalog/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingFetcher struct {
	mu    sync.Mutex
	calls []client.ListParams
}

func (f *recordingFetcher) ListProducts(_ context.Context, p client.ListParams) (*client.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p)
	res := &client.ListResult{Data: []client.Product{{ID: "1", SKU: "SKU-1", Name: "Mug", Price: "4.00"}}}
	res.Total = 1
	res.CurrentPage = p.Page
	res.LastPage = 3
	return res, nil
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "migrate", "seed", "import", "products"})
}

func TestBrowseDrivesListView(t *testing.T) {
	f := &recordingFetcher{}
	clk := clock.NewFakeClock(time.Unix(0, 0))
	view := listview.New(f, listview.Config{Clock: clk})
	defer view.Close()

	session := client.NewSession()
	session.Init("tok")

	renders := 0
	in := strings.NewReader(strings.Join([]string{":n", ":size 25", "mug", ":page 3", ":reset", ":q", ":n"}, "\n"))
	require.NoError(t, browse(context.Background(), in, view, func() { renders++ }, session))

	assert.Equal(t, []client.ListParams{
		{Page: 2, Limit: 10},
		{Page: 1, Limit: 25},
		{Search: "mug", Page: 3, Limit: 25},
		{Page: 1, Limit: 10},
	}, f.calls)
	assert.Equal(t, 4, renders)
	assert.Equal(t, 0, clk.Pending())
}

func TestBrowseStopsWhenSessionEnds(t *testing.T) {
	f := &recordingFetcher{}
	view := listview.New(f, listview.Config{Clock: clock.NewFakeClock(time.Unix(0, 0))})
	defer view.Close()

	err := browse(context.Background(), strings.NewReader(":n\n"), view, func() {}, client.NewSession())
	require.NoError(t, err)
	assert.Empty(t, f.calls)
}

func TestPrintImport(t *testing.T) {
	var buf bytes.Buffer
	printImport(&buf, &productdomain.ImportResult{
		Imported: 2,
		Errors: []productdomain.ImportRowError{
			{Row: 4, SKU: "DUP-1", Errors: []string{"The sku has already been taken."}},
		},
	})
	assert.Equal(t, "imported 2 product(s)\n  row 4 (DUP-1): The sku has already been taken.\n", buf.String())
}

func TestPrintProducts(t *testing.T) {
	var buf bytes.Buffer
	printProducts(&buf, []client.Product{{ID: "7", SKU: "A-1", Name: "Kettle", Price: "20.00", Categories: "Kitchen"}})
	out := buf.String()
	assert.Contains(t, out, "SKU")
	assert.Contains(t, out, "Kettle")
}
