package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type PriceList struct {
	Title       string
	GeneratedAt string
	Filter      string
	Items       []PriceListItem
}

type PriceListItem struct {
	SKU        string
	Name       string
	Categories string
	Price      string
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GeneratePriceList(ctx context.Context, data PriceList) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	title := data.Title
	if title == "" {
		title = "Price List"
	}
	m.AddRow(12,
		text.NewCol(12, title, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	meta := "Generated " + data.GeneratedAt
	if data.Filter != "" {
		meta += fmt.Sprintf(", filter %q", data.Filter)
	}
	m.AddRow(8,
		text.NewCol(12, meta, props.Text{Size: 8}),
	)

	header := props.Text{Style: fontstyle.Bold, Size: 9}
	m.AddRow(10,
		text.NewCol(3, "SKU", header),
		text.NewCol(4, "Name", header),
		text.NewCol(3, "Categories", header),
		text.NewCol(2, "Price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	for _, item := range data.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m.AddRow(8,
			text.NewCol(3, item.SKU, props.Text{Size: 9}),
			text.NewCol(4, item.Name, props.Text{Size: 9}),
			text.NewCol(3, item.Categories, props.Text{Size: 9}),
			text.NewCol(2, item.Price, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(2, line.NewCol(12))
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Products", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(2, fmt.Sprintf("%d", len(data.Items)), props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
