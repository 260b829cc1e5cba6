package pdf

import (
	"context"
	"io"

	"go.uber.org/fx"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

type Provider interface {
	GeneratePriceList(ctx context.Context, data PriceList) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GeneratePriceList(ctx context.Context, data PriceList) (io.Reader, error) {
	return nil, nil
}
