package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes catalog-level instruments.
type Metrics struct {
	productWrites metric.Int64Counter
	productSearch metric.Int64Counter
	searchResults metric.Int64Histogram
	cacheLookups  metric.Int64Counter
	imageOps      metric.Int64Counter
	authAttempts  metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the catalog instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "catalog"
	}
	meter := provider.Meter(name)

	productWrites, err := meter.Int64Counter("catalog_product_writes_total")
	if err != nil {
		return nil, err
	}
	productSearch, err := meter.Int64Counter("catalog_product_search_total")
	if err != nil {
		return nil, err
	}
	searchResults, err := meter.Int64Histogram("catalog_product_search_results")
	if err != nil {
		return nil, err
	}
	cacheLookups, err := meter.Int64Counter("catalog_cache_lookups_total")
	if err != nil {
		return nil, err
	}
	imageOps, err := meter.Int64Counter("catalog_image_operations_total")
	if err != nil {
		return nil, err
	}
	authAttempts, err := meter.Int64Counter("catalog_auth_attempts_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		productWrites: productWrites,
		productSearch: productSearch,
		searchResults: searchResults,
		cacheLookups:  cacheLookups,
		imageOps:      imageOps,
		authAttempts:  authAttempts,
	}, nil
}

// NewNoop returns instruments bound to a no-op provider, for tests and CLI commands.
func NewNoop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

// RecordProductWrite counts create/update/delete operations.
func (m *Metrics) RecordProductWrite(ctx context.Context, operation, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("operation", strings.TrimSpace(operation)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.productWrites.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordSearch counts list queries and the size of the matching set.
func (m *Metrics) RecordSearch(ctx context.Context, filtered bool, total int64) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.Bool("filtered", filtered))
	m.productSearch.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.searchResults.Record(ctx, total, metric.WithAttributes(attrs...))
}

// RecordCacheLookup counts list cache hits and misses.
func (m *Metrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("result", result))...))
}

// RecordImageOperation counts stored and deleted image files.
func (m *Metrics) RecordImageOperation(ctx context.Context, operation, driver string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("operation", strings.TrimSpace(operation)),
		attribute.String("driver", strings.TrimSpace(driver)),
	)
	m.imageOps.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAuthAttempt counts logins by outcome.
func (m *Metrics) RecordAuthAttempt(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.authAttempts.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"operation":   {},
	"outcome":     {},
	"filtered":    {},
	"result":      {},
	"driver":      {},
	"method":      {},
	"route":       {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
