package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter     metric.Int64Counter
	RequestDuration    metric.Float64Histogram
	SearchesTotal      metric.Int64Counter
	SearchDuration     metric.Float64Histogram
	DocumentsIngested  metric.Int64Counter
	ChunksIndexed      metric.Int64Counter
	EmbeddingFallbacks metric.Int64Counter
}

var defaultMetrics *Metrics

// InitMetrics initializes all application metrics and installs them as the
// package default used by the Record helpers.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("document-search-platform")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	searchesTotal, err := meter.Int64Counter(
		"search.queries.total",
		metric.WithDescription("Total search queries executed"),
	)
	if err != nil {
		return nil, err
	}

	searchDuration, err := meter.Float64Histogram(
		"search.query.duration",
		metric.WithDescription("Search query duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	documentsIngested, err := meter.Int64Counter(
		"ingest.documents.total",
		metric.WithDescription("Total documents ingested"),
	)
	if err != nil {
		return nil, err
	}

	chunksIndexed, err := meter.Int64Counter(
		"ingest.chunks.total",
		metric.WithDescription("Total chunks indexed"),
	)
	if err != nil {
		return nil, err
	}

	embeddingFallbacks, err := meter.Int64Counter(
		"embedding.fallbacks.total",
		metric.WithDescription("Embedding requests served by the local fallback"),
	)
	if err != nil {
		return nil, err
	}

	m := &Metrics{
		RequestCounter:     requestCounter,
		RequestDuration:    requestDuration,
		SearchesTotal:      searchesTotal,
		SearchDuration:     searchDuration,
		DocumentsIngested:  documentsIngested,
		ChunksIndexed:      chunksIndexed,
		EmbeddingFallbacks: embeddingFallbacks,
	}
	defaultMetrics = m
	return m, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordSearch records one completed search query. No-op before InitMetrics.
func RecordSearch(ctx context.Context, results int, duration time.Duration) {
	if defaultMetrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Int("search.results", results))
	defaultMetrics.SearchesTotal.Add(ctx, 1, attrs)
	defaultMetrics.SearchDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordDocumentIngested records one ingested document and its chunk count.
// No-op before InitMetrics.
func RecordDocumentIngested(ctx context.Context, chunks int) {
	if defaultMetrics == nil {
		return
	}
	defaultMetrics.DocumentsIngested.Add(ctx, 1)
	defaultMetrics.ChunksIndexed.Add(ctx, int64(chunks))
}

// RecordEmbeddingFallback records an embedding served locally instead of by
// the provider. No-op before InitMetrics.
func RecordEmbeddingFallback(ctx context.Context, degraded bool) {
	if defaultMetrics == nil {
		return
	}
	defaultMetrics.EmbeddingFallbacks.Add(ctx, 1,
		metric.WithAttributes(attribute.Bool("embedding.degraded", degraded)))
}
