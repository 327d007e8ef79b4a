package services

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"document-search-platform/internal/ai"
	"document-search-platform/internal/logger"
	"document-search-platform/internal/telemetry"
)

// EmbeddingProvider is the external provider consumed by the generator.
// ai.Client satisfies it; tests substitute in-process fakes.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingService maps text to unit vectors of a fixed dimension. It never
// fails outward: provider errors are absorbed by a deterministic local
// fallback. The first provider rate-limit error latches the service into
// degraded mode for the rest of the process lifetime, after which the
// provider is never called again.
type EmbeddingService struct {
	provider  EmbeddingProvider // nil means fallback-only
	dimension int
	degraded  atomic.Bool
}

// NewEmbeddingService creates a generator of the given dimension backed by
// provider. A nil provider starts the service in degraded mode.
func NewEmbeddingService(provider EmbeddingProvider, dimension int) *EmbeddingService {
	s := &EmbeddingService{
		provider:  provider,
		dimension: dimension,
	}
	if provider == nil {
		s.degraded.Store(true)
	}
	return s
}

// Dimension returns the embedding vector size.
func (s *EmbeddingService) Dimension() int {
	return s.dimension
}

// Degraded reports whether the provider has been bypassed permanently.
func (s *EmbeddingService) Degraded() bool {
	return s.degraded.Load()
}

// Embed returns a unit vector for text. The provider path is used while the
// service is in normal mode; any provider failure falls back to the local
// algorithm for this request, and a rate-limit failure additionally latches
// degraded mode so later calls skip the provider entirely.
func (s *EmbeddingService) Embed(ctx context.Context, text string) []float32 {
	tracer := otel.Tracer("embedding-service")
	ctx, span := tracer.Start(ctx, "embedding.embed")
	defer span.End()
	span.SetAttributes(attribute.Int("embedding.input_chars", len(text)))

	if !s.degraded.Load() {
		vec, err := s.provider.Embed(ctx, text)
		if err == nil {
			span.SetAttributes(attribute.String("embedding.source", "provider"))
			return normalize(resize(vec, s.dimension))
		}

		if errors.Is(err, ai.ErrRateLimited) {
			// One-way latch: availability over quality. CompareAndSwap keeps
			// concurrent first failures idempotent.
			if s.degraded.CompareAndSwap(false, true) {
				logger.Warn("embedding provider rate limited, latching degraded mode", "error", err)
			}
		} else {
			logger.Warn("embedding provider failed, using fallback for this request", "error", err)
		}
	}

	span.SetAttributes(attribute.String("embedding.source", "fallback"))
	telemetry.RecordEmbeddingFallback(ctx, s.degraded.Load())
	return s.fallbackEmbed(text)
}

// fallbackEmbed derives a deterministic unit vector from the text alone.
// Byte-identical text always yields a bit-identical vector; the space has no
// learned structure beyond that.
func (s *EmbeddingService) fallbackEmbed(text string) []float32 {
	digest := sha256.Sum256([]byte(strings.ToLower(text)))

	vec := make([]float32, s.dimension)
	block := digest[:]
	for i := 0; i < s.dimension; {
		for off := 0; off+8 <= len(block) && i < s.dimension; off += 8 {
			raw := binary.BigEndian.Uint64(block[off : off+8])
			// Map the 64-bit word onto [-1, 1].
			vec[i] = float32(raw)/float32(math.MaxUint64)*2 - 1
			i++
		}
		next := sha256.Sum256(block)
		block = next[:]
	}

	return normalize(vec)
}

// normalize scales v to unit Euclidean norm. A zero vector is returned
// unchanged; it cannot occur on the fallback path in practice.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// resize pads or truncates a provider vector to the configured dimension.
// Providers normally return exactly the configured size; this guards against
// model/config drift so stored vectors stay comparable.
func resize(v []float32, dimension int) []float32 {
	if len(v) == dimension {
		return v
	}
	out := make([]float32, dimension)
	copy(out, v)
	return out
}
