package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"document-search-platform/internal/index"
	"document-search-platform/models"
)

// RelatedService finds documents semantically close to a given document by
// comparing against the mean of its chunk embeddings. The mean is used
// unnormalized: documents with uniformly-oriented chunks produce a longer
// centroid, and cosine scoring cancels the magnitude anyway.
type RelatedService struct {
	idx *index.Index
}

func NewRelatedService(idx *index.Index) *RelatedService {
	return &RelatedService{idx: idx}
}

// Related returns up to limit documents from the same owner's corpus ranked
// by similarity to documentID's centroid vector, never including the source
// document itself. A document whose chunks all lack embeddings yields an
// empty result rather than an error.
func (s *RelatedService) Related(ctx context.Context, documentID int64, limit int) ([]models.SearchResult, error) {
	tracer := otel.Tracer("related-service")
	_, span := tracer.Start(ctx, "related.query")
	defer span.End()
	span.SetAttributes(attribute.Int64("document.id", documentID))

	doc, err := s.idx.Document(documentID)
	if err != nil {
		return nil, err
	}

	chunks, err := s.idx.Chunks(documentID)
	if err != nil {
		return nil, err
	}

	centroid := meanEmbedding(chunks, s.idx.Dimension())
	if centroid == nil {
		return []models.SearchResult{}, nil
	}

	// Over-fetch by one so the source document can be dropped without
	// shrinking the page.
	hits, err := s.idx.Search(centroid, limit+1, doc.OwnerID)
	if err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, limit)
	for _, hit := range hits {
		if hit.DocumentID == documentID {
			continue
		}
		other, err := s.idx.Document(hit.DocumentID)
		if err != nil {
			continue
		}
		results = append(results, models.SearchResult{
			Document: other,
			Score:    hit.Score,
		})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

// meanEmbedding averages the embedded chunks component-wise in float64 to
// limit accumulation error, then casts back. Returns nil when no chunk
// carries an embedding.
func meanEmbedding(chunks []models.Chunk, dimension int) []float32 {
	acc := make([]float64, dimension)
	n := 0
	for _, c := range chunks {
		if !c.Embedded() || len(c.Embedding) != dimension {
			continue
		}
		for i, x := range c.Embedding {
			acc[i] += float64(x)
		}
		n++
	}
	if n == 0 {
		return nil
	}

	mean := make([]float32, dimension)
	for i, sum := range acc {
		mean[i] = float32(sum / float64(n))
	}
	return mean
}
