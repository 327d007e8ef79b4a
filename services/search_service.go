package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"document-search-platform/internal/index"
	"document-search-platform/internal/logger"
	"document-search-platform/internal/telemetry"
	"document-search-platform/models"
)

// ErrEmptyQuery is returned when a search is attempted with a blank query.
var ErrEmptyQuery = errors.New("search query is empty")

const snippetUnavailable = "Preview unavailable"

// DefaultSearchLimit bounds a search when the caller does not ask for a
// specific page size.
const DefaultSearchLimit = 10

// Recorder receives completed searches. *HistoryService satisfies it.
type Recorder interface {
	Record(ownerID, query string, documentIDs []int64) error
}

// SearchService orchestrates a query end to end: embed the query, rank
// documents via the index, attach snippets, and record the search in
// history. No results is a successful empty list, never an error.
type SearchService struct {
	idx      *index.Index
	embedder *EmbeddingService
	snippets *SnippetService
	history  Recorder
}

func NewSearchService(idx *index.Index, embedder *EmbeddingService, snippets *SnippetService, history Recorder) *SearchService {
	return &SearchService{
		idx:      idx,
		embedder: embedder,
		snippets: snippets,
		history:  history,
	}
}

// Search ranks the owner's documents against query and returns up to limit
// annotated results. A blank query is a caller error; operational failures
// downstream of ranking (snippets, history) degrade instead of failing the
// search.
func (s *SearchService) Search(ctx context.Context, ownerID, query string, limit int) ([]models.SearchResult, error) {
	tracer := otel.Tracer("search-service")
	ctx, span := tracer.Start(ctx, "search.query")
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	span.SetAttributes(
		attribute.String("search.owner_id", ownerID),
		attribute.Int("search.limit", limit),
	)

	start := time.Now()
	queryVector := s.embedder.Embed(ctx, query)

	hits, err := s.idx.Search(queryVector, limit, ownerID)
	if err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(hits))
	docIDs := make([]int64, 0, len(hits))
	for _, hit := range hits {
		doc, err := s.idx.Document(hit.DocumentID)
		if err != nil {
			// The index returned this hit a moment ago; losing the record is
			// an operational glitch, not grounds to fail the whole search.
			logger.Warn("ranked document disappeared from index", "document_id", hit.DocumentID, "error", err)
			continue
		}

		snippet := snippetUnavailable
		if chunks, err := s.idx.Chunks(hit.DocumentID); err != nil {
			logger.Warn("snippet extraction skipped", "document_id", hit.DocumentID, "error", err)
		} else {
			snippet = s.snippets.Extract(query, chunks)
		}

		results = append(results, models.SearchResult{
			Document: doc,
			Score:    hit.Score,
			Snippet:  snippet,
		})
		docIDs = append(docIDs, hit.DocumentID)
	}

	if err := s.history.Record(ownerID, query, docIDs); err != nil {
		logger.Warn("failed to record search history", "owner_id", ownerID, "error", err)
	}

	telemetry.RecordSearch(ctx, len(results), time.Since(start))
	logger.Info("search completed",
		"owner_id", ownerID,
		"results", len(results),
		"degraded", s.embedder.Degraded(),
		"duration_ms", time.Since(start).Milliseconds())

	return results, nil
}
