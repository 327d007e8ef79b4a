package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"document-search-platform/internal/index"
	"document-search-platform/internal/logger"
	"document-search-platform/internal/telemetry"
	"document-search-platform/models"
)

// IngestionService turns raw document text into an indexed, searchable
// document: it registers the document record, splits the text into chunks,
// embeds each chunk, and stores everything in the index.
type IngestionService struct {
	idx      *index.Index
	chunker  *ChunkingService
	embedder *EmbeddingService
}

func NewIngestionService(idx *index.Index, chunker *ChunkingService, embedder *EmbeddingService) *IngestionService {
	return &IngestionService{
		idx:      idx,
		chunker:  chunker,
		embedder: embedder,
	}
}

// Ingest indexes text under the given title and owner and returns the stored
// document. The document record is created before any chunk work so a
// partial failure still leaves a queryable document. A chunk whose embedding
// cannot be produced is stored without a vector: it stays retrievable
// through lexical previews and document listing even if semantic search
// skips it.
func (s *IngestionService) Ingest(ctx context.Context, ownerID, title, text, sourceType string) (models.Document, error) {
	tracer := otel.Tracer("ingestion-service")
	ctx, span := tracer.Start(ctx, "ingest.document")
	defer span.End()
	span.SetAttributes(
		attribute.String("document.title", title),
		attribute.Int("document.size_bytes", len(text)),
	)

	start := time.Now()
	segments := s.chunker.Split(text)

	doc := models.Document{
		Title:      title,
		OwnerID:    ownerID,
		SourceType: sourceType,
		Metadata: models.DocumentMetadata{
			SizeBytes:  int64(len(text)),
			CharCount:  len(text),
			WordCount:  len(strings.Fields(text)),
			ChunkCount: len(segments),
		},
		CreatedAt: time.Now().UTC(),
	}
	docID := s.idx.AddDocument(doc)
	doc.ID = docID
	span.SetAttributes(attribute.Int64("document.id", docID))

	embedded := 0
	for i, segment := range segments {
		chunk := models.Chunk{
			ChunkID:    uuid.New().String(),
			DocumentID: docID,
			Ordinal:    i,
			Text:       segment,
			Embedding:  s.embedder.Embed(ctx, segment),
		}
		if chunk.Embedded() {
			embedded++
		}
		if err := s.idx.AddChunk(chunk); err != nil {
			logger.Error("failed to store chunk", "document_id", docID, "ordinal", i, "error", err)
			continue
		}
	}

	telemetry.RecordDocumentIngested(ctx, len(segments))
	logger.Info("document ingested",
		"document_id", docID,
		"owner_id", ownerID,
		"chunks", len(segments),
		"embedded", embedded,
		"degraded", s.embedder.Degraded(),
		"duration_ms", time.Since(start).Milliseconds())

	return doc, nil
}
