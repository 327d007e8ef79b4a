package services

import (
	"context"
	"strings"
	"testing"

	"document-search-platform/internal/index"
	"document-search-platform/models"
)

func newTestIngester(dim int) (*IngestionService, *index.Index) {
	ix := index.New(dim)
	embedder := NewEmbeddingService(nil, dim)
	chunker := NewChunkingService(100)
	return NewIngestionService(ix, chunker, embedder), ix
}

func TestIngestCreatesDocumentAndChunks(t *testing.T) {
	svc, ix := newTestIngester(16)

	p1 := strings.Repeat("a", 40)
	p2 := strings.Repeat("b", 40)
	p3 := strings.Repeat("c", 40)
	doc, err := svc.Ingest(context.Background(), "u1", "notes", p1+"\n\n"+p2+"\n\n"+p3, models.SourceTypeText)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if doc.ID == 0 {
		t.Error("document ID not assigned")
	}
	if doc.Metadata.ChunkCount != 2 {
		t.Errorf("chunk count = %d, want 2", doc.Metadata.ChunkCount)
	}

	chunks, err := ix.Chunks(doc.ID)
	if err != nil {
		t.Fatalf("Chunks: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("stored chunks = %d, want 2", len(chunks))
	}
	for i, ch := range chunks {
		if ch.Ordinal != i {
			t.Errorf("chunk %d has ordinal %d", i, ch.Ordinal)
		}
		if !ch.Embedded() {
			t.Errorf("chunk %d missing embedding", i)
		}
		if ch.ChunkID == "" {
			t.Errorf("chunk %d missing ID", i)
		}
	}
}

func TestIngestSmallDocumentSingleChunk(t *testing.T) {
	svc, ix := newTestIngester(16)

	doc, err := svc.Ingest(context.Background(), "u1", "short",
		"One.\n\nTwo.\n\nThree.", models.SourceTypeText)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	chunks, err := ix.Chunks(doc.ID)
	if err != nil {
		t.Fatalf("Chunks: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Ordinal != 0 {
		t.Fatalf("expected single chunk with ordinal 0, got %v", chunks)
	}
}

func TestIngestRecordsMetadata(t *testing.T) {
	svc, _ := newTestIngester(16)

	text := "hello world\n\nsecond paragraph here"
	doc, err := svc.Ingest(context.Background(), "u1", "meta", text, models.SourceTypeText)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if doc.Metadata.SizeBytes != int64(len(text)) {
		t.Errorf("size = %d, want %d", doc.Metadata.SizeBytes, len(text))
	}
	if doc.Metadata.WordCount != 5 {
		t.Errorf("word count = %d, want 5", doc.Metadata.WordCount)
	}
	if doc.OwnerID != "u1" {
		t.Errorf("owner = %q, want u1", doc.OwnerID)
	}
}

func TestIngestEmptyTextStillCreatesDocument(t *testing.T) {
	svc, ix := newTestIngester(16)

	doc, err := svc.Ingest(context.Background(), "u1", "empty", "   ", models.SourceTypeText)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if _, err := ix.Document(doc.ID); err != nil {
		t.Errorf("document record missing: %v", err)
	}
	if doc.Metadata.ChunkCount != 0 {
		t.Errorf("chunk count = %d, want 0", doc.Metadata.ChunkCount)
	}
}

func TestIngestedDocumentIsSearchable(t *testing.T) {
	svc, ix := newTestIngester(16)
	embedder := NewEmbeddingService(nil, 16)

	doc, err := svc.Ingest(context.Background(), "u1", "findme",
		"retrieval engines rank by similarity", models.SourceTypeText)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	// Identical text embeds to an identical fallback vector, so the match
	// is exact.
	query := embedder.Embed(context.Background(), "retrieval engines rank by similarity")
	hits, err := ix.Search(query, 5, "u1")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].DocumentID != doc.ID {
		t.Fatalf("ingested document not found: %v", hits)
	}
	if hits[0].Score < 0.999 {
		t.Errorf("identical text should score ~1, got %f", hits[0].Score)
	}
}
