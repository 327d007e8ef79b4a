package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"document-search-platform/internal/index"
	"document-search-platform/models"
)

func addTestDocument(t *testing.T, ix *index.Index, owner, title string, vectors ...[]float32) int64 {
	t.Helper()
	id := ix.AddDocument(models.Document{
		Title:      title,
		OwnerID:    owner,
		SourceType: models.SourceTypeText,
		CreatedAt:  time.Now().UTC(),
	})
	for i, vec := range vectors {
		err := ix.AddChunk(models.Chunk{
			ChunkID:    title + string(rune('a'+i)),
			DocumentID: id,
			Ordinal:    i,
			Text:       title + " chunk",
			Embedding:  vec,
		})
		if err != nil {
			t.Fatalf("AddChunk: %v", err)
		}
	}
	return id
}

func TestRelatedExcludesSelf(t *testing.T) {
	ix := index.New(3)
	svc := NewRelatedService(ix)

	src := addTestDocument(t, ix, "u1", "src", []float32{1, 0, 0})
	addTestDocument(t, ix, "u1", "near", []float32{0.9, 0.1, 0})
	addTestDocument(t, ix, "u1", "far", []float32{0, 0, 1})

	results, err := svc.Related(context.Background(), src, 10)
	if err != nil {
		t.Fatalf("Related: %v", err)
	}
	for _, r := range results {
		if r.Document.ID == src {
			t.Fatal("source document included in its own related list")
		}
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 related documents, got %d", len(results))
	}
	if results[0].Document.Title != "near" {
		t.Errorf("expected nearest document first, got %q", results[0].Document.Title)
	}
}

func TestRelatedHonorsLimit(t *testing.T) {
	ix := index.New(3)
	svc := NewRelatedService(ix)

	src := addTestDocument(t, ix, "u1", "src", []float32{1, 0, 0})
	for i := 0; i < 5; i++ {
		addTestDocument(t, ix, "u1", "other"+string(rune('a'+i)), []float32{1, 0, 0})
	}

	results, err := svc.Related(context.Background(), src, 2)
	if err != nil {
		t.Fatalf("Related: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected limit of 2, got %d", len(results))
	}
}

func TestRelatedNoEmbeddedChunksReturnsEmpty(t *testing.T) {
	ix := index.New(3)
	svc := NewRelatedService(ix)

	id := ix.AddDocument(models.Document{Title: "bare", OwnerID: "u1"})
	if err := ix.AddChunk(models.Chunk{ChunkID: "c", DocumentID: id, Ordinal: 0, Text: "text"}); err != nil {
		t.Fatalf("AddChunk: %v", err)
	}

	results, err := svc.Related(context.Background(), id, 5)
	if err != nil {
		t.Fatalf("Related should not error on unembedded document: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty result, got %d", len(results))
	}
}

func TestRelatedUnknownDocument(t *testing.T) {
	ix := index.New(3)
	svc := NewRelatedService(ix)

	if _, err := svc.Related(context.Background(), 404, 5); !errors.Is(err, index.ErrUnknownDocument) {
		t.Errorf("got %v, want ErrUnknownDocument", err)
	}
}

func TestRelatedScopedToOwner(t *testing.T) {
	ix := index.New(3)
	svc := NewRelatedService(ix)

	src := addTestDocument(t, ix, "u1", "src", []float32{1, 0, 0})
	addTestDocument(t, ix, "u1", "mine", []float32{1, 0, 0})
	addTestDocument(t, ix, "u2", "other-tenant", []float32{1, 0, 0})

	results, err := svc.Related(context.Background(), src, 10)
	if err != nil {
		t.Fatalf("Related: %v", err)
	}
	if len(results) != 1 || results[0].Document.Title != "mine" {
		t.Fatalf("related leaked across owners: %v", results)
	}
}

func TestMeanEmbeddingAveragesComponents(t *testing.T) {
	chunks := []models.Chunk{
		{Text: "a", Embedding: []float32{1, 0, 0}},
		{Text: "b", Embedding: []float32{0, 1, 0}},
		{Text: "c"}, // no embedding, skipped
	}

	mean := meanEmbedding(chunks, 3)
	if mean == nil {
		t.Fatal("expected mean vector")
	}
	if mean[0] != 0.5 || mean[1] != 0.5 || mean[2] != 0 {
		t.Errorf("mean = %v, want [0.5 0.5 0]", mean)
	}
}
