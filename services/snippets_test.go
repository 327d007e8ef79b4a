package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"document-search-platform/models"
)

func textChunks(texts ...string) []models.Chunk {
	chunks := make([]models.Chunk, len(texts))
	for i, txt := range texts {
		chunks[i] = models.Chunk{Ordinal: i, Text: txt}
	}
	return chunks
}

func TestExtractNoChunksSentinel(t *testing.T) {
	svc := NewSnippetService()
	if got := svc.Extract("anything", nil); got != snippetNoMatch {
		t.Errorf("got %q, want sentinel", got)
	}
}

func TestExtractPicksMostRelevantChunk(t *testing.T) {
	svc := NewSnippetService()
	chunks := textChunks(
		"Nothing relevant here at all.",
		"Kubernetes deployment strategies and rollout procedures.",
		"A kubernetes cluster needs a deployment and a service.",
	)

	got := svc.Extract("kubernetes deployment service", chunks)
	if !strings.HasPrefix(got, "A kubernetes cluster") {
		t.Errorf("expected chunk with most distinct terms, got %q", got)
	}
}

func TestExtractZeroScoreFallsBackToFirstChunk(t *testing.T) {
	svc := NewSnippetService()
	chunks := textChunks("Opening paragraph.", "Closing paragraph.")

	if got := svc.Extract("zzz qqq", chunks); got != "Opening paragraph." {
		t.Errorf("expected first chunk on zero tie, got %q", got)
	}
}

func TestExtractIgnoresShortTerms(t *testing.T) {
	svc := NewSnippetService()
	chunks := textChunks(
		"It is an ox on a log.",
		"Databases store structured records.",
	)

	// All query terms are <= 2 chars except "databases".
	if got := svc.Extract("it is ox databases", chunks); got != "Databases store structured records." {
		t.Errorf("short terms should not score, got %q", got)
	}
}

func TestExtractTruncatesLongChunks(t *testing.T) {
	svc := NewSnippetService()
	long := strings.Repeat("search relevance ", 30)
	chunks := textChunks(long)

	got := svc.Extract("relevance", chunks)
	if len(got) != snippetMaxLen+3 {
		t.Fatalf("snippet length = %d, want %d", len(got), snippetMaxLen+3)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated snippet missing ellipsis: %q", got)
	}
}

func TestExtractTruncatesOnRuneBoundary(t *testing.T) {
	svc := NewSnippetService()
	// Bytes 199-200 hold a two-byte rune, straddling the cutoff.
	long := "relevance " + strings.Repeat("a", 189) + "é" + strings.Repeat("b", 40)
	chunks := textChunks(long)

	got := svc.Extract("relevance", chunks)
	if !utf8.ValidString(got) {
		t.Fatalf("snippet is not valid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated snippet missing ellipsis: %q", got)
	}
	if len(got) != 199+3 {
		t.Errorf("snippet length = %d, want %d", len(got), 199+3)
	}
}

func TestExtractCaseInsensitive(t *testing.T) {
	svc := NewSnippetService()
	chunks := textChunks(
		"irrelevant filler text",
		"GRPC Streaming Internals Explained",
	)

	if got := svc.Extract("grpc streaming", chunks); got != "GRPC Streaming Internals Explained" {
		t.Errorf("matching should be case-insensitive, got %q", got)
	}
}
