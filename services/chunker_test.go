package services

import (
	"strings"
	"testing"
)

func TestSplitEmptyInput(t *testing.T) {
	cs := NewChunkingService(DefaultMaxChunkSize)
	for _, input := range []string{"", "   ", "\n\n\n"} {
		if chunks := cs.Split(input); len(chunks) != 0 {
			t.Errorf("Split(%q) = %d chunks, want 0", input, len(chunks))
		}
	}
}

func TestSplitSmallDocumentSingleChunk(t *testing.T) {
	cs := NewChunkingService(DefaultMaxChunkSize)
	text := "First paragraph.\n\nSecond paragraph.\n\nThird paragraph."

	chunks := cs.Split(text)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("chunk text altered: %q", chunks[0])
	}
}

func TestSplitFlushesBetweenParagraphs(t *testing.T) {
	cs := NewChunkingService(100)
	p1 := strings.Repeat("a", 40)
	p2 := strings.Repeat("b", 40)
	p3 := strings.Repeat("c", 40)

	chunks := cs.Split(p1 + "\n\n" + p2 + "\n\n" + p3)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0] != p1+"\n\n"+p2 {
		t.Errorf("first chunk should hold paragraphs 1-2, got %q", chunks[0])
	}
	if chunks[1] != p3 {
		t.Errorf("second chunk should hold paragraph 3, got %q", chunks[1])
	}
}

func TestSplitOversizedParagraphEmittedWhole(t *testing.T) {
	cs := NewChunkingService(50)
	big := strings.Repeat("x", 120)

	chunks := cs.Split("small\n\n" + big + "\n\nafter")
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[1] != big {
		t.Errorf("oversized paragraph should be its own chunk, got len %d", len(chunks[1]))
	}
}

func TestSplitNoChunkExceedsMaxExceptOversized(t *testing.T) {
	cs := NewChunkingService(80)
	var paragraphs []string
	for i := 0; i < 20; i++ {
		paragraphs = append(paragraphs, strings.Repeat("w", 30))
	}

	for _, chunk := range cs.Split(strings.Join(paragraphs, "\n\n")) {
		if len(chunk) >= 80 {
			t.Errorf("chunk of %d chars exceeds max", len(chunk))
		}
	}
}

func TestSplitRoundTrip(t *testing.T) {
	cs := NewChunkingService(60)
	paragraphs := []string{"alpha one", "beta two", "gamma three", "delta four", "epsilon five"}
	text := strings.Join(paragraphs, "\n\n")

	chunks := cs.Split(text)
	joined := strings.Join(chunks, "\n\n")
	if joined != text {
		t.Errorf("round trip mismatch:\n got %q\nwant %q", joined, text)
	}
}
