package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"document-search-platform/internal/index"
	"document-search-platform/models"
)

type scriptedGenerator struct {
	reply   string
	err     error
	prompts []string
	chunks  [][]string
}

func (g *scriptedGenerator) Complete(ctx context.Context, prompt string, contextChunks []string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	g.chunks = append(g.chunks, contextChunks)
	return g.reply, g.err
}

func newAnswerFixture(gen Generator) (*AnswerService, *IngestionService) {
	ix := index.New(16)
	embedder := NewEmbeddingService(nil, 16)
	ingester := NewIngestionService(ix, NewChunkingService(1000), embedder)
	return NewAnswerService(ix, embedder, gen), ingester
}

func TestAnswerGroundsGenerationInRetrievedChunks(t *testing.T) {
	gen := &scriptedGenerator{reply: "Raft elects a leader per term."}
	svc, ingester := newAnswerFixture(gen)
	ctx := context.Background()

	question := "how does raft elect leaders"
	if _, err := ingester.Ingest(ctx, "u1", "raft", question, models.SourceTypeText); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	answer, err := svc.Answer(ctx, "u1", question, 3)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !answer.Generated {
		t.Error("expected generated answer")
	}
	if answer.Text != gen.reply {
		t.Errorf("answer text = %q", answer.Text)
	}
	if len(answer.DocumentIDs) != 1 {
		t.Errorf("expected 1 source document, got %d", len(answer.DocumentIDs))
	}
	if len(gen.chunks) != 1 || len(gen.chunks[0]) != 1 || !strings.Contains(gen.chunks[0][0], "raft") {
		t.Errorf("generator not given retrieved context: %v", gen.chunks)
	}
}

func TestAnswerGeneratorFailureFallsBack(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("provider exploded")}
	svc, ingester := newAnswerFixture(gen)
	ctx := context.Background()

	question := "what is eventual consistency"
	if _, err := ingester.Ingest(ctx, "u1", "ec", question, models.SourceTypeText); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	answer, err := svc.Answer(ctx, "u1", question, 3)
	if err != nil {
		t.Fatalf("generation failure must not error: %v", err)
	}
	if answer.Generated {
		t.Error("fallback answer marked as generated")
	}
	if answer.Text != fallbackAnswer {
		t.Errorf("answer text = %q, want fallback message", answer.Text)
	}
	if len(answer.DocumentIDs) != 1 {
		t.Errorf("source documents lost on fallback: %d", len(answer.DocumentIDs))
	}
}

func TestAnswerNilGeneratorUsesFallback(t *testing.T) {
	svc, _ := newAnswerFixture(nil)

	answer, err := svc.Answer(context.Background(), "u1", "anything", 3)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answer.Text != fallbackAnswer || answer.Generated {
		t.Errorf("nil generator should return fallback, got %+v", answer)
	}
}

func TestAnswerEmptyQuestion(t *testing.T) {
	svc, _ := newAnswerFixture(nil)

	if _, err := svc.Answer(context.Background(), "u1", "  ", 3); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("got %v, want ErrEmptyQuery", err)
	}
}
