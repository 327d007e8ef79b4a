package services

import (
	"context"
	"strings"

	"document-search-platform/internal/index"
	"document-search-platform/internal/logger"
)

const fallbackAnswer = "I'm sorry, I can't generate an answer right now. Please review the matched documents below or try again later."

// Generator produces free-text completions grounded in retrieved context.
// ai.Client satisfies it.
type Generator interface {
	Complete(ctx context.Context, prompt string, contextChunks []string) (string, error)
}

// Answer is a generated response together with the documents it drew from.
type Answer struct {
	Text        string  `json:"text"`
	DocumentIDs []int64 `json:"document_ids"`
	Generated   bool    `json:"generated"`
}

// AnswerService composes retrieval with text generation: the top-ranked
// chunks for a question become the grounding context for a completion. A
// generation failure degrades to a canned message, never an error, so the
// retrieval results stay usable on their own.
type AnswerService struct {
	idx       *index.Index
	embedder  *EmbeddingService
	generator Generator // nil means fallback-only
}

func NewAnswerService(idx *index.Index, embedder *EmbeddingService, generator Generator) *AnswerService {
	return &AnswerService{
		idx:       idx,
		embedder:  embedder,
		generator: generator,
	}
}

// Answer retrieves the most relevant chunks for question from the owner's
// corpus and asks the generator for a grounded response.
func (s *AnswerService) Answer(ctx context.Context, ownerID, question string, contextSize int) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuery
	}
	if contextSize <= 0 {
		contextSize = 5
	}

	queryVector := s.embedder.Embed(ctx, question)
	hits, err := s.idx.Search(queryVector, contextSize, ownerID)
	if err != nil {
		return nil, err
	}

	contextChunks := make([]string, 0, len(hits))
	docIDs := make([]int64, 0, len(hits))
	for _, hit := range hits {
		chunk, err := s.idx.Chunk(hit.ChunkID)
		if err != nil {
			continue
		}
		contextChunks = append(contextChunks, chunk.Text)
		docIDs = append(docIDs, hit.DocumentID)
	}

	if s.generator == nil {
		return &Answer{Text: fallbackAnswer, DocumentIDs: docIDs}, nil
	}

	text, err := s.generator.Complete(ctx, question, contextChunks)
	if err != nil {
		logger.Warn("answer generation failed, returning fallback", "owner_id", ownerID, "error", err)
		return &Answer{Text: fallbackAnswer, DocumentIDs: docIDs}, nil
	}

	return &Answer{Text: text, DocumentIDs: docIDs, Generated: true}, nil
}
