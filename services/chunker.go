package services

import (
	"regexp"
	"strings"
)

// DefaultMaxChunkSize bounds chunk length when no override is configured.
const DefaultMaxChunkSize = 1000

// ChunkingService splits raw document text into bounded, paragraph-aligned
// segments. It keeps no state between calls.
type ChunkingService struct {
	maxChunkSize   int
	paragraphRegex *regexp.Regexp
}

// NewChunkingService creates a chunking service with the given maximum
// chunk length in characters.
func NewChunkingService(maxChunkSize int) *ChunkingService {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	return &ChunkingService{
		maxChunkSize:   maxChunkSize,
		paragraphRegex: regexp.MustCompile(`\n\s*\n+`),
	}
}

// Split breaks text on blank-line paragraph boundaries and greedily packs
// consecutive paragraphs into chunks. The running buffer is flushed whenever
// appending the next paragraph would meet or exceed the maximum length. A
// single paragraph longer than the maximum is emitted whole as its own
// oversized chunk; no paragraph is ever split internally. Every returned
// segment is non-empty.
func (cs *ChunkingService) Split(text string) []string {
	paragraphs := cs.paragraphRegex.Split(text, -1)

	chunks := make([]string, 0)
	buf := new(strings.Builder)

	for _, paragraph := range paragraphs {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		if buf.Len() > 0 && buf.Len()+2+len(paragraph) >= cs.maxChunkSize {
			chunks = append(chunks, buf.String())
			buf.Reset()
		}

		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(paragraph)
	}

	if buf.Len() > 0 {
		chunks = append(chunks, buf.String())
	}

	return chunks
}
