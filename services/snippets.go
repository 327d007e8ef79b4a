package services

import (
	"strings"
	"unicode/utf8"

	"document-search-platform/models"
)

const (
	snippetMaxLen  = 200
	snippetNoMatch = "No preview available for this document."
)

// SnippetService extracts short previews from a document's chunks by lexical
// term overlap. It is intentionally independent of the vector index so a
// preview is always computable, degraded mode included.
type SnippetService struct{}

func NewSnippetService() *SnippetService {
	return &SnippetService{}
}

// Extract picks the chunk that matches the query best and truncates it for
// display. Chunks are scored by how many distinct query terms (longer than
// two characters, case-insensitive) appear in them; when nothing matches,
// the first chunk is used so every document still gets a preview.
func (s *SnippetService) Extract(query string, chunks []models.Chunk) string {
	if len(chunks) == 0 {
		return snippetNoMatch
	}

	terms := queryTerms(query)

	best := 0
	bestScore := 0
	for i, chunk := range chunks {
		score := countTerms(chunk.Text, terms)
		if score > bestScore {
			best = i
			bestScore = score
		}
	}

	text := strings.TrimSpace(chunks[best].Text)
	if len(text) > snippetMaxLen {
		// Back up to a rune boundary so the cut never splits a
		// multi-byte character.
		cut := snippetMaxLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	return text
}

// queryTerms lowercases the query and keeps words longer than two
// characters. Short function words contribute noise, not relevance.
func queryTerms(query string) []string {
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) > 2 {
			terms = append(terms, w)
		}
	}
	return terms
}

// countTerms counts how many distinct terms occur in text at least once.
func countTerms(text string, terms []string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			count++
		}
	}
	return count
}
