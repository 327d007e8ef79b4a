// Package index implements the in-memory vector index: the document and chunk
// repository plus linear-scan cosine similarity search. It is the only
// persistence layer in the system; a durable store could be substituted behind
// the same operations without touching the retrieval callers.
package index

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"document-search-platform/models"
)

var (
	// ErrUnknownDocument is returned when a document ID has no record.
	ErrUnknownDocument = errors.New("unknown document")

	// ErrDimensionMismatch is returned when a vector's length does not match
	// the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyChunk is returned when a chunk with empty text is added.
	ErrEmptyChunk = errors.New("chunk text must not be empty")
)

// DocumentHit is one per-document search result: the best-scoring chunk's
// cosine similarity and its chunk ID.
type DocumentHit struct {
	DocumentID int64
	ChunkID    string
	Score      float64
}

// Index is the in-memory vector index. Writes (document and chunk creation)
// are serialized under a single writer lock so document IDs are assigned
// monotonically and chunk ordinals stay contiguous; reads take the read lock
// and observe a consistent snapshot. Documents and chunks are immutable once
// added and live for the process lifetime.
type Index struct {
	mu        sync.RWMutex
	dimension int
	nextDocID int64
	docs      map[int64]*models.Document
	chunks    []models.Chunk // insertion order, relied on for tie-breaking
	byDoc     map[int64][]int
}

// New creates an empty index for vectors of the given dimension.
func New(dimension int) *Index {
	return &Index{
		dimension: dimension,
		nextDocID: 1,
		docs:      make(map[int64]*models.Document),
		byDoc:     make(map[int64][]int),
	}
}

// Dimension returns the vector dimension the index was created with.
func (ix *Index) Dimension() int {
	return ix.dimension
}

// AddDocument stores a new document record and assigns its ID. The document
// must be written before any of its chunks so a concurrent search never sees
// a chunk without its document.
func (ix *Index) AddDocument(doc models.Document) int64 {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	doc.ID = ix.nextDocID
	ix.nextDocID++
	ix.docs[doc.ID] = &doc
	return doc.ID
}

// AddChunk appends a chunk for an existing document. A nil embedding is
// accepted: the chunk is stored but excluded from similarity search.
func (ix *Index) AddChunk(chunk models.Chunk) error {
	if chunk.Text == "" {
		return ErrEmptyChunk
	}
	if chunk.Embedded() && len(chunk.Embedding) != ix.dimension {
		return fmt.Errorf("%w: got %d, index dimension %d",
			ErrDimensionMismatch, len(chunk.Embedding), ix.dimension)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, ok := ix.docs[chunk.DocumentID]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownDocument, chunk.DocumentID)
	}

	ix.chunks = append(ix.chunks, chunk)
	ix.byDoc[chunk.DocumentID] = append(ix.byDoc[chunk.DocumentID], len(ix.chunks)-1)
	return nil
}

// Document returns the document record for the given ID.
func (ix *Index) Document(id int64) (models.Document, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	doc, ok := ix.docs[id]
	if !ok {
		return models.Document{}, fmt.Errorf("%w: %d", ErrUnknownDocument, id)
	}
	return *doc, nil
}

// Documents returns all documents owned by ownerID, in creation (ID) order.
func (ix *Index) Documents(ownerID string) []models.Document {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]models.Document, 0)
	for _, doc := range ix.docs {
		if doc.OwnerID == ownerID {
			out = append(out, *doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Chunks returns the chunks of a document in ordinal order.
func (ix *Index) Chunks(documentID int64) ([]models.Chunk, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if _, ok := ix.docs[documentID]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDocument, documentID)
	}

	positions := ix.byDoc[documentID]
	out := make([]models.Chunk, 0, len(positions))
	for _, pos := range positions {
		out = append(out, ix.chunks[pos])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out, nil
}

// Chunk returns a single chunk by its chunk ID.
func (ix *Index) Chunk(chunkID string) (models.Chunk, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	for _, c := range ix.chunks {
		if c.ChunkID == chunkID {
			return c, nil
		}
	}
	return models.Chunk{}, fmt.Errorf("unknown chunk: %s", chunkID)
}

// Search ranks indexed chunks by cosine similarity against the query vector,
// keeps the best-scoring chunk per document, and returns up to k documents
// sorted by score descending. Ties keep first-inserted order. When ownerID is
// non-empty only that owner's documents are scanned. Chunks without an
// embedding are skipped.
func (ix *Index) Search(query []float32, k int, ownerID string) ([]DocumentHit, error) {
	if len(query) != ix.dimension {
		return nil, fmt.Errorf("%w: query has %d components, index dimension %d",
			ErrDimensionMismatch, len(query), ix.dimension)
	}
	if k <= 0 {
		return []DocumentHit{}, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	best := make(map[int64]DocumentHit)
	order := make([]int64, 0)

	for _, chunk := range ix.chunks {
		if !chunk.Embedded() {
			continue
		}
		if ownerID != "" {
			if doc, ok := ix.docs[chunk.DocumentID]; !ok || doc.OwnerID != ownerID {
				continue
			}
		}

		score := Cosine(query, chunk.Embedding)
		prev, seen := best[chunk.DocumentID]
		if !seen {
			best[chunk.DocumentID] = DocumentHit{
				DocumentID: chunk.DocumentID,
				ChunkID:    chunk.ChunkID,
				Score:      score,
			}
			order = append(order, chunk.DocumentID)
			continue
		}
		// Strict > keeps the earliest chunk on equal scores.
		if score > prev.Score {
			prev.Score = score
			prev.ChunkID = chunk.ChunkID
			best[chunk.DocumentID] = prev
		}
	}

	hits := make([]DocumentHit, 0, len(order))
	for _, id := range order {
		hits = append(hits, best[id])
	}
	// Stable sort over first-seen order makes equal scores deterministic:
	// the document whose chunk was inserted first ranks first.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DocumentCount returns the number of stored documents.
func (ix *Index) DocumentCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// ChunkCount returns the number of stored chunks.
func (ix *Index) ChunkCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks)
}

// Cosine returns the cosine similarity of two vectors in [-1, 1]. A zero
// magnitude on either side yields 0 rather than a division by zero.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
