package models

import "time"

// Document represents one ingested text document. Documents are immutable
// after creation; chunks reference them by ID and never duplicate them.
type Document struct {
	ID         int64            `json:"id"`
	Title      string           `json:"title"`
	OwnerID    string           `json:"owner_id"`
	SourceType string           `json:"source_type"` // e.g. "text", "upload"
	Metadata   DocumentMetadata `json:"metadata"`
	CreatedAt  time.Time        `json:"created_at"`
}

// DocumentMetadata carries the fixed size/shape fields recorded at ingestion.
type DocumentMetadata struct {
	SizeBytes  int64 `json:"size_bytes"`
	Pages      int   `json:"pages,omitempty"`
	CharCount  int   `json:"character_count"`
	WordCount  int   `json:"word_count"`
	ChunkCount int   `json:"chunk_count"`
}

// Chunk is a bounded contiguous segment of a document's text, the unit of
// embedding and retrieval. Ordinals for one document form a contiguous
// sequence starting at 0; concatenating chunk texts in ordinal order
// reconstructs the document text modulo paragraph-boundary whitespace.
type Chunk struct {
	ChunkID    string    `json:"chunk_id"`
	DocumentID int64     `json:"document_id"`
	Ordinal    int       `json:"ordinal"`
	Text       string    `json:"text"`
	// Embedding is nil when embedding generation failed for this chunk.
	// Chunks without an embedding are skipped by similarity search.
	Embedding []float32 `json:"-"`
}

// Embedded reports whether the chunk carries an embedding vector.
func (c Chunk) Embedded() bool {
	return len(c.Embedding) > 0
}

// SourceType constants for document provenance.
const (
	SourceTypeText   = "text"
	SourceTypeUpload = "upload"
)
