package models

import "time"

// SearchRecord is an append-only log entry of a completed query and the
// document IDs it returned. Records are never mutated and are retained only
// up to the configured recency window.
type SearchRecord struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Query       string    `json:"query"`
	DocumentIDs []int64   `json:"document_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

// SearchResult is one ranked hit returned to the caller: the matched
// document annotated with its relevance score and a display snippet.
type SearchResult struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
	Snippet  string   `json:"snippet"`
}

// SearchRequest is the search entry point payload.
type SearchRequest struct {
	Query string `json:"query" binding:"required,min=1,max=2000"`
	Limit int    `json:"limit,omitempty"`
}

// IngestRequest is the synchronous ingestion entry point payload.
type IngestRequest struct {
	Title string `json:"title" binding:"required,min=1,max=500"`
	Text  string `json:"text" binding:"required,min=1"`
}

// IngestResponse reports the outcome of an ingestion request.
type IngestResponse struct {
	DocumentID int64  `json:"document_id,omitempty"`
	TaskID     string `json:"task_id,omitempty"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Ingestion status constants.
const (
	StatusQueued    = "queued"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)
