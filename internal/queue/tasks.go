package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"document-search-platform/internal/logger"
	"document-search-platform/models"
	"document-search-platform/utils"
)

const TaskIngestDocument = "document:ingest"

// IngestPayload carries a queued document through Redis. The text travels
// compressed; large uploads would otherwise dominate the queue's memory.
type IngestPayload struct {
	OwnerID    string                     `json:"owner_id"`
	Title      string                     `json:"title"`
	SourceType string                     `json:"source_type"`
	Compressed []byte                     `json:"compressed"`
	Algorithm  utils.CompressionAlgorithm `json:"algorithm"`
}

// NewIngestTask builds an asynq task that ingests the given document text.
func NewIngestTask(ownerID, title, text, sourceType string) (*asynq.Task, error) {
	compressed, algorithm, err := utils.CompressText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to compress document text: %w", err)
	}

	payload, err := json.Marshal(IngestPayload{
		OwnerID:    ownerID,
		Title:      title,
		SourceType: sourceType,
		Compressed: compressed,
		Algorithm:  algorithm,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestDocument,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("default"),
	), nil
}

// Ingester is the ingestion pipeline consumed by the worker.
type Ingester interface {
	Ingest(ctx context.Context, ownerID, title, text, sourceType string) (models.Document, error)
}

// TaskProcessor handles queued tasks against the ingestion pipeline.
type TaskProcessor struct {
	ingester Ingester
}

func NewTaskProcessor(ingester Ingester) *TaskProcessor {
	return &TaskProcessor{ingester: ingester}
}

// HandleIngestDocument decompresses a queued document and runs it through
// the ingestion pipeline. Malformed payloads are not retried.
func (p *TaskProcessor) HandleIngestDocument(ctx context.Context, t *asynq.Task) error {
	var payload IngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	text, err := utils.DecompressText(payload.Compressed, payload.Algorithm)
	if err != nil {
		return fmt.Errorf("decompress failed: %w", asynq.SkipRetry)
	}

	doc, err := p.ingester.Ingest(ctx, payload.OwnerID, payload.Title, text, payload.SourceType)
	if err != nil {
		return err // retried by asynq
	}

	logger.Info("queued document ingested", "document_id", doc.ID, "owner_id", payload.OwnerID)
	return nil
}
