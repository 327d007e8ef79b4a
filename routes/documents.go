package routes

import (
	"errors"
	"net/http"
	"strconv"

	"document-search-platform/internal/config"
	"document-search-platform/internal/index"
	"document-search-platform/internal/queue"
	"document-search-platform/middleware"
	"document-search-platform/models"
	"document-search-platform/services"
	"document-search-platform/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

// SetupDocumentRoutes registers ingestion and document lookup endpoints.
// queueClient may be nil; the async endpoint then reports the queue as
// unavailable instead of failing at startup.
func SetupDocumentRoutes(
	router *gin.Engine,
	cfg *config.Config,
	idx *index.Index,
	ingester *services.IngestionService,
	related *services.RelatedService,
	queueClient *asynq.Client,
	authMiddleware *middleware.AuthMiddleware,
) {
	docs := router.Group("/documents")
	docs.Use(authMiddleware.RequireAuth())
	{
		docs.POST("", HandleIngestDocument(cfg, ingester))
		docs.POST("/async", HandleAsyncIngestDocument(cfg, queueClient))
		docs.GET("", HandleListDocuments(idx))
		docs.GET("/:id", HandleGetDocument(idx))
		docs.GET("/:id/related", HandleRelatedDocuments(idx, related))
	}
}

// HandleIngestDocument ingests a document synchronously and returns its ID.
func HandleIngestDocument(cfg *config.Config, ingester *services.IngestionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.IngestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid ingest request", err.Error())
			return
		}

		if int64(len(req.Text)) > cfg.MaxDocumentSize {
			utils.RespondWithBadRequest(c, "Document exceeds maximum size", gin.H{
				"max_bytes": cfg.MaxDocumentSize,
			})
			return
		}
		if int64(len(req.Text)) > cfg.SyncProcessingLimit {
			utils.RespondWithBadRequest(c,
				"Document too large for synchronous ingestion, use /documents/async", gin.H{
					"sync_limit_bytes": cfg.SyncProcessingLimit,
				})
			return
		}

		doc, err := ingester.Ingest(c.Request.Context(), middleware.GetUserID(c), req.Title, req.Text, models.SourceTypeText)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to ingest document", nil)
			return
		}

		c.JSON(http.StatusCreated, models.IngestResponse{
			DocumentID: doc.ID,
			Status:     models.StatusCompleted,
			ChunkCount: doc.Metadata.ChunkCount,
		})
	}
}

// HandleAsyncIngestDocument enqueues a document for background ingestion and
// returns immediately with the task ID.
func HandleAsyncIngestDocument(cfg *config.Config, queueClient *asynq.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if queueClient == nil {
			utils.RespondWithError(c, http.StatusServiceUnavailable,
				"queue_unavailable", "Background ingestion is not configured", nil)
			return
		}

		var req models.IngestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid ingest request", err.Error())
			return
		}
		if int64(len(req.Text)) > cfg.MaxDocumentSize {
			utils.RespondWithBadRequest(c, "Document exceeds maximum size", gin.H{
				"max_bytes": cfg.MaxDocumentSize,
			})
			return
		}

		task, err := queue.NewIngestTask(middleware.GetUserID(c), req.Title, req.Text, models.SourceTypeUpload)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to create ingestion task", nil)
			return
		}

		info, err := queueClient.Enqueue(task)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to enqueue ingestion task", nil)
			return
		}

		c.JSON(http.StatusAccepted, models.IngestResponse{
			TaskID:  info.ID,
			Status:  models.StatusQueued,
			Message: "Document accepted for processing",
		})
	}
}

// HandleListDocuments lists the caller's documents in creation order.
func HandleListDocuments(idx *index.Index) gin.HandlerFunc {
	return func(c *gin.Context) {
		docs := idx.Documents(middleware.GetUserID(c))
		c.JSON(http.StatusOK, gin.H{
			"documents": docs,
			"total":     len(docs),
		})
	}
}

// HandleGetDocument returns one document with its chunk ordinals. Documents
// belonging to other owners are reported as not found.
func HandleGetDocument(idx *index.Index) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid document ID", nil)
			return
		}

		doc, err := idx.Document(id)
		if err != nil || doc.OwnerID != middleware.GetUserID(c) {
			utils.RespondWithNotFound(c, "Document not found")
			return
		}

		chunks, err := idx.Chunks(id)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load document chunks", nil)
			return
		}

		embedded := 0
		for _, ch := range chunks {
			if ch.Embedded() {
				embedded++
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"document":        doc,
			"chunk_count":     len(chunks),
			"embedded_chunks": embedded,
		})
	}
}

// HandleRelatedDocuments returns documents similar to the given one.
func HandleRelatedDocuments(idx *index.Index, related *services.RelatedService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid document ID", nil)
			return
		}

		if doc, err := idx.Document(id); err != nil || doc.OwnerID != middleware.GetUserID(c) {
			utils.RespondWithNotFound(c, "Document not found")
			return
		}

		limit := 5
		if l, err := strconv.Atoi(c.DefaultQuery("limit", "5")); err == nil && l > 0 && l <= 50 {
			limit = l
		}

		results, err := related.Related(c.Request.Context(), id, limit)
		if err != nil {
			if errors.Is(err, index.ErrUnknownDocument) {
				utils.RespondWithNotFound(c, "Document not found")
				return
			}
			utils.RespondWithInternalError(c, "Failed to find related documents", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"related": results,
			"total":   len(results),
		})
	}
}
