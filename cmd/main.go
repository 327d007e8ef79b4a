package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"document-search-platform/internal/ai"
	"document-search-platform/internal/config"
	"document-search-platform/internal/index"
	"document-search-platform/internal/logger"
	"document-search-platform/internal/queue"
	"document-search-platform/internal/telemetry"
	"document-search-platform/middleware"
	"document-search-platform/routes"
	"document-search-platform/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Telemetry is optional; without it spans are no-ops.
	var metrics *telemetry.Metrics
	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.InitTracer("document-search-platform", cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("failed to initialize tracer", "error", err)
		} else {
			defer shutdown()
		}
		m, err := telemetry.InitMetrics()
		if err != nil {
			logger.Warn("failed to initialize metrics", "error", err)
		} else {
			metrics = m
		}
	}

	// The embedding provider is optional: without an API key every vector
	// comes from the deterministic local fallback.
	var provider services.EmbeddingProvider
	var generator services.Generator
	if cfg.GeminiAPIKey != "" {
		client, err := ai.NewClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiTier,
			cfg.GoogleEmbeddingsModel, cfg.GenerationModel)
		if err != nil {
			log.Fatal("Failed to initialize AI client:", err)
		}
		defer client.Close()
		provider = client
		generator = client
	} else {
		logger.Warn("GEMINI_API_KEY not set, running with fallback embeddings only")
	}

	// Core retrieval engine.
	idx := index.New(cfg.VectorDimensions)
	embedder := services.NewEmbeddingService(provider, cfg.VectorDimensions)
	chunker := services.NewChunkingService(cfg.MaxChunkSize)
	ingester := services.NewIngestionService(idx, chunker, embedder)
	snippets := services.NewSnippetService()
	related := services.NewRelatedService(idx)
	history := services.NewHistoryService(
		time.Duration(cfg.HistoryRetentionHours)*time.Hour, cfg.HistoryMaxRecordsOwner)
	searcher := services.NewSearchService(idx, embedder, snippets, history)
	exporter := services.NewExportService(history)
	answers := services.NewAnswerService(idx, embedder, generator)

	if err := history.StartPruning(time.Duration(cfg.HistoryPruneMinutes) * time.Minute); err != nil {
		logger.Warn("failed to start history pruning", "error", err)
	}
	defer history.StopPruning()

	// Redis backs HTTP rate limiting and the async ingestion queue. Both are
	// optional: without Redis the API still serves synchronous traffic.
	rdb, redisErr := config.NewRedisClient(cfg)
	if redisErr != nil {
		logger.Warn("redis unavailable, rate limiting and async ingestion disabled", "error", redisErr)
	}

	var queueClient *asynq.Client
	if redisErr == nil {
		redisOpt, optErr := config.NewAsynqRedisOpt(cfg)
		if optErr != nil {
			logger.Warn("async ingestion disabled", "error", optErr)
		} else {
			queueClient = asynq.NewClient(redisOpt)
			defer queueClient.Close()

			// The worker runs inside the API process: the vector index is
			// process-local, so queued documents must land in the same index
			// that serves queries.
			worker := startWorker(redisOpt, ingester)
			defer worker.Shutdown()
		}
	}

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	if cfg.TelemetryEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}
	if metrics != nil {
		router.Use(middleware.MetricsMiddleware(metrics))
	}
	if rdb != nil {
		router.Use(middleware.RateLimitMiddleware(rdb, cfg))
	}

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"documents": idx.DocumentCount(),
			"chunks":    idx.ChunkCount(),
			"degraded":  embedder.Degraded(),
			"timestamp": time.Now(),
		})
	})

	// Setup routes
	authMiddleware := middleware.NewAuthMiddleware(cfg)
	routes.SetupDocumentRoutes(router, cfg, idx, ingester, related, queueClient, authMiddleware)
	routes.SetupSearchRoutes(router, searcher, history, exporter, answers, authMiddleware)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("server exited")
}

// startWorker runs the asynq consumer for queued ingestion tasks.
func startWorker(redisOpt asynq.RedisClientOpt, ingester *services.IngestionService) *asynq.Server {
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 9,
				"low":     1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(ingester)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestDocument, processor.HandleIngestDocument)

	go func() {
		if err := server.Run(mux); err != nil {
			logger.Error("worker stopped", "error", err)
		}
	}()
	return server
}
