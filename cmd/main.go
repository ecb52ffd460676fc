package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"rag-document-service/internal/ai"
	"rag-document-service/internal/config"
	"rag-document-service/internal/database"
	"rag-document-service/internal/logger"
	"rag-document-service/internal/queue"
	"rag-document-service/internal/telemetry"
	"rag-document-service/middleware"
	"rag-document-service/routes"
	"rag-document-service/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("rag-document-service", cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("Failed to init tracing:", err)
		}
		defer shutdown()
	}

	// Connect to Postgres (records + vector index share the pool)
	pool, err := config.ConnectPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Postgres:", err)
	}
	defer pool.Close()

	docRepo, err := database.NewDocumentRepository(pool)
	if err != nil {
		log.Fatal("Failed to init document repository:", err)
	}

	// External clients
	objectStore, err := services.NewObjectStore(cfg)
	if err != nil {
		log.Fatal("Failed to init object store:", err)
	}

	ctx := context.Background()
	embedder, err := ai.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.GoogleEmbeddingsModel)
	if err != nil {
		log.Fatal("Failed to init embedder:", err)
	}
	defer embedder.Close()

	geminiClient, err := ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTier)
	if err != nil {
		log.Fatal("Failed to init Gemini client:", err)
	}
	defer geminiClient.Close()

	vectorStore, err := services.NewPgVectorStore(pool, services.VectorStoreConfig{
		TableName: cfg.VectorTableName,
		VectorDim: cfg.VectorDimensions,
		Embedder:  embedder,
	})
	if err != nil {
		log.Fatal("Failed to init vector store:", err)
	}

	extractor := services.NewTextExtractor()
	splitter := services.NewChunkSplitter(cfg.MaxChunkSize, cfg.ChunkOverlap)

	queueClient := queue.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer queueClient.Close()

	// Pipelines
	ingestion := services.NewIngestionService(
		services.IngestionLimits{MaxFileSize: cfg.MaxFileSize, AllowedTypes: cfg.AllowedTypes},
		objectStore, extractor, splitter, vectorStore, docRepo, queueClient,
	)
	docQuery := services.NewDocumentQueryService(docRepo, objectStore, extractor, splitter)
	ragQuery := services.NewRagQueryService(vectorStore, geminiClient, services.QueryDefaults{
		TopK:                cfg.DefaultTopK,
		SimilarityThreshold: cfg.DefaultSimilarityThreshold,
	})

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	if cfg.TracingEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// Rate limiting (fail-open if Redis is unavailable)
	if rdb, err := config.NewRedisClient(cfg); err != nil {
		logger.Warn("Redis unavailable, rate limiting disabled", "error", err.Error())
	} else {
		router.Use(middleware.RateLimitMiddleware(rdb, cfg))
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// Setup routes
	routes.SetupDocumentRoutes(router, ingestion, docQuery, cfg.MaxFileSize)
	routes.SetupQueryRoutes(router, ragQuery)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
