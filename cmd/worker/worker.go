package main

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"rag-document-service/internal/ai"
	"rag-document-service/internal/config"
	"rag-document-service/internal/database"
	"rag-document-service/internal/logger"
	"rag-document-service/internal/queue"
	"rag-document-service/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	pool, err := config.ConnectPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Postgres:", err)
	}
	defer pool.Close()

	docRepo, err := database.NewDocumentRepository(pool)
	if err != nil {
		log.Fatal("Failed to init document repository:", err)
	}

	objectStore, err := services.NewObjectStore(cfg)
	if err != nil {
		log.Fatal("Failed to init object store:", err)
	}

	embedder, err := ai.NewGeminiEmbedder(context.Background(), cfg.GeminiAPIKey, cfg.GoogleEmbeddingsModel)
	if err != nil {
		log.Fatal("Failed to init embedder:", err)
	}
	defer embedder.Close()

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

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	queueClient := queue.NewClient(redisOpt)
	defer queueClient.Close()

	processor := queue.NewTaskProcessor(docRepo, objectStore, extractor, splitter, vectorStore, queueClient)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 7,
				"low":     3,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err.Error())
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskReindexDocument, processor.HandleReindexDocument)
	mux.HandleFunc(queue.TaskReconcileSweep, processor.HandleReconcileSweep)

	// Periodic sweep for documents whose chunks never reached the index
	scheduler := queue.NewScheduler()
	interval := time.Duration(cfg.ReconcileIntervalSeconds) * time.Second
	if err := scheduler.ScheduleInterval("reconcile-sweep", interval, queueClient.EnqueueReconcileSweep); err != nil {
		log.Fatal("Failed to schedule reconcile sweep:", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Println("Starting worker...")
	log.Printf("   Reconcile interval: %s", interval)
	log.Printf("   Redis: %s", redisOpt.Addr)

	if err := server.Run(mux); err != nil {
		log.Fatal("Worker stopped:", err)
	}
}
