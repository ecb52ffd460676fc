package main

import (
	"context"
	"fmt"
	"log"

	"rag-document-service/internal/config"
	"rag-document-service/internal/database"
)

// Creates the documents table and the pgvector chunk table/index so the
// API and worker can start against an empty database.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	pool, err := config.ConnectPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Postgres:", err)
	}
	defer pool.Close()

	if _, err := database.NewDocumentRepository(pool); err != nil {
		log.Fatal("Failed to create documents schema:", err)
	}

	ctx := context.Background()
	statements := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			content TEXT NOT NULL,
			embedding vector(%d),
			metadata JSONB
		)`, cfg.VectorTableName, cfg.VectorDimensions),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx
			ON %s USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
			cfg.VectorTableName, cfg.VectorTableName),
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			log.Fatal("Migration failed:", err)
		}
	}

	log.Println("Migration complete")
}
