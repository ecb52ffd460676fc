package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"rag-document-service/models"
)

// Embedder turns text into embedding vectors. Implemented by the Gemini
// embedding client; faked in tests.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex accepts tagged chunks for indexing and answers similarity
// searches with scored chunks.
type VectorIndex interface {
	AddChunks(ctx context.Context, chunks []models.Chunk) error
	Search(ctx context.Context, query string, topK int, threshold float64) ([]models.RetrievedChunk, error)
}

type VectorStoreConfig struct {
	TableName string
	VectorDim int
	Embedder  Embedder
}

// PgVectorStore keeps chunk embeddings in a Postgres table with the
// pgvector extension and searches by cosine distance.
type PgVectorStore struct {
	config VectorStoreConfig
	pool   *pgxpool.Pool
}

func NewPgVectorStore(pool *pgxpool.Pool, config VectorStoreConfig) (*PgVectorStore, error) {
	if config.TableName == "" {
		config.TableName = "document_chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768 // text-embedding-004
	}
	if config.Embedder == nil {
		return nil, fmt.Errorf("vector store requires an embedder")
	}

	vs := &PgVectorStore{
		config: config,
		pool:   pool,
	}

	if err := vs.initialize(); err != nil {
		return nil, err
	}

	return vs, nil
}

func (vs *PgVectorStore) initialize() error {
	ctx := context.Background()

	_, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			content TEXT NOT NULL,
			embedding vector(%d),
			metadata JSONB
		)`, vs.config.TableName, vs.config.VectorDim)

	if _, err := vs.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		vs.config.TableName, vs.config.TableName)

	if _, err := vs.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}

	return nil
}

// AddChunks embeds and inserts the whole batch inside one transaction, so a
// mid-batch failure leaves no partial chunk set behind.
func (vs *PgVectorStore) AddChunks(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := vs.config.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to create embeddings: %w", err)
	}

	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, content, embedding, metadata)
		VALUES ($1, $2, $3, $4)`,
		vs.config.TableName)

	for i, chunk := range chunks {
		metadata := map[string]any{
			"document_id": chunk.DocumentID,
			"chunk_index": chunk.Index,
			"filename":    chunk.Filename,
		}

		_, err = tx.Exec(ctx, stmt,
			uuid.New(),
			chunk.Content,
			pgvector.NewVector(vectors[i]),
			metadata,
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %v", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

// Search embeds the query and returns up to topK chunks whose cosine
// similarity meets the threshold, nearest first. Each result's metadata
// carries the stored tags plus the reported cosine distance.
func (vs *PgVectorStore) Search(ctx context.Context, query string, topK int, threshold float64) ([]models.RetrievedChunk, error) {
	queryVector, err := vs.config.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	sql := fmt.Sprintf(`
		SELECT content, metadata, embedding <=> $1 AS distance
		FROM %s
		WHERE 1 - (embedding <=> $1) >= $2
		ORDER BY embedding <=> $1
		LIMIT $3`,
		vs.config.TableName)

	rows, err := vs.pool.Query(ctx, sql, pgvector.NewVector(queryVector), threshold, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %v", err)
	}
	defer rows.Close()

	var results []models.RetrievedChunk
	for rows.Next() {
		var content string
		var metadata map[string]any
		var distance float64

		if err := rows.Scan(&content, &metadata, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}

		if metadata == nil {
			metadata = make(map[string]any)
		}
		metadata["distance"] = distance

		results = append(results, models.RetrievedChunk{
			Content:  content,
			Metadata: metadata,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %v", err)
	}

	return results, nil
}
