package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rag-document-service/models"
)

// ErrDocumentNotFound is returned for unknown document ids. Callers map it
// to their own not-found error kind.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentRepository persists document metadata records in a single
// Postgres table. Records are inserted once; only status is ever updated.
type DocumentRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentRepository(pool *pgxpool.Pool) (*DocumentRepository, error) {
	repo := &DocumentRepository{pool: pool}
	if err := repo.initialize(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *DocumentRepository) initialize() error {
	ctx := context.Background()

	createTable := `
		CREATE TABLE IF NOT EXISTS documents (
			id UUID PRIMARY KEY,
			filename TEXT NOT NULL,
			original_filename TEXT NOT NULL,
			storage_key TEXT NOT NULL,
			file_type TEXT NOT NULL,
			file_size BIGINT NOT NULL,
			chunk_count INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`

	if _, err := r.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create documents table: %v", err)
	}

	createIndex := `CREATE INDEX IF NOT EXISTS documents_status_idx ON documents (status)`
	if _, err := r.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create status index: %v", err)
	}

	return nil
}

func (r *DocumentRepository) Insert(ctx context.Context, doc *models.Document) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO documents (id, filename, original_filename, storage_key, file_type, file_size, chunk_count, status, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.ID, doc.Filename, doc.OriginalFilename, doc.StorageKey,
		doc.FileType, doc.FileSize, doc.ChunkCount, doc.Status, doc.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %v", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, filename, original_filename, storage_key, file_type, file_size, chunk_count, status, uploaded_at
		FROM documents WHERE id = $1`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to fetch document: %v", err)
	}
	return doc, nil
}

func (r *DocumentRepository) List(ctx context.Context) ([]models.Document, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, filename, original_filename, storage_key, file_type, file_size, chunk_count, status, uploaded_at
		FROM documents ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %v", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %v", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read documents: %v", err)
	}
	return docs, nil
}

// ListPending returns documents whose chunks never reached the vector
// index, for the background reconciler.
func (r *DocumentRepository) ListPending(ctx context.Context) ([]models.Document, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, filename, original_filename, storage_key, file_type, file_size, chunk_count, status, uploaded_at
		FROM documents WHERE status = $1`, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending documents: %v", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %v", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read documents: %v", err)
	}
	return docs, nil
}

func (r *DocumentRepository) MarkIndexed(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE documents SET status = $1 WHERE id = $2`, models.StatusIndexed, id)
	if err != nil {
		return fmt.Errorf("failed to update document status: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var doc models.Document
	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.OriginalFilename, &doc.StorageKey,
		&doc.FileType, &doc.FileSize, &doc.ChunkCount, &doc.Status, &doc.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
