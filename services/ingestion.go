package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"rag-document-service/internal/logger"
	"rag-document-service/models"
)

// DocumentStore is the persistence surface the pipelines need. Implemented
// by database.DocumentRepository; faked in tests.
type DocumentStore interface {
	Insert(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	List(ctx context.Context) ([]models.Document, error)
	MarkIndexed(ctx context.Context, id uuid.UUID) error
}

// ReindexScheduler enqueues a background re-index attempt for a document
// whose chunks never reached the vector index. Optional; nil disables it.
type ReindexScheduler interface {
	EnqueueReindex(documentID string) error
}

// IngestionLimits are the upload validation constraints.
type IngestionLimits struct {
	MaxFileSize  int64
	AllowedTypes []string
}

// IngestionService orchestrates upload validation, object-store write, text
// extraction, chunk splitting, metadata persistence and vector indexing.
type IngestionService struct {
	limits    IngestionLimits
	store     ObjectStore
	extractor *TextExtractor
	splitter  *ChunkSplitter
	index     VectorIndex
	docs      DocumentStore
	reindex   ReindexScheduler
}

func NewIngestionService(
	limits IngestionLimits,
	store ObjectStore,
	extractor *TextExtractor,
	splitter *ChunkSplitter,
	index VectorIndex,
	docs DocumentStore,
	reindex ReindexScheduler,
) *IngestionService {
	return &IngestionService{
		limits:    limits,
		store:     store,
		extractor: extractor,
		splitter:  splitter,
		index:     index,
		docs:      docs,
		reindex:   reindex,
	}
}

// Ingest runs the full pipeline for one upload. Validation failures happen
// before any external call. The relational insert is the point of no
// return: an indexing failure afterwards leaves the record pending and the
// request fails, but the document exists.
func (s *IngestionService) Ingest(ctx context.Context, upload models.FileUpload) (*models.Document, error) {
	if err := s.validate(upload); err != nil {
		return nil, err
	}

	storageKey := uuid.New().String() + "_" + upload.Filename

	if err := s.store.Put(ctx, storageKey, upload.Data, upload.ContentType); err != nil {
		return nil, NewUpstreamStorageError("failed to store uploaded file", err)
	}

	segments, err := s.extractor.Extract(upload.Data, upload.ContentType)
	if err != nil {
		return nil, NewExtractionError("failed to extract text from document", err)
	}
	if len(segments) == 0 {
		return nil, NewExtractionError("no text could be extracted from document", nil)
	}

	chunkTexts, err := s.splitter.Split(segments)
	if err != nil {
		return nil, NewInternalError("failed to split extracted text", err)
	}

	doc := &models.Document{
		ID:               uuid.New(),
		Filename:         storageKey,
		OriginalFilename: upload.Filename,
		StorageKey:       storageKey,
		FileType:         upload.ContentType,
		FileSize:         upload.Size,
		ChunkCount:       len(chunkTexts),
		Status:           models.StatusPending,
		UploadedAt:       time.Now().UTC(),
	}

	if err := s.docs.Insert(ctx, doc); err != nil {
		return nil, NewInternalError("failed to persist document record", err)
	}

	chunks := TagChunks(doc, chunkTexts)

	if err := s.index.AddChunks(ctx, chunks); err != nil {
		logger.Error("vector indexing failed, document left pending",
			"document_id", doc.ID.String(), "chunks", len(chunks), "error", err)
		if s.reindex != nil {
			if qerr := s.reindex.EnqueueReindex(doc.ID.String()); qerr != nil {
				logger.Error("failed to enqueue re-index task", "document_id", doc.ID.String(), "error", qerr)
			}
		}
		return nil, NewUpstreamIndexError("failed to index document chunks", err)
	}

	if err := s.docs.MarkIndexed(ctx, doc.ID); err != nil {
		// Chunks are searchable; only the status flag is stale. The
		// reconciler will re-run and converge it.
		logger.Error("failed to mark document indexed", "document_id", doc.ID.String(), "error", err)
	} else {
		doc.Status = models.StatusIndexed
	}

	logger.Info("document ingested",
		"document_id", doc.ID.String(),
		"filename", doc.OriginalFilename,
		"chunks", doc.ChunkCount)

	return doc, nil
}

// TagChunks attaches (document id, 0-based ordinal, original filename) to
// each chunk text, in splitting order.
func TagChunks(doc *models.Document, chunkTexts []string) []models.Chunk {
	chunks := make([]models.Chunk, len(chunkTexts))
	for i, text := range chunkTexts {
		chunks[i] = models.Chunk{
			Content:    text,
			DocumentID: doc.ID.String(),
			Index:      i,
			Filename:   doc.OriginalFilename,
		}
	}
	return chunks
}

func (s *IngestionService) validate(upload models.FileUpload) error {
	if len(upload.Data) == 0 {
		return NewValidationError("File cannot be empty")
	}

	if upload.Size > s.limits.MaxFileSize {
		return NewValidationError("File size exceeds maximum allowed size of %d bytes", s.limits.MaxFileSize)
	}

	allowed := false
	for _, t := range s.limits.AllowedTypes {
		if strings.EqualFold(strings.TrimSpace(t), upload.ContentType) {
			allowed = true
			break
		}
	}
	if !allowed {
		return NewValidationError("Invalid file type. Allowed types: PDF, DOCX, TXT")
	}

	if strings.TrimSpace(upload.Filename) == "" {
		return NewValidationError("Filename cannot be empty")
	}

	return nil
}
