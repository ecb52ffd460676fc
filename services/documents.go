package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"rag-document-service/internal/database"
	"rag-document-service/models"
)

// DocumentQueryService serves list, metadata, detail and download reads.
// Detail views re-run extraction and splitting against the stored object;
// no extracted text is cached.
type DocumentQueryService struct {
	docs      DocumentStore
	store     ObjectStore
	extractor *TextExtractor
	splitter  *ChunkSplitter
}

func NewDocumentQueryService(docs DocumentStore, store ObjectStore, extractor *TextExtractor, splitter *ChunkSplitter) *DocumentQueryService {
	return &DocumentQueryService{
		docs:      docs,
		store:     store,
		extractor: extractor,
		splitter:  splitter,
	}
}

// List returns all document records. Order is implementation-defined.
func (s *DocumentQueryService) List(ctx context.Context) ([]models.Document, error) {
	docs, err := s.docs.List(ctx)
	if err != nil {
		return nil, NewInternalError("failed to list documents", err)
	}
	return docs, nil
}

func (s *DocumentQueryService) GetMetadata(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrDocumentNotFound) {
			return nil, NewNotFoundError("Document not found with id: %s", id)
		}
		return nil, NewInternalError("failed to fetch document", err)
	}
	return doc, nil
}

// GetDetail fetches the original bytes and re-derives text and chunks with
// the current splitting policy. Boundaries match ingestion-time chunks as
// long as the policy is unchanged.
func (s *DocumentQueryService) GetDetail(ctx context.Context, id uuid.UUID) (*models.DocumentDetail, error) {
	doc, err := s.GetMetadata(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := s.store.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, NewUpstreamStorageError("failed to fetch stored document", err)
	}

	segments, err := s.extractor.Extract(data, doc.FileType)
	if err != nil {
		return nil, NewExtractionError("failed to extract document details", err)
	}

	chunks, err := s.splitter.Split(segments)
	if err != nil {
		return nil, NewInternalError("failed to split extracted text", err)
	}

	return &models.DocumentDetail{
		Document:      *doc,
		ExtractedText: strings.Join(segments, "\n\n"),
		Chunks:        chunks,
	}, nil
}

// Download returns the original bytes with the metadata needed to set the
// response content type and filename.
func (s *DocumentQueryService) Download(ctx context.Context, id uuid.UUID) ([]byte, *models.Document, error) {
	doc, err := s.GetMetadata(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.store.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, NewUpstreamStorageError("failed to fetch stored document", err)
	}

	return data, doc, nil
}
