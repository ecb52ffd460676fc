package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"rag-document-service/internal/database"
	"rag-document-service/models"
)

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
	puts    int
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.puts++
	f.objects[key] = data
	return nil
}

func (f *fakeObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

type fakeVectorIndex struct {
	mu        sync.Mutex
	chunks    []models.Chunk
	addErr    error
	searchErr error
	results   []models.RetrievedChunk
	searches  int
}

func (f *fakeVectorIndex) AddChunks(ctx context.Context, chunks []models.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *fakeVectorIndex) Search(ctx context.Context, query string, topK int, threshold float64) ([]models.RetrievedChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	f.searches++
	if f.results != nil {
		return f.results, nil
	}
	// Fall back to returning stored chunks in insertion order
	var out []models.RetrievedChunk
	for _, c := range f.chunks {
		if len(out) >= topK {
			break
		}
		out = append(out, models.RetrievedChunk{
			Content: c.Content,
			Metadata: map[string]any{
				"document_id": c.DocumentID,
				"chunk_index": float64(c.Index),
				"filename":    c.Filename,
				"distance":    0.1,
			},
		})
	}
	return out, nil
}

type fakeDocStore struct {
	mu        sync.Mutex
	docs      map[uuid.UUID]models.Document
	insertErr error
	inserts   int
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{docs: make(map[uuid.UUID]models.Document)}
}

func (f *fakeDocStore) Insert(ctx context.Context, doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserts++
	f.docs[doc.ID] = *doc
	return nil
}

func (f *fakeDocStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, database.ErrDocumentNotFound
	}
	return &doc, nil
}

func (f *fakeDocStore) List(ctx context.Context) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Document
	for _, doc := range f.docs {
		out = append(out, doc)
	}
	return out, nil
}

func (f *fakeDocStore) MarkIndexed(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return database.ErrDocumentNotFound
	}
	doc.Status = models.StatusIndexed
	f.docs[id] = doc
	return nil
}

type fakeGenerator struct {
	answer string
	err    error
	calls  int
	lastQ  string
	lastC  []string
}

func (f *fakeGenerator) GenerateAnswer(ctx context.Context, question string, contextChunks []string) (string, error) {
	f.calls++
	f.lastQ = question
	f.lastC = contextChunks
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type fakeScheduler struct {
	enqueued []string
	err      error
}

func (f *fakeScheduler) EnqueueReindex(documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, documentID)
	return nil
}
