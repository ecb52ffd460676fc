package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-document-service/internal/database"
	"rag-document-service/models"
	"rag-document-service/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memObjectStore struct {
	objects map[string][]byte
}

func (m *memObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	m.objects[key] = data
	return nil
}

func (m *memObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

type memVectorIndex struct {
	chunks []models.Chunk
}

func (m *memVectorIndex) AddChunks(ctx context.Context, chunks []models.Chunk) error {
	m.chunks = append(m.chunks, chunks...)
	return nil
}

func (m *memVectorIndex) Search(ctx context.Context, query string, topK int, threshold float64) ([]models.RetrievedChunk, error) {
	var out []models.RetrievedChunk
	for _, c := range m.chunks {
		if len(out) >= topK {
			break
		}
		out = append(out, models.RetrievedChunk{
			Content: c.Content,
			Metadata: map[string]any{
				"document_id": c.DocumentID,
				"chunk_index": float64(c.Index),
				"distance":    0.2,
			},
		})
	}
	return out, nil
}

type memDocStore struct {
	docs map[uuid.UUID]models.Document
}

func (m *memDocStore) Insert(ctx context.Context, doc *models.Document) error {
	m.docs[doc.ID] = *doc
	return nil
}

func (m *memDocStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, database.ErrDocumentNotFound
	}
	return &doc, nil
}

func (m *memDocStore) List(ctx context.Context) ([]models.Document, error) {
	var out []models.Document
	for _, d := range m.docs {
		out = append(out, d)
	}
	return out, nil
}

func (m *memDocStore) MarkIndexed(ctx context.Context, id uuid.UUID) error {
	doc, ok := m.docs[id]
	if !ok {
		return database.ErrDocumentNotFound
	}
	doc.Status = models.StatusIndexed
	m.docs[id] = doc
	return nil
}

type staticGenerator struct{}

func (staticGenerator) GenerateAnswer(ctx context.Context, question string, contextChunks []string) (string, error) {
	return "generated answer", nil
}

func newTestRouter() *gin.Engine {
	store := &memObjectStore{objects: make(map[string][]byte)}
	index := &memVectorIndex{}
	docs := &memDocStore{docs: make(map[uuid.UUID]models.Document)}
	extractor := services.NewTextExtractor()
	splitter := services.NewChunkSplitter(1000, 200)

	limits := services.IngestionLimits{
		MaxFileSize:  1024 * 1024,
		AllowedTypes: []string{services.MIMETypePDF, services.MIMETypeDOCX, services.MIMETypeText},
	}
	ingestion := services.NewIngestionService(limits, store, extractor, splitter, index, docs, nil)
	docQuery := services.NewDocumentQueryService(docs, store, extractor, splitter)
	ragQuery := services.NewRagQueryService(index, staticGenerator{}, services.QueryDefaults{TopK: 5, SimilarityThreshold: 0.3})

	router := gin.New()
	SetupDocumentRoutes(router, ingestion, docQuery, limits.MaxFileSize)
	SetupQueryRoutes(router, ragQuery)
	return router
}

func multipartUpload(t *testing.T, fieldFilename, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(map[string][]string)
	h["Content-Disposition"] = []string{`form-data; name="file"; filename="` + fieldFilename + `"`}
	h["Content-Type"] = []string{contentType}
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)

	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func doUpload(t *testing.T, router *gin.Engine, filename, contentType, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, formType := multipartUpload(t, filename, contentType, content)
	req := httptest.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", formType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadEndpoint(t *testing.T) {
	router := newTestRouter()

	w := doUpload(t, router, "notes.txt", "text/plain", "Paris is the capital of France.")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body struct {
		Status     string          `json:"status"`
		StatusCode int             `json:"status_code"`
		Message    string          `json:"message"`
		Data       models.Document `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, http.StatusCreated, body.StatusCode)
	assert.Equal(t, "Document uploaded and processed successfully", body.Message)
	assert.Equal(t, "notes.txt", body.Data.OriginalFilename)
	assert.Equal(t, models.StatusIndexed, body.Data.Status)
	assert.Positive(t, body.Data.ChunkCount)
}

func TestUploadEndpoint_MissingFilePart(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/documents/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadEndpoint_DisallowedType(t *testing.T) {
	router := newTestRouter()

	w := doUpload(t, router, "pic.gif", "image/gif", "GIF89a")
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Bad Request", body["error"])
	assert.Contains(t, body["message"], "Invalid file type")
}

func TestListEndpoint_EmptyIsArray(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`, "empty list must serialize as [], not null")
}

func TestDetailEndpoint(t *testing.T) {
	router := newTestRouter()

	w := doUpload(t, router, "notes.txt", "text/plain", "Some file body text.")
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data models.Document `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	req := httptest.NewRequest(http.MethodGet, "/documents/"+created.Data.ID.String(), nil)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	require.Equal(t, http.StatusOK, w2.Code, w2.Body.String())

	var detail struct {
		Data models.DocumentDetailResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &detail))
	assert.Equal(t, created.Data.ID, detail.Data.ID)
	assert.Equal(t, "Some file body text.", detail.Data.ExtractedText)
	require.Len(t, detail.Data.Chunks, 1)
}

func TestDetailEndpoint_InvalidID(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/documents/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDetailEndpoint_NotFound(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/documents/"+uuid.New().String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Not Found", body["error"])
}

func TestDownloadEndpoint(t *testing.T) {
	router := newTestRouter()

	w := doUpload(t, router, "notes.txt", "text/plain", "exact original bytes")
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data models.Document `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	req := httptest.NewRequest(http.MethodGet, "/documents/"+created.Data.ID.String()+"/download", nil)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)

	require.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, "exact original bytes", w2.Body.String())
	assert.Contains(t, w2.Header().Get("Content-Disposition"), `filename="notes.txt"`)
	assert.Contains(t, w2.Header().Get("Content-Type"), "text/plain")
}

func TestQueryEndpoint(t *testing.T) {
	router := newTestRouter()

	w := doUpload(t, router, "facts.txt", "text/plain", "Paris is the capital of France.")
	require.Equal(t, http.StatusCreated, w.Code)

	reqBody := `{"question":"What is the capital of France?"}`
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	require.Equal(t, http.StatusOK, w2.Code, w2.Body.String())

	var body struct {
		Data models.QueryResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &body))
	assert.Equal(t, "generated answer", body.Data.Answer)
	require.NotEmpty(t, body.Data.ChunksUsed)
	assert.Equal(t, len(body.Data.ChunksUsed), body.Data.TotalChunks)

	cited := body.Data.ChunksUsed[0]
	require.NotNil(t, cited.SimilarityScore)
	assert.InDelta(t, 0.8, *cited.SimilarityScore, 1e-9)
	require.NotNil(t, cited.DocumentID)
	require.NotNil(t, cited.ChunkIndex)
}

func TestQueryEndpoint_MissingQuestion(t *testing.T) {
	router := newTestRouter()

	for _, payload := range []string{`{}`, `{"question":""}`, `not json`} {
		req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code, payload)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Question cannot be blank", body["message"])
	}
}

func TestQueryEndpoint_InvalidTopK(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"question":"q","topK":0}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
