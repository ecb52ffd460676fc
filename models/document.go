package models

import (
	"time"

	"github.com/google/uuid"
)

// Document status values. A record is inserted as pending and flipped to
// indexed once its chunks are stored in the vector index. A pending record
// is visible but not yet retrievable by query.
const (
	StatusPending = "pending"
	StatusIndexed = "indexed"
)

// Document is the persisted metadata record for one uploaded file.
// Created once at ingestion; only Status is ever updated afterwards.
type Document struct {
	ID               uuid.UUID `json:"id"`
	Filename         string    `json:"filename"`          // generated, collision-resistant
	OriginalFilename string    `json:"original_filename"` // user-supplied
	StorageKey       string    `json:"storage_key"`
	FileType         string    `json:"file_type"`
	FileSize         int64     `json:"file_size"`
	ChunkCount       int       `json:"chunk_count"`
	Status           string    `json:"status"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// Chunk is a text segment handed to the vector index at ingestion time.
// Index is the 0-based ordinal within the originating document.
type Chunk struct {
	Content    string
	DocumentID string
	Index      int
	Filename   string
}

// RetrievedChunk is a chunk returned from a similarity search. Metadata
// carries whatever the index stored alongside the embedding plus a
// "distance" entry when the backend reports one; values are duck-typed
// (JSONB numbers decode as float64, some backends return strings).
type RetrievedChunk struct {
	Content  string
	Metadata map[string]any
}

// FileUpload is the validated input to the ingestion pipeline.
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// DocumentDetail is the detail-view payload: metadata plus text and chunks
// re-derived live from the stored object.
type DocumentDetail struct {
	Document      Document
	ExtractedText string
	Chunks        []string
}

// QueryRequest is the RAG query input. TopK and SimilarityThreshold are
// optional on the wire; nil means "use the deployment default".
type QueryRequest struct {
	Question            string   `json:"question" binding:"required"`
	TopK                *int     `json:"topK"`
	SimilarityThreshold *float64 `json:"similarityThreshold"`
}

// ChunkInfo is one cited chunk in a query response. SimilarityScore,
// DocumentID and ChunkIndex are null when the index did not report usable
// metadata for them.
type ChunkInfo struct {
	Content         string   `json:"content"`
	SimilarityScore *float64 `json:"similarity_score"`
	DocumentID      *string  `json:"document_id"`
	ChunkIndex      *int     `json:"chunk_index"`
}

// QueryResponse is the assembled RAG answer with its supporting chunks in
// retrieval order.
type QueryResponse struct {
	Answer      string      `json:"answer"`
	ChunksUsed  []ChunkInfo `json:"chunks_used"`
	TotalChunks int         `json:"total_chunks"`
}

// DocumentDetailResponse is the wire shape for the detail endpoint.
type DocumentDetailResponse struct {
	Document
	ExtractedText string   `json:"extracted_text"`
	Chunks        []string `json:"chunks"`
}
