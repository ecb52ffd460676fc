package services

import (
	"context"
	"strconv"
	"strings"

	"rag-document-service/internal/logger"
	"rag-document-service/models"
)

// AnswerGenerator produces a natural-language answer for a question given
// retrieved context chunks. Implemented by the Gemini client.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, contextChunks []string) (string, error)
}

// QueryDefaults are the deployment defaults applied when the caller omits
// topK or the similarity threshold.
type QueryDefaults struct {
	TopK                int
	SimilarityThreshold float64
}

// RagQueryService answers questions by similarity search over indexed
// chunks followed by context-conditioned generation.
type RagQueryService struct {
	index     VectorIndex
	generator AnswerGenerator
	defaults  QueryDefaults
}

func NewRagQueryService(index VectorIndex, generator AnswerGenerator, defaults QueryDefaults) *RagQueryService {
	return &RagQueryService{
		index:     index,
		generator: generator,
		defaults:  defaults,
	}
}

// Query validates the request, retrieves the nearest chunks and generates
// an answer conditioned on them. Upstream failures abort the whole request;
// there is no partial response.
func (s *RagQueryService) Query(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, NewValidationError("Question cannot be blank")
	}

	topK := s.defaults.TopK
	if req.TopK != nil {
		if *req.TopK <= 0 {
			return nil, NewValidationError("topK must be positive")
		}
		topK = *req.TopK
	}

	threshold := s.defaults.SimilarityThreshold
	if req.SimilarityThreshold != nil {
		if *req.SimilarityThreshold < 0 || *req.SimilarityThreshold > 1 {
			return nil, NewValidationError("similarityThreshold must be between 0 and 1")
		}
		threshold = *req.SimilarityThreshold
	}

	retrieved, err := s.index.Search(ctx, question, topK, threshold)
	if err != nil {
		return nil, NewUpstreamQueryError("similarity search failed", err)
	}

	contextChunks := make([]string, len(retrieved))
	for i, chunk := range retrieved {
		contextChunks[i] = chunk.Content
	}

	answer, err := s.generator.GenerateAnswer(ctx, question, contextChunks)
	if err != nil {
		return nil, NewUpstreamQueryError("answer generation failed", err)
	}

	chunksUsed := make([]models.ChunkInfo, len(retrieved))
	for i, chunk := range retrieved {
		chunksUsed[i] = mapChunk(chunk)
	}

	logger.Info("query processed", "chunks", len(chunksUsed))

	return &models.QueryResponse{
		Answer:      answer,
		ChunksUsed:  chunksUsed,
		TotalChunks: len(chunksUsed),
	}, nil
}

// mapChunk converts index metadata into a response entry. Metadata values
// are duck-typed; anything unusable becomes null rather than failing the
// query.
func mapChunk(chunk models.RetrievedChunk) models.ChunkInfo {
	info := models.ChunkInfo{Content: chunk.Content}

	if raw, ok := chunk.Metadata["distance"]; ok {
		if d, ok := toFloat(raw); ok {
			score := 1.0 - d
			info.SimilarityScore = &score
		}
	}

	if raw, ok := chunk.Metadata["document_id"]; ok {
		if s, ok := raw.(string); ok && s != "" {
			info.DocumentID = &s
		}
	}

	if raw, ok := chunk.Metadata["chunk_index"]; ok {
		info.ChunkIndex = ParseChunkIndex(raw)
	}

	return info
}

// ParseChunkIndex accepts integer-typed and decimal-string-typed chunk
// ordinals ("3", "3.0", 3, 3.0) and truncates to an int. Unparseable
// values yield nil.
func ParseChunkIndex(value any) *int {
	if value == nil {
		return nil
	}

	var f float64
	switch v := value.(type) {
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case float64:
		f = v
	case float32:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	idx := int(f)
	return &idx
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
