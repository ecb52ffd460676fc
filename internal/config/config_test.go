package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, int64(209715200), cfg.MaxFileSize)
	assert.Equal(t, []string{
		"application/pdf",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"text/plain",
	}, cfg.AllowedTypes)
	assert.Equal(t, 1000, cfg.MaxChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, "document_chunks", cfg.VectorTableName)
	assert.Equal(t, 768, cfg.VectorDimensions)
	assert.Equal(t, "local", cfg.StorageBackend)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, "text-embedding-004", cfg.GoogleEmbeddingsModel)
	assert.Equal(t, 5, cfg.DefaultTopK)
	assert.InDelta(t, 0.3, cfg.DefaultSimilarityThreshold, 1e-9)
	assert.Equal(t, 300, cfg.ReconcileIntervalSeconds)
	assert.False(t, cfg.TracingEnabled)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_FILE_SIZE", "1048576")
	t.Setenv("MAX_CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")
	t.Setenv("DEFAULT_TOP_K", "10")
	t.Setenv("DEFAULT_SIMILARITY_THRESHOLD", "0.7")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("CORS_ORIGINS", "https://app.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, int64(1048576), cfg.MaxFileSize)
	assert.Equal(t, 500, cfg.MaxChunkSize)
	assert.Equal(t, 50, cfg.ChunkOverlap)
	assert.Equal(t, 10, cfg.DefaultTopK)
	assert.InDelta(t, 0.7, cfg.DefaultSimilarityThreshold, 1e-9)
	assert.True(t, cfg.TracingEnabled)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORSOrigins)
}

func TestLoadConfig_RequiresGeminiKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoadConfig_RequiresS3BucketForS3Backend(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("S3_BUCKET", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_BUCKET")
}

func TestLoadConfig_RejectsBadChunkPolicy(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("MAX_CHUNK_SIZE", "100")
	t.Setenv("CHUNK_OVERLAP", "100")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHUNK_OVERLAP")
}

func TestLoadConfig_RejectsOutOfRangeThreshold(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("DEFAULT_SIMILARITY_THRESHOLD", "1.5")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFAULT_SIMILARITY_THRESHOLD")
}
