package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"rag-document-service/internal/logger"
	"rag-document-service/models"
	"rag-document-service/services"
)

const (
	TaskReindexDocument = "index:document"
	TaskReconcileSweep  = "index:reconcile"
)

type ReindexPayload struct {
	DocumentID string `json:"document_id"`
}

// NewReindexTask creates a task that re-runs vector indexing for one
// pending document.
func NewReindexTask(documentID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ReindexPayload{DocumentID: documentID})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskReindexDocument,
		payload,
		asynq.MaxRetry(5),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("default"),
	), nil
}

// NewReconcileSweepTask creates the periodic sweep that enqueues re-index
// tasks for every pending document.
func NewReconcileSweepTask() *asynq.Task {
	return asynq.NewTask(
		TaskReconcileSweep,
		nil,
		asynq.MaxRetry(0),
		asynq.Timeout(5*time.Minute),
		asynq.Queue("low"),
	)
}

// Client enqueues background tasks. Implements services.ReindexScheduler.
type Client struct {
	client *asynq.Client
}

func NewClient(redisOpt asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpt)}
}

func (c *Client) EnqueueReindex(documentID string) error {
	task, err := NewReindexTask(documentID)
	if err != nil {
		return err
	}
	if _, err := c.client.Enqueue(task); err != nil {
		return fmt.Errorf("failed to enqueue re-index task: %w", err)
	}
	return nil
}

func (c *Client) EnqueueReconcileSweep() error {
	if _, err := c.client.Enqueue(NewReconcileSweepTask()); err != nil {
		return fmt.Errorf("failed to enqueue reconcile sweep: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// DocumentStore adds the pending listing the reconciler needs on top of
// what the pipelines use. Satisfied by database.DocumentRepository.
type DocumentStore interface {
	services.DocumentStore
	ListPending(ctx context.Context) ([]models.Document, error)
}

// TaskProcessor reconciles pending documents: it re-derives chunks from the
// stored object and pushes them into the vector index.
type TaskProcessor struct {
	docs      DocumentStore
	store     services.ObjectStore
	extractor *services.TextExtractor
	splitter  *services.ChunkSplitter
	index     services.VectorIndex
	client    *Client
}

func NewTaskProcessor(
	docs DocumentStore,
	store services.ObjectStore,
	extractor *services.TextExtractor,
	splitter *services.ChunkSplitter,
	index services.VectorIndex,
	client *Client,
) *TaskProcessor {
	return &TaskProcessor{
		docs:      docs,
		store:     store,
		extractor: extractor,
		splitter:  splitter,
		index:     index,
		client:    client,
	}
}

// HandleReindexDocument re-runs fetch, extraction, splitting and indexing
// for one document. Already-indexed documents are skipped without retry.
func (p *TaskProcessor) HandleReindexDocument(ctx context.Context, t *asynq.Task) error {
	var payload ReindexPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	id, err := uuid.Parse(payload.DocumentID)
	if err != nil {
		return fmt.Errorf("bad document id %q: %w", payload.DocumentID, asynq.SkipRetry)
	}

	doc, err := p.docs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if doc.Status == models.StatusIndexed {
		logger.Debug("document already indexed, skipping", "document_id", payload.DocumentID)
		return nil
	}

	data, err := p.store.Get(ctx, doc.StorageKey)
	if err != nil {
		return fmt.Errorf("failed to fetch stored object: %w", err)
	}

	segments, err := p.extractor.Extract(data, doc.FileType)
	if err != nil || len(segments) == 0 {
		// Retrying will not make a corrupt object readable.
		return fmt.Errorf("extraction failed for %s: %v: %w", payload.DocumentID, err, asynq.SkipRetry)
	}

	chunkTexts, err := p.splitter.Split(segments)
	if err != nil {
		return fmt.Errorf("splitting failed: %w", err)
	}

	chunks := services.TagChunks(doc, chunkTexts)
	if err := p.index.AddChunks(ctx, chunks); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	if err := p.docs.MarkIndexed(ctx, doc.ID); err != nil {
		return err
	}

	logger.Info("document reconciled", "document_id", payload.DocumentID, "chunks", len(chunks))
	return nil
}

// HandleReconcileSweep enqueues a re-index task for every pending document.
func (p *TaskProcessor) HandleReconcileSweep(ctx context.Context, t *asynq.Task) error {
	pending, err := p.docs.ListPending(ctx)
	if err != nil {
		return err
	}

	for _, doc := range pending {
		if err := p.client.EnqueueReindex(doc.ID.String()); err != nil {
			logger.Error("failed to enqueue re-index", "document_id", doc.ID.String(), "error", err)
		}
	}

	if len(pending) > 0 {
		logger.Info("reconcile sweep enqueued re-index tasks", "count", len(pending))
	}
	return nil
}
