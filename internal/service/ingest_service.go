package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/eventkb/internal/ai"
	"github.com/xxxsen/eventkb/internal/filestore"
	"github.com/xxxsen/eventkb/internal/model"
	appErr "github.com/xxxsen/eventkb/internal/pkg/errors"
	"github.com/xxxsen/eventkb/internal/pkg/timeutil"
	"github.com/xxxsen/eventkb/internal/vectorindex"
)

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

type BatchReport struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

func (r *BatchReport) add(o Outcome) {
	switch o {
	case OutcomeCompleted:
		r.Completed++
	case OutcomeFailed:
		r.Failed++
	default:
		r.Skipped++
	}
}

type IngestService struct {
	sources   SourceStore
	acquirer  ContentAcquirer
	chunker   TextChunker
	embedder  ai.IEmbedder
	index     vectorindex.Index
	snapshots filestore.Store
	batchSize int
}

// NewIngestService builds the ingestion pipeline. snapshots may be nil.
func NewIngestService(sources SourceStore, acquirer ContentAcquirer, chunker TextChunker, embedder ai.IEmbedder, index vectorindex.Index, snapshots filestore.Store, batchSize int) *IngestService {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &IngestService{
		sources:   sources,
		acquirer:  acquirer,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		snapshots: snapshots,
		batchSize: batchSize,
	}
}

// ProcessPending runs every pending source through Process in registry
// order. A failing source never stops the batch.
func (s *IngestService) ProcessPending(ctx context.Context) (*BatchReport, error) {
	pending, err := s.sources.ListByStatus(ctx, model.SourceStatusPending, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("list pending sources: %w", err)
	}
	report := &BatchReport{Total: len(pending)}
	for i := range pending {
		if err := ctx.Err(); err != nil {
			report.Skipped += len(pending) - i
			break
		}
		report.add(s.Process(ctx, &pending[i]))
	}
	if report.Total > 0 {
		logutil.GetLogger(ctx).Info("ingestion batch finished",
			zap.Int("total", report.Total),
			zap.Int("completed", report.Completed),
			zap.Int("failed", report.Failed),
			zap.Int("skipped", report.Skipped),
		)
	}
	return report, nil
}

// Process claims a pending source and drives it to a terminal status. A
// source claimed by someone else is skipped untouched.
func (s *IngestService) Process(ctx context.Context, src *model.Source) Outcome {
	logger := logutil.GetLogger(ctx).With(zap.String("source_id", src.ID), zap.String("event_id", src.EventID))
	claimed, err := s.sources.UpdateStatusIf(ctx, src.ID, model.SourceStatusPending, model.SourceStatusProcessing, nil, timeutil.NowUnix())
	if err != nil {
		logger.Error("claim source failed", zap.Error(err))
		return OutcomeSkipped
	}
	if !claimed {
		logger.Debug("source already claimed")
		return OutcomeSkipped
	}
	logger.Info("processing source", zap.String("type", string(src.Type)))

	// A claimed source runs to a terminal status even when ctx is cancelled;
	// acquisition and provider timeouts bound the work.
	runCtx := context.WithoutCancel(ctx)
	chunkCount, runErr := s.ingest(runCtx, src)
	if runErr != nil {
		msg := runErr.Error()
		s.finish(runCtx, src.ID, model.SourceStatusFailed, &msg)
		logger.Warn("source ingestion failed", zap.Error(runErr))
		return OutcomeFailed
	}
	s.finish(runCtx, src.ID, model.SourceStatusCompleted, nil)
	logger.Info("source ingested", zap.Int("chunks", chunkCount))
	return OutcomeCompleted
}

const finishAttempts = 2

// finish moves a processing source to its terminal status, retrying the
// write once.
func (s *IngestService) finish(ctx context.Context, id string, to model.SourceStatus, errMsg *string) {
	logger := logutil.GetLogger(ctx).With(zap.String("source_id", id), zap.String("status", string(to)))
	for attempt := 1; attempt <= finishAttempts; attempt++ {
		ok, err := s.sources.UpdateStatusIf(ctx, id, model.SourceStatusProcessing, to, errMsg, timeutil.NowUnix())
		if err == nil {
			if !ok {
				logger.Warn("source left processing before terminal write")
			}
			return
		}
		logger.Error("write terminal status failed", zap.Int("attempt", attempt), zap.Error(err))
	}
}

func (s *IngestService) ingest(ctx context.Context, src *model.Source) (int, error) {
	text, err := s.acquirer.Acquire(ctx, src.Type, src.Content)
	if err != nil {
		return 0, err
	}
	s.snapshot(ctx, src, text)

	texts := s.chunker.Chunk(ctx, text)
	if len(texts) == 0 {
		return 0, fmt.Errorf("%w: no chunks produced", appErr.ErrEmptyContent)
	}
	vectors, err := ai.EmbedTexts(ctx, s.embedder, texts, ai.TaskRetrievalDocument)
	if err != nil {
		return 0, err
	}
	chunks := make([]model.Chunk, 0, len(texts))
	for i, t := range texts {
		chunks = append(chunks, model.Chunk{
			ChunkID:   model.ChunkID(src.ID, i),
			SourceID:  src.ID,
			Text:      t,
			Embedding: vectors[i],
		})
	}
	if err := s.index.Upsert(ctx, src.EventID, chunks); err != nil {
		if !errors.Is(err, appErr.ErrIndexWrite) {
			err = fmt.Errorf("%w: %w", appErr.ErrIndexWrite, err)
		}
		return 0, err
	}
	return len(chunks), nil
}

func SnapshotKey(eventID, sourceID string) string {
	return "sources/" + eventID + "/" + sourceID + ".txt"
}

func (s *IngestService) snapshot(ctx context.Context, src *model.Source, text string) {
	if s.snapshots == nil {
		return
	}
	key := SnapshotKey(src.EventID, src.ID)
	if err := s.snapshots.Put(ctx, key, strings.NewReader(text), int64(len(text))); err != nil {
		logutil.GetLogger(ctx).Warn("write source snapshot failed", zap.String("key", key), zap.Error(err))
	}
}
