package job

import (
	"context"

	"github.com/xxxsen/eventkb/internal/service"
)

type IngestJob struct {
	ingest *service.IngestService
}

func NewIngestJob(ingest *service.IngestService) *IngestJob {
	return &IngestJob{ingest: ingest}
}

func (j *IngestJob) Name() string {
	return "source_ingest"
}

func (j *IngestJob) Run(ctx context.Context) error {
	if j.ingest == nil {
		return nil
	}
	_, err := j.ingest.ProcessPending(ctx)
	return err
}
