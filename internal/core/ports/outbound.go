package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/profile-export/internal/core/domain"
)

// PageExtractor returns the grids and text stream of every page of a PDF.
type PageExtractor interface {
	Extract(ctx context.Context, path string) (*domain.ExtractedDocument, error)
}

// ProfileWriter persists one stitched profile under the output root. Profiles
// of the same run never share a directory.
type ProfileWriter interface {
	Write(ctx context.Context, outputRoot, runID string, profile *domain.Profile) (domain.WrittenProfile, error)
}

// ResultLedger records per-document results of every run.
type ResultLedger interface {
	Record(ctx context.Context, result domain.DocumentResult) error
	ListByRun(ctx context.Context, runID string) ([]domain.DocumentResult, error)
}

// ObjectStorage stores uploaded source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// JobQueue publishes/consumes processing jobs.
type JobQueue interface {
	PublishJob(ctx context.Context, job domain.Job) error
	SubscribeJobs(ctx context.Context, handler func(context.Context, domain.Job) error) error
}

// ProcessingObserver receives processing measurements.
type ProcessingObserver interface {
	StartDocument()
	FinishDocument(duration time.Duration, err error)
	ObserveDecisions(decisions []domain.Decision)
}

type QueueLagObserver interface {
	ObserveQueueLag(lag time.Duration)
}
