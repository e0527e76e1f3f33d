package ports

import (
	"context"
	"io"

	"github.com/kirillkom/profile-export/internal/core/domain"
)

// ProfileProcessor is the inbound contract for turning one source PDF into a
// person output directory.
type ProfileProcessor interface {
	ProcessFile(ctx context.Context, runID, path string) domain.DocumentResult
}

// BatchProcessor runs a whole input directory.
type BatchProcessor interface {
	ProcessDirectory(ctx context.Context, dir string) (domain.BatchReport, error)
}

// ProfileSubmitter accepts an uploaded PDF for asynchronous processing.
type ProfileSubmitter interface {
	Submit(ctx context.Context, filename string, body io.Reader) (*domain.Job, error)
}

// JobProcessor handles one queued job.
type JobProcessor interface {
	ProcessJob(ctx context.Context, job domain.Job) error
}

// RunReader is the inbound read model for recorded run results.
type RunReader interface {
	ListByRun(ctx context.Context, runID string) ([]domain.DocumentResult, error)
}
