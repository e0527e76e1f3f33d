package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kirillkom/profile-export/internal/core/domain"
	"github.com/kirillkom/profile-export/internal/core/ports"
)

// ProcessJobUseCase runs queued jobs: the stored PDF is spooled to a local
// file carrying the original document name and processed like a CLI input.
type ProcessJobUseCase struct {
	storage   ports.ObjectStorage
	processor ports.ProfileProcessor
	ledger    ports.ResultLedger
	lag       ports.QueueLagObserver
	logger    *slog.Logger
}

func NewProcessJobUseCase(
	storage ports.ObjectStorage,
	processor ports.ProfileProcessor,
	ledger ports.ResultLedger,
	logger *slog.Logger,
) *ProcessJobUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessJobUseCase{
		storage:   storage,
		processor: processor,
		ledger:    ledger,
		logger:    logger,
	}
}

func (uc *ProcessJobUseCase) WithLagObserver(observer ports.QueueLagObserver) *ProcessJobUseCase {
	uc.lag = observer
	return uc
}

// ProcessJob returns an error only when the job could not be attempted; a
// document that fails to process is recorded and acknowledged.
func (uc *ProcessJobUseCase) ProcessJob(ctx context.Context, job domain.Job) error {
	if job.RunID == "" || job.Key == "" {
		return domain.WrapError(domain.ErrInvalidInput, "process job", fmt.Errorf("job is missing run id or key"))
	}
	document := job.Document
	if document == "" {
		document = sanitizeFilename(job.Key)
	}
	if uc.lag != nil && !job.EnqueuedAt.IsZero() {
		uc.lag.ObserveQueueLag(time.Since(job.EnqueuedAt))
	}

	path, cleanup, err := uc.spool(ctx, job.Key, document)
	if err != nil {
		uc.recordFailure(ctx, job.RunID, document, err)
		return fmt.Errorf("spool job %s: %w", job.RunID, err)
	}
	defer cleanup()

	result := uc.processor.ProcessFile(ctx, job.RunID, path)
	uc.logger.Info("job_completed",
		"run_id", job.RunID,
		"document", document,
		"status", string(result.Status),
	)
	return nil
}

func (uc *ProcessJobUseCase) spool(ctx context.Context, key, document string) (string, func(), error) {
	src, err := uc.storage.Open(ctx, key)
	if err != nil {
		return "", nil, domain.WrapError(domain.ErrNotFound, "open stored document", err)
	}
	defer src.Close()

	dir, err := os.MkdirTemp("", "profilex-job-")
	if err != nil {
		return "", nil, fmt.Errorf("create spool dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	path := filepath.Join(dir, filepath.Base(document))
	dst, err := os.Create(path)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("create spool file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		cleanup()
		return "", nil, fmt.Errorf("copy stored document: %w", err)
	}
	if err := dst.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close spool file: %w", err)
	}
	return path, cleanup, nil
}

func (uc *ProcessJobUseCase) recordFailure(ctx context.Context, runID, document string, cause error) {
	if uc.ledger == nil {
		return
	}
	result := domain.DocumentResult{
		RunID:     runID,
		Document:  document,
		Status:    domain.StatusError,
		Message:   fmt.Sprintf("Error processing %s: %s", document, domain.Describe(cause)),
		Files:     []string{},
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.ledger.Record(ctx, result); err != nil {
		uc.logger.Warn("ledger_record_failed", "run_id", runID, "document", document, "error", err)
	}
}
