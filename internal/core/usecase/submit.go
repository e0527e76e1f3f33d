package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/profile-export/internal/core/domain"
	"github.com/kirillkom/profile-export/internal/core/ports"
)

type SubmitProfileUseCase struct {
	storage ports.ObjectStorage
	queue   ports.JobQueue
	ledger  ports.ResultLedger
	now     func() time.Time
}

func NewSubmitProfileUseCase(
	storage ports.ObjectStorage,
	queue ports.JobQueue,
	ledger ports.ResultLedger,
) *SubmitProfileUseCase {
	return &SubmitProfileUseCase{
		storage: storage,
		queue:   queue,
		ledger:  ledger,
		now:     time.Now,
	}
}

func (uc *SubmitProfileUseCase) Submit(ctx context.Context, filename string, body io.Reader) (*domain.Job, error) {
	document := sanitizeFilename(filename)
	if !strings.EqualFold(filepath.Ext(document), ".pdf") {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit profile", errors.New("only .pdf documents are accepted"))
	}

	runID := uuid.NewString()
	now := uc.now().UTC()
	job := &domain.Job{
		RunID:      runID,
		Document:   document,
		Key:        fmt.Sprintf("%s_%s", runID, document),
		EnqueuedAt: now,
	}

	if err := uc.storage.Save(ctx, job.Key, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	queued := domain.DocumentResult{
		RunID:     runID,
		Document:  document,
		Status:    domain.StatusQueued,
		Message:   fmt.Sprintf("Queued %s", document),
		Files:     []string{},
		CreatedAt: now,
	}
	if err := uc.ledger.Record(ctx, queued); err != nil {
		return nil, fmt.Errorf("record queued run: %w", err)
	}

	if err := uc.queue.PublishJob(ctx, *job); err != nil {
		return nil, fmt.Errorf("publish processing job: %w", err)
	}

	return job, nil
}

// sanitizeFilename keeps the base name and lets umlauts through, since the
// output directory is derived from it later.
func sanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case strings.ContainsRune("äöüÄÖÜß", r):
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == "_" {
		return "document.pdf"
	}
	return base
}
