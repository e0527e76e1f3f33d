package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/profile-export/internal/core/domain"
	"github.com/kirillkom/profile-export/internal/core/ports"
)

type BatchOptions struct {
	Workers  int
	Logger   *slog.Logger
	NewRunID func() string
}

type BatchProcessUseCase struct {
	processor ports.ProfileProcessor
	workers   int
	logger    *slog.Logger
	newRunID  func() string
}

func NewBatchProcessUseCase(processor ports.ProfileProcessor, opts BatchOptions) *BatchProcessUseCase {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	newRunID := opts.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}
	return &BatchProcessUseCase{
		processor: processor,
		workers:   workers,
		logger:    logger,
		newRunID:  newRunID,
	}
}

// ProcessDirectory processes every PDF of dir. Documents run in parallel but
// results keep the sorted input order, and one failing document never affects
// the others.
func (uc *BatchProcessUseCase) ProcessDirectory(ctx context.Context, dir string) (domain.BatchReport, error) {
	files, err := ListPDFs(dir)
	if err != nil {
		return domain.BatchReport{}, err
	}
	return uc.run(ctx, files), nil
}

// ProcessSingle processes one file. A missing path yields the nothing-to-do
// outcome rather than an error result.
func (uc *BatchProcessUseCase) ProcessSingle(ctx context.Context, path string) (domain.BatchReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return uc.run(ctx, nil), nil
		}
		return domain.BatchReport{}, domain.WrapError(domain.ErrInvalidInput, "stat input file", err)
	}
	if info.IsDir() {
		return domain.BatchReport{}, domain.WrapError(domain.ErrInvalidInput, "stat input file", fmt.Errorf("%s is a directory", path))
	}
	return uc.run(ctx, []string{path}), nil
}

func (uc *BatchProcessUseCase) run(ctx context.Context, files []string) domain.BatchReport {
	runID := uc.newRunID()
	if len(files) == 0 {
		uc.logger.Info("nothing_to_do", "run_id", runID)
		return domain.BatchReport{RunID: runID, Outcome: domain.OutcomeNothingToDo, Results: []domain.DocumentResult{}}
	}

	results := make([]domain.DocumentResult, len(files))
	var g errgroup.Group
	g.SetLimit(uc.workers)
	for i, path := range files {
		g.Go(func() error {
			results[i] = uc.processor.ProcessFile(ctx, runID, path)
			return nil
		})
	}
	_ = g.Wait()

	report := domain.BatchReport{RunID: runID, Outcome: domain.OutcomeProcessed, Results: results}
	uc.logger.Info("batch_completed",
		"run_id", runID,
		"documents", len(results),
		"failed", report.Failed(),
		"workers", uc.workers,
	)
	return report
}

// ListPDFs returns the PDF files directly inside dir, sorted by name. The
// extension match is case-insensitive.
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrNoInput, "read input dir", err)
		}
		return nil, domain.WrapError(domain.ErrInvalidInput, "read input dir", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
