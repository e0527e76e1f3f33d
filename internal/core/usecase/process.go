package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/kirillkom/profile-export/internal/core/domain"
	"github.com/kirillkom/profile-export/internal/core/ports"
	"github.com/kirillkom/profile-export/internal/core/stitching"
)

type ProcessOptions struct {
	OutputRoot string
	// RunSubdirectories writes each run below OutputRoot/<run id>. Queue jobs
	// are one run each, so this keeps independent uploads apart.
	RunSubdirectories bool
	DocumentTimeout   time.Duration
	Observer        ports.ProcessingObserver
	Logger          *slog.Logger
}

type ProcessProfileUseCase struct {
	extractor ports.PageExtractor
	engine    *stitching.Engine
	writer    ports.ProfileWriter
	ledger    ports.ResultLedger
	observer  ports.ProcessingObserver
	logger    *slog.Logger

	outputRoot string
	runSubdirs bool
	timeout    time.Duration
	now        func() time.Time
}

func NewProcessProfileUseCase(
	extractor ports.PageExtractor,
	engine *stitching.Engine,
	writer ports.ProfileWriter,
	ledger ports.ResultLedger,
	opts ProcessOptions,
) *ProcessProfileUseCase {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessProfileUseCase{
		extractor:  extractor,
		engine:     engine,
		writer:     writer,
		ledger:     ledger,
		observer:   opts.Observer,
		logger:     logger,
		outputRoot: opts.OutputRoot,
		runSubdirs: opts.RunSubdirectories,
		timeout:    opts.DocumentTimeout,
		now:        time.Now,
	}
}

// ProcessFile never returns an error: every failure is folded into the result.
func (uc *ProcessProfileUseCase) ProcessFile(ctx context.Context, runID, path string) domain.DocumentResult {
	name := filepath.Base(path)
	start := uc.now()
	if uc.observer != nil {
		uc.observer.StartDocument()
	}

	written, err := uc.processPipeline(ctx, runID, path)

	if uc.observer != nil {
		uc.observer.FinishDocument(uc.now().Sub(start), err)
	}

	result := domain.DocumentResult{
		RunID:     runID,
		Document:  name,
		Files:     []string{},
		CreatedAt: uc.now().UTC(),
	}
	if err != nil {
		uc.logger.Error("document_failed",
			"run_id", runID,
			"document", name,
			"error", err,
		)
		result.Status = domain.StatusError
		result.Message = fmt.Sprintf("Error processing %s: %s", name, domain.Describe(err))
	} else {
		uc.logger.Info("document_processed",
			"run_id", runID,
			"document", name,
			"files", len(written.Files),
			"duration_ms", float64(uc.now().Sub(start).Microseconds())/1000.0,
		)
		result.Status = domain.StatusSuccess
		result.Message = fmt.Sprintf("Successfully processed %s", name)
		result.Files = written.Files
		result.OutputDir = written.Dir
	}

	uc.record(ctx, result)
	return result
}

func (uc *ProcessProfileUseCase) processPipeline(ctx context.Context, runID, path string) (written domain.WrittenProfile, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.WrapError(domain.ErrExtraction, "process document", fmt.Errorf("panic: %v", r))
		}
	}()

	doc, err := uc.extract(ctx, path)
	if err != nil {
		return domain.WrittenProfile{}, err
	}

	profile, err := uc.engine.Stitch(doc)
	if err != nil {
		return domain.WrittenProfile{}, fmt.Errorf("stitch tables: %w", err)
	}
	if uc.observer != nil {
		uc.observer.ObserveDecisions(profile.Trace)
	}

	written, err = uc.writer.Write(ctx, uc.runRoot(runID), runID, profile)
	if err != nil {
		return domain.WrittenProfile{}, fmt.Errorf("write profile: %w", err)
	}
	return written, nil
}

func (uc *ProcessProfileUseCase) runRoot(runID string) string {
	if !uc.runSubdirs || runID == "" {
		return uc.outputRoot
	}
	dir := sanitizeFilename(runID)
	if strings.Trim(dir, ".") == "" {
		dir = "run"
	}
	return filepath.Join(uc.outputRoot, dir)
}

func (uc *ProcessProfileUseCase) extract(ctx context.Context, path string) (*domain.ExtractedDocument, error) {
	extractCtx := ctx
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		extractCtx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	doc, err := uc.extractor.Extract(extractCtx, path)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("extract pages: %w", err)
		}
		if domain.IsKind(err, domain.ErrExtraction) || domain.IsKind(err, domain.ErrInvalidInput) {
			return nil, fmt.Errorf("extract pages: %w", err)
		}
		return nil, domain.WrapError(domain.ErrExtraction, "extract pages", err)
	}
	if doc == nil {
		return nil, domain.WrapError(domain.ErrExtraction, "extract pages", errors.New("extractor returned no document"))
	}
	if doc.Name == "" {
		doc.Name = filepath.Base(path)
	}
	return doc, nil
}

func (uc *ProcessProfileUseCase) record(ctx context.Context, result domain.DocumentResult) {
	if uc.ledger == nil || result.RunID == "" {
		return
	}
	if err := uc.ledger.Record(ctx, result); err != nil {
		uc.logger.Warn("ledger_record_failed",
			"run_id", result.RunID,
			"document", result.Document,
			"error", err,
		)
	}
}
