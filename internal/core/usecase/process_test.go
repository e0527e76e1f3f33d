package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/profile-export/internal/core/domain"
	"github.com/kirillkom/profile-export/internal/core/stitching"
)

type extractorFake struct {
	errs    map[string]error
	panicOn string
	block   bool
}

func (f *extractorFake) Extract(ctx context.Context, path string) (*domain.ExtractedDocument, error) {
	name := filepath.Base(path)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if name == f.panicOn {
		panic("malformed cross-reference table")
	}
	if err := f.errs[name]; err != nil {
		return nil, err
	}
	return workDocument(name), nil
}

func workDocument(name string) *domain.ExtractedDocument {
	return &domain.ExtractedDocument{
		Name: name,
		Pages: []domain.Page{{
			Number: 1,
			Grids: []domain.Grid{{
				{"Beginn", "Ende", "Unternehmen", "Bezeichnung", "Allg Beschreibung"},
				{"2001", "2005", "Muster GmbH", "Monteur", "Montage"},
			}},
		}},
	}
}

type writerFake struct {
	mu       sync.Mutex
	profiles []*domain.Profile
	roots    []string
	err      error
}

func (f *writerFake) Write(_ context.Context, root, _ string, profile *domain.Profile) (domain.WrittenProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.WrittenProfile{}, f.err
	}
	f.profiles = append(f.profiles, profile)
	f.roots = append(f.roots, root)
	var files []string
	for _, table := range profile.Outputs() {
		files = append(files, table.Category.Filename())
	}
	return domain.WrittenProfile{Dir: filepath.Join(root, profile.Source), Files: files}, nil
}

type ledgerFake struct {
	mu      sync.Mutex
	results []domain.DocumentResult
	err     error
}

func (f *ledgerFake) Record(_ context.Context, result domain.DocumentResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.results = append(f.results, result)
	return nil
}

func (f *ledgerFake) ListByRun(_ context.Context, runID string) ([]domain.DocumentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.DocumentResult
	for _, r := range f.results {
		if r.RunID == runID {
			out = append(out, r)
		}
	}
	return out, nil
}

type observerFake struct {
	mu        sync.Mutex
	started   int
	finished  int
	failed    int
	decisions int
}

func (f *observerFake) StartDocument() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
}

func (f *observerFake) FinishDocument(_ time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished++
	if err != nil {
		f.failed++
	}
}

func (f *observerFake) ObserveDecisions(decisions []domain.Decision) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decisions += len(decisions)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newProcessUseCase(extractor *extractorFake, writer *writerFake, ledger *ledgerFake, observer *observerFake, timeout time.Duration) *ProcessProfileUseCase {
	engine := stitching.NewEngine(domain.DefaultVocabulary(), discardLogger())
	opts := ProcessOptions{
		OutputRoot:      "/out",
		DocumentTimeout: timeout,
		Logger:          discardLogger(),
	}
	if observer != nil {
		opts.Observer = observer
	}
	return NewProcessProfileUseCase(extractor, engine, writer, ledger, opts)
}

func TestProcessFileSuccess(t *testing.T) {
	writer := &writerFake{}
	ledger := &ledgerFake{}
	observer := &observerFake{}
	uc := newProcessUseCase(&extractorFake{}, writer, ledger, observer, time.Second)

	result := uc.ProcessFile(context.Background(), "run-1", "/in/mustermann.pdf")
	if result.Status != domain.StatusSuccess {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Message != "Successfully processed mustermann.pdf" {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if len(result.Files) != 1 || result.Files[0] != "work_experience.csv" {
		t.Fatalf("unexpected files %v", result.Files)
	}
	if len(writer.profiles) != 1 || writer.profiles[0].Source != "mustermann.pdf" {
		t.Fatalf("expected one written profile for mustermann.pdf")
	}
	if len(ledger.results) != 1 || ledger.results[0].RunID != "run-1" {
		t.Fatalf("expected result recorded in ledger, got %+v", ledger.results)
	}
	if observer.started != 1 || observer.finished != 1 || observer.failed != 0 || observer.decisions != 1 {
		t.Fatalf("unexpected observer state %+v", observer)
	}
}

func TestProcessFileWritesBelowRunDirectory(t *testing.T) {
	writer := &writerFake{}
	engine := stitching.NewEngine(domain.DefaultVocabulary(), discardLogger())
	uc := NewProcessProfileUseCase(&extractorFake{}, engine, writer, nil, ProcessOptions{
		OutputRoot:        "/out",
		RunSubdirectories: true,
		Logger:            discardLogger(),
	})

	uc.ProcessFile(context.Background(), "run-1", "/in/a.pdf")
	uc.ProcessFile(context.Background(), "../..", "/in/b.pdf")
	uc.ProcessFile(context.Background(), "", "/in/c.pdf")

	want := []string{filepath.Join("/out", "run-1"), filepath.Join("/out", "run"), "/out"}
	if len(writer.roots) != len(want) {
		t.Fatalf("expected %d writes, got %v", len(want), writer.roots)
	}
	for i := range want {
		if writer.roots[i] != want[i] {
			t.Fatalf("write %d root = %s, want %s", i, writer.roots[i], want[i])
		}
	}
}

func TestProcessFileHidesExtractionDetails(t *testing.T) {
	writer := &writerFake{}
	ledger := &ledgerFake{}
	extractor := &extractorFake{errs: map[string]error{"broken.pdf": errors.New("xref offset 1234 out of range")}}
	uc := newProcessUseCase(extractor, writer, ledger, nil, time.Second)

	result := uc.ProcessFile(context.Background(), "run-1", "/in/broken.pdf")
	if result.Status != domain.StatusError {
		t.Fatalf("expected error status, got %s", result.Status)
	}
	if result.Message != "Error processing broken.pdf: extraction failed" {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if strings.Contains(result.Message, "xref") {
		t.Fatalf("internal error detail leaked into message %q", result.Message)
	}
	if len(result.Files) != 0 {
		t.Fatalf("expected no files, got %v", result.Files)
	}
	if len(writer.profiles) != 0 {
		t.Fatalf("writer must not be called after extraction failure")
	}
	if len(ledger.results) != 1 || ledger.results[0].Status != domain.StatusError {
		t.Fatalf("expected error result recorded, got %+v", ledger.results)
	}
}

func TestProcessFileTimesOutExtraction(t *testing.T) {
	uc := newProcessUseCase(&extractorFake{block: true}, &writerFake{}, &ledgerFake{}, nil, 10*time.Millisecond)

	result := uc.ProcessFile(context.Background(), "run-1", "/in/slow.pdf")
	if result.Status != domain.StatusError {
		t.Fatalf("expected error status, got %s", result.Status)
	}
	if result.Message != "Error processing slow.pdf: timed out" {
		t.Fatalf("unexpected message %q", result.Message)
	}
}

func TestProcessFileRecoversExtractorPanic(t *testing.T) {
	uc := newProcessUseCase(&extractorFake{panicOn: "bad.pdf"}, &writerFake{}, &ledgerFake{}, nil, time.Second)

	result := uc.ProcessFile(context.Background(), "run-1", "/in/bad.pdf")
	if result.Status != domain.StatusError || result.Message != "Error processing bad.pdf: extraction failed" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestProcessFileReportsOutputFailure(t *testing.T) {
	writer := &writerFake{err: domain.WrapError(domain.ErrOutput, "rename output dir", errors.New("permission denied"))}
	uc := newProcessUseCase(&extractorFake{}, writer, &ledgerFake{}, nil, time.Second)

	result := uc.ProcessFile(context.Background(), "run-1", "/in/a.pdf")
	if result.Message != "Error processing a.pdf: output failed" {
		t.Fatalf("unexpected message %q", result.Message)
	}
}

func TestProcessFileLedgerFailureKeepsResult(t *testing.T) {
	ledger := &ledgerFake{err: domain.WrapError(domain.ErrTemporary, "record result", errors.New("connection refused"))}
	uc := newProcessUseCase(&extractorFake{}, &writerFake{}, ledger, nil, time.Second)

	result := uc.ProcessFile(context.Background(), "run-1", "/in/a.pdf")
	if result.Status != domain.StatusSuccess {
		t.Fatalf("ledger failure must not fail the document, got %+v", result)
	}
}
