package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kirillkom/profile-export/internal/core/domain"
)

func writeInputs(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644); err != nil {
			t.Fatalf("write input %s: %v", name, err)
		}
	}
	return dir
}

func fixedRunID() string { return "run-fixed" }

func TestListPDFsFiltersAndSorts(t *testing.T) {
	dir := writeInputs(t, "c.pdf", "notes.txt", "A.PDF", "b.Pdf")
	if err := os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files, err := ListPDFs(dir)
	if err != nil {
		t.Fatalf("ListPDFs() error = %v", err)
	}
	want := []string{"A.PDF", "b.Pdf", "c.pdf"}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %v", len(want), files)
	}
	for i, name := range want {
		if filepath.Base(files[i]) != name {
			t.Fatalf("file %d = %s, want %s", i, files[i], name)
		}
	}
}

func TestListPDFsMissingDirIsNoInput(t *testing.T) {
	_, err := ListPDFs(filepath.Join(t.TempDir(), "missing"))
	if !domain.IsKind(err, domain.ErrNoInput) {
		t.Fatalf("expected ErrNoInput, got %v", err)
	}
}

func TestProcessDirectoryIsolatesFailures(t *testing.T) {
	dir := writeInputs(t, "a.pdf", "b.pdf", "c.pdf", "d.pdf")
	extractor := &extractorFake{errs: map[string]error{"b.pdf": errors.New("cannot parse")}}
	ledger := &ledgerFake{}
	observer := &observerFake{}
	processor := newProcessUseCase(extractor, &writerFake{}, ledger, observer, time.Second)
	uc := NewBatchProcessUseCase(processor, BatchOptions{Workers: 3, Logger: discardLogger(), NewRunID: fixedRunID})

	report, err := uc.ProcessDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("ProcessDirectory() error = %v", err)
	}
	if report.Outcome != domain.OutcomeProcessed || report.RunID != "run-fixed" {
		t.Fatalf("unexpected report header %+v", report)
	}
	if len(report.Results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(report.Results))
	}
	if report.Failed() != 1 {
		t.Fatalf("expected exactly one failure, got %d", report.Failed())
	}
	for i, name := range []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf"} {
		res := report.Results[i]
		if res.Document != name {
			t.Fatalf("result %d is %s, want %s", i, res.Document, name)
		}
		if res.RunID != "run-fixed" {
			t.Fatalf("result %d has run id %q", i, res.RunID)
		}
		wantStatus := domain.StatusSuccess
		if name == "b.pdf" {
			wantStatus = domain.StatusError
		}
		if res.Status != wantStatus {
			t.Fatalf("result %s status = %s, want %s", name, res.Status, wantStatus)
		}
		if wantStatus == domain.StatusSuccess && len(res.Files) != 1 {
			t.Fatalf("result %s files = %v", name, res.Files)
		}
	}
	if len(ledger.results) != 4 {
		t.Fatalf("expected 4 ledger records, got %d", len(ledger.results))
	}
	if observer.finished != 4 || observer.failed != 1 {
		t.Fatalf("unexpected observer state %+v", observer)
	}
}

func TestProcessDirectoryEmptyIsNothingToDo(t *testing.T) {
	dir := writeInputs(t, "readme.md")
	uc := NewBatchProcessUseCase(newProcessUseCase(&extractorFake{}, &writerFake{}, &ledgerFake{}, nil, time.Second), BatchOptions{Logger: discardLogger()})

	report, err := uc.ProcessDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("ProcessDirectory() error = %v", err)
	}
	if report.Outcome != domain.OutcomeNothingToDo {
		t.Fatalf("expected nothing_to_do, got %s", report.Outcome)
	}
	if len(report.Results) != 0 {
		t.Fatalf("expected no results, got %v", report.Results)
	}
}

func TestProcessSingle(t *testing.T) {
	dir := writeInputs(t, "only.pdf")
	uc := NewBatchProcessUseCase(newProcessUseCase(&extractorFake{}, &writerFake{}, &ledgerFake{}, nil, time.Second), BatchOptions{Logger: discardLogger()})

	report, err := uc.ProcessSingle(context.Background(), filepath.Join(dir, "only.pdf"))
	if err != nil {
		t.Fatalf("ProcessSingle() error = %v", err)
	}
	if len(report.Results) != 1 || report.Results[0].Status != domain.StatusSuccess {
		t.Fatalf("unexpected report %+v", report)
	}

	missing, err := uc.ProcessSingle(context.Background(), filepath.Join(dir, "gone.pdf"))
	if err != nil {
		t.Fatalf("ProcessSingle(missing) error = %v", err)
	}
	if missing.Outcome != domain.OutcomeNothingToDo {
		t.Fatalf("expected nothing_to_do for missing file, got %s", missing.Outcome)
	}

	if _, err := uc.ProcessSingle(context.Background(), dir); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for directory, got %v", err)
	}
}
