package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/profile-export/internal/config"
	"github.com/kirillkom/profile-export/internal/core/domain"
	"github.com/kirillkom/profile-export/internal/core/stitching"
	"github.com/kirillkom/profile-export/internal/core/usecase"
	"github.com/kirillkom/profile-export/internal/infrastructure/output/csvexport"
	"github.com/kirillkom/profile-export/internal/infrastructure/repository/memory"
	"github.com/kirillkom/profile-export/internal/infrastructure/resilience"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewWithoutQueueUsesMemoryLedger(t *testing.T) {
	cfg := config.Config{
		InputDir:     t.TempDir(),
		OutputDir:    t.TempDir(),
		BatchWorkers: 2,
	}
	app, err := New(context.Background(), cfg, Options{Logger: testLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	if _, ok := app.Ledger.(*memory.ResultLedger); !ok {
		t.Fatalf("expected memory ledger, got %T", app.Ledger)
	}
	if app.Queue != nil || app.SubmitUC != nil || app.JobUC != nil {
		t.Fatalf("queue components must stay unset without Queue option")
	}

	report, err := app.BatchUC.ProcessDirectory(context.Background(), cfg.InputDir)
	if err != nil {
		t.Fatalf("ProcessDirectory() error = %v", err)
	}
	if report.Outcome != domain.OutcomeNothingToDo {
		t.Fatalf("expected nothing_to_do, got %s", report.Outcome)
	}
}

func TestNewFailsOnInvalidVocabularyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocabulary.yaml")
	if err := os.WriteFile(path, []byte("no_such_key: 1\n"), 0o644); err != nil {
		t.Fatalf("write vocabulary: %v", err)
	}
	_, err := New(context.Background(), config.Config{VocabularyFile: path}, Options{Logger: testLogger()})
	if err == nil {
		t.Fatalf("expected vocabulary error")
	}
}

func TestResilienceConfigKeepsDefaultsForUnsetAttempts(t *testing.T) {
	rc := resilienceConfig(config.Config{RetryMaxAttempts: 0, BreakerEnabled: false})
	if got := rc.Operations[resilience.LedgerOperations]; got != resilience.LedgerPolicy() {
		t.Fatalf("expected ledger defaults, got %+v", got)
	}
	if got := rc.Operations[resilience.PublishOperations]; got != resilience.PublishPolicy() {
		t.Fatalf("expected publish defaults, got %+v", got)
	}
	if rc.BreakerEnabled {
		t.Fatalf("expected breaker disabled")
	}
}

func TestResilienceConfigAppliesOverrides(t *testing.T) {
	rc := resilienceConfig(config.Config{RetryMaxAttempts: 6, BreakerEnabled: true, BreakerOpenTimeout: 5 * time.Second})
	for prefix, p := range rc.Operations {
		if p.Attempts != 6 || p.OpenTimeout != 5*time.Second {
			t.Fatalf("%s: overrides not applied, got %+v", prefix, p)
		}
	}
	if rc.Default.Attempts != 6 || rc.Default.OpenTimeout != 5*time.Second {
		t.Fatalf("default policy not overridden, got %+v", rc.Default)
	}
}

// skillsExtractor returns one skills table per document, named after the file.
type skillsExtractor struct{}

func (skillsExtractor) Extract(_ context.Context, path string) (*domain.ExtractedDocument, error) {
	name := filepath.Base(path)
	return &domain.ExtractedDocument{
		Name: name,
		Pages: []domain.Page{{
			Number: 1,
			Grids: []domain.Grid{{
				{"Gruppe", "Name", "Einstufung"},
				{"Sprache", name, "gut"},
			}},
		}},
	}, nil
}

func TestBatchKeepsCollidingPersonDirsApart(t *testing.T) {
	input := t.TempDir()
	output := t.TempDir()
	names := []string{"Max_Muster.pdf", "Max Muster.pdf", "Müller.pdf", "Mueller.pdf"}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(input, name), []byte("%PDF-1.4"), 0o644); err != nil {
			t.Fatalf("write input %s: %v", name, err)
		}
	}

	engine := stitching.NewEngine(domain.DefaultVocabulary(), testLogger())
	writer := csvexport.New(csvexport.Options{Logger: testLogger()})
	processor := usecase.NewProcessProfileUseCase(skillsExtractor{}, engine, writer, memory.NewResultLedger(), usecase.ProcessOptions{
		OutputRoot: output,
		Logger:     testLogger(),
	})
	batch := usecase.NewBatchProcessUseCase(processor, usecase.BatchOptions{Workers: 4, Logger: testLogger()})

	report, err := batch.ProcessDirectory(context.Background(), input)
	if err != nil {
		t.Fatalf("ProcessDirectory() error = %v", err)
	}
	if report.Failed() != 0 {
		t.Fatalf("unexpected failures %+v", report.Results)
	}

	dirs := make(map[string]string, len(report.Results))
	for _, res := range report.Results {
		if owner, dup := dirs[res.OutputDir]; dup {
			t.Fatalf("%s and %s share %s", owner, res.Document, res.OutputDir)
		}
		dirs[res.OutputDir] = res.Document

		skills, err := os.ReadFile(filepath.Join(res.OutputDir, "skills.csv"))
		if err != nil {
			t.Fatalf("read skills of %s: %v", res.Document, err)
		}
		if !strings.Contains(string(skills), ";"+res.Document+";") {
			t.Fatalf("%s holds another document's skills:\n%s", res.OutputDir, skills)
		}
	}
	for _, want := range []string{"Max Muster", "Max Muster (2)", "Mueller", "Mueller (2)"} {
		if _, err := os.Stat(filepath.Join(output, want)); err != nil {
			t.Fatalf("expected person dir %q: %v", want, err)
		}
	}
}
