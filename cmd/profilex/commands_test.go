package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("VOCABULARY_FILE", "")

	var stdout, stderr bytes.Buffer
	root := newRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestBatchReportsEmptyInputDirectory(t *testing.T) {
	input := t.TempDir()
	stdout, _, err := execute(t, "batch", "--input", input, "--output", t.TempDir())
	if err != nil {
		t.Fatalf("batch error = %v", err)
	}
	if !strings.Contains(stdout, "No PDF files found in "+input) {
		t.Fatalf("unexpected output %q", stdout)
	}
}

func TestBatchPrintsPerDocumentFailure(t *testing.T) {
	input := t.TempDir()
	if err := os.WriteFile(filepath.Join(input, "broken.pdf"), []byte("not a pdf"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	metricsFile := filepath.Join(t.TempDir(), "profilex.prom")

	stdout, _, err := execute(t, "batch", "--input", input, "--output", t.TempDir(), "--workers", "1", "--metrics-file", metricsFile)
	if err != nil {
		t.Fatalf("batch error = %v", err)
	}
	if !strings.Contains(stdout, "Processing broken.pdf: error\n") {
		t.Fatalf("missing status line in %q", stdout)
	}
	if !strings.Contains(stdout, "Error: Error processing broken.pdf: ") {
		t.Fatalf("missing error line in %q", stdout)
	}

	raw, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("read metrics file: %v", err)
	}
	if !strings.Contains(string(raw), `profilex_worker_document_process_total{service="profilex",status="error"} 1`) {
		t.Fatalf("unexpected metrics file:\n%s", raw)
	}
}

func TestBatchFailsForMissingInputDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent")
	_, stderr, err := execute(t, "batch", "--input", missing, "--output", t.TempDir())
	if err == nil {
		t.Fatalf("expected error for missing input directory")
	}
	if !strings.HasPrefix(stderr, "Error: ") && !strings.Contains(stderr, "\nError: ") {
		t.Fatalf("expected error line on stderr, got %q", stderr)
	}
}

func TestFileReportsNothingToDoForMissingPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.pdf")
	stdout, _, err := execute(t, "file", missing, "--output", t.TempDir())
	if err != nil {
		t.Fatalf("file error = %v", err)
	}
	if !strings.Contains(stdout, "Nothing to do") {
		t.Fatalf("unexpected output %q", stdout)
	}
}

func TestFileRequiresExactlyOneArgument(t *testing.T) {
	if _, _, err := execute(t, "file"); err == nil {
		t.Fatalf("expected argument error")
	}
}
