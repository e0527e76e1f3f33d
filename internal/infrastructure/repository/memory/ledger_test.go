package memory

import (
	"context"
	"testing"
	"time"

	"github.com/kirillkom/profile-export/internal/core/domain"
)

func TestRecordReplacesStatusAndKeepsCreation(t *testing.T) {
	ledger := NewResultLedger()
	ctx := context.Background()
	queuedAt := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	if err := ledger.Record(ctx, domain.DocumentResult{RunID: "r", Document: "b.pdf", Status: domain.StatusQueued, CreatedAt: queuedAt}); err != nil {
		t.Fatalf("Record(queued) error = %v", err)
	}
	if err := ledger.Record(ctx, domain.DocumentResult{RunID: "r", Document: "a.pdf", Status: domain.StatusError}); err != nil {
		t.Fatalf("Record(a) error = %v", err)
	}
	if err := ledger.Record(ctx, domain.DocumentResult{RunID: "r", Document: "b.pdf", Status: domain.StatusSuccess, Files: []string{"skills.csv"}}); err != nil {
		t.Fatalf("Record(success) error = %v", err)
	}

	results, err := ledger.ListByRun(ctx, "r")
	if err != nil {
		t.Fatalf("ListByRun() error = %v", err)
	}
	if len(results) != 2 || results[0].Document != "a.pdf" || results[1].Document != "b.pdf" {
		t.Fatalf("unexpected results %+v", results)
	}
	if results[1].Status != domain.StatusSuccess || !results[1].CreatedAt.Equal(queuedAt) {
		t.Fatalf("unexpected replaced result %+v", results[1])
	}
	if results[0].Files == nil {
		t.Fatalf("expected non-nil files slice")
	}
}

func TestListByRunUnknownRun(t *testing.T) {
	if _, err := NewResultLedger().ListByRun(context.Background(), "nope"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordRejectsIncompleteResult(t *testing.T) {
	if err := NewResultLedger().Record(context.Background(), domain.DocumentResult{RunID: "r"}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
