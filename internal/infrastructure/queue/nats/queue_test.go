package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/profile-export/internal/core/domain"
)

func TestJobRoundTripThroughPayload(t *testing.T) {
	job := domain.Job{RunID: "run-1", Document: "Jörg.pdf", Key: "run-1_Jörg.pdf"}
	payload, err := encodeJob(job)
	if err != nil {
		t.Fatalf("encodeJob() error = %v", err)
	}
	got, err := decodeJob(payload)
	if err != nil {
		t.Fatalf("decodeJob() error = %v", err)
	}
	if got != job {
		t.Fatalf("decoded %+v, want %+v", got, job)
	}
}

func TestDecodeJobRejectsMalformedPayload(t *testing.T) {
	for _, payload := range []string{"not json", `{"run_id":"r"}`} {
		if _, err := decodeJob([]byte(payload)); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("decodeJob(%q) expected ErrInvalidInput, got %v", payload, err)
		}
	}
}

func TestEncodeJobRequiresKey(t *testing.T) {
	if _, err := encodeJob(domain.Job{RunID: "r"}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestClassifyNATSError(t *testing.T) {
	if class := classifyNATSError(fmt.Errorf("nats publish: %w", nats.ErrNoServers)); !class.Retryable {
		t.Fatalf("expected no servers to be retryable")
	}
	if class := classifyNATSError(context.Canceled); class.Retryable || class.RecordFailure {
		t.Fatalf("expected cancellation to be ignored, got %+v", class)
	}
	if class := classifyNATSError(nats.ErrBadSubject); class.Retryable {
		t.Fatalf("expected bad subject to be permanent")
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	err := wrapTemporaryIfNeeded(fmt.Errorf("nats publish: %w", nats.ErrConnectionClosed))
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
	permanent := errors.New("payload too large")
	if err := wrapTemporaryIfNeeded(permanent); domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected permanent error left unwrapped, got %v", err)
	}
}
