package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kirillkom/profile-export/internal/core/domain"
)

// ResultLedger keeps run results in process memory. It is used when no
// Postgres DSN is configured.
type ResultLedger struct {
	mu   sync.RWMutex
	runs map[string]map[string]domain.DocumentResult
}

func NewResultLedger() *ResultLedger {
	return &ResultLedger{runs: make(map[string]map[string]domain.DocumentResult)}
}

func (l *ResultLedger) Record(_ context.Context, result domain.DocumentResult) error {
	if result.RunID == "" || result.Document == "" {
		return domain.WrapError(domain.ErrInvalidInput, "record result", errors.New("run id and document are required"))
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	docs, ok := l.runs[result.RunID]
	if !ok {
		docs = make(map[string]domain.DocumentResult)
		l.runs[result.RunID] = docs
	}
	if prev, ok := docs[result.Document]; ok && !prev.CreatedAt.IsZero() {
		result.CreatedAt = prev.CreatedAt
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}
	result.Files = append([]string{}, result.Files...)
	docs[result.Document] = result
	return nil
}

func (l *ResultLedger) ListByRun(_ context.Context, runID string) ([]domain.DocumentResult, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	docs := l.runs[runID]
	if len(docs) == 0 {
		return nil, domain.WrapError(domain.ErrNotFound, "list results", fmt.Errorf("run %s", runID))
	}
	out := make([]domain.DocumentResult, 0, len(docs))
	for _, res := range docs {
		res.Files = append([]string{}, res.Files...)
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Document < out[j].Document })
	return out, nil
}
