package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/profile-export/internal/core/domain"
	"github.com/kirillkom/profile-export/internal/infrastructure/resilience"
)

// ResultLedger stores one row per (run, document) with the latest outcome.
type ResultLedger struct {
	db       *sql.DB
	executor *resilience.Executor
}

func NewResultLedger(db *sql.DB, executor *resilience.Executor) *ResultLedger {
	return &ResultLedger{db: db, executor: executor}
}

func (r *ResultLedger) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026100101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS extraction_results (
	run_id TEXT NOT NULL,
	document TEXT NOT NULL,
	status TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	files JSONB NOT NULL DEFAULT '[]'::jsonb,
	output_dir TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, document)
);

CREATE INDEX IF NOT EXISTS idx_extraction_results_created_at ON extraction_results(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Record upserts the result; a later status for the same document replaces
// the earlier one and keeps the original creation time.
func (r *ResultLedger) Record(ctx context.Context, result domain.DocumentResult) error {
	if result.RunID == "" || result.Document == "" {
		return domain.WrapError(domain.ErrInvalidInput, "record result", errors.New("run id and document are required"))
	}
	files := result.Files
	if files == nil {
		files = []string{}
	}
	filesJSON, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("marshal files: %w", err)
	}
	createdAt := result.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	call := func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, `
INSERT INTO extraction_results (run_id, document, status, message, files, output_dir, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (run_id, document) DO UPDATE
SET status = EXCLUDED.status, message = EXCLUDED.message, files = EXCLUDED.files,
	output_dir = EXCLUDED.output_dir, updated_at = EXCLUDED.updated_at
`, result.RunID, result.Document, string(result.Status), result.Message, filesJSON, result.OutputDir, createdAt, time.Now().UTC())
		if err != nil {
			return wrapTemporaryIfNeeded("record result", err)
		}
		return nil
	}

	if r.executor != nil {
		return r.executor.Execute(ctx, resilience.LedgerOperations+"record_result", call, resilience.TemporaryClassifier)
	}
	return call(ctx)
}

func (r *ResultLedger) ListByRun(ctx context.Context, runID string) ([]domain.DocumentResult, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT run_id, document, status, message, files, output_dir, created_at
FROM extraction_results
WHERE run_id = $1
ORDER BY document ASC
`, runID)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("list results", err)
	}
	defer rows.Close()

	out := make([]domain.DocumentResult, 0)
	for rows.Next() {
		var (
			res      domain.DocumentResult
			status   string
			filesRaw []byte
		)
		if err := rows.Scan(&res.RunID, &res.Document, &status, &res.Message, &filesRaw, &res.OutputDir, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if err := json.Unmarshal(filesRaw, &res.Files); err != nil {
			return nil, fmt.Errorf("unmarshal files: %w", err)
		}
		res.Status = domain.ResultStatus(status)
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	if len(out) == 0 {
		return nil, domain.WrapError(domain.ErrNotFound, "list results", fmt.Errorf("run %s", runID))
	}
	return out, nil
}

// wrapTemporaryIfNeeded marks connection level failures as temporary so the
// executor retries them.
func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if isTemporary(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return fmt.Errorf("%s: %w", operation, err)
}

func isTemporary(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 is connection exceptions; 40001 and 40P01 are retryable
		// transaction conflicts; 57P0x is server shutdown.
		return strings.HasPrefix(pgErr.Code, "08") ||
			pgErr.Code == "40001" || pgErr.Code == "40P01" ||
			strings.HasPrefix(pgErr.Code, "57P0")
	}
	return false
}
