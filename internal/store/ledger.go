package store

import (
	"context"
	"fmt"
	"time"

	"outreach-sync/internal/poll"
)

// Fixed width so text ordering matches time ordering.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// Run is one row of sync_runs.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	RowsRead   int
	Malformed  int
	Marked     int
	Failed     int
	Error      string
}

// RecordReport stores a cycle and the rows it acted on. Skipped rows are
// not stored; they carry no information the sheet doesn't.
func (d *DB) RecordReport(ctx context.Context, r poll.Report) error {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO sync_runs (id, started_at, finished_at, rows_read, malformed, marked, failed, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		r.ID,
		r.StartedAt.UTC().Format(tsLayout),
		r.FinishedAt.UTC().Format(tsLayout),
		r.RowsRead, r.Malformed, r.Marked(), r.Failed(), errString(r.Err),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, row := range r.Rows {
		if row.Outcome == poll.OutcomeSkipped {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO sync_attempts (run_id, row, email, company, outcome, error)
VALUES (?, ?, ?, ?, ?, ?);`,
			r.ID, row.Row, row.Email, row.Company, string(row.Outcome), errString(row.Err),
		); err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}
	}

	return tx.Commit()
}

func (d *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.Pool.QueryContext(ctx, `
SELECT id, started_at, finished_at, rows_read, malformed, marked, failed, error
FROM sync_runs
ORDER BY started_at DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.RowsRead, &r.Malformed, &r.Marked, &r.Failed, &r.Error); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(tsLayout, started)
		r.FinishedAt, _ = time.Parse(tsLayout, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// PruneRuns deletes runs that started before cutoff. Their attempts go with
// them through ON DELETE CASCADE.
func (d *DB) PruneRuns(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := d.Pool.ExecContext(ctx, `DELETE FROM sync_runs WHERE started_at < ?;`, cutoff.UTC().Format(tsLayout))
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

var _ poll.Recorder = (*DB)(nil)
