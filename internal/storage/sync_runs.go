package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SyncRun records one pull from the upstream API: the range requested and
// what came back. Runs stay in the table as an audit trail for gaps in the
// stored data.
type SyncRun struct {
	ID           uuid.UUID  `json:"id"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at"`
	Status       string     `json:"status"`
	FromDate     time.Time  `json:"from_date"`
	ToDate       time.Time  `json:"to_date"`
	DaysFetched  int        `json:"days_fetched"`
	DaysStored   int        `json:"days_stored"`
	ErrorMessage *string    `json:"error_message"`
}

// InsertSyncRun creates a new sync run in "running" state and returns its ID.
func (db *DB) InsertSyncRun(ctx context.Context, from, to time.Time) (uuid.UUID, error) {
	id := uuid.New()
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO sync_runs (id, status, from_date, to_date)
		 VALUES ($1, 'running', $2, $3)`,
		id, from, to)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting sync run: %w", err)
	}
	return id, nil
}

// FinishSyncRun marks a sync run complete (status "success" or "error").
func (db *DB) FinishSyncRun(ctx context.Context, id uuid.UUID, status string, daysFetched, daysStored int, errMsg *string) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE sync_runs SET
		   status = $2, days_fetched = $3, days_stored = $4,
		   error_message = $5, finished_at = now()
		 WHERE id = $1`,
		id, status, daysFetched, daysStored, errMsg)
	if err != nil {
		return fmt.Errorf("finishing sync run %s: %w", id, err)
	}
	return nil
}

// QuerySyncRuns returns the most recent sync runs.
func (db *DB) QuerySyncRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, started_at, finished_at, status, from_date, to_date,
		   days_fetched, days_stored, error_message
		 FROM sync_runs
		 ORDER BY started_at DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync runs: %w", err)
	}
	defer rows.Close()

	var result []SyncRun
	for rows.Next() {
		var r SyncRun
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Status,
			&r.FromDate, &r.ToDate, &r.DaysFetched, &r.DaysStored, &r.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning sync run: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
