package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jengzang/taxi-trips-backend-go/internal/database"
	"github.com/jengzang/taxi-trips-backend-go/internal/models"
)

// Fixed width so that started_at sorts chronologically as text
const runTimeLayout = "2006-01-02T15:04:05.000000000Z"

// LoadRunRepository records ingestion runs
type LoadRunRepository struct {
	db *database.DB
}

// NewLoadRunRepository creates a new load run repository
func NewLoadRunRepository(db *database.DB) *LoadRunRepository {
	return &LoadRunRepository{db: db}
}

// Create inserts a run in the running state
func (r *LoadRunRepository) Create(ctx context.Context, run *models.LoadRun) error {
	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO load_runs (id, source_path, status, started_at) VALUES (?, ?, ?, ?)`,
			run.ID, run.SourcePath, run.Status, run.StartedAt.UTC().Format(runTimeLayout),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create load run: %w", err)
	}
	return nil
}

// Finish stores the final counters, status and error of a run
func (r *LoadRunRepository) Finish(ctx context.Context, run *models.LoadRun) error {
	reasons := run.Reasons
	if reasons == nil {
		reasons = map[string]int64{}
	}
	reasonsJSON, err := json.Marshal(reasons)
	if err != nil {
		return fmt.Errorf("failed to marshal reasons: %w", err)
	}

	finishedAt := time.Now().UTC()
	if run.FinishedAt != nil {
		finishedAt = run.FinishedAt.UTC()
	}

	err = r.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE load_runs SET status = ?, total = ?, kept = ?, excluded = ?, inserted = ?,
				reasons_json = ?, checksum = ?, error = ?, finished_at = ?
			WHERE id = ?`,
			run.Status, run.Total, run.Kept, run.Excluded, run.Inserted,
			string(reasonsJSON), run.Checksum, run.Error, finishedAt.Format(runTimeLayout),
			run.ID,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to finish load run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first
func (r *LoadRunRepository) Recent(ctx context.Context, limit int) ([]models.LoadRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Conn().QueryContext(ctx,
		`SELECT id, source_path, status, total, kept, excluded, inserted,
			reasons_json, checksum, error, started_at, finished_at
		FROM load_runs
		ORDER BY started_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query load runs: %w", err)
	}
	defer rows.Close()

	runs := []models.LoadRun{}
	for rows.Next() {
		var run models.LoadRun
		var reasonsJSON, startedAt string
		var finishedAt sql.NullString
		err := rows.Scan(
			&run.ID, &run.SourcePath, &run.Status,
			&run.Total, &run.Kept, &run.Excluded, &run.Inserted,
			&reasonsJSON, &run.Checksum, &run.Error, &startedAt, &finishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan load run: %w", err)
		}

		if err := json.Unmarshal([]byte(reasonsJSON), &run.Reasons); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reasons of run %s: %w", run.ID, err)
		}
		if run.StartedAt, err = time.Parse(runTimeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("failed to parse started_at of run %s: %w", run.ID, err)
		}
		if finishedAt.Valid {
			t, err := time.Parse(runTimeLayout, finishedAt.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse finished_at of run %s: %w", run.ID, err)
			}
			run.FinishedAt = &t
		}

		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate load runs: %w", err)
	}

	return runs, nil
}
