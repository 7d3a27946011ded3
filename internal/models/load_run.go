package models

import "time"

// LoadRun status constants
const (
	LoadStatusRunning   = "running"
	LoadStatusCompleted = "completed"
	LoadStatusFailed    = "failed"
)

// LoadResult summarizes one ingestion of a raw trip file
type LoadResult struct {
	RunID      string           `json:"run_id"`
	Total      int64            `json:"total"`
	Kept       int64            `json:"kept"`
	Excluded   int64            `json:"excluded"`
	Inserted   int64            `json:"inserted"`
	Reasons    map[string]int64 `json:"reasons"` // Excluded rows per rejection reason
	Checksum   string           `json:"checksum"`
	DurationMs int64            `json:"duration_ms"`
}

// LoadRun is the persisted record of a LoadResult, including failed runs
type LoadRun struct {
	ID         string           `json:"id" db:"id"`
	SourcePath string           `json:"source_path" db:"source_path"`
	Status     string           `json:"status" db:"status"`
	Total      int64            `json:"total" db:"total"`
	Kept       int64            `json:"kept" db:"kept"`
	Excluded   int64            `json:"excluded" db:"excluded"`
	Inserted   int64            `json:"inserted" db:"inserted"`
	Reasons    map[string]int64 `json:"reasons" db:"reasons_json"`
	Checksum   string           `json:"checksum,omitempty" db:"checksum"`
	Error      string           `json:"error,omitempty" db:"error"`
	StartedAt  time.Time        `json:"started_at" db:"started_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty" db:"finished_at"`
}
