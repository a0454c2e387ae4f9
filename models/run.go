package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ScrapeRun summarizes one batch.
type ScrapeRun struct {
	BatchID       string     `json:"batch_id"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
	Status        RunStatus  `json:"status"`
	Targets       int        `json:"targets"`
	LinksFound    int        `json:"links_found"`
	Records       int        `json:"records"`
	Skipped       int        `json:"skipped"`
	Failed        int        `json:"failed"`
	FetchFailures int        `json:"fetch_failures"`
	OutputPath    string     `json:"output_path"`
}

// LoadedFile is one staged file the loader has consumed.
type LoadedFile struct {
	FileName string    `json:"file_name" db:"file_name"`
	Rows     int64     `json:"rows" db:"rows"`
	LoadedAt time.Time `json:"loaded_at" db:"loaded_at"`
}
