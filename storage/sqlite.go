package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"urbania_scraper/models"
)

// SQLiteLedger is local bookkeeping: which staged files reached the database
// and how each batch ended.
type SQLiteLedger struct {
	db *sql.DB
}

func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	ledger := &SQLiteLedger{db: db}
	if err := ledger.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return ledger, nil
}

func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

func (l *SQLiteLedger) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS loaded_files (
		file_name TEXT PRIMARY KEY,
		rows INTEGER NOT NULL,
		loaded_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scrape_runs (
		batch_id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		status TEXT NOT NULL,
		targets INTEGER DEFAULT 0,
		links_found INTEGER DEFAULT 0,
		records INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		fetch_failures INTEGER DEFAULT 0,
		output_path TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_scrape_runs_started ON scrape_runs(started_at);
	`
	if _, err := l.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (l *SQLiteLedger) IsLoaded(fileName string) (bool, error) {
	var exists int
	err := l.db.QueryRow(`SELECT 1 FROM loaded_files WHERE file_name = ?`, fileName).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (l *SQLiteLedger) MarkLoaded(fileName string, rows int64) error {
	_, err := l.db.Exec(`
		INSERT INTO loaded_files (file_name, rows, loaded_at) VALUES (?, ?, ?)
		ON CONFLICT(file_name) DO UPDATE SET rows = excluded.rows, loaded_at = excluded.loaded_at`,
		fileName, rows, time.Now().UTC())
	return err
}

func (l *SQLiteLedger) LoadedFiles() ([]models.LoadedFile, error) {
	rows, err := l.db.Query(`SELECT file_name, rows, loaded_at FROM loaded_files ORDER BY loaded_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []models.LoadedFile
	for rows.Next() {
		var f models.LoadedFile
		if err := rows.Scan(&f.FileName, &f.Rows, &f.LoadedAt); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// RecordRun stores or replaces the summary of a batch.
func (l *SQLiteLedger) RecordRun(run *models.ScrapeRun) error {
	_, err := l.db.Exec(`
		INSERT OR REPLACE INTO scrape_runs (batch_id, started_at, finished_at, status, targets,
			links_found, records, skipped, failed, fetch_failures, output_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.BatchID, run.StartedAt, run.FinishedAt, run.Status, run.Targets,
		run.LinksFound, run.Records, run.Skipped, run.Failed, run.FetchFailures, run.OutputPath)
	return err
}

func (l *SQLiteLedger) RecentRuns(limit int) ([]models.ScrapeRun, error) {
	rows, err := l.db.Query(`
		SELECT batch_id, started_at, finished_at, status, targets, links_found,
			records, skipped, failed, fetch_failures, COALESCE(output_path, '')
		FROM scrape_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.ScrapeRun
	for rows.Next() {
		var r models.ScrapeRun
		var finished sql.NullTime
		if err := rows.Scan(&r.BatchID, &r.StartedAt, &finished, &r.Status, &r.Targets,
			&r.LinksFound, &r.Records, &r.Skipped, &r.Failed, &r.FetchFailures, &r.OutputPath); err != nil {
			return nil, err
		}
		if finished.Valid {
			r.FinishedAt = &finished.Time
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
