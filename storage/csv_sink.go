package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"urbania_scraper/models"
)

const filePrefix = "properties_listing_"

// FileName is the staged name of a batch's output.
func FileName(batchID string) string {
	return filePrefix + batchID + ".csv"
}

// CSVSink stages each batch as one CSV file.
type CSVSink struct {
	dir string
}

func NewCSVSink(dir string) *CSVSink {
	return &CSVSink{dir: dir}
}

// Write persists records under FileName(batchID) and returns the path. The
// file is written under a hidden name and renamed once complete, so the
// loader never sees a partial batch. An empty batch writes nothing.
func (s *CSVSink) Write(batchID string, records []models.PropertyRecord) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+filePrefix+"*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := csv.NewWriter(tmp)
	if err := w.Write(models.PropertyColumns); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(rec.Row()); err != nil {
			tmp.Close()
			return "", fmt.Errorf("write record %s: %w", rec.PropertyID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("flush csv: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close: %w", err)
	}

	path := filepath.Join(s.dir, FileName(batchID))
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("rename: %w", err)
	}
	return path, nil
}
