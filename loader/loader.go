package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"urbania_scraper/config"
	"urbania_scraper/logging"
)

type Copier interface {
	CopyCSV(ctx context.Context, schema, table string, columns []string, r io.Reader) (int64, error)
}

type Ledger interface {
	IsLoaded(fileName string) (bool, error)
	MarkLoaded(fileName string, rows int64) error
}

type Archive interface {
	ArchiveFile(ctx context.Context, localPath string) (string, error)
}

// Result counts what one pass over the staging directory did.
type Result struct {
	Loaded   int
	Replayed int
	Rows     int64
}

// Loader moves staged batch files into Postgres. A file leaves the staging
// directory only after its rows are committed.
type Loader struct {
	copier  Copier
	ledger  Ledger
	archive Archive
	staging config.StagingConfig
	schema  string
	table   string
	log     *slog.Logger
}

func New(copier Copier, ledger Ledger, staging config.StagingConfig, pg config.PostgresConfig, logger *slog.Logger) *Loader {
	return &Loader{
		copier:  copier,
		ledger:  ledger,
		staging: staging,
		schema:  pg.Schema,
		table:   pg.Table,
		log:     logger.With("component", "loader"),
	}
}

// SetArchive enables uploading each loaded file before it is moved.
func (l *Loader) SetArchive(a Archive) {
	l.archive = a
}

// Run loads every staged file in name order. It stops at the first copy
// failure and leaves that file in staging for the next pass.
func (l *Loader) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{}

	files, err := l.stagedFiles()
	if err != nil {
		return res, err
	}
	if len(files) == 0 {
		l.log.Info("no staged files to load", "dir", l.staging.ProcessedDir)
		return res, nil
	}

	if err := os.MkdirAll(l.staging.LoadedDir, 0755); err != nil {
		return res, fmt.Errorf("create loaded dir: %w", err)
	}

	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		src := filepath.Join(l.staging.ProcessedDir, name)
		loaded, err := l.ledger.IsLoaded(name)
		if err != nil {
			return res, fmt.Errorf("check ledger for %s: %w", name, err)
		}
		if loaded {
			l.log.Warn("file already loaded, moving without copy", "file", name)
			if err := l.move(name); err != nil {
				return res, err
			}
			res.Replayed++
			continue
		}

		rows, err := l.copyFile(ctx, src)
		if err != nil {
			l.log.Error("copy failed, file left in staging", "file", name, "error", err)
			return res, fmt.Errorf("load %s: %w", name, err)
		}
		if err := l.ledger.MarkLoaded(name, rows); err != nil {
			return res, fmt.Errorf("record %s in ledger: %w", name, err)
		}
		l.log.Info("file loaded", "file", name, "rows", rows, "table", l.schema+"."+l.table)

		if l.archive != nil {
			if key, err := l.archive.ArchiveFile(ctx, src); err != nil {
				l.log.Warn("archive upload failed", "file", name, "error", err)
			} else {
				l.log.Info("file archived", "file", name, "key", key)
			}
		}

		if err := l.move(name); err != nil {
			return res, err
		}
		res.Loaded++
		res.Rows += rows
	}

	l.log.Info("load finished", "loaded", res.Loaded, "replayed", res.Replayed, "rows", res.Rows, logging.Elapsed(start))
	return res, nil
}

func (l *Loader) stagedFiles() ([]string, error) {
	entries, err := os.ReadDir(l.staging.ProcessedDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list staging dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		// hidden files are batches still being written
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".csv" {
			continue
		}
		files = append(files, name)
	}
	return files, nil
}

func (l *Loader) copyFile(ctx context.Context, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	columns, err := readHeader(f)
	if err != nil {
		return 0, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	return l.copier.CopyCSV(ctx, l.schema, l.table, columns, f)
}

func readHeader(r io.Reader) ([]string, error) {
	header, err := csv.NewReader(r).Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	return header, nil
}

func (l *Loader) move(name string) error {
	src := filepath.Join(l.staging.ProcessedDir, name)
	dst := filepath.Join(l.staging.LoadedDir, name)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("move %s: %w", name, err)
	}
	return nil
}
