package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"urbania_scraper/models"
)

func newTestLedger(t *testing.T) *SQLiteLedger {
	t.Helper()
	ledger, err := NewSQLiteLedger(filepath.Join(t.TempDir(), "loader.db"))
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })
	return ledger
}

func TestLedger_LoadedFiles(t *testing.T) {
	ledger := newTestLedger(t)

	loaded, err := ledger.IsLoaded("properties_listing_a.csv")
	require.NoError(t, err)
	require.False(t, loaded)

	require.NoError(t, ledger.MarkLoaded("properties_listing_a.csv", 42))
	require.NoError(t, ledger.MarkLoaded("properties_listing_a.csv", 43))

	loaded, err = ledger.IsLoaded("properties_listing_a.csv")
	require.NoError(t, err)
	require.True(t, loaded)

	files, err := ledger.LoadedFiles()
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, int64(43), files[0].Rows)
}

func TestLedger_RecordRun(t *testing.T) {
	ledger := newTestLedger(t)

	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	run := &models.ScrapeRun{
		BatchID:   "b1",
		StartedAt: started,
		Status:    models.RunStatusRunning,
	}
	require.NoError(t, ledger.RecordRun(run))

	finished := started.Add(time.Hour)
	run.FinishedAt = &finished
	run.Status = models.RunStatusCompleted
	run.Records = 12
	run.OutputPath = "data/processed/properties_listing_b1.csv"
	require.NoError(t, ledger.RecordRun(run))

	runs, err := ledger.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, models.RunStatusCompleted, runs[0].Status)
	require.Equal(t, 12, runs[0].Records)
	require.NotNil(t, runs[0].FinishedAt)
	require.True(t, finished.Equal(*runs[0].FinishedAt))
}
