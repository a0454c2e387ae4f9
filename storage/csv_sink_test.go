package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"urbania_scraper/models"
)

func sampleRecord(id string) models.PropertyRecord {
	expense := 350
	addr := "Av. Arequipa 100, Lince"
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return models.PropertyRecord{
		BatchID:                     "batch-1",
		BatchStartTime:              now,
		PropertyID:                  id,
		PropertyExtractionStartTime: now,
		PropertyType:                "Departamento",
		PriceType:                   "Alquiler",
		PricePrimary:                1800,
		AdditionalExpense:           &expense,
		Address:                     &addr,
		Region:                      "LIMA",
		City:                        "LIMA",
		District:                    "LINCE",
		Bedrooms:                    2,
		Link:                        "https://urbania.pe/inmueble/" + id,
	}
}

func TestCSVSink_Write(t *testing.T) {
	dir := t.TempDir()
	sink := NewCSVSink(dir)

	path, err := sink.Write("batch-1", []models.PropertyRecord{sampleRecord("p1"), sampleRecord("p2")})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "properties_listing_batch-1.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, models.PropertyColumns, rows[0])
	require.Equal(t, "p1", rows[1][2])
	require.Equal(t, "", rows[1][7], "missing secondary price is an empty cell")
	require.Equal(t, "350", rows[1][8])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
}

func TestCSVSink_EmptyBatchWritesNothing(t *testing.T) {
	dir := t.TempDir()

	path, err := NewCSVSink(dir).Write("batch-1", nil)
	require.NoError(t, err)
	require.Empty(t, path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestCSVSink_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data", "processed")

	path, err := NewCSVSink(dir).Write("b", []models.PropertyRecord{sampleRecord("p1")})
	require.NoError(t, err)
	require.FileExists(t, path)
}
