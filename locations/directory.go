package locations

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"urbania_scraper/config"
	"urbania_scraper/models"
)

// Fixed column positions in the directory file.
const (
	colCodeA    = 0
	colCodeB    = 1
	colRegion   = 2
	colCity     = 3
	colDistrict = 4
)

const missingMarker = "NA"

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, headers map[string]string, query url.Values, maxRetries int) (string, error)
}

// Directory loads the districts to search from a remote CSV.
type Directory struct {
	fetcher    Fetcher
	url        string
	regions    []config.TargetRegion
	maxRetries int
	log        *slog.Logger
}

func NewDirectory(fetcher Fetcher, site *config.SiteConfig, logger *slog.Logger) *Directory {
	return &Directory{
		fetcher:    fetcher,
		url:        site.LocationsURL,
		regions:    site.Regions,
		maxRetries: site.MaxRetries,
		log:        logger.With("component", "locations"),
	}
}

func (d *Directory) Load(ctx context.Context) ([]models.Location, error) {
	d.log.Info("fetching location data", "url", d.url)

	body, err := d.fetcher.Fetch(ctx, d.url, nil, nil, d.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("fetch locations: %w", err)
	}

	locs, err := Parse(strings.NewReader(body), d.regions)
	if err != nil {
		return nil, err
	}

	d.log.Info("location data loaded", "targets", len(locs))
	return locs, nil
}

// Parse reads the directory CSV, skipping the header and rows whose leading
// code columns are NA, and keeps rows that match one of regions. An empty
// regions list keeps everything.
func Parse(r io.Reader, regions []config.TargetRegion) ([]models.Location, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var locs []models.Location
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(row) <= colDistrict {
			continue
		}
		if row[colCodeA] == missingMarker || row[colCodeB] == missingMarker {
			continue
		}

		loc := models.Location{
			Region:   strings.TrimSpace(row[colRegion]),
			City:     strings.TrimSpace(row[colCity]),
			District: strings.TrimSpace(row[colDistrict]),
		}
		if matches(loc, regions) {
			locs = append(locs, loc)
		}
	}

	return locs, nil
}

func matches(loc models.Location, regions []config.TargetRegion) bool {
	if len(regions) == 0 {
		return true
	}
	for _, r := range regions {
		if !strings.EqualFold(r.Region, loc.Region) {
			continue
		}
		if r.City == "" || strings.EqualFold(r.City, loc.City) {
			return true
		}
	}
	return false
}
