package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"urbania_scraper/batch"
	"urbania_scraper/config"
	"urbania_scraper/logging"
	"urbania_scraper/models"
)

type LocationSource interface {
	Load(ctx context.Context) ([]models.Location, error)
}

type RecordSink interface {
	Write(batchID string, records []models.PropertyRecord) (string, error)
}

// Orchestrator runs one batch: every target location is paginated, then each
// collected link is fetched and extracted in order.
type Orchestrator struct {
	locations LocationSource
	fetcher   PageFetcher
	paginator *Paginator
	extractor *Extractor
	sink      RecordSink
	site      *config.SiteConfig
	headers   map[string]string
	now       func() time.Time
	log       *slog.Logger
}

func NewOrchestrator(
	site *config.SiteConfig,
	locations LocationSource,
	fetcher PageFetcher,
	sink RecordSink,
	logger *slog.Logger,
) (*Orchestrator, error) {
	paginator, err := NewPaginator(fetcher, site, logger)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		locations: locations,
		fetcher:   fetcher,
		paginator: paginator,
		extractor: NewExtractor(logger),
		sink:      sink,
		site:      site,
		headers:   map[string]string{"User-Agent": site.UserAgent},
		now:       time.Now,
		log:       logger.With("component", "orchestrator", "site", site.ID),
	}, nil
}

// SetClock replaces the time source used for batch and extraction stamps.
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.now = now
}

// Run executes a full batch. The returned run is never nil once locations
// are loaded; it carries the failure status alongside a fatal error.
func (o *Orchestrator) Run(ctx context.Context) (*models.ScrapeRun, error) {
	assembler := batch.New(o.now)
	run := &models.ScrapeRun{
		BatchID:   assembler.BatchID(),
		StartedAt: assembler.StartedAt(),
		Status:    models.RunStatusRunning,
	}
	log := o.log.With("batch_id", run.BatchID)
	log.Info("starting batch")

	locations, err := o.locations.Load(ctx)
	if err != nil {
		o.finish(run, models.RunStatusFailed)
		return run, fmt.Errorf("load locations: %w", err)
	}
	run.Targets = len(locations)
	log.Info("targets loaded", "count", len(locations))

	for i, loc := range locations {
		if err := ctx.Err(); err != nil {
			o.finish(run, models.RunStatusFailed)
			return run, err
		}

		target := NewSearchTarget(o.site, loc)
		log.Info("processing target", "target", i+1, "of", len(locations), "location", loc.String(), "url", target.URL)

		result, err := o.paginator.Collect(ctx, target)
		if err != nil {
			log.Error("aborting batch", "location", loc.String(), "error", err)
			o.finish(run, models.RunStatusFailed)
			return run, err
		}
		run.LinksFound += len(result.Links)
		log.Info("pagination finished", "location", loc.String(), "links", len(result.Links), "pages", result.Pages, "stop", result.Stop)

		if err := o.extractAll(ctx, log, assembler, loc, result.Links, run); err != nil {
			o.finish(run, models.RunStatusFailed)
			return run, err
		}
	}

	run.Records = assembler.Len()
	path, err := o.sink.Write(run.BatchID, assembler.Records())
	if err != nil {
		o.finish(run, models.RunStatusFailed)
		return run, fmt.Errorf("write batch: %w", err)
	}
	run.OutputPath = path

	o.finish(run, models.RunStatusCompleted)
	log.Info("batch completed",
		"targets", run.Targets,
		"links", run.LinksFound,
		"records", run.Records,
		"skipped", run.Skipped,
		"failed", run.Failed,
		"fetch_failures", run.FetchFailures,
		"output", path,
		logging.Elapsed(run.StartedAt),
	)
	return run, nil
}

func (o *Orchestrator) extractAll(ctx context.Context, log *slog.Logger, assembler *batch.Assembler, loc models.Location, links []string, run *models.ScrapeRun) error {
	total := len(links)
	for i, link := range links {
		if err := ctx.Err(); err != nil {
			return err
		}

		startedAt := assembler.Now()
		log.Info("extracting listing", "progress", fmt.Sprintf("%d/%d", i+1, total), "pct", fmt.Sprintf("%.1f%%", float64(i+1)*100/float64(total)), "link", link)

		content, err := o.fetcher.Fetch(ctx, link, o.headers, nil, o.site.MaxRetries)
		if err != nil {
			log.Warn("listing fetch failed, skipping", "link", link, "error", err)
			run.FetchFailures++
			continue
		}

		details, err := o.extractor.Extract(content)
		var extractErr *ExtractionError
		switch {
		case err == nil:
			assembler.Append(details, loc, link, startedAt)
		case errors.Is(err, ErrSkip):
			log.Info("listing skipped", "link", link, "reason", err)
			run.Skipped++
		case errors.As(err, &extractErr):
			log.Error("listing extraction failed", "link", link, "field", extractErr.Field, "error", extractErr.Err)
			run.Failed++
		default:
			log.Error("listing extraction failed", "link", link, "error", err)
			run.Failed++
		}
	}
	return nil
}

func (o *Orchestrator) finish(run *models.ScrapeRun, status models.RunStatus) {
	now := o.now()
	run.FinishedAt = &now
	run.Status = status
}
