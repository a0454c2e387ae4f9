package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"urbania_scraper/config"
	"urbania_scraper/fetcher"
	"urbania_scraper/loader"
	"urbania_scraper/locations"
	"urbania_scraper/logging"
	"urbania_scraper/models"
	"urbania_scraper/report"
	"urbania_scraper/scheduler"
	"urbania_scraper/scraper"
	"urbania_scraper/storage"
)

var (
	siteID    string
	runsLimit int
)

// app holds what every command needs once configuration is read.
type app struct {
	cfg *config.Config
	log *slog.Logger
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "urbania_scraper",
		Short:        "Scrape rental listings from urbania.pe and load them into Postgres",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&siteID, "site", "", "site config id (overrides SITE_ID)")

	scrapeCmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run one scrape batch and stage its CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				_, err := a.scrape(ctx)
				return err
			})
		},
	}

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Copy staged CSV files into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				return a.load(ctx)
			})
		},
	}

	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Scrape and load on the SCRAPE_CRON schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				return a.daemon(ctx)
			})
		},
	}

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent batches from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				return a.printRuns(cmd, runsLimit)
			})
		},
	}
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "number of runs to show")

	rootCmd.AddCommand(scrapeCmd, loadCmd, daemonCmd, runsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) error {
	if siteID != "" {
		os.Setenv("SITE_ID", siteID)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, rw, err := logging.Setup(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		logger = logging.Console(cfg.LogLevel)
		logger.Warn("could not set up file logging", "path", cfg.LogFile, "error", err)
	} else {
		defer rw.Close()
	}

	a := &app{cfg: cfg, log: logger}
	if err := fn(ctx, a); err != nil {
		logger.Error("command failed", "error", err)
		return err
	}
	return nil
}

func (a *app) scrape(ctx context.Context) (*models.ScrapeRun, error) {
	site := a.cfg.Site
	a.log.Info("starting scrape", "site", site.ID, "handler", site.Handler, "staging", a.cfg.Staging.ProcessedDir)

	f := fetcher.New(fetcher.NewTransport(site, a.cfg.Fetch.Timeout), fetcher.DefaultPolicy(), a.log)
	defer f.Close()

	orchestrator, err := scraper.NewOrchestrator(
		site,
		locations.NewDirectory(f, site, a.log),
		f,
		storage.NewCSVSink(a.cfg.Staging.ProcessedDir),
		a.log,
	)
	if err != nil {
		return nil, err
	}

	run, runErr := orchestrator.Run(ctx)
	if run != nil {
		a.recordRun(run)
	}
	return run, runErr
}

// recordRun keeps the batch summary in the ledger. Failures only warn: the
// staged file is the source of truth.
func (a *app) recordRun(run *models.ScrapeRun) {
	ledger, err := storage.NewSQLiteLedger(a.cfg.LedgerPath)
	if err != nil {
		a.log.Warn("could not open ledger", "path", a.cfg.LedgerPath, "error", err)
		return
	}
	defer ledger.Close()

	if err := ledger.RecordRun(run); err != nil {
		a.log.Warn("could not record run", "batch_id", run.BatchID, "error", err)
	}
}

func (a *app) load(ctx context.Context) error {
	if a.cfg.Postgres.DSN == "" {
		return fmt.Errorf("PG_DSN is required to load")
	}

	copier, err := storage.NewPostgresCopier(ctx, a.cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer copier.Close()
	a.log.Info("connected to postgres", "dsn", maskConnectionString(a.cfg.Postgres.DSN))

	ledger, err := storage.NewSQLiteLedger(a.cfg.LedgerPath)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer ledger.Close()

	l := loader.New(copier, ledger, a.cfg.Staging, a.cfg.Postgres, a.log)
	if a.cfg.S3.Enabled() {
		archive, err := storage.NewS3Archive(ctx, a.cfg.S3)
		if err != nil {
			return fmt.Errorf("set up archive: %w", err)
		}
		l.SetArchive(archive)
		a.log.Info("archiving loaded files", "bucket", a.cfg.S3.Bucket, "prefix", a.cfg.S3.Prefix)
	}

	_, err = l.Run(ctx)
	return err
}

func (a *app) daemon(ctx context.Context) error {
	sched := scheduler.New(a.cfg.Scheduler.Cron, func(ctx context.Context) error {
		if _, err := a.scrape(ctx); err != nil {
			return fmt.Errorf("scrape: %w", err)
		}
		if a.cfg.Postgres.DSN == "" {
			a.log.Warn("PG_DSN not set, leaving batch staged")
			return nil
		}
		return a.load(ctx)
	}, a.log)

	if err := sched.Start(ctx); err != nil {
		return err
	}
	a.log.Info("daemon running", "next_run", sched.Next())

	<-ctx.Done()
	a.log.Info("shutting down")
	sched.Stop()
	return nil
}

func (a *app) printRuns(cmd *cobra.Command, limit int) error {
	ledger, err := storage.NewSQLiteLedger(a.cfg.LedgerPath)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer ledger.Close()

	runs, err := ledger.RecentRuns(limit)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.Runs(runs))
	return nil
}

// maskConnectionString hides the password in a connection string for logging
func maskConnectionString(connStr string) string {
	scheme := strings.Index(connStr, "://")
	if scheme < 0 {
		return connStr
	}
	start := scheme + 3

	at := strings.LastIndex(connStr[start:], "@")
	if at < 0 {
		return connStr
	}
	at += start

	colon := strings.Index(connStr[start:at], ":")
	if colon < 0 {
		return connStr
	}
	colon += start

	return connStr[:colon+1] + "****" + connStr[at:]
}
