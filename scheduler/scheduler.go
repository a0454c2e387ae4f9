package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrAlreadyRunning is returned by TriggerNow while a run is in progress.
var ErrAlreadyRunning = errors.New("a run is already in progress")

// Job is one scheduled unit of work: a scrape followed by a load.
type Job func(ctx context.Context) error

type Scheduler struct {
	schedule string
	job      Job
	cron     *cron.Cron
	mu       sync.Mutex
	log      *slog.Logger
}

func New(schedule string, job Job, logger *slog.Logger) *Scheduler {
	log := logger.With("component", "scheduler")
	cl := cronLogger{log: log}
	return &Scheduler{
		schedule: schedule,
		job:      job,
		cron:     cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		log:      log,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.schedule == "" {
		return fmt.Errorf("no schedule configured")
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.run(ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			s.log.Error("scheduled run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	s.log.Info("starting scheduler", "cron", s.schedule)
	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running job to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Next reports when the job fires next, zero if not started.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// TriggerNow runs the job immediately unless one is already running.
func (s *Scheduler) TriggerNow(ctx context.Context) error {
	return s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) error {
	if !s.mu.TryLock() {
		s.log.Warn("skipping run, previous run still in progress")
		return ErrAlreadyRunning
	}
	defer s.mu.Unlock()

	start := time.Now()
	s.log.Info("run started")
	err := s.job(ctx)
	s.log.Info("run finished", "duration", time.Since(start).Round(time.Millisecond), "ok", err == nil)
	return err
}

// cronLogger routes cron's own messages through slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
