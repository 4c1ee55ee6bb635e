// Package syncer is the change detector and background scheduler: on every
// tick it fetches each registered tab, compares content hashes, and imports
// only what changed.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"survey_pipeline/internal/model"
	"survey_pipeline/internal/normalize"
	"survey_pipeline/internal/retry"
	"survey_pipeline/internal/rowhash"
	"survey_pipeline/internal/sheets"
	"survey_pipeline/internal/storage"
)

// Source fetches the current rows of one tab. *sheets.Client is the real
// implementation; tests stub it.
type Source interface {
	FetchTab(ctx context.Context, sheetID, tabName string) (sheets.Tab, error)
}

// Notifier hears about finished cycles that imported data or failed.
type Notifier interface {
	SyncCompleted(ctx context.Context, succeeded, failed, responsesImported int)
}

type Config struct {
	Interval     time.Duration
	FetchTimeout time.Duration
	FetchRetries int
}

type Syncer struct {
	cfg      Config
	source   Source
	store    *storage.Store
	norm     *normalize.Normalizer
	notifier Notifier

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	force   chan struct{}
	done    chan struct{}

	// cycleMu serializes cycles so a force against a stopped scheduler can
	// never overlap a running one.
	cycleMu sync.Mutex
}

func New(cfg Config, source Source, store *storage.Store, norm *normalize.Normalizer, notifier Notifier) *Syncer {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	return &Syncer{
		cfg:      cfg,
		source:   source,
		store:    store,
		norm:     norm,
		notifier: notifier,
	}
}

// Start launches the background loop. Starting an already running scheduler
// is a no-op.
func (s *Syncer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		log.Debug().Msg("Scheduler already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.force = make(chan struct{}, 1)
	s.done = make(chan struct{})
	s.running = true

	go s.loop(ctx)
	log.Info().Dur("interval", s.cfg.Interval).Msg("Sync scheduler started")
}

// Stop halts the loop. A cycle already in flight finishes first.
func (s *Syncer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	done := s.done
	s.mu.Unlock()

	<-done
	log.Info().Msg("Sync scheduler stopped")
}

// Force triggers one out-of-band cycle. When the loop is running the signal
// is queued (and collapsed with any pending one); when stopped, the cycle
// runs inline. Safe either way: imports are idempotent at the row level.
func (s *Syncer) Force(ctx context.Context) {
	s.mu.Lock()
	running := s.running
	force := s.force
	s.mu.Unlock()

	if running {
		select {
		case force <- struct{}{}:
			log.Debug().Msg("Forced sync queued")
		default:
			log.Debug().Msg("Forced sync already pending")
		}
		return
	}
	s.RunCycle(ctx)
}

// Running reports whether the background loop is active.
func (s *Syncer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Syncer) loop(ctx context.Context) {
	defer close(s.done)

	// Run immediately on start, then on every tick.
	s.RunCycle(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		case <-s.force:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle performs one pass over every registered spreadsheet. Failures are
// isolated per spreadsheet: one bad tab never blocks the rest.
func (s *Syncer) RunCycle(ctx context.Context) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	if ctx.Err() != nil {
		return
	}

	job, err := s.store.StartJob()
	if err != nil {
		log.Error().Err(err).Msg("Failed to start extraction job")
		return
	}
	log.Debug().Str("job_id", job.ID).Msg("Starting sync cycle")

	spreadsheets, err := s.store.ListSpreadsheets()
	if err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to list spreadsheets")
		s.finishJob(job, 0, 0, 0, err)
		return
	}

	var succeeded, failed, imported int
	var firstErr error
	for i := range spreadsheets {
		sp := &spreadsheets[i]
		outcome, err := s.syncSpreadsheet(ctx, job, sp)
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			log.Error().
				Err(err).
				Str("sheet_id", sp.SheetID).
				Str("tab", sp.TabName).
				Str("job_id", job.ID).
				Msg("Spreadsheet sync failed")
			if stErr := s.store.RecordSyncError(sp.ID, err); stErr != nil {
				log.Error().Err(stErr).Str("sheet_id", sp.SheetID).Msg("Failed to record sync error")
			}
			continue
		}
		succeeded++
		imported += outcome.ResponsesWritten
	}

	var cause error
	if failed > 0 {
		cause = fmt.Errorf("%d of %d spreadsheets failed: %w", failed, len(spreadsheets), firstErr)
	}
	s.finishJob(job, len(spreadsheets), succeeded, failed, cause)

	log.Info().
		Str("job_id", job.ID).
		Int("attempted", len(spreadsheets)).
		Int("succeeded", succeeded).
		Int("failed", failed).
		Int("responses_imported", imported).
		Msg("Sync cycle complete")

	if s.notifier != nil && (failed > 0 || imported > 0) {
		s.notifier.SyncCompleted(ctx, succeeded, failed, imported)
	}
}

// syncSpreadsheet runs fetch, change detection, and import for one tab.
func (s *Syncer) syncSpreadsheet(ctx context.Context, job *model.ExtractionJob, sp *model.Spreadsheet) (normalize.Result, error) {
	fetchCfg := retry.Config{
		MaxRetries: s.cfg.FetchRetries,
		BaseDelay:  2 * time.Second,
		MaxDelay:   30 * time.Second,
		Timeout:    s.cfg.FetchTimeout,
	}
	tab, err := retry.WithRetry(ctx, fetchCfg, func(ctx context.Context) (sheets.Tab, error) {
		return s.source.FetchTab(ctx, sp.SheetID, sp.TabName)
	})
	if err != nil {
		return normalize.Result{}, fmt.Errorf("fetch stage: %w", err)
	}

	hash := rowhash.Tab(tab)
	state, err := s.store.SyncState(sp.ID)
	if err != nil {
		return normalize.Result{}, fmt.Errorf("state stage: %w", err)
	}

	if state.LastHash == hash {
		log.Debug().
			Str("sheet_id", sp.SheetID).
			Str("tab", sp.TabName).
			Msg("No change detected")
		return normalize.Result{}, s.store.TouchSyncState(sp.ID)
	}

	if _, err := s.store.PutRaw(sp.ID, tab, job.ID); err != nil {
		return normalize.Result{}, fmt.Errorf("raw stage: %w", err)
	}

	result, err := s.norm.Normalize(sp)
	if err != nil {
		return normalize.Result{}, fmt.Errorf("normalize stage: %w", err)
	}

	if err := s.store.RecordSync(sp.ID, hash); err != nil {
		return result, fmt.Errorf("state stage: %w", err)
	}

	log.Info().
		Str("sheet_id", sp.SheetID).
		Str("tab", sp.TabName).
		Int("rows", len(tab.Rows)).
		Int("responses", result.ResponsesWritten).
		Msg("Spreadsheet synced")
	return result, nil
}

func (s *Syncer) finishJob(job *model.ExtractionJob, attempted, succeeded, failed int, cause error) {
	errText := ""
	if cause != nil {
		errText = cause.Error()
	}
	if err := s.store.FinishJob(job, attempted, succeeded, failed, errText); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to finalize extraction job")
	}
}
