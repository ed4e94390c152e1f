package service

import (
	"context"
	"log"
	"sync"
	"time"

	"matterdesk/internal/domain"
	"matterdesk/internal/port"
)

// RequeueConfig holds settings for the requeue worker.
type RequeueConfig struct {
	PollInterval time.Duration
	Concurrency  int
	// StaleAfter is how long a record may sit in a non-terminal state before
	// the worker considers its pipeline run dead and re-dispatches it. It
	// must comfortably exceed a full pipeline run so the worker never races
	// a live run for ownership of the record.
	StaleAfter time.Duration
}

// RequeueWorker re-dispatches documents whose pipeline run died mid-flight
// (process crash, deploy) and left the record stuck in a non-terminal state.
type RequeueWorker struct {
	records  port.DocumentRecordStore
	pipeline *Pipeline
	cfg      RequeueConfig
	wg       sync.WaitGroup
}

// NewRequeueWorker creates a RequeueWorker.
func NewRequeueWorker(records port.DocumentRecordStore, pipeline *Pipeline, cfg RequeueConfig) *RequeueWorker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 5 * time.Minute
	}
	return &RequeueWorker{records: records, pipeline: pipeline, cfg: cfg}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight pipeline runs have finished.
func (w *RequeueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("requeueWorker: started (poll=%s, concurrency=%d, staleAfter=%s)",
		w.cfg.PollInterval, w.cfg.Concurrency, w.cfg.StaleAfter)

	for {
		select {
		case <-ctx.Done():
			log.Printf("requeueWorker: shutting down, waiting for in-flight runs...")
			w.wg.Wait()
			log.Printf("requeueWorker: shutdown complete")
			return
		case <-ticker.C:
			w.sweep(ctx, sem)
		}
	}
}

// sweep scans the non-terminal states for stale records and re-dispatches
// them, bounded by the concurrency semaphore.
func (w *RequeueWorker) sweep(ctx context.Context, sem chan struct{}) {
	cutoff := time.Now().UTC().Add(-w.cfg.StaleAfter)

	for _, state := range []domain.DocumentState{
		domain.StateClassifying,
		domain.StateProcessing,
		domain.StateValidating,
	} {
		recs, _, err := w.records.ListByState(ctx, state, 0, w.cfg.Concurrency)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("requeueWorker: listing %s records: %v", state, err)
			continue
		}

		for i := range recs {
			rec := recs[i]
			if rec.UpdatedAt.After(cutoff) {
				continue
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				defer func() { <-sem }()

				// A fresh context so in-flight runs complete during shutdown.
				runCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				defer cancel()

				log.Printf("requeueWorker: re-dispatching stale document %s (stuck in %s since %s)",
					rec.ID, rec.State, rec.UpdatedAt.Format(time.RFC3339))
				w.pipeline.Run(runCtx, rec.ID)
			}()
		}
	}
}
