// Package poller implements the client-side status reconciliation loop: it
// repeatedly reads a document's status record and maps it onto a step
// projection until a terminal state or the attempt budget is reached.
package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"matterdesk/internal/domain"
)

// RecordReader is the read-only slice of the record store the poller needs.
type RecordReader interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.DocumentRecord, error)
}

// ProgressUpdate is emitted after every polling attempt, terminal or not.
type ProgressUpdate struct {
	Attempt int
	State   domain.DocumentState
	Steps   []domain.ProcessingStep
}

// ProgressFunc receives progress updates. May be nil.
type ProgressFunc func(ProgressUpdate)

// Config holds poller settings.
type Config struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultConfig is 60 attempts x 2s, a 120s timeout ceiling.
func DefaultConfig() Config {
	return Config{MaxAttempts: 60, Delay: 2 * time.Second}
}

// Poller observes one in-flight document per Observe call. Instances are
// stateless and safe for concurrent use across documents.
type Poller struct {
	reader RecordReader
	cfg    Config
}

// New creates a Poller. Zero config values fall back to the defaults.
func New(reader RecordReader, cfg Config) *Poller {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Delay <= 0 {
		cfg.Delay = def.Delay
	}
	return &Poller{reader: reader, cfg: cfg}
}

// Observe polls the status record for documentID until it reaches a terminal
// state or the attempt budget runs out. On completed it returns the extracted
// payload; on failed it returns a ProcessingFailedError carrying the stored
// detail immediately, without spending remaining attempts. A record that is
// not yet visible, and any transient read error, just consume an attempt:
// infrastructure noise is never surfaced as a terminal failure while budget
// remains. Exhausting the budget returns ErrProcessingTimeout.
func (p *Poller) Observe(ctx context.Context, documentID uuid.UUID, onProgress ProgressFunc) (json.RawMessage, error) {
	// lastActive tracks the most recent non-failed state seen, so a failed
	// record can pin the failure to the step that was in flight.
	lastActive := domain.StateClassifying
	var lastSteps []domain.ProcessingStep

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		rec, err := p.reader.Get(ctx, documentID)
		switch {
		case err != nil:
			// Not-yet-visible records and transient store errors are the
			// same thing to the poller: keep waiting on the same budget.
			log.Printf("poller.Observe: attempt %d/%d for %s: record unavailable: %v",
				attempt, p.cfg.MaxAttempts, documentID, err)
			if lastSteps == nil {
				// No successful read yet; project from the assumed state so
				// every update carries a usable step list.
				lastSteps = ProjectSteps(&domain.DocumentRecord{State: lastActive}, lastActive)
			}
			emit(onProgress, ProgressUpdate{Attempt: attempt, State: lastActive, Steps: lastSteps})

		case rec.State == domain.StateFailed:
			lastSteps = ProjectSteps(rec, lastActive)
			emit(onProgress, ProgressUpdate{Attempt: attempt, State: rec.State, Steps: lastSteps})
			return nil, &domain.ProcessingFailedError{Detail: rec.ErrorDetail}

		case rec.State == domain.StateCompleted:
			lastSteps = ProjectSteps(rec, lastActive)
			emit(onProgress, ProgressUpdate{Attempt: attempt, State: rec.State, Steps: lastSteps})
			return rec.ExtractedData, nil

		default:
			lastActive = rec.State
			lastSteps = ProjectSteps(rec, lastActive)
			emit(onProgress, ProgressUpdate{Attempt: attempt, State: rec.State, Steps: lastSteps})
		}

		if attempt == p.cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.cfg.Delay):
		}
	}

	return nil, fmt.Errorf("observe %s: %w", documentID, domain.ErrProcessingTimeout)
}

func emit(fn ProgressFunc, u ProgressUpdate) {
	if fn != nil {
		fn(u)
	}
}
