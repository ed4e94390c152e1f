package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"matterdesk/internal/domain"
	"matterdesk/internal/port"
)

// Coordinator selects between the primary and fallback extraction engines.
// The primary engine is attempted exactly once per call with an advisory
// timeout; on failure, timeout, or structurally invalid output the fallback
// engine is used and the result is tagged accordingly. Retry across calls is
// the caller's responsibility, which keeps per-call latency bounded.
type Coordinator struct {
	primary  port.ExtractionEngine
	fallback port.ExtractionEngine
	timeout  time.Duration
}

// NewCoordinator creates a Coordinator. A zero timeout defaults to 30s.
func NewCoordinator(primary, fallback port.ExtractionEngine, timeout time.Duration) *Coordinator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Coordinator{
		primary:  primary,
		fallback: fallback,
		timeout:  timeout,
	}
}

type primaryOutcome struct {
	result *domain.ExtractionResult
	err    error
}

// Extract runs the extraction pipeline over input. It never returns an
// engine-level error from the primary engine: those are recovered locally by
// falling back, with a warning naming the reason.
func (c *Coordinator) Extract(ctx context.Context, input port.ExtractInput) (*domain.ExtractionResult, error) {
	result, reason := c.tryPrimary(ctx, input)
	if reason == "" {
		result.Method = domain.MethodPrimary
		result.RecomputeOverall()
		return result, nil
	}

	log.Printf("engine.Coordinator: falling back: %s", reason)

	result, err := c.fallback.Extract(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("fallback engine: %w", err)
	}
	result.Method = domain.MethodFallback
	result.AddWarning(fmt.Sprintf("primary engine unavailable: %s", reason))
	result.RecomputeOverall()
	return result, nil
}

// tryPrimary attempts the primary engine once. It returns an empty reason on
// success, otherwise the reason to record in the fallback warning.
//
// The timeout is advisory: when it fires the in-flight call is abandoned, not
// aborted. The goroutine drains on its own once the engine returns.
func (c *Coordinator) tryPrimary(ctx context.Context, input port.ExtractInput) (*domain.ExtractionResult, string) {
	if c.primary == nil {
		return nil, "primary engine not configured"
	}

	outcome := make(chan primaryOutcome, 1)
	go func() {
		result, err := c.primary.Extract(ctx, input)
		outcome <- primaryOutcome{result: result, err: err}
	}()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case o := <-outcome:
		if o.err != nil {
			return nil, o.err.Error()
		}
		if reason := validateResult(o.result); reason != "" {
			return nil, reason
		}
		return o.result, ""
	case <-timer.C:
		return nil, fmt.Sprintf("primary engine timed out after %s", c.timeout)
	}
}

// validateResult checks the structural invariants of a primary result. Field
// confidences must be in [0,1]; a result with no field map is malformed.
// Fields absent from the output are simply not present, never synthesized.
func validateResult(r *domain.ExtractionResult) string {
	if r == nil || r.Fields == nil {
		return "primary engine returned no field map"
	}
	for name, f := range r.Fields {
		if f.Confidence < 0 || f.Confidence > 1 {
			return fmt.Sprintf("field %q confidence %v outside [0,1]", name, f.Confidence)
		}
	}
	return ""
}
