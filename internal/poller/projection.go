package poller

import "matterdesk/internal/domain"

// stepForState maps a lifecycle state onto the projection step it drives.
var stepForState = map[domain.DocumentState]domain.StepName{
	domain.StateClassifying: domain.StepClassification,
	domain.StateProcessing:  domain.StepExtraction,
	domain.StateValidating:  domain.StepValidation,
	domain.StateCompleted:   domain.StepComplete,
}

var stepIndex = func() map[domain.StepName]int {
	idx := make(map[domain.StepName]int, len(domain.StepOrder))
	for i, name := range domain.StepOrder {
		idx[name] = i
	}
	return idx
}()

// ProjectSteps derives the read-only step projection from a stored record.
// lastActive is the last non-failed state the caller observed; it determines
// which step is marked failed when the record reaches the failed state. The
// function is stateless on purpose: feeding it a forward-ordered sequence of
// record snapshots yields a monotonically advancing projection, because each
// state maps to a fixed pipeline position and the state machine never moves
// backwards.
func ProjectSteps(rec *domain.DocumentRecord, lastActive domain.DocumentState) []domain.ProcessingStep {
	steps := make([]domain.ProcessingStep, len(domain.StepOrder))
	for i, name := range domain.StepOrder {
		steps[i] = domain.ProcessingStep{Name: name, Status: domain.StepStatusPending}
	}

	// The record only exists once the raw bytes are durably stored, so the
	// upload step is always completed from the poller's point of view.
	steps[stepIndex[domain.StepUpload]].Status = domain.StepStatusCompleted

	current := rec.State
	if current == domain.StateFailed {
		if lastActive == "" || lastActive == domain.StateFailed {
			lastActive = domain.StateClassifying
		}
		failedAt := stepIndex[stepForState[lastActive]]
		for i := 1; i < failedAt; i++ {
			steps[i].Status = domain.StepStatusCompleted
		}
		steps[failedAt].Status = domain.StepStatusFailed
		annotate(steps, rec)
		return steps
	}

	currentIdx := stepIndex[stepForState[current]]
	for i := 1; i < currentIdx; i++ {
		steps[i].Status = domain.StepStatusCompleted
	}
	if current == domain.StateCompleted {
		steps[currentIdx].Status = domain.StepStatusCompleted
	} else {
		steps[currentIdx].Status = domain.StepStatusInProgress
	}
	annotate(steps, rec)
	return steps
}

// annotate attaches tier and confidence to the extraction step once known.
func annotate(steps []domain.ProcessingStep, rec *domain.DocumentRecord) {
	i := stepIndex[domain.StepExtraction]
	steps[i].Tier = rec.Tier
	steps[i].Confidence = rec.OverallConfidence
}
