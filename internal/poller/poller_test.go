package poller_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"matterdesk/internal/domain"
	"matterdesk/internal/poller"
	"matterdesk/mocks"
)

func fastConfig(maxAttempts int) poller.Config {
	return poller.Config{MaxAttempts: maxAttempts, Delay: time.Millisecond}
}

func record(id uuid.UUID, state domain.DocumentState) *domain.DocumentRecord {
	return &domain.DocumentRecord{
		ID:       id,
		MatterID: "matter-001",
		FileName: "brief.pdf",
		State:    state,
	}
}

func TestObserve_CompletedReturnsPayload(t *testing.T) {
	store := new(mocks.MockDocumentRecordStore)
	id := uuid.New()

	rec := record(id, domain.StateCompleted)
	rec.ExtractedData = json.RawMessage(`{"fields":{}}`)
	store.On("Get", mock.Anything, id).Return(rec, nil)

	p := poller.New(store, fastConfig(5))
	payload, err := p.Observe(context.Background(), id, nil)

	require.NoError(t, err)
	assert.JSONEq(t, `{"fields":{}}`, string(payload))
	store.AssertNumberOfCalls(t, "Get", 1)
}

func TestObserve_ProgressesThroughStates(t *testing.T) {
	store := new(mocks.MockDocumentRecordStore)
	id := uuid.New()

	completed := record(id, domain.StateCompleted)
	completed.ExtractedData = json.RawMessage(`{}`)

	store.On("Get", mock.Anything, id).Return(record(id, domain.StateClassifying), nil).Once()
	store.On("Get", mock.Anything, id).Return(record(id, domain.StateProcessing), nil).Once()
	store.On("Get", mock.Anything, id).Return(record(id, domain.StateValidating), nil).Once()
	store.On("Get", mock.Anything, id).Return(completed, nil).Once()

	var updates []poller.ProgressUpdate
	p := poller.New(store, fastConfig(10))
	_, err := p.Observe(context.Background(), id, func(u poller.ProgressUpdate) {
		updates = append(updates, u)
	})

	require.NoError(t, err)
	require.Len(t, updates, 4)
	assert.Equal(t, domain.StateClassifying, updates[0].State)
	assert.Equal(t, domain.StateProcessing, updates[1].State)
	assert.Equal(t, domain.StateValidating, updates[2].State)
	assert.Equal(t, domain.StateCompleted, updates[3].State)

	// The projection only ever advances: once a step reads completed it
	// stays completed in every later update.
	for i := 1; i < len(updates); i++ {
		for j, step := range updates[i-1].Steps {
			if step.Status == domain.StepStatusCompleted {
				assert.Equal(t, domain.StepStatusCompleted, updates[i].Steps[j].Status,
					"step %s regressed between updates %d and %d", step.Name, i-1, i)
			}
		}
	}
}

func TestObserve_FailedShortCircuits(t *testing.T) {
	store := new(mocks.MockDocumentRecordStore)
	id := uuid.New()

	failed := record(id, domain.StateFailed)
	failed.ErrorDetail = "extraction produced no fields"
	store.On("Get", mock.Anything, id).Return(record(id, domain.StateProcessing), nil).Once()
	store.On("Get", mock.Anything, id).Return(failed, nil).Once()

	p := poller.New(store, fastConfig(60))
	payload, err := p.Observe(context.Background(), id, nil)

	assert.Nil(t, payload)
	var pfe *domain.ProcessingFailedError
	require.ErrorAs(t, err, &pfe)
	assert.Equal(t, "extraction produced no fields", pfe.Detail)
	assert.ErrorIs(t, err, domain.ErrProcessingFailed)
	// Failure is detected on the second read; the remaining budget is not
	// spent.
	store.AssertNumberOfCalls(t, "Get", 2)
}

func TestObserve_FailedPinsFailureToInFlightStep(t *testing.T) {
	store := new(mocks.MockDocumentRecordStore)
	id := uuid.New()

	failed := record(id, domain.StateFailed)
	failed.ErrorDetail = "engine gave up"
	store.On("Get", mock.Anything, id).Return(record(id, domain.StateProcessing), nil).Once()
	store.On("Get", mock.Anything, id).Return(failed, nil).Once()

	var last poller.ProgressUpdate
	p := poller.New(store, fastConfig(60))
	_, err := p.Observe(context.Background(), id, func(u poller.ProgressUpdate) { last = u })

	require.Error(t, err)
	byName := map[domain.StepName]domain.StepStatus{}
	for _, s := range last.Steps {
		byName[s.Name] = s.Status
	}
	assert.Equal(t, domain.StepStatusCompleted, byName[domain.StepUpload])
	assert.Equal(t, domain.StepStatusCompleted, byName[domain.StepClassification])
	assert.Equal(t, domain.StepStatusFailed, byName[domain.StepExtraction])
	assert.Equal(t, domain.StepStatusPending, byName[domain.StepValidation])
}

func TestObserve_BudgetExhaustedReturnsTimeout(t *testing.T) {
	store := new(mocks.MockDocumentRecordStore)
	id := uuid.New()

	store.On("Get", mock.Anything, id).Return(record(id, domain.StateProcessing), nil)

	p := poller.New(store, fastConfig(3))
	payload, err := p.Observe(context.Background(), id, nil)

	assert.Nil(t, payload)
	assert.ErrorIs(t, err, domain.ErrProcessingTimeout)
	store.AssertNumberOfCalls(t, "Get", 3)
}

func TestObserve_RecordNotVisibleYetConsumesAttemptsSilently(t *testing.T) {
	store := new(mocks.MockDocumentRecordStore)
	id := uuid.New()

	completed := record(id, domain.StateCompleted)
	completed.ExtractedData = json.RawMessage(`{}`)

	// The record is not readable for two attempts, then appears. Neither
	// the not-found nor the transient error surfaces to the caller.
	store.On("Get", mock.Anything, id).Return(nil, domain.ErrNotFound).Once()
	store.On("Get", mock.Anything, id).Return(nil, errors.New("connection reset")).Once()
	store.On("Get", mock.Anything, id).Return(completed, nil).Once()

	var attempts []int
	p := poller.New(store, fastConfig(10))
	_, err := p.Observe(context.Background(), id, func(u poller.ProgressUpdate) {
		attempts = append(attempts, u.Attempt)
	})

	require.NoError(t, err)
	// Progress is emitted on every attempt, including the unreadable ones.
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestObserve_UnreadableAttemptsCarryStepProjection(t *testing.T) {
	store := new(mocks.MockDocumentRecordStore)
	id := uuid.New()

	// Every attempt fails before a single successful read, so the poller has
	// no record snapshot to project from.
	store.On("Get", mock.Anything, id).Return(nil, domain.ErrNotFound)

	var updates []poller.ProgressUpdate
	p := poller.New(store, fastConfig(3))
	_, err := p.Observe(context.Background(), id, func(u poller.ProgressUpdate) {
		updates = append(updates, u)
	})

	assert.ErrorIs(t, err, domain.ErrProcessingTimeout)
	require.Len(t, updates, 3)
	for _, u := range updates {
		require.NotNil(t, u.Steps, "attempt %d emitted no step projection", u.Attempt)
		byName := map[domain.StepName]domain.StepStatus{}
		for _, s := range u.Steps {
			byName[s.Name] = s.Status
		}
		assert.Equal(t, domain.StepStatusCompleted, byName[domain.StepUpload])
		assert.Equal(t, domain.StepStatusInProgress, byName[domain.StepClassification])
		assert.Equal(t, domain.StepStatusPending, byName[domain.StepExtraction])
	}
}

func TestObserve_AllAttemptsUnreadableReturnsTimeout(t *testing.T) {
	store := new(mocks.MockDocumentRecordStore)
	id := uuid.New()

	store.On("Get", mock.Anything, id).Return(nil, domain.ErrNotFound)

	p := poller.New(store, fastConfig(4))
	_, err := p.Observe(context.Background(), id, nil)

	assert.ErrorIs(t, err, domain.ErrProcessingTimeout)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestObserve_ContextCancelled(t *testing.T) {
	store := new(mocks.MockDocumentRecordStore)
	id := uuid.New()

	store.On("Get", mock.Anything, id).Return(record(id, domain.StateProcessing), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := poller.New(store, poller.Config{MaxAttempts: 10, Delay: time.Minute})
	_, err := p.Observe(ctx, id, nil)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_ZeroConfigFallsBackToDefaults(t *testing.T) {
	def := poller.DefaultConfig()
	assert.Equal(t, 60, def.MaxAttempts)
	assert.Equal(t, 2*time.Second, def.Delay)
}
