package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"matterdesk/internal/domain"
	"matterdesk/internal/engine"
	"matterdesk/internal/port"
	"matterdesk/mocks"
)

func primaryResult() *domain.ExtractionResult {
	return &domain.ExtractionResult{
		Fields: map[string]domain.ExtractionField{
			domain.FieldDuration: {Raw: "2 hours", Value: map[string]any{"total_minutes": 120}, Confidence: 0.95},
			domain.FieldWorkType: {Raw: "research", Value: map[string]any{"category": "research"}, Confidence: 0.85},
		},
	}
}

func fallbackResult() *domain.ExtractionResult {
	return &domain.ExtractionResult{
		Fields: map[string]domain.ExtractionField{
			domain.FieldDuration: {Raw: "2 hours", Value: map[string]any{"total_minutes": 120}, Confidence: 0.90},
		},
	}
}

func TestCoordinator_PrimarySucceeds(t *testing.T) {
	primary := new(mocks.MockExtractionEngine)
	fallback := new(mocks.MockExtractionEngine)

	input := port.ExtractInput{Text: "spent 2 hours on research", DocumentType: "time_narrative"}
	primary.On("Extract", mock.Anything, input).Return(primaryResult(), nil)

	c := engine.NewCoordinator(primary, fallback, time.Second)
	result, err := c.Extract(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, domain.MethodPrimary, result.Method)
	assert.Empty(t, result.Warnings)
	assert.InDelta(t, 0.90, result.OverallConfidence, 1e-9)
	fallback.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestCoordinator_PrimaryError_FallsBack(t *testing.T) {
	primary := new(mocks.MockExtractionEngine)
	fallback := new(mocks.MockExtractionEngine)

	input := port.ExtractInput{Text: "spent 2 hours on research"}
	primary.On("Extract", mock.Anything, input).Return(nil, errors.New("upstream 503"))
	fallback.On("Extract", mock.Anything, input).Return(fallbackResult(), nil)

	c := engine.NewCoordinator(primary, fallback, time.Second)
	result, err := c.Extract(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, domain.MethodFallback, result.Method)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "primary engine unavailable")
	assert.Contains(t, result.Warnings[0], "upstream 503")
}

func TestCoordinator_PrimaryTimeout_FallsBack(t *testing.T) {
	primary := new(mocks.MockExtractionEngine)
	fallback := new(mocks.MockExtractionEngine)

	input := port.ExtractInput{Text: "spent 2 hours on research"}
	primary.On("Extract", mock.Anything, input).
		Run(func(mock.Arguments) { time.Sleep(200 * time.Millisecond) }).
		Return(primaryResult(), nil)
	fallback.On("Extract", mock.Anything, input).Return(fallbackResult(), nil)

	c := engine.NewCoordinator(primary, fallback, 20*time.Millisecond)
	result, err := c.Extract(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, domain.MethodFallback, result.Method)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "timed out")
}

func TestCoordinator_PrimaryMalformed_FallsBack(t *testing.T) {
	primary := new(mocks.MockExtractionEngine)
	fallback := new(mocks.MockExtractionEngine)

	input := port.ExtractInput{Text: "spent 2 hours on research"}
	// A result without a field map is structurally invalid.
	primary.On("Extract", mock.Anything, input).Return(&domain.ExtractionResult{}, nil)
	fallback.On("Extract", mock.Anything, input).Return(fallbackResult(), nil)

	c := engine.NewCoordinator(primary, fallback, time.Second)
	result, err := c.Extract(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, domain.MethodFallback, result.Method)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "no field map")
}

func TestCoordinator_PrimaryConfidenceOutOfRange_FallsBack(t *testing.T) {
	primary := new(mocks.MockExtractionEngine)
	fallback := new(mocks.MockExtractionEngine)

	bad := &domain.ExtractionResult{
		Fields: map[string]domain.ExtractionField{
			domain.FieldDuration: {Raw: "2 hours", Confidence: 1.7},
		},
	}
	input := port.ExtractInput{Text: "spent 2 hours on research"}
	primary.On("Extract", mock.Anything, input).Return(bad, nil)
	fallback.On("Extract", mock.Anything, input).Return(fallbackResult(), nil)

	c := engine.NewCoordinator(primary, fallback, time.Second)
	result, err := c.Extract(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, domain.MethodFallback, result.Method)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "outside [0,1]")
}

func TestCoordinator_NoPrimaryConfigured_FallsBack(t *testing.T) {
	fallback := new(mocks.MockExtractionEngine)

	input := port.ExtractInput{Text: "spent 2 hours on research"}
	fallback.On("Extract", mock.Anything, input).Return(fallbackResult(), nil)

	c := engine.NewCoordinator(nil, fallback, time.Second)
	result, err := c.Extract(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, domain.MethodFallback, result.Method)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "not configured")
}

func TestCoordinator_BothEnginesFail(t *testing.T) {
	primary := new(mocks.MockExtractionEngine)
	fallback := new(mocks.MockExtractionEngine)

	input := port.ExtractInput{Text: "spent 2 hours on research"}
	primary.On("Extract", mock.Anything, input).Return(nil, errors.New("upstream 503"))
	fallback.On("Extract", mock.Anything, input).Return(nil, errors.New("rules engine broke"))

	c := engine.NewCoordinator(primary, fallback, time.Second)
	result, err := c.Extract(context.Background(), input)

	assert.Nil(t, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback engine")
}

func TestCoordinator_FallbackResultOverallIsRecomputed(t *testing.T) {
	primary := new(mocks.MockExtractionEngine)
	fallback := new(mocks.MockExtractionEngine)

	fb := &domain.ExtractionResult{
		Fields: map[string]domain.ExtractionField{
			domain.FieldDuration: {Confidence: 0.90},
			domain.FieldDate:     {Confidence: 0.85},
		},
		// A stale overall must not survive the coordinator.
		OverallConfidence: 0.1,
	}
	input := port.ExtractInput{Text: "worked 2 hours today"}
	primary.On("Extract", mock.Anything, input).Return(nil, errors.New("unavailable"))
	fallback.On("Extract", mock.Anything, input).Return(fb, nil)

	c := engine.NewCoordinator(primary, fallback, time.Second)
	result, err := c.Extract(context.Background(), input)

	require.NoError(t, err)
	assert.InDelta(t, 0.875, result.OverallConfidence, 1e-9)
}
