package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"matterdesk/internal/domain"
	"matterdesk/internal/port"
	"matterdesk/internal/service"
	"matterdesk/mocks"
)

func TestCapture_MapsFieldsToDraft(t *testing.T) {
	coordinator := new(mocks.MockExtractionEngine)

	result := &domain.ExtractionResult{
		Fields: map[string]domain.ExtractionField{
			domain.FieldDuration:        {Raw: "two hours", Value: map[string]any{"total_minutes": float64(120)}, Confidence: 0.90},
			domain.FieldWorkType:        {Raw: "research", Value: map[string]any{"category": "research"}, Confidence: 0.70},
			domain.FieldDate:            {Raw: "today", Value: map[string]any{"date": "2026-03-14"}, Confidence: 0.85},
			domain.FieldMatterReference: {Raw: "matter", Value: map[string]any{"present": true}, Confidence: 0.60},
		},
		OverallConfidence: 0.7625,
		Method:            domain.MethodFallback,
		Warnings:          []string{"primary engine unavailable: timed out"},
	}
	narrative := "I spent two hours today researching case law for the Smith matter"
	coordinator.On("Extract", mock.Anything, port.ExtractInput{
		Text:         narrative,
		DocumentType: "time_narrative",
	}).Return(result, nil)

	svc := service.NewTimeEntryService(coordinator)
	draft, err := svc.Capture(context.Background(), narrative)

	require.NoError(t, err)
	assert.Equal(t, narrative, draft.Narrative)
	require.NotNil(t, draft.TotalMinutes)
	assert.Equal(t, 120, *draft.TotalMinutes)
	assert.Equal(t, "research", draft.WorkType)
	assert.Equal(t, "2026-03-14", draft.Date)
	assert.True(t, draft.MatterReferenced)
	assert.InDelta(t, 0.7625, draft.OverallConfidence, 1e-9)
	assert.Equal(t, domain.MethodFallback, draft.Method)
	assert.Equal(t, []string{"primary engine unavailable: timed out"}, draft.Warnings)
}

func TestCapture_PartialFields(t *testing.T) {
	coordinator := new(mocks.MockExtractionEngine)

	result := &domain.ExtractionResult{
		Fields: map[string]domain.ExtractionField{
			domain.FieldDuration: {Raw: "45 minutes", Value: map[string]any{"total_minutes": float64(45)}, Confidence: 0.90},
		},
		OverallConfidence: 0.90,
		Method:            domain.MethodPrimary,
	}
	coordinator.On("Extract", mock.Anything, mock.Anything).Return(result, nil)

	svc := service.NewTimeEntryService(coordinator)
	draft, err := svc.Capture(context.Background(), "45 minutes on admin")

	require.NoError(t, err)
	require.NotNil(t, draft.TotalMinutes)
	assert.Equal(t, 45, *draft.TotalMinutes)
	assert.Empty(t, draft.WorkType)
	assert.Empty(t, draft.Date)
	assert.False(t, draft.MatterReferenced)
}

func TestCapture_EmptyNarrative(t *testing.T) {
	coordinator := new(mocks.MockExtractionEngine)

	svc := service.NewTimeEntryService(coordinator)

	for _, narrative := range []string{"", "   ", "\n\t"} {
		draft, err := svc.Capture(context.Background(), narrative)
		assert.Nil(t, draft)
		assert.ErrorIs(t, err, service.ErrEmptyNarrative)
	}
	coordinator.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestCapture_EngineError(t *testing.T) {
	coordinator := new(mocks.MockExtractionEngine)
	coordinator.On("Extract", mock.Anything, mock.Anything).Return(nil, errors.New("all engines failed"))

	svc := service.NewTimeEntryService(coordinator)
	draft, err := svc.Capture(context.Background(), "two hours drafting")

	assert.Nil(t, draft)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extracting time entry")
}

func TestCapture_NarrativeIsTrimmed(t *testing.T) {
	coordinator := new(mocks.MockExtractionEngine)

	result := &domain.ExtractionResult{Fields: map[string]domain.ExtractionField{}}
	coordinator.On("Extract", mock.Anything, port.ExtractInput{
		Text:         "two hours drafting",
		DocumentType: "time_narrative",
	}).Return(result, nil)

	svc := service.NewTimeEntryService(coordinator)
	draft, err := svc.Capture(context.Background(), "  two hours drafting  ")

	require.NoError(t, err)
	assert.Equal(t, "two hours drafting", draft.Narrative)
	coordinator.AssertExpectations(t)
}
