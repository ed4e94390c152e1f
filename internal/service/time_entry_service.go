package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"matterdesk/internal/domain"
	"matterdesk/internal/port"
)

// ErrEmptyNarrative is returned when capture is called with no text.
var ErrEmptyNarrative = errors.New("narrative text is required")

// TimeEntryService captures structured time entry drafts from free-text work
// narratives.
type TimeEntryService interface {
	Capture(ctx context.Context, narrative string) (*domain.TimeEntryDraft, error)
}

type timeEntryService struct {
	coordinator port.ExtractionEngine
}

// NewTimeEntryService creates the TimeEntryService implementation. The
// coordinator handles primary/fallback engine selection internally.
func NewTimeEntryService(coordinator port.ExtractionEngine) TimeEntryService {
	return &timeEntryService{coordinator: coordinator}
}

func (s *timeEntryService) Capture(ctx context.Context, narrative string) (*domain.TimeEntryDraft, error) {
	narrative = strings.TrimSpace(narrative)
	if narrative == "" {
		return nil, ErrEmptyNarrative
	}

	result, err := s.coordinator.Extract(ctx, port.ExtractInput{
		Text:         narrative,
		DocumentType: "time_narrative",
	})
	if err != nil {
		return nil, fmt.Errorf("extracting time entry: %w", err)
	}

	draft := &domain.TimeEntryDraft{
		Narrative:         narrative,
		OverallConfidence: result.OverallConfidence,
		Method:            result.Method,
		Warnings:          result.Warnings,
	}

	if f, ok := result.Fields[domain.FieldDuration]; ok {
		if minutes, ok := fieldInt(f.Value, "total_minutes"); ok {
			draft.TotalMinutes = &minutes
		}
	}
	if f, ok := result.Fields[domain.FieldWorkType]; ok {
		if category, ok := fieldString(f.Value, "category"); ok {
			draft.WorkType = category
		}
	}
	if f, ok := result.Fields[domain.FieldDate]; ok {
		if date, ok := fieldString(f.Value, "date"); ok {
			draft.Date = date
		}
	}
	if _, ok := result.Fields[domain.FieldMatterReference]; ok {
		draft.MatterReferenced = true
	}

	log.Printf("timeEntryService.Capture: method=%s confidence=%.2f fields=%d",
		result.Method, result.OverallConfidence, len(result.Fields))
	return draft, nil
}

// fieldInt reads an integer out of a field value, accepting either the
// canonical {"key": n} object form or a bare number.
func fieldInt(value any, key string) (int, bool) {
	switch v := value.(type) {
	case map[string]any:
		return fieldInt(v[key], key)
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// fieldString reads a string out of a field value, accepting either the
// canonical object form or a bare string.
func fieldString(value any, key string) (string, bool) {
	switch v := value.(type) {
	case map[string]any:
		return fieldString(v[key], key)
	case string:
		return v, v != ""
	}
	return "", false
}
