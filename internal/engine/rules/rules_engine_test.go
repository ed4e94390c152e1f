package rules_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matterdesk/internal/domain"
	"matterdesk/internal/engine/rules"
	"matterdesk/internal/port"
)

var fixedNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func newFixedEngine() *rules.Engine {
	return rules.NewEngineWithClock(func() time.Time { return fixedNow })
}

func extract(t *testing.T, text string) *domain.ExtractionResult {
	t.Helper()
	result, err := newFixedEngine().Extract(context.Background(), port.ExtractInput{
		Text:         text,
		DocumentType: "time_narrative",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestExtract_FullNarrative(t *testing.T) {
	result := extract(t, "I spent two hours today researching case law for the Johannesburg High Court matter involving Smith versus Jones")

	require.Len(t, result.Fields, 4)

	duration := result.Fields[domain.FieldDuration]
	assert.Equal(t, map[string]any{"total_minutes": 120}, duration.Value)
	assert.InDelta(t, 0.90, duration.Confidence, 1e-9)

	workType := result.Fields[domain.FieldWorkType]
	assert.Equal(t, map[string]any{"category": "research"}, workType.Value)
	assert.InDelta(t, 0.70, workType.Confidence, 1e-9)

	date := result.Fields[domain.FieldDate]
	assert.Equal(t, map[string]any{"date": "2026-03-14"}, date.Value)
	assert.InDelta(t, 0.85, date.Confidence, 1e-9)

	matterRef := result.Fields[domain.FieldMatterReference]
	assert.Equal(t, map[string]any{"present": true}, matterRef.Value)
	assert.InDelta(t, 0.60, matterRef.Confidence, 1e-9)

	assert.InDelta(t, 0.7625, result.OverallConfidence, 1e-9)
}

func TestExtract_Duration(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		minutes int
	}{
		{"numeric hours", "worked 3 hours on the brief", 180},
		{"word hours", "spent two hours in consultation", 120},
		{"an hour", "spent an hour on the call", 60},
		{"half an hour", "half an hour reviewing the file", 30},
		{"decimal hours", "1.5 hours drafting", 90},
		{"numeric minutes", "45 minutes on correspondence", 45},
		{"word minutes", "thirty minutes reading through the record", 30},
		{"hours and minutes", "2 hours 15 minutes in court", 135},
		{"hrs abbreviation", "2 hrs preparing argument", 120},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := extract(t, tc.text)
			f, ok := result.Fields[domain.FieldDuration]
			require.True(t, ok, "no duration extracted from %q", tc.text)
			assert.Equal(t, map[string]any{"total_minutes": tc.minutes}, f.Value)
		})
	}
}

func TestExtract_NoDuration(t *testing.T) {
	result := extract(t, "reviewed the contract for the Smith matter")
	_, ok := result.Fields[domain.FieldDuration]
	assert.False(t, ok)
}

func TestExtract_WorkTypeCategories(t *testing.T) {
	cases := []struct {
		text     string
		category string
	}{
		{"researched precedent on prescription", "research"},
		{"drafted the founding affidavit", "drafting"},
		{"appeared at the hearing", "court"},
		{"meeting with the client", "consultation"},
		{"sent a letter of demand", "correspondence"},
		{"perused the discovery bundle", "review"},
		{"prepared the fee note", "billing"},
	}

	for _, tc := range cases {
		t.Run(tc.category, func(t *testing.T) {
			result := extract(t, tc.text)
			f, ok := result.Fields[domain.FieldWorkType]
			require.True(t, ok, "no work type extracted from %q", tc.text)
			assert.Equal(t, map[string]any{"category": tc.category}, f.Value)
		})
	}
}

func TestExtract_WorkTypeFirstMatchWins(t *testing.T) {
	// Matches both research and court vocabulary; research is evaluated
	// first and must win regardless of keyword position in the text.
	result := extract(t, "attended court then researched the judgment")
	f := result.Fields[domain.FieldWorkType]
	assert.Equal(t, map[string]any{"category": "research"}, f.Value)
}

func TestExtract_Dates(t *testing.T) {
	cases := []struct {
		name string
		text string
		date string
	}{
		{"today", "worked on this today", "2026-03-14"},
		{"yesterday", "worked on this yesterday", "2026-03-13"},
		{"tomorrow", "hearing set down for tomorrow", "2026-03-15"},
		{"iso date", "consultation held on 2026-02-28", "2026-02-28"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := extract(t, tc.text)
			f, ok := result.Fields[domain.FieldDate]
			require.True(t, ok, "no date extracted from %q", tc.text)
			assert.Equal(t, map[string]any{"date": tc.date}, f.Value)
		})
	}
}

func TestExtract_InvalidISODateIgnored(t *testing.T) {
	result := extract(t, "worked on the brief on 2026-13-45")
	_, ok := result.Fields[domain.FieldDate]
	assert.False(t, ok)
}

func TestExtract_MatterReference(t *testing.T) {
	withRef := extract(t, "attended to the Smith versus Jones matter")
	f, ok := withRef.Fields[domain.FieldMatterReference]
	require.True(t, ok)
	assert.Equal(t, map[string]any{"present": true}, f.Value)

	withoutRef := extract(t, "spent an hour on general admin")
	_, ok = withoutRef.Fields[domain.FieldMatterReference]
	assert.False(t, ok)
}

func TestExtract_NothingRecognized(t *testing.T) {
	result := extract(t, "zzzz qqqq")
	assert.Empty(t, result.Fields)
	assert.Zero(t, result.OverallConfidence)
}
