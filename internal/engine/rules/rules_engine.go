package rules

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"matterdesk/internal/domain"
	"matterdesk/internal/port"
)

// Per-field confidence constants. The rule engine does not compute confidence
// from match quality; each recognized field carries a fixed engine-specific
// score, which is what distinguishes it from the primary engine's learned
// confidences.
const (
	durationConfidence  = 0.90
	workTypeConfidence  = 0.70
	dateConfidence      = 0.85
	matterRefConfidence = 0.60
)

// Engine is the deterministic rule-based extraction engine. It is used when
// the primary engine is unavailable, slow, or returns malformed output.
type Engine struct {
	now func() time.Time
}

// NewEngine creates a rules engine using the real clock.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineWithClock creates a rules engine with an injected clock (for
// deterministic date tests).
func NewEngineWithClock(now func() time.Time) *Engine {
	return &Engine{now: now}
}

var numberWords = map[string]float64{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "half": 0.5,
}

var (
	hoursRe   = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?|a|an|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|half)\s+(?:an\s+)?(?:hours?|hrs?)\b`)
	minutesRe = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?|one|two|three|four|five|six|seven|eight|nine|ten|fifteen|twenty|thirty|forty[- ]?five)\s+(?:minutes?|mins?)\b`)
	isoDateRe = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
)

var minuteWords = map[string]float64{
	"fifteen": 15, "twenty": 20, "thirty": 30,
	"forty-five": 45, "forty five": 45, "fortyfive": 45,
}

// categoryRule pairs a work-type category with its trigger keywords.
type categoryRule struct {
	category string
	keywords []string
}

// categoryRules are evaluated in order; the first category with any matching
// keyword wins. The order is deliberate and must stay stable: a narrative
// like "researched case law for the High Court matter" matches both research
// and court keywords, and research is the intended category.
var categoryRules = []categoryRule{
	{"research", []string{"research", "case law", "authorities", "precedent"}},
	{"drafting", []string{"draft", "memorandum", "pleading", "affidavit"}},
	{"court", []string{"court", "hearing", "trial", "appearance", "argued"}},
	{"consultation", []string{"consult", "meeting", "conference", "advised"}},
	{"correspondence", []string{"email", "letter", "correspond", "phone", "call"}},
	{"review", []string{"review", "perus", "read through", "considered"}},
	{"billing", []string{"invoice", "billing", "fee note"}},
}

// matterKeywords trigger the matter-reference heuristic. This is keyword
// presence, not named-entity extraction.
var matterKeywords = []string{"matter", "case", "versus", " vs ", " v. ", "file", "dispute"}

func (e *Engine) Extract(_ context.Context, input port.ExtractInput) (*domain.ExtractionResult, error) {
	text := input.Text
	lower := strings.ToLower(text)

	fields := map[string]domain.ExtractionField{}

	if raw, minutes, ok := extractDuration(text); ok {
		fields[domain.FieldDuration] = domain.ExtractionField{
			Raw:        raw,
			Value:      map[string]any{"total_minutes": minutes},
			Confidence: durationConfidence,
		}
	}

	if raw, category, ok := extractWorkType(lower); ok {
		fields[domain.FieldWorkType] = domain.ExtractionField{
			Raw:        raw,
			Value:      map[string]any{"category": category},
			Confidence: workTypeConfidence,
		}
	}

	if raw, date, ok := e.extractDate(text, lower); ok {
		fields[domain.FieldDate] = domain.ExtractionField{
			Raw:        raw,
			Value:      map[string]any{"date": date},
			Confidence: dateConfidence,
		}
	}

	if raw, ok := extractMatterReference(lower); ok {
		fields[domain.FieldMatterReference] = domain.ExtractionField{
			Raw:        raw,
			Value:      map[string]any{"present": true},
			Confidence: matterRefConfidence,
		}
	}

	result := &domain.ExtractionResult{Fields: fields}
	result.RecomputeOverall()
	return result, nil
}

// extractDuration matches hour and minute quantities and normalizes the sum
// to total minutes.
func extractDuration(text string) (raw string, minutes int, ok bool) {
	var total float64
	var parts []string

	if m := hoursRe.FindStringSubmatch(text); m != nil {
		total += parseQuantity(m[1]) * 60
		parts = append(parts, m[0])
	}
	if m := minutesRe.FindStringSubmatch(text); m != nil {
		q := parseQuantity(m[1])
		if v, found := minuteWords[strings.ToLower(m[1])]; found {
			q = v
		}
		total += q
		parts = append(parts, m[0])
	}

	if total <= 0 {
		return "", 0, false
	}
	return strings.Join(parts, " "), int(total + 0.5), true
}

func parseQuantity(s string) float64 {
	s = strings.ToLower(s)
	if v, ok := numberWords[s]; ok {
		return v
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func extractWorkType(lower string) (raw, category string, ok bool) {
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return kw, rule.category, true
			}
		}
	}
	return "", "", false
}

// extractDate recognizes relative day markers and absolute ISO dates, and
// normalizes to a calendar date against the engine clock.
func (e *Engine) extractDate(text, lower string) (raw, date string, ok bool) {
	today := e.now()

	switch {
	case strings.Contains(lower, "yesterday"):
		return "yesterday", today.AddDate(0, 0, -1).Format("2006-01-02"), true
	case strings.Contains(lower, "tomorrow"):
		return "tomorrow", today.AddDate(0, 0, 1).Format("2006-01-02"), true
	case strings.Contains(lower, "today"):
		return "today", today.Format("2006-01-02"), true
	}

	if m := isoDateRe.FindStringSubmatch(text); m != nil {
		if _, err := time.Parse("2006-01-02", m[1]); err == nil {
			return m[0], m[1], true
		}
	}
	return "", "", false
}

func extractMatterReference(lower string) (raw string, ok bool) {
	for _, kw := range matterKeywords {
		if strings.Contains(lower, kw) {
			return strings.TrimSpace(kw), true
		}
	}
	return "", false
}
