package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DocumentRecord is the mutable status record for one submitted document.
// It is created at submission, mutated exclusively by the state machine, and
// read by pollers. Tier and OverallConfidence are only refined once set,
// never cleared.
type DocumentRecord struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	MatterID          string          `db:"matter_id" json:"matter_id"`
	FileName          string          `db:"file_name" json:"file_name"`
	FileSize          int64           `db:"file_size" json:"file_size"`
	State             DocumentState   `db:"state" json:"state"`
	Tier              *int            `db:"tier" json:"tier,omitempty"`
	OverallConfidence *float64        `db:"overall_confidence" json:"overall_confidence,omitempty"`
	ExtractedData     json.RawMessage `db:"extracted_data" json:"extracted_data,omitempty"`
	ErrorDetail       string          `db:"error_detail" json:"error_detail,omitempty"`
	SubmittedAt       time.Time       `db:"submitted_at" json:"submitted_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// ProcessingStep is one entry of the derived progress projection. It is owned
// by the poller as a read-only view and is never written back to the store.
type ProcessingStep struct {
	Name       StepName   `json:"name"`
	Status     StepStatus `json:"status"`
	Tier       *int       `json:"tier,omitempty"`
	Confidence *float64   `json:"confidence,omitempty"`
}

// ExtractionField is a single extracted datum with its confidence score.
type ExtractionField struct {
	Raw        string  `json:"raw"`
	Value      any     `json:"value"`
	Confidence float64 `json:"confidence"`
}

// ExtractionResult maps named fields to extracted values. OverallConfidence
// is always derived from the present fields via RecomputeOverall and is never
// independently settable.
type ExtractionResult struct {
	Fields            map[string]ExtractionField `json:"fields"`
	OverallConfidence float64                    `json:"overall_confidence"`
	Method            ExtractionMethod           `json:"extraction_method"`
	Warnings          []string                   `json:"warnings,omitempty"`
}

// RecomputeOverall sets OverallConfidence to the arithmetic mean of the
// confidences of fields actually present. Absent fields are omitted, not
// scored as zero. An empty field set yields zero.
func (r *ExtractionResult) RecomputeOverall() {
	if len(r.Fields) == 0 {
		r.OverallConfidence = 0
		return
	}
	var sum float64
	for _, f := range r.Fields {
		sum += f.Confidence
	}
	r.OverallConfidence = sum / float64(len(r.Fields))
}

// AddWarning appends a non-fatal warning to the result.
func (r *ExtractionResult) AddWarning(w string) {
	r.Warnings = append(r.Warnings, w)
}

// Canonical field names shared by the engines.
const (
	FieldDuration        = "duration"
	FieldWorkType        = "work_type"
	FieldDate            = "date"
	FieldMatterReference = "matter_reference"
)

// TimeEntryDraft is the structured record captured from a free-text work
// narrative. It is a draft: the caller reviews it before booking.
type TimeEntryDraft struct {
	Narrative         string           `json:"narrative"`
	TotalMinutes      *int             `json:"total_minutes,omitempty"`
	WorkType          string           `json:"work_type,omitempty"`
	Date              string           `json:"date,omitempty"`
	MatterReferenced  bool             `json:"matter_referenced"`
	OverallConfidence float64          `json:"overall_confidence"`
	Method            ExtractionMethod `json:"extraction_method"`
	Warnings          []string         `json:"warnings,omitempty"`
}
