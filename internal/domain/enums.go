package domain

// DocumentState represents the lifecycle state of a document record.
// Transitions move strictly forward (classifying → processing → validating →
// completed); failed is reachable from any non-terminal state.
type DocumentState string

const (
	StateClassifying DocumentState = "classifying"
	StateProcessing  DocumentState = "processing"
	StateValidating  DocumentState = "validating"
	StateCompleted   DocumentState = "completed"
	StateFailed      DocumentState = "failed"
)

// stateOrder assigns each forward state its pipeline position.
var stateOrder = map[DocumentState]int{
	StateClassifying: 0,
	StateProcessing:  1,
	StateValidating:  2,
	StateCompleted:   3,
}

// IsTerminal reports whether no further transitions are valid from s.
func (s DocumentState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// CanTransition reports whether moving from one state to target is a legal
// transition. Failed is reachable from any non-terminal state; re-applying
// the current state is allowed (idempotent writes).
func CanTransition(from, to DocumentState) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	fromPos, ok := stateOrder[from]
	if !ok {
		return false
	}
	toPos, ok := stateOrder[to]
	if !ok {
		return false
	}
	return toPos == fromPos || toPos == fromPos+1
}

// StepName identifies one step of the caller-facing progress projection.
type StepName string

const (
	StepUpload         StepName = "upload"
	StepClassification StepName = "classification"
	StepExtraction     StepName = "extraction"
	StepValidation     StepName = "validation"
	StepComplete       StepName = "complete"
)

// StepOrder is the fixed display order of processing steps.
var StepOrder = []StepName{
	StepUpload,
	StepClassification,
	StepExtraction,
	StepValidation,
	StepComplete,
}

// StepStatus represents the status of a single projected step.
type StepStatus string

const (
	StepStatusPending    StepStatus = "pending"
	StepStatusInProgress StepStatus = "in_progress"
	StepStatusCompleted  StepStatus = "completed"
	StepStatusFailed     StepStatus = "failed"
)

// ExtractionMethod records which engine produced an extraction result.
type ExtractionMethod string

const (
	MethodPrimary  ExtractionMethod = "primary"
	MethodFallback ExtractionMethod = "fallback"
)

// Processing tiers, ordered by cost and capability.
const (
	TierTemplate = 1
	TierOCR      = 2
	TierAI       = 3
)

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
)

// AllowedContentTypes maps MIME content types to FileType. PDF is the only
// supported document format.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
}

// MaxUploadBytes is the submission size ceiling (50 MiB).
const MaxUploadBytes int64 = 50 * 1024 * 1024
