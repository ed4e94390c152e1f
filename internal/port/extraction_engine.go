package port

import (
	"context"

	"matterdesk/internal/domain"
)

// ExtractInput carries the text and context for field extraction.
type ExtractInput struct {
	Text string
	// DocumentType hints what kind of document the text came from
	// ("time_narrative" for captured work descriptions).
	DocumentType string
	// Tier is the processing tier requesting the extraction, zero when the
	// call does not originate from the document pipeline.
	Tier int
}

// ExtractionEngine extracts named, confidence-scored fields from free text.
// There are exactly two implementations (the primary LLM engine and the
// deterministic rule-based fallback); the coordinator dispatches between
// them explicitly.
type ExtractionEngine interface {
	Extract(ctx context.Context, input ExtractInput) (*domain.ExtractionResult, error)
}
