package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"matterdesk/internal/config"
	"matterdesk/internal/domain"
	"matterdesk/internal/port"
)

// Pipeline drives one document through its lifecycle. It is the sole writer
// of that document's status record for the duration of a run; transitions are
// issued strictly in order through the state machine.
type Pipeline struct {
	documents   DocumentService
	records     port.DocumentRecordStore
	storage     port.ObjectStorage
	coordinator port.ExtractionEngine
	notifier    *Notifier
	s3cfg       *config.S3Config
	cfg         config.PipelineConfig
}

// NewPipeline creates a Pipeline.
func NewPipeline(
	documents DocumentService,
	records port.DocumentRecordStore,
	storage port.ObjectStorage,
	coordinator port.ExtractionEngine,
	notifier *Notifier,
	s3cfg *config.S3Config,
	cfg config.PipelineConfig,
) *Pipeline {
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = 0.75
	}
	if cfg.MaxTier <= 0 {
		cfg.MaxTier = domain.TierAI
	}
	return &Pipeline{
		documents:   documents,
		records:     records,
		storage:     storage,
		coordinator: coordinator,
		notifier:    notifier,
		s3cfg:       s3cfg,
		cfg:         cfg,
	}
}

// Run processes the document until a terminal state. Errors inside the run
// are recorded on the status record as a failed transition, never returned to
// a caller: the poller is the observation channel.
func (p *Pipeline) Run(ctx context.Context, documentID uuid.UUID) {
	rec, err := p.records.Get(ctx, documentID)
	if err != nil {
		log.Printf("pipeline.Run: loading record %s: %v", documentID, err)
		return
	}
	if rec.State.IsTerminal() {
		log.Printf("pipeline.Run: %s already terminal (%s)", documentID, rec.State)
		return
	}

	result, runErr := p.process(ctx, rec)
	if runErr != nil {
		p.fail(ctx, documentID, runErr)
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		p.fail(ctx, documentID, fmt.Errorf("encoding extracted data: %w", err))
		return
	}

	conf := result.OverallConfidence
	if _, err := p.documents.Advance(ctx, documentID, domain.StateCompleted, AdvanceOpts{
		Confidence:    &conf,
		ExtractedData: payload,
	}); err != nil {
		log.Printf("pipeline.Run: completing %s: %v", documentID, err)
		return
	}

	p.notifier.DocumentCompleted(ctx, rec, conf)
}

// process performs classification, tiered extraction, and validation,
// advancing the record at each stage boundary.
func (p *Pipeline) process(ctx context.Context, rec *domain.DocumentRecord) (*domain.ExtractionResult, error) {
	data, err := p.storage.Download(ctx, p.s3cfg.Bucket, BlobKey(rec.MatterID, rec.ID, rec.FileName))
	if err != nil {
		return nil, fmt.Errorf("downloading document: %w", err)
	}

	// Classification stage: pick the document type and the starting tier.
	text := extractText(data)
	docType := classify(text)
	tier := domain.TierTemplate

	// A requeued record can already be past the processing boundary.
	// Validating cannot legally re-enter processing, so stage transitions
	// already made are not re-issued; extraction re-runs from the tier the
	// dead run had reached.
	resumed := rec.State == domain.StateValidating
	if resumed && rec.Tier != nil {
		tier = *rec.Tier
	}

	if !resumed {
		if _, err := p.documents.Advance(ctx, rec.ID, domain.StateProcessing, AdvanceOpts{Tier: &tier}); err != nil {
			return nil, fmt.Errorf("entering processing: %w", err)
		}
	}

	// Tiered extraction: consult the coordinator per tier and escalate while
	// the overall confidence stays below the threshold.
	var result *domain.ExtractionResult
	for {
		result, err = p.coordinator.Extract(ctx, port.ExtractInput{
			Text:         text,
			DocumentType: docType,
			Tier:         tier,
		})
		if err != nil {
			return nil, fmt.Errorf("extraction at tier %d: %w", tier, err)
		}

		conf := result.OverallConfidence
		if !resumed {
			t := tier
			if _, err := p.documents.Advance(ctx, rec.ID, domain.StateProcessing, AdvanceOpts{
				Tier:       &t,
				Confidence: &conf,
			}); err != nil {
				return nil, fmt.Errorf("recording tier %d result: %w", tier, err)
			}
		}

		if conf >= p.cfg.ConfidenceThreshold || tier >= p.cfg.MaxTier {
			break
		}
		tier++
		log.Printf("pipeline.process: %s escalating to tier %d (confidence %.2f below %.2f)",
			rec.ID, tier, conf, p.cfg.ConfidenceThreshold)
	}

	// Validation stage. Re-entering validating from validating is a legal
	// same-state write for the resume path.
	conf := result.OverallConfidence
	finalTier := tier
	if _, err := p.documents.Advance(ctx, rec.ID, domain.StateValidating, AdvanceOpts{
		Tier:       &finalTier,
		Confidence: &conf,
	}); err != nil {
		return nil, fmt.Errorf("entering validation: %w", err)
	}
	if err := validateResult(result); err != nil {
		return nil, err
	}

	return result, nil
}

// fail records a terminal failure. The error text becomes the human-readable
// errorDetail the poller surfaces.
func (p *Pipeline) fail(ctx context.Context, documentID uuid.UUID, cause error) {
	log.Printf("pipeline.fail: %s: %v", documentID, cause)
	rec, err := p.documents.Advance(ctx, documentID, domain.StateFailed, AdvanceOpts{
		ErrorDetail: cause.Error(),
	})
	if err != nil {
		log.Printf("pipeline.fail: recording failure for %s: %v", documentID, err)
		return
	}
	p.notifier.DocumentFailed(ctx, rec)
}

// validateResult is the validation stage: extracted fields must exist, carry
// confidences in range, and any extracted date must be a real calendar date.
func validateResult(result *domain.ExtractionResult) error {
	if len(result.Fields) == 0 {
		return fmt.Errorf("no extractable fields found in document")
	}
	for name, f := range result.Fields {
		if f.Confidence < 0 || f.Confidence > 1 {
			return fmt.Errorf("field %q has confidence %v outside [0,1]", name, f.Confidence)
		}
	}
	if f, ok := result.Fields[domain.FieldDate]; ok {
		if m, ok := f.Value.(map[string]any); ok {
			if s, ok := m["date"].(string); ok {
				if _, err := time.Parse("2006-01-02", s); err != nil {
					return fmt.Errorf("extracted date %q is not a valid calendar date", s)
				}
			}
		}
	}
	return nil
}

// classify picks the document type from its text. Time narratives mention
// durations or billable activity; everything else is treated as a general
// matter document.
func classify(text string) string {
	lower := strings.ToLower(text)
	for _, marker := range []string{"hour", "minute", "spent", "billed", "attended"} {
		if strings.Contains(lower, marker) {
			return "time_narrative"
		}
	}
	return "matter_document"
}

// extractText pulls printable text runs out of the raw document bytes. Real
// page rendering and OCR belong to the tier engines; this recovers enough
// embedded text for classification and rule matching.
func extractText(data []byte) string {
	var b strings.Builder
	var run []byte
	flush := func() {
		if len(run) >= 4 {
			b.Write(run)
			b.WriteByte(' ')
		}
		run = run[:0]
	}
	for _, c := range data {
		if c < 128 && (unicode.IsPrint(rune(c)) || c == ' ') {
			run = append(run, c)
			continue
		}
		flush()
	}
	flush()
	return strings.TrimSpace(b.String())
}
