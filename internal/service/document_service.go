package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"

	"matterdesk/internal/config"
	"matterdesk/internal/domain"
	"matterdesk/internal/port"
)

// SubmitInput is the DTO for document submission.
type SubmitInput struct {
	MatterID    string
	FileName    string
	ContentType string
	Data        []byte
}

// AdvanceOpts carries the optional values a transition may set. Tier and
// Confidence are only ever refined; nil leaves the stored value untouched.
type AdvanceOpts struct {
	Tier          *int
	Confidence    *float64
	ExtractedData json.RawMessage
	ErrorDetail   string
}

// DocumentService owns the document lifecycle: submission and the canonical
// state machine over the status record store.
type DocumentService interface {
	Submit(ctx context.Context, input SubmitInput) (*domain.DocumentRecord, error)
	Advance(ctx context.Context, documentID uuid.UUID, target domain.DocumentState, opts AdvanceOpts) (*domain.DocumentRecord, error)
	Get(ctx context.Context, documentID uuid.UUID) (*domain.DocumentRecord, error)
	GetDownloadURL(ctx context.Context, documentID uuid.UUID) (string, error)
}

type documentService struct {
	records port.DocumentRecordStore
	storage port.ObjectStorage
	s3cfg   *config.S3Config
}

// NewDocumentService creates the DocumentService implementation. Submission
// only stores bytes and creates the record; starting a pipeline run for the
// new document is the caller's concern (handler or requeue worker).
func NewDocumentService(
	records port.DocumentRecordStore,
	storage port.ObjectStorage,
	s3cfg *config.S3Config,
) DocumentService {
	return &documentService{
		records: records,
		storage: storage,
		s3cfg:   s3cfg,
	}
}

// BlobKey composes the object storage key for a document.
func BlobKey(matterID string, documentID uuid.UUID, fileName string) string {
	return fmt.Sprintf("matters/%s/documents/%s/%s", matterID, documentID, fileName)
}

// Submit validates the payload, stores the raw bytes, and creates the status
// record in the classifying state. Validation happens before any store call;
// if the blob write fails no record is created, and if the record write fails
// the blob is deleted again, so the submit is atomic from the caller's point
// of view.
func (s *documentService) Submit(ctx context.Context, input SubmitInput) (*domain.DocumentRecord, error) {
	if int64(len(input.Data)) > domain.MaxUploadBytes {
		return nil, domain.ErrFileTooLarge
	}
	if _, ok := domain.AllowedContentTypes[input.ContentType]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}
	// Magic-byte check: the declared content type must match the bytes.
	sniffLen := len(input.Data)
	if sniffLen > 512 {
		sniffLen = 512
	}
	if detected := http.DetectContentType(input.Data[:sniffLen]); detected != input.ContentType {
		return nil, domain.ErrUnsupportedFileType
	}

	documentID := uuid.New()
	key := BlobKey(input.MatterID, documentID, input.FileName)

	log.Printf("documentService.Submit: storing %s (%d bytes) for matter %s as %s",
		input.FileName, len(input.Data), input.MatterID, documentID)

	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3cfg.Bucket,
		Key:         key,
		Body:        bytes.NewReader(input.Data),
		ContentType: input.ContentType,
		Size:        int64(len(input.Data)),
	})
	if err != nil {
		log.Printf("documentService.Submit: blob write failed for %s: %v", documentID, err)
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	rec := &domain.DocumentRecord{
		ID:       documentID,
		MatterID: input.MatterID,
		FileName: input.FileName,
		FileSize: int64(len(input.Data)),
		State:    domain.StateClassifying,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		// The blob is already written; remove it so a failed submit leaves
		// no orphaned object behind.
		if delErr := s.storage.Delete(ctx, s.s3cfg.Bucket, key); delErr != nil {
			log.Printf("documentService.Submit: orphaned blob cleanup failed for %s: %v", key, delErr)
		}
		return nil, fmt.Errorf("%w: creating status record: %v", domain.ErrStorageFailure, err)
	}

	return rec, nil
}

// Advance applies one state machine transition. It fails with ErrNotFound if
// the record does not exist and ErrInvalidTransition if target is not
// reachable from the current state, leaving the stored record unchanged.
// Writes are idempotent: re-applying the current state with the same derived
// values is a harmless upsert.
func (s *documentService) Advance(ctx context.Context, documentID uuid.UUID, target domain.DocumentState, opts AdvanceOpts) (*domain.DocumentRecord, error) {
	rec, err := s.records.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(rec.State, target) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, rec.State, target)
	}
	if target == domain.StateCompleted && len(opts.ExtractedData) == 0 {
		return nil, domain.ErrMissingExtractedData
	}
	if target == domain.StateFailed && opts.ErrorDetail == "" {
		return nil, domain.ErrMissingErrorDetail
	}

	rec.State = target
	if opts.Tier != nil {
		rec.Tier = opts.Tier
	}
	if opts.Confidence != nil {
		rec.OverallConfidence = opts.Confidence
	}
	if len(opts.ExtractedData) > 0 {
		rec.ExtractedData = opts.ExtractedData
	}
	if opts.ErrorDetail != "" {
		rec.ErrorDetail = opts.ErrorDetail
	}

	if err := s.records.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("%w: writing status record: %v", domain.ErrStorageFailure, err)
	}

	log.Printf("documentService.Advance: %s -> %s (tier=%v)", documentID, target, rec.Tier)
	return rec, nil
}

func (s *documentService) Get(ctx context.Context, documentID uuid.UUID) (*domain.DocumentRecord, error) {
	return s.records.Get(ctx, documentID)
}

func (s *documentService) GetDownloadURL(ctx context.Context, documentID uuid.UUID) (string, error) {
	rec, err := s.records.Get(ctx, documentID)
	if err != nil {
		return "", err
	}
	key := BlobKey(rec.MatterID, rec.ID, rec.FileName)
	return s.storage.GetPresignedURL(ctx, s.s3cfg.Bucket, key, s.s3cfg.PresignExpiry)
}
