package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("document record not found")
	ErrInvalidTransition    = errors.New("invalid document state transition")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrFileTooLarge         = errors.New("file exceeds maximum allowed size")
	ErrStorageFailure       = errors.New("object storage operation failed")
	ErrProcessingTimeout    = errors.New("processing is taking longer than expected")
	ErrProcessingFailed     = errors.New("document processing failed")
	ErrMissingExtractedData = errors.New("completed state requires extracted data")
	ErrMissingErrorDetail   = errors.New("failed state requires error detail")
)

// ProcessingFailedError carries the errorDetail stored on a failed record.
// It matches ErrProcessingFailed under errors.Is.
type ProcessingFailedError struct {
	Detail string
}

func (e *ProcessingFailedError) Error() string {
	if e.Detail == "" {
		return ErrProcessingFailed.Error()
	}
	return fmt.Sprintf("document processing failed: %s", e.Detail)
}

func (e *ProcessingFailedError) Unwrap() error {
	return ErrProcessingFailed
}
