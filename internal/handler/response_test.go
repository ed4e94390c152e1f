package handler_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"matterdesk/internal/domain"
	"matterdesk/internal/handler"
	"matterdesk/internal/service"
)

func TestMapDomainError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"wrapped not found", fmt.Errorf("loading: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"unsupported type", domain.ErrUnsupportedFileType, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE"},
		{"too large", domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{"invalid transition", fmt.Errorf("%w: completed -> processing", domain.ErrInvalidTransition), http.StatusConflict, "INVALID_TRANSITION"},
		{"missing extracted data", domain.ErrMissingExtractedData, http.StatusBadRequest, "MISSING_EXTRACTED_DATA"},
		{"missing error detail", domain.ErrMissingErrorDetail, http.StatusBadRequest, "MISSING_ERROR_DETAIL"},
		{"storage failure", domain.ErrStorageFailure, http.StatusInternalServerError, "STORAGE_FAILURE"},
		{"timeout", fmt.Errorf("observe x: %w", domain.ErrProcessingTimeout), http.StatusGatewayTimeout, "PROCESSING_TIMEOUT"},
		{"processing failed sentinel", domain.ErrProcessingFailed, http.StatusUnprocessableEntity, "PROCESSING_FAILED"},
		{"empty narrative", service.ErrEmptyNarrative, http.StatusBadRequest, "EMPTY_NARRATIVE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code, _ := handler.MapDomainError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, code)
		})
	}
}

func TestMapDomainError_ProcessingFailedCarriesDetail(t *testing.T) {
	err := &domain.ProcessingFailedError{Detail: "extraction produced no fields"}

	status, code, msg := handler.MapDomainError(err)

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "PROCESSING_FAILED", code)
	assert.Equal(t, "extraction produced no fields", msg)
}
