package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"matterdesk/internal/domain"
	"matterdesk/internal/service"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	var failed *domain.ProcessingFailedError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "document not found"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; only PDF documents are accepted"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds the 50 MiB upload limit"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION", "requested state is not reachable from the current state"
	case errors.Is(err, domain.ErrMissingExtractedData):
		return http.StatusBadRequest, "MISSING_EXTRACTED_DATA", "completed state requires extracted data"
	case errors.Is(err, domain.ErrMissingErrorDetail):
		return http.StatusBadRequest, "MISSING_ERROR_DETAIL", "failed state requires error detail"
	case errors.Is(err, domain.ErrStorageFailure):
		return http.StatusInternalServerError, "STORAGE_FAILURE", "object storage operation failed"
	case errors.Is(err, domain.ErrProcessingTimeout):
		return http.StatusGatewayTimeout, "PROCESSING_TIMEOUT", "processing is taking longer than expected; try again shortly"
	case errors.As(err, &failed):
		return http.StatusUnprocessableEntity, "PROCESSING_FAILED", failed.Detail
	case errors.Is(err, domain.ErrProcessingFailed):
		return http.StatusUnprocessableEntity, "PROCESSING_FAILED", "document processing failed"
	case errors.Is(err, service.ErrEmptyNarrative):
		return http.StatusBadRequest, "EMPTY_NARRATIVE", "narrative text is required"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] internal error: %v", requestID, err)
	}
	RespondError(c, status, code, msg)
}
