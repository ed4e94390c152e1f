package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"matterdesk/internal/domain"
	"matterdesk/internal/poller"
	"matterdesk/internal/service"
)

// DocumentHandler handles document submission and status endpoints.
type DocumentHandler struct {
	documents service.DocumentService
	pipeline  *service.Pipeline
	observer  *poller.Poller
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documents service.DocumentService, pipeline *service.Pipeline, observer *poller.Poller) *DocumentHandler {
	return &DocumentHandler{documents: documents, pipeline: pipeline, observer: observer}
}

// Submit handles POST /api/v1/documents
// @Summary Submit a document for processing
// @Description Upload a PDF (max 50 MiB) for asynchronous classification, extraction, and validation
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF document"
// @Param matter_id formData string true "Matter identifier"
// @Success 201 {object} APIResponse{data=domain.DocumentRecord} "Record created in classifying state"
// @Failure 400 {object} APIResponse "Missing file or unsupported type"
// @Failure 413 {object} APIResponse "File too large"
// @Failure 500 {object} APIResponse "Storage failure"
// @Router /documents [post]
func (h *DocumentHandler) Submit(c *gin.Context) {
	matterID := c.PostForm("matter_id")
	if matterID == "" {
		RespondError(c, http.StatusBadRequest, "MISSING_MATTER_ID", "matter_id field is required")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	// The submission contract takes raw bytes; size and content type are
	// validated by the service before any store interaction.
	data, err := io.ReadAll(io.LimitReader(file, domain.MaxUploadBytes+1))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "could not read uploaded file")
		return
	}

	rec, err := h.documents.Submit(c.Request.Context(), service.SubmitInput{
		MatterID:    matterID,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	// Processing continues after this request returns.
	go h.pipeline.Run(context.Background(), rec.ID)

	RespondCreated(c, rec)
}

// Get handles GET /api/v1/documents/:id
// @Summary Get a document record
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} APIResponse{data=domain.DocumentRecord}
// @Failure 404 {object} APIResponse
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	documentID, ok := parseDocumentID(c)
	if !ok {
		return
	}
	rec, err := h.documents.Get(c.Request.Context(), documentID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rec)
}

// StatusResponse is the status endpoint payload: the record plus its derived
// step projection.
type StatusResponse struct {
	Record *domain.DocumentRecord  `json:"record"`
	Steps  []domain.ProcessingStep `json:"steps"`
}

// Status handles GET /api/v1/documents/:id/status
// @Summary Get the step projection for a document
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} APIResponse{data=StatusResponse}
// @Failure 404 {object} APIResponse
// @Router /documents/{id}/status [get]
func (h *DocumentHandler) Status(c *gin.Context) {
	documentID, ok := parseDocumentID(c)
	if !ok {
		return
	}
	rec, err := h.documents.Get(c.Request.Context(), documentID)
	if err != nil {
		HandleError(c, err)
		return
	}

	lastActive := rec.State
	if lastActive == domain.StateFailed {
		lastActive = domain.StateClassifying
	}
	RespondOK(c, StatusResponse{
		Record: rec,
		Steps:  poller.ProjectSteps(rec, lastActive),
	})
}

// Observe handles GET /api/v1/documents/:id/observe
// @Summary Block until the document reaches a terminal state
// @Description Runs the polling loop server-side and resolves to extracted data, a processing failure, or a timeout
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} APIResponse "Extracted data"
// @Failure 422 {object} APIResponse "Processing failed"
// @Failure 504 {object} APIResponse "Processing timeout"
// @Router /documents/{id}/observe [get]
func (h *DocumentHandler) Observe(c *gin.Context) {
	documentID, ok := parseDocumentID(c)
	if !ok {
		return
	}
	data, err := h.observer.Observe(c.Request.Context(), documentID, nil)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, data)
}

// Download handles GET /api/v1/documents/:id/download
// @Summary Get a presigned download URL for the original document
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /documents/{id}/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	documentID, ok := parseDocumentID(c)
	if !ok {
		return
	}
	url, err := h.documents.GetDownloadURL(c.Request.Context(), documentID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"url": url})
}

func parseDocumentID(c *gin.Context) (uuid.UUID, bool) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_DOCUMENT_ID", "document id must be a UUID")
		return uuid.Nil, false
	}
	return documentID, true
}
