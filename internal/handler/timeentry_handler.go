package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"matterdesk/internal/service"
)

// TimeEntryHandler handles time entry capture endpoints.
type TimeEntryHandler struct {
	timeEntries service.TimeEntryService
}

// NewTimeEntryHandler creates a new TimeEntryHandler.
func NewTimeEntryHandler(timeEntries service.TimeEntryService) *TimeEntryHandler {
	return &TimeEntryHandler{timeEntries: timeEntries}
}

// CaptureRequest is the capture request body.
type CaptureRequest struct {
	Narrative string `json:"narrative" binding:"required" example:"Spent two hours today researching case law for the Smith matter"`
}

// Capture handles POST /api/v1/time-entries/capture
// @Summary Capture a structured time entry from a work narrative
// @Description Extracts duration, work type, date, and matter reference with per-field confidence; falls back to rule-based extraction when the primary engine is unavailable
// @Tags time-entries
// @Accept json
// @Produce json
// @Param request body CaptureRequest true "Work narrative"
// @Success 200 {object} APIResponse{data=domain.TimeEntryDraft}
// @Failure 400 {object} APIResponse "Empty narrative"
// @Router /time-entries/capture [post]
func (h *TimeEntryHandler) Capture(c *gin.Context) {
	var req CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "narrative field is required")
		return
	}

	draft, err := h.timeEntries.Capture(c.Request.Context(), req.Narrative)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, draft)
}
