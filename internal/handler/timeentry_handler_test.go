package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"matterdesk/internal/domain"
	"matterdesk/internal/handler"
	"matterdesk/internal/service"
	"matterdesk/mocks"
)

func captureRequest(t *testing.T, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/time-entries/capture", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func newCaptureRouter(h *handler.TimeEntryHandler) *gin.Engine {
	r := gin.New()
	r.POST("/time-entries/capture", h.Capture)
	return r
}

func TestTimeEntryHandler_Capture_Success(t *testing.T) {
	mockSvc := new(mocks.MockTimeEntryService)
	h := handler.NewTimeEntryHandler(mockSvc)

	minutes := 120
	narrative := "Spent two hours today researching case law for the Smith matter"
	draft := &domain.TimeEntryDraft{
		Narrative:         narrative,
		TotalMinutes:      &minutes,
		WorkType:          "research",
		Date:              "2026-03-14",
		MatterReferenced:  true,
		OverallConfidence: 0.7625,
		Method:            domain.MethodFallback,
	}
	mockSvc.On("Capture", mock.Anything, narrative).Return(draft, nil)

	rr := httptest.NewRecorder()
	newCaptureRouter(h).ServeHTTP(rr, captureRequest(t, map[string]string{"narrative": narrative}))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Success bool                  `json:"success"`
		Data    domain.TimeEntryDraft `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Data.TotalMinutes)
	assert.Equal(t, 120, *resp.Data.TotalMinutes)
	assert.Equal(t, "research", resp.Data.WorkType)
	assert.True(t, resp.Data.MatterReferenced)
	assert.Equal(t, domain.MethodFallback, resp.Data.Method)
}

func TestTimeEntryHandler_Capture_MissingNarrative(t *testing.T) {
	mockSvc := new(mocks.MockTimeEntryService)
	h := handler.NewTimeEntryHandler(mockSvc)

	rr := httptest.NewRecorder()
	newCaptureRouter(h).ServeHTTP(rr, captureRequest(t, map[string]string{}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mockSvc.AssertNotCalled(t, "Capture", mock.Anything, mock.Anything)
}

func TestTimeEntryHandler_Capture_EmptyNarrative(t *testing.T) {
	mockSvc := new(mocks.MockTimeEntryService)
	h := handler.NewTimeEntryHandler(mockSvc)

	mockSvc.On("Capture", mock.Anything, "   ").Return(nil, service.ErrEmptyNarrative)

	rr := httptest.NewRecorder()
	newCaptureRouter(h).ServeHTTP(rr, captureRequest(t, map[string]string{"narrative": "   "}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "EMPTY_NARRATIVE", resp.Error.Code)
}
