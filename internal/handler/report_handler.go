package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"matterdesk/internal/domain"
	"matterdesk/internal/export"
	"matterdesk/internal/port"
)

const exportPageSize = 1000

// ReportHandler handles extraction report export endpoints.
type ReportHandler struct {
	records port.DocumentRecordStore
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(records port.DocumentRecordStore) *ReportHandler {
	return &ReportHandler{records: records}
}

// ExportCSV handles GET /api/v1/reports/time-entries.csv
// @Summary Export completed extractions as CSV
// @Tags reports
// @Produce text/csv
// @Success 200 {string} string "CSV body"
// @Router /reports/time-entries.csv [get]
func (h *ReportHandler) ExportCSV(c *gin.Context) {
	rows, err := h.loadRows(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("time-entries-%s.csv", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	if err := export.WriteCSV(c.Writer, rows); err != nil {
		_ = c.Error(err)
	}
}

// ExportXLSX handles GET /api/v1/reports/time-entries.xlsx
// @Summary Export completed extractions as an XLSX workbook
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {string} string "XLSX body"
// @Router /reports/time-entries.xlsx [get]
func (h *ReportHandler) ExportXLSX(c *gin.Context) {
	rows, err := h.loadRows(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("time-entries-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)

	if err := export.WriteXLSX(c.Writer, rows); err != nil {
		_ = c.Error(err)
	}
}

func (h *ReportHandler) loadRows(c *gin.Context) ([]export.Row, error) {
	recs, _, err := h.records.ListByState(c.Request.Context(), domain.StateCompleted, 0, exportPageSize)
	if err != nil {
		return nil, err
	}
	return export.BuildRows(recs), nil
}
