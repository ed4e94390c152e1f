// Package export renders completed document extractions as CSV or XLSX
// downloads for billing review.
package export

import (
	"encoding/json"
	"strconv"

	"matterdesk/internal/domain"
)

// Row is one exported line: a completed document and the time-entry fields
// extracted from it.
type Row struct {
	DocumentID   string
	MatterID     string
	FileName     string
	Tier         string
	Confidence   string
	Method       string
	TotalMinutes string
	WorkType     string
	Date         string
	MatterRef    string
	SubmittedAt  string
}

// columns is the export header row.
var columns = []string{
	"Document ID",
	"Matter",
	"File Name",
	"Tier",
	"Overall Confidence",
	"Extraction Method",
	"Total Minutes",
	"Work Type",
	"Date",
	"Matter Referenced",
	"Submitted At",
}

// BuildRows flattens completed records into export rows. Records whose
// extracted payload cannot be decoded are skipped rather than aborting the
// whole export.
func BuildRows(recs []domain.DocumentRecord) []Row {
	rows := make([]Row, 0, len(recs))
	for i := range recs {
		rec := &recs[i]
		row := Row{
			DocumentID:  rec.ID.String(),
			MatterID:    rec.MatterID,
			FileName:    rec.FileName,
			SubmittedAt: rec.SubmittedAt.Format("2006-01-02 15:04:05"),
		}
		if rec.Tier != nil {
			row.Tier = strconv.Itoa(*rec.Tier)
		}
		if rec.OverallConfidence != nil {
			row.Confidence = strconv.FormatFloat(*rec.OverallConfidence, 'f', 2, 64)
		}

		var result domain.ExtractionResult
		if err := json.Unmarshal(rec.ExtractedData, &result); err != nil {
			continue
		}
		row.Method = string(result.Method)

		if f, ok := result.Fields[domain.FieldDuration]; ok {
			if v, ok := nestedNumber(f.Value, "total_minutes"); ok {
				row.TotalMinutes = strconv.Itoa(int(v))
			}
		}
		if f, ok := result.Fields[domain.FieldWorkType]; ok {
			if v, ok := nestedString(f.Value, "category"); ok {
				row.WorkType = v
			}
		}
		if f, ok := result.Fields[domain.FieldDate]; ok {
			if v, ok := nestedString(f.Value, "date"); ok {
				row.Date = v
			}
		}
		if _, ok := result.Fields[domain.FieldMatterReference]; ok {
			row.MatterRef = "yes"
		} else {
			row.MatterRef = "no"
		}

		rows = append(rows, row)
	}
	return rows
}

func (r Row) values() []string {
	return []string{
		r.DocumentID, r.MatterID, r.FileName, r.Tier, r.Confidence,
		r.Method, r.TotalMinutes, r.WorkType, r.Date, r.MatterRef, r.SubmittedAt,
	}
}

func nestedNumber(value any, key string) (float64, bool) {
	m, ok := value.(map[string]any)
	if !ok {
		return 0, false
	}
	v, ok := m[key].(float64)
	return v, ok
}

func nestedString(value any, key string) (string, bool) {
	m, ok := value.(map[string]any)
	if !ok {
		return "", false
	}
	v, ok := m[key].(string)
	return v, ok && v != ""
}
