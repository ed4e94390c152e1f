package engine

import "fmt"

// BuildNarrativePrompt returns the extraction prompt for a work narrative.
// The engine must answer with JSON only, matching the shape enforced by
// ValidateOutputJSON.
func BuildNarrativePrompt(documentType string) string {
	if documentType == "" {
		documentType = "time_narrative"
	}
	return fmt.Sprintf(`You extract structured billing data from a legal professional's %s.

From the text, extract whichever of these fields are present:
- "duration": value {"total_minutes": <integer>}
- "work_type": value {"category": "<one of research, drafting, court, consultation, correspondence, review, billing>"}
- "date": value {"date": "<yyyy-mm-dd>"}
- "matter_reference": value {"present": true, "reference": "<the matter or case referred to>"}

Respond with JSON only, no prose, in exactly this shape:
{
  "fields": {
    "<field_name>": {
      "raw": "<text matched in the input>",
      "value": <normalized value>,
      "confidence": <0.0-1.0>
    }
  }
}

Omit any field that is not present in the text. Never invent a field or a
confidence score for data you did not find.`, documentType)
}
