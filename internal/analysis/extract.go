// Package analysis splits a fully streamed assistant response into its
// visible narrative and the machine-readable payload the prompt template
// asks the model to append.
package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/teuglobal/htspilot/internal/domain"
)

// Sentinel markers delimiting the embedded JSON payload. These literals are
// a wire contract with the prompt templates; changing them breaks every
// response in flight.
const (
	OpenMarker  = "##ANALYSIS_DATA##"
	CloseMarker = "##/ANALYSIS_DATA##"
)

// Result is the outcome of splitting a response. Data is nil when no payload
// was found or when the payload failed to parse; in the latter case Err
// carries the parse failure for logging. VisibleText is always safe to
// display.
type Result struct {
	VisibleText string
	Data        *domain.AnalysisData
	Err         error
}

// Extract locates the sentinel-delimited payload in fullText. It is called
// once, against the complete concatenated response, never against partial
// chunks, since a sentinel may be split across chunk boundaries.
//
// Missing sentinels are not an error: free-form answers legitimately carry
// no payload, and mid-stream text has not grown its structured tail yet. A
// close marker at or before the open marker is treated the same way.
func Extract(fullText string) Result {
	start := strings.Index(fullText, OpenMarker)
	end := strings.Index(fullText, CloseMarker)

	if start == -1 || end == -1 || end <= start {
		return Result{VisibleText: fullText}
	}

	visible := strings.TrimSpace(fullText[:start])
	raw := strings.TrimSpace(fullText[start+len(OpenMarker) : end])

	data, err := parsePayload(raw)
	if err != nil {
		// A malformed trailing payload must never corrupt the narrative.
		return Result{VisibleText: visible, Err: err}
	}
	return Result{VisibleText: visible, Data: data}
}

// parsePayload decodes and shape-checks the candidate JSON. JSON-valid text
// that does not match the AnalysisData shape is rejected the same way as
// malformed JSON.
func parsePayload(raw string) (*domain.AnalysisData, error) {
	var data domain.AnalysisData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("failed to parse analysis payload: %w", err)
	}
	if err := validate(&data); err != nil {
		return nil, fmt.Errorf("invalid analysis payload: %w", err)
	}

	// Normalize absent arrays so consumers can range without nil checks.
	if data.Recommendations == nil {
		data.Recommendations = []domain.Recommendation{}
	}
	if data.QuickStats.AdditionalTariffs == nil {
		data.QuickStats.AdditionalTariffs = []domain.AdditionalTariff{}
	}
	if data.QuickStats.Agencies == nil {
		data.QuickStats.Agencies = []string{}
	}
	if data.ComplianceAlerts == nil {
		data.ComplianceAlerts = []domain.ComplianceAlert{}
	}
	return &data, nil
}

func validate(data *domain.AnalysisData) error {
	for i, rec := range data.Recommendations {
		if rec.HtsCode == "" {
			return fmt.Errorf("recommendation %d has no htsCode", i)
		}
	}
	for i, alert := range data.ComplianceAlerts {
		switch alert.Type {
		case domain.AlertSuccess, domain.AlertInfo, domain.AlertWarning:
		default:
			return fmt.Errorf("compliance alert %d has unknown type %q", i, alert.Type)
		}
	}
	return nil
}
