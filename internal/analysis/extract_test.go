package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teuglobal/htspilot/internal/domain"
)

const emptyPayload = `{"recommendations":[],"quickStats":{"baseDuty":0,"totalDuty":0,"additionalTariffs":[],"agencies":[]},"complianceAlerts":[]}`

func TestExtractRoundTrip(t *testing.T) {
	data := domain.AnalysisData{
		Recommendations: []domain.Recommendation{
			{Scenario: "Finished good", HtsCode: "6109.10.0040", Description: "T-shirts, of cotton"},
		},
		QuickStats: domain.QuickStats{
			BaseDuty:  16.5,
			TotalDuty: 41.5,
			AdditionalTariffs: []domain.AdditionalTariff{
				{Name: "Section 301 China (List 4A)", Rate: 25.0, Code: "9903.88.15"},
			},
			Agencies: []string{"CPSC"},
		},
		ComplianceAlerts: []domain.ComplianceAlert{
			{Title: "Flammability", Description: "16 CFR 1610 applies", Type: domain.AlertWarning},
		},
	}
	payload, err := json.Marshal(data)
	require.NoError(t, err)

	visible := "The product classifies under heading 6109.\n\nSee rationale below."
	full := visible + "\n" + OpenMarker + string(payload) + CloseMarker

	res := Extract(full)

	require.NoError(t, res.Err)
	require.NotNil(t, res.Data)
	assert.Equal(t, visible, res.VisibleText)
	assert.Equal(t, data, *res.Data)
}

func TestExtractNoSentinels(t *testing.T) {
	full := "Plain narrative answer with no structured tail."
	res := Extract(full)

	assert.Equal(t, full, res.VisibleText)
	assert.Nil(t, res.Data)
	assert.NoError(t, res.Err)
}

func TestExtractOpenMarkerOnly(t *testing.T) {
	// Mid-stream state: the open marker has arrived but the close has not.
	full := "Narrative so far " + OpenMarker + `{"recom`
	res := Extract(full)

	assert.Equal(t, full, res.VisibleText)
	assert.Nil(t, res.Data)
	assert.NoError(t, res.Err)
}

func TestExtractCloseBeforeOpen(t *testing.T) {
	full := CloseMarker + " stray text " + OpenMarker
	res := Extract(full)

	assert.Equal(t, full, res.VisibleText)
	assert.Nil(t, res.Data)
	assert.NoError(t, res.Err)
}

func TestExtractMalformedJSON(t *testing.T) {
	full := "Useful narrative.\n\n" + OpenMarker + `{"recommendations": [` + CloseMarker
	res := Extract(full)

	assert.Equal(t, "Useful narrative.", res.VisibleText,
		"narrative must survive a malformed trailing payload")
	assert.Nil(t, res.Data)
	assert.Error(t, res.Err)
}

func TestExtractShapeMismatch(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"top-level array", `[1,2,3]`},
		{"wrong field type", `{"recommendations":"not-an-array","quickStats":{},"complianceAlerts":[]}`},
		{"recommendation without code", `{"recommendations":[{"scenario":"S","description":"D"}],"quickStats":{"baseDuty":0,"totalDuty":0},"complianceAlerts":[]}`},
		{"unknown alert type", `{"recommendations":[],"quickStats":{"baseDuty":0,"totalDuty":0},"complianceAlerts":[{"title":"T","description":"D","type":"fatal"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Extract("Narrative. " + OpenMarker + tt.payload + CloseMarker)
			assert.Equal(t, "Narrative.", res.VisibleText)
			assert.Nil(t, res.Data)
			assert.Error(t, res.Err)
		})
	}
}

func TestExtractTrimsPayloadWhitespace(t *testing.T) {
	full := "Some text.\n\n" + OpenMarker + "\n  " + emptyPayload + "\n " + CloseMarker + "\ntrailing commentary"
	res := Extract(full)

	require.NoError(t, res.Err)
	require.NotNil(t, res.Data)
	assert.Equal(t, "Some text.", res.VisibleText)
	assert.Zero(t, res.Data.QuickStats.TotalDuty)
}

func TestExtractNormalizesNilSlices(t *testing.T) {
	full := OpenMarker + `{"recommendations":null,"quickStats":{"baseDuty":1,"totalDuty":1},"complianceAlerts":null}` + CloseMarker
	res := Extract(full)

	require.NoError(t, res.Err)
	require.NotNil(t, res.Data)
	assert.NotNil(t, res.Data.Recommendations)
	assert.NotNil(t, res.Data.ComplianceAlerts)
	assert.NotNil(t, res.Data.QuickStats.AdditionalTariffs)
	assert.NotNil(t, res.Data.QuickStats.Agencies)
}
