package domain

import (
	"regexp"
	"time"
)

// QueryKind distinguishes the two ways a user can ask about a tariff code.
type QueryKind string

const (
	// KindClassification asks for the correct HTS code for a described or
	// pictured product.
	KindClassification QueryKind = "classification"
	// KindLookup asks for the full tariff profile of a known HTS code.
	KindLookup QueryKind = "lookup"
)

// Image is a product picture attached to a classification query. It is
// forwarded to the completion backend as-is and never persisted.
type Image struct {
	MimeType string
	Data     []byte
}

// Query is a single user submission. Exactly one of the two shapes is
// populated, selected by Kind: classification queries use Description,
// CountryOfOrigin, and optionally Image; lookup queries use Code.
type Query struct {
	Kind            QueryKind
	Description     string
	CountryOfOrigin string
	Image           *Image
	Code            string
}

// HasImage reports whether a product picture is attached.
func (q Query) HasImage() bool {
	return q.Image != nil && len(q.Image.Data) > 0
}

// MessageRole identifies the author of a chat message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one entry in the conversation. The assistant message starts
// empty, grows by appended chunks while the response streams, and is
// truncated to the visible narrative once the structured payload has been
// split off.
type Message struct {
	ID   string
	Role MessageRole
	Text string
}

// Recommendation is one classification scenario proposed by the assistant.
type Recommendation struct {
	Scenario    string `json:"scenario"`
	HtsCode     string `json:"htsCode"`
	Description string `json:"description"`
}

// AdditionalTariff is a trade-remedy surcharge (Section 301/232, IEEPA)
// stacked on top of the base duty.
type AdditionalTariff struct {
	Name string  `json:"name"`
	Rate float64 `json:"rate"`
	Code string  `json:"code"`
}

// QuickStats summarizes the duty picture for the recommended code. The
// producing prompt template guarantees TotalDuty equals BaseDuty plus the
// sum of the additional tariff rates.
type QuickStats struct {
	BaseDuty          float64            `json:"baseDuty"`
	TotalDuty         float64            `json:"totalDuty"`
	AdditionalTariffs []AdditionalTariff `json:"additionalTariffs"`
	Agencies          []string           `json:"agencies"`
}

// ComplianceAlert flags a partner-government-agency or regulatory concern.
type ComplianceAlert struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// Alert types the renderer understands.
const (
	AlertSuccess = "success"
	AlertInfo    = "info"
	AlertWarning = "warning"
)

// AnalysisData is the structured payload embedded at the tail of an
// assistant response. It is associated with exactly one message and never
// mutated after parsing.
type AnalysisData struct {
	Recommendations  []Recommendation  `json:"recommendations"`
	QuickStats       QuickStats        `json:"quickStats"`
	ComplianceAlerts []ComplianceAlert `json:"complianceAlerts"`
}

// HistoryItem is an append-only record of a completed query. Written once
// when a response finalizes with a parsed analysis, never updated.
type HistoryItem struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"userId"`
	UserEmail string    `json:"userEmail"`
	ViewType  QueryKind `json:"viewType"`
}

// htsCodeRE accepts the code shapes the HTSUS schedule uses: bare 4, 6, 8,
// or 10 digit groups, or the dotted forms 9999.99, 9999.99.99, and
// 9999.99.99.99.
var htsCodeRE = regexp.MustCompile(`^(\d{4}|\d{6}|\d{8}|\d{10}|\d{4}\.\d{2}|\d{4}\.\d{2}\.\d{2}|\d{4}\.\d{2}\.\d{2}\.\d{2})$`)

// ValidHtsCode reports whether s is a plausibly-shaped HTS code.
func ValidHtsCode(s string) bool {
	return htsCodeRE.MatchString(s)
}
