package domain

import "time"

// ParseResult is produced by format-specific parsers.
type ParseResult struct {
	Text     string           `json:"text"`
	Metadata DocumentMetadata `json:"metadata"`
	Tables   [][]string       `json:"tables,omitempty"`
}

type Classification struct {
	Category   string   `json:"category"`
	Confidence float64  `json:"confidence"`
	Tags       []string `json:"tags,omitempty"`
}

type Entity struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type ExtractedContent struct {
	Entities  []Entity `json:"entities,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`
	Sentiment float64  `json:"sentiment"`
	Topics    []string `json:"topics,omitempty"`
	Summary   string   `json:"summary,omitempty"`
}

type TranslationResult struct {
	Language       string `json:"language"`
	TranslatedText string `json:"translated_text,omitempty"`
	Error          string `json:"error,omitempty"`
}

type ComplianceStatus string

const (
	CompliancePassed  ComplianceStatus = "passed"
	ComplianceWarning ComplianceStatus = "warning"
	ComplianceFailed  ComplianceStatus = "failed"
)

type ComplianceCheck struct {
	Rule    string           `json:"rule"`
	Status  ComplianceStatus `json:"status"`
	Message string           `json:"message,omitempty"`
}

type ComplianceReport struct {
	OverallStatus ComplianceStatus  `json:"overall_status"`
	Score         float64           `json:"score"`
	Checks        []ComplianceCheck `json:"checks"`
	CheckedAt     time.Time         `json:"checked_at"`
}
