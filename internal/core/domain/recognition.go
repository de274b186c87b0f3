package domain

// RecognizedWord is one OCR token with its geometry and engine confidence.
type RecognizedWord struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

type RecognizedLine struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type RecognizedParagraph struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type RecognitionResult struct {
	Text             string                `json:"text"`
	Confidence       float64               `json:"confidence"`
	Words            []RecognizedWord      `json:"words,omitempty"`
	Lines            []RecognizedLine      `json:"lines,omitempty"`
	Paragraphs       []RecognizedParagraph `json:"paragraphs,omitempty"`
	Language         string                `json:"language,omitempty"`
	Page             int                   `json:"page,omitempty"`
	ProcessingTimeMS int64                 `json:"processing_time_ms"`
}

// RecognitionOptions tunes a single ExtractText call.
type RecognitionOptions struct {
	Languages  []string `json:"languages,omitempty"`
	Preprocess bool     `json:"preprocess"`
	DPI        int      `json:"dpi,omitempty"`
}
