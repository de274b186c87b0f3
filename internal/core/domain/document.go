package domain

import "time"

type DocumentStatus string

const (
	StatusUploading  DocumentStatus = "uploading"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

type DocumentType string

const (
	TypePDF         DocumentType = "pdf"
	TypeImage       DocumentType = "image"
	TypeWord        DocumentType = "docx"
	TypeSpreadsheet DocumentType = "spreadsheet"
	TypeText        DocumentType = "text"
)

// KnownDocumentTypes is the fixed one-hot encoding order used by the
// similarity metadata vector. Do not reorder.
var KnownDocumentTypes = []DocumentType{TypePDF, TypeImage, TypeWord, TypeSpreadsheet, TypeText}

// KnownCategories is the fixed one-hot encoding order for document categories.
var KnownCategories = []string{"report", "invoice", "contract", "correspondence"}

// RequiresRecognition reports whether a document type carries rasterized
// content that needs OCR before any text is available.
func (t DocumentType) RequiresRecognition() bool {
	switch t {
	case TypeImage, TypePDF, TypeWord:
		return true
	}
	return false
}

type DocumentMetadata struct {
	PageCount    int    `json:"page_count"`
	WordCount    int    `json:"word_count"`
	HeadingCount int    `json:"heading_count"`
	HasTables    bool   `json:"has_tables"`
	HasImages    bool   `json:"has_images"`
	HasLinks     bool   `json:"has_links"`
	Language     string `json:"language,omitempty"`
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
}

type Document struct {
	ID                string           `json:"id"`
	OwnerID           string           `json:"owner_id"`
	Filename          string           `json:"filename"`
	MimeType          string           `json:"mime_type"`
	StoragePath       string           `json:"storage_path"`
	SizeBytes         int64            `json:"size_bytes"`
	ContentHash       string           `json:"content_hash,omitempty"`
	Type              DocumentType     `json:"type"`
	Category          string           `json:"category,omitempty"`
	ExtractedText     string           `json:"extracted_text,omitempty"`
	Metadata          DocumentMetadata `json:"metadata"`
	ProcessingMetrics map[string]int64 `json:"processing_metrics"`
	Status            DocumentStatus   `json:"status"`
	ProcessingStatus  string           `json:"processing_status,omitempty"`
	Error             string           `json:"error,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// DocumentUpdate carries the field mutations a pipeline stage produces.
// Nil members are left untouched by the store.
type DocumentUpdate struct {
	Type              *DocumentType
	Category          *string
	ExtractedText     *string
	Metadata          *DocumentMetadata
	ProcessingMetrics map[string]int64
	Status            *DocumentStatus
	ProcessingStatus  *string
	Error             *string
}
