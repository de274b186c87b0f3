package ports

import (
	"context"
	"io"
	"time"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	Update(ctx context.Context, id string, update domain.DocumentUpdate) error
	FindCandidates(ctx context.Context, doc *domain.Document, since time.Time, limit int) ([]domain.Document, error)
}

// JobRepository persists processing jobs; one-to-many per document,
// most-recent-first queries.
type JobRepository interface {
	Create(ctx context.Context, job *domain.ProcessingJob) error
	Update(ctx context.Context, job *domain.ProcessingJob) error
	LatestByDocument(ctx context.Context, documentID string) (*domain.ProcessingJob, error)
	ListByStatus(ctx context.Context, status domain.JobStatus, limit int, oldestFirst bool) ([]domain.ProcessingJob, error)
	Statistics(ctx context.Context) (*domain.ProcessingStatistics, error)
}

// SimilarityCache stores pairwise scores keyed by the canonical pair + algorithm.
type SimilarityCache interface {
	Get(ctx context.Context, docID1, docID2 string, algorithm domain.SimilarityAlgorithm) (*domain.SimilarityCacheEntry, error)
	Put(ctx context.Context, entry *domain.SimilarityCacheEntry) error
	PurgeExpired(ctx context.Context, olderThan time.Time) (int64, error)
}

// ObjectStorage stores source documents and intermediate page images.
// Path resolves a key to a local filesystem path readable by OCR and parsers.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Path(key string) string
}

// MessageQueue publishes/consumes processing events.
type MessageQueue interface {
	PublishDocumentUploaded(ctx context.Context, documentID string) error
	SubscribeDocumentUploaded(ctx context.Context, handler func(context.Context, string) error) error
}

// Parser extracts text and structural metadata from a stored document.
type Parser interface {
	Parse(ctx context.Context, path string, docType domain.DocumentType) (*domain.ParseResult, error)
	DetectType(filename string) domain.DocumentType
}

// Classifier assigns a category to extracted text.
type Classifier interface {
	Classify(ctx context.Context, documentID, text string) (*domain.Classification, error)
}

// ContentExtractor pulls entities, keywords, sentiment and topics from text.
type ContentExtractor interface {
	ExtractContent(ctx context.Context, documentID, text string) (*domain.ExtractedContent, error)
}

// Translator fans extracted text out to target languages. Per-language
// failures are reported in the result slice, not as the call error.
type Translator interface {
	TranslateToMany(ctx context.Context, documentID, text string, targetLangs []string) ([]domain.TranslationResult, error)
}

// ComplianceChecker runs rule checks against a document.
type ComplianceChecker interface {
	Check(ctx context.Context, doc *domain.Document) (*domain.ComplianceReport, error)
}
