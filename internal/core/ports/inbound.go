package ports

import (
	"context"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

// PipelineService is the inbound contract for document processing runs.
type PipelineService interface {
	Process(ctx context.Context, documentID string, opts domain.ProcessingOptions) (*domain.ProcessingResult, error)
	RetryFailedProcessing(ctx context.Context, documentID string) (*domain.ProcessingResult, error)
	CancelProcessing(ctx context.Context, documentID, reason string) error
	GetProcessingStatus(ctx context.Context, documentID string) (*domain.ProcessingJob, error)
	GetProcessingQueue(ctx context.Context) (*domain.ProcessingQueue, error)
	GetProcessingStatistics(ctx context.Context) (*domain.ProcessingStatistics, error)
}

// SimilarityService is the inbound contract for duplicate detection.
type SimilarityService interface {
	FindSimilar(ctx context.Context, documentID string, opts domain.SimilarityOptions) ([]domain.SimilarityResult, error)
	Compare(ctx context.Context, idA, idB string, algorithm domain.SimilarityAlgorithm) (*domain.SimilarityResult, error)
	DetectDuplicates(ctx context.Context, documentID string) ([]domain.SimilarityResult, error)
}

// TextRecognizer is the inbound contract for OCR extraction.
type TextRecognizer interface {
	ExtractText(ctx context.Context, imagePath string, opts domain.RecognitionOptions) (*domain.RecognitionResult, error)
	ExtractTextFromMultiPage(ctx context.Context, path string, opts domain.RecognitionOptions) ([]*domain.RecognitionResult, error)
}
