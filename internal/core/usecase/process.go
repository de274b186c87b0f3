package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/antonkudrin/docforge/internal/core/domain"
	"github.com/antonkudrin/docforge/internal/core/ports"
	"github.com/antonkudrin/docforge/internal/observability/metrics"
)

// PipelineUseCase sequences the per-document processing stages, persisting a
// job record with per-stage outcomes. Stages within one run execute strictly
// in domain.StageOrder; a stage failure is recorded and never aborts the
// stages after it.
type PipelineUseCase struct {
	docs       ports.DocumentRepository
	jobs       ports.JobRepository
	recognizer ports.TextRecognizer
	similarity ports.SimilarityService
	parser     ports.Parser
	classifier ports.Classifier
	extractor  ports.ContentExtractor
	translator ports.Translator
	compliance ports.ComplianceChecker
	metrics    *metrics.PipelineMetrics
	logger     *slog.Logger

	mu       sync.Mutex
	inflight map[string]*runLease
}

// runLease is the exclusive per-document in-flight marker. Cancellation is
// cooperative: the flag is checked between stages only.
type runLease struct {
	jobID        string
	mu           sync.Mutex
	cancelled    bool
	cancelReason string
}

func (l *runLease) cancel(reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelled = true
	l.cancelReason = reason
}

func (l *runLease) cancelledWithReason() (bool, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancelled, l.cancelReason
}

func NewPipelineUseCase(
	docs ports.DocumentRepository,
	jobs ports.JobRepository,
	recognizer ports.TextRecognizer,
	similarity ports.SimilarityService,
	parser ports.Parser,
	classifier ports.Classifier,
	extractor ports.ContentExtractor,
	translator ports.Translator,
	compliance ports.ComplianceChecker,
	pipelineMetrics *metrics.PipelineMetrics,
	logger *slog.Logger,
) *PipelineUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &PipelineUseCase{
		docs:       docs,
		jobs:       jobs,
		recognizer: recognizer,
		similarity: similarity,
		parser:     parser,
		classifier: classifier,
		extractor:  extractor,
		translator: translator,
		compliance: compliance,
		metrics:    pipelineMetrics,
		logger:     logger,
		inflight:   make(map[string]*runLease),
	}
}

func (uc *PipelineUseCase) Process(ctx context.Context, documentID string, opts domain.ProcessingOptions) (*domain.ProcessingResult, error) {
	return uc.run(ctx, documentID, opts, nil)
}

// run executes the pipeline for one document. When job is non-nil (retry
// path) the existing job row is reused so its retry counter survives.
func (uc *PipelineUseCase) run(ctx context.Context, documentID string, opts domain.ProcessingOptions, job *domain.ProcessingJob) (*domain.ProcessingResult, error) {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	lease, err := uc.acquireLease(documentID)
	if err != nil {
		return nil, err
	}
	defer uc.releaseLease(documentID)

	now := time.Now().UTC()
	if job == nil {
		job = &domain.ProcessingJob{
			ID:          uuid.NewString(),
			DocumentID:  documentID,
			JobType:     "document_processing",
			Status:      domain.JobPending,
			MaxRetries:  domain.DefaultMaxRetries,
			Options:     opts,
			ScheduledAt: now,
		}
		if err := uc.jobs.Create(ctx, job); err != nil {
			return nil, fmt.Errorf("create processing job: %w", err)
		}
	}
	lease.jobID = job.ID

	job.Status = domain.JobInProgress
	job.StartedAt = &now
	job.CompletedAt = nil
	job.Error = ""
	job.StageResults = nil
	if err := uc.jobs.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("start processing job: %w", err)
	}

	processing := domain.StatusProcessing
	processingLabel := "processing"
	if err := uc.docs.Update(ctx, documentID, domain.DocumentUpdate{
		Status:           &processing,
		ProcessingStatus: &processingLabel,
	}); err != nil {
		return nil, fmt.Errorf("mark document processing: %w", err)
	}

	uc.logger.Info("pipeline started", "document_id", documentID, "job_id", job.ID)
	started := time.Now()
	if uc.metrics != nil {
		uc.metrics.StartDocument()
	}
	// Error returns below count as failed runs so the in-flight gauge
	// always comes back down.
	metricStatus := string(domain.JobFailed)
	defer func() {
		if uc.metrics != nil {
			uc.metrics.FinishDocument(metricStatus, time.Since(started))
		}
	}()
	cancelled := false
	cancelReason := ""

	for _, stage := range domain.StageOrder {
		if !opts.Enabled(stage) {
			continue
		}
		if skip, why := uc.shouldSkip(stage, doc, opts); skip {
			uc.logger.Debug("stage skipped", "document_id", documentID, "stage", string(stage), "reason", why)
			continue
		}
		if c, reason := lease.cancelledWithReason(); c || ctx.Err() != nil {
			cancelled = true
			cancelReason = reason
			if cancelReason == "" && ctx.Err() != nil {
				cancelReason = ctx.Err().Error()
			}
			break
		}

		result := uc.runStage(ctx, stage, doc, opts)
		job.StageResults = append(job.StageResults, result)
		if uc.metrics != nil {
			uc.metrics.ObserveStage(string(stage), string(result.Status), time.Duration(result.DurationMillis)*time.Millisecond)
		}
		if err := uc.jobs.Update(ctx, job); err != nil {
			uc.logger.Warn("persist stage result", "job_id", job.ID, "stage", string(stage), "error", err)
		}
	}

	summary := summarize(job.StageResults, time.Since(started))
	finishedAt := time.Now().UTC()
	job.CompletedAt = &finishedAt

	finalStatus := domain.StatusCompleted
	finalJobStatus := domain.JobCompleted
	switch {
	case cancelled:
		finalStatus = domain.StatusFailed
		finalJobStatus = domain.JobFailed
		if cancelReason == "" {
			cancelReason = "processing cancelled"
		}
		job.Error = cancelReason
	case summary.FailedSteps > 0:
		finalStatus = domain.StatusFailed
		finalJobStatus = domain.JobFailed
		job.Error = failureSummary(job.StageResults)
	}
	job.Status = finalJobStatus
	if err := uc.jobs.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("close processing job: %w", err)
	}

	processingLabel = string(finalJobStatus)
	docUpdate := domain.DocumentUpdate{
		Status:           &finalStatus,
		ProcessingStatus: &processingLabel,
	}
	if job.Error != "" {
		docUpdate.Error = &job.Error
	}
	if err := uc.docs.Update(ctx, documentID, docUpdate); err != nil {
		return nil, fmt.Errorf("finalize document status: %w", err)
	}
	metricStatus = string(finalJobStatus)

	uc.logger.Info("pipeline finished",
		"document_id", documentID,
		"job_id", job.ID,
		"status", string(finalStatus),
		"completed_steps", summary.CompletedSteps,
		"failed_steps", summary.FailedSteps,
		"duration_ms", summary.TotalProcessingTime,
	)

	return &domain.ProcessingResult{
		JobID:               job.ID,
		DocumentID:          documentID,
		Status:              finalStatus,
		StageResults:        job.StageResults,
		TotalSteps:          summary.TotalSteps,
		CompletedSteps:      summary.CompletedSteps,
		FailedSteps:         summary.FailedSteps,
		TotalProcessingTime: summary.TotalProcessingTime,
		Success:             finalStatus == domain.StatusCompleted,
	}, nil
}

func (uc *PipelineUseCase) acquireLease(documentID string) (*runLease, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if _, exists := uc.inflight[documentID]; exists {
		return nil, domain.WrapError(domain.ErrProcessingConflict, "acquire run lease", fmt.Errorf("document %s", documentID))
	}
	lease := &runLease{}
	uc.inflight[documentID] = lease
	return lease, nil
}

func (uc *PipelineUseCase) releaseLease(documentID string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	delete(uc.inflight, documentID)
}

// shouldSkip applies the prerequisite rules: OCR only runs for rasterized
// document types, text-consuming stages only run once text exists, and
// translation needs target languages.
func (uc *PipelineUseCase) shouldSkip(stage domain.StageName, doc *domain.Document, opts domain.ProcessingOptions) (bool, string) {
	switch stage {
	case domain.StageOCR:
		if !doc.Type.RequiresRecognition() {
			return true, "document type does not require text recognition"
		}
	case domain.StageClassification, domain.StageExtraction, domain.StageSimilarity:
		if strings.TrimSpace(doc.ExtractedText) == "" {
			return true, "no extracted text"
		}
	case domain.StageTranslation:
		if strings.TrimSpace(doc.ExtractedText) == "" {
			return true, "no extracted text"
		}
		if len(opts.TargetLanguages) == 0 {
			return true, "no target languages"
		}
	}
	return false, ""
}

// runStage wraps one stage execution: the stage's own error is downgraded to
// a failed StageResult and never propagates to the caller.
func (uc *PipelineUseCase) runStage(ctx context.Context, stage domain.StageName, doc *domain.Document, opts domain.ProcessingOptions) domain.StageResult {
	started := time.Now().UTC()
	outcome := uc.executeStage(ctx, stage, doc, opts)
	ended := time.Now().UTC()

	result := domain.StageResult{
		Name:           stage,
		StartedAt:      started,
		EndedAt:        ended,
		DurationMillis: ended.Sub(started).Milliseconds(),
	}
	if outcome.err != nil {
		result.Status = domain.StageFailed
		result.Error = outcome.err.Error()
		uc.logger.Warn("stage failed", "document_id", doc.ID, "stage", string(stage), "error", outcome.err)
		return result
	}

	result.Status = domain.StageCompleted
	result.Details = outcome.details

	metricKey := stageMetricKey(stage)
	update := outcome.update
	if update.ProcessingMetrics == nil {
		update.ProcessingMetrics = make(map[string]int64, 1)
	}
	update.ProcessingMetrics[metricKey] = result.DurationMillis
	applyUpdate(doc, update)
	if err := uc.docs.Update(ctx, doc.ID, update); err != nil {
		// The in-memory document keeps the mutation so later stages still
		// see it; the persistence miss is surfaced on the stage record.
		result.Status = domain.StageFailed
		result.Error = fmt.Sprintf("persist stage output: %v", err)
		uc.logger.Warn("persist stage output", "document_id", doc.ID, "stage", string(stage), "error", err)
	}
	return result
}

type stageOutcome struct {
	details map[string]any
	update  domain.DocumentUpdate
	err     error
}

func completed(details map[string]any, update domain.DocumentUpdate) stageOutcome {
	return stageOutcome{details: details, update: update}
}

func failed(err error) stageOutcome {
	return stageOutcome{err: err}
}

func (uc *PipelineUseCase) executeStage(ctx context.Context, stage domain.StageName, doc *domain.Document, opts domain.ProcessingOptions) stageOutcome {
	switch stage {
	case domain.StageOCR:
		return uc.stageOCR(ctx, doc, opts)
	case domain.StageParsing:
		return uc.stageParsing(ctx, doc)
	case domain.StageClassification:
		return uc.stageClassification(ctx, doc)
	case domain.StageExtraction:
		return uc.stageExtraction(ctx, doc)
	case domain.StageSimilarity:
		return uc.stageSimilarity(ctx, doc, opts)
	case domain.StageTranslation:
		return uc.stageTranslation(ctx, doc, opts)
	case domain.StageCompliance:
		return uc.stageCompliance(ctx, doc)
	}
	return failed(fmt.Errorf("unknown stage %q", stage))
}

func (uc *PipelineUseCase) stageOCR(ctx context.Context, doc *domain.Document, opts domain.ProcessingOptions) stageOutcome {
	recOpts := domain.RecognitionOptions{Preprocess: true}
	var (
		pages []*domain.RecognitionResult
		err   error
	)
	if doc.Type == domain.TypeImage {
		var single *domain.RecognitionResult
		single, err = uc.recognizer.ExtractText(ctx, doc.StoragePath, recOpts)
		if single != nil {
			pages = []*domain.RecognitionResult{single}
		}
	} else {
		pages, err = uc.recognizer.ExtractTextFromMultiPage(ctx, doc.StoragePath, recOpts)
	}
	if err != nil {
		return failed(fmt.Errorf("recognize text: %w", err))
	}

	var sb strings.Builder
	var confidenceSum float64
	for _, page := range pages {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(page.Text)
		confidenceSum += page.Confidence
	}
	text := strings.TrimSpace(sb.String())
	confidence := 0.0
	if len(pages) > 0 {
		confidence = confidenceSum / float64(len(pages))
	}

	return completed(map[string]any{
		"pages":      len(pages),
		"confidence": confidence,
		"characters": len(text),
	}, domain.DocumentUpdate{ExtractedText: &text})
}

func (uc *PipelineUseCase) stageParsing(ctx context.Context, doc *domain.Document) stageOutcome {
	parsed, err := uc.parser.Parse(ctx, doc.StoragePath, doc.Type)
	if err != nil {
		return failed(fmt.Errorf("parse document: %w", err))
	}

	update := domain.DocumentUpdate{Metadata: &parsed.Metadata}
	// OCR output wins for rasterized types; the parser fills text for the rest.
	if strings.TrimSpace(doc.ExtractedText) == "" && strings.TrimSpace(parsed.Text) != "" {
		update.ExtractedText = &parsed.Text
	}
	return completed(map[string]any{
		"page_count": parsed.Metadata.PageCount,
		"word_count": parsed.Metadata.WordCount,
		"has_tables": parsed.Metadata.HasTables,
	}, update)
}

func (uc *PipelineUseCase) stageClassification(ctx context.Context, doc *domain.Document) stageOutcome {
	cls, err := uc.classifier.Classify(ctx, doc.ID, doc.ExtractedText)
	if err != nil {
		return failed(fmt.Errorf("classify document: %w", err))
	}
	return completed(map[string]any{
		"category":   cls.Category,
		"confidence": cls.Confidence,
		"tags":       cls.Tags,
	}, domain.DocumentUpdate{Category: &cls.Category})
}

func (uc *PipelineUseCase) stageExtraction(ctx context.Context, doc *domain.Document) stageOutcome {
	content, err := uc.extractor.ExtractContent(ctx, doc.ID, doc.ExtractedText)
	if err != nil {
		return failed(fmt.Errorf("extract content: %w", err))
	}
	return completed(map[string]any{
		"entities":  len(content.Entities),
		"keywords":  content.Keywords,
		"sentiment": content.Sentiment,
		"topics":    content.Topics,
		"summary":   content.Summary,
	}, domain.DocumentUpdate{})
}

func (uc *PipelineUseCase) stageSimilarity(ctx context.Context, doc *domain.Document, opts domain.ProcessingOptions) stageOutcome {
	simOpts := domain.SimilarityOptions{}
	if opts.SimilarityAlgorithm != "" {
		simOpts.Algorithm = domain.SimilarityAlgorithm(opts.SimilarityAlgorithm)
	}
	matches, err := uc.similarity.FindSimilar(ctx, doc.ID, simOpts)
	if err != nil {
		return failed(fmt.Errorf("find similar documents: %w", err))
	}

	duplicates := 0
	topScore := 0.0
	for _, m := range matches {
		if m.IsDuplicate {
			duplicates++
		}
		if m.Similarity > topScore {
			topScore = m.Similarity
		}
	}
	return completed(map[string]any{
		"matches":    len(matches),
		"duplicates": duplicates,
		"top_score":  topScore,
	}, domain.DocumentUpdate{})
}

func (uc *PipelineUseCase) stageTranslation(ctx context.Context, doc *domain.Document, opts domain.ProcessingOptions) stageOutcome {
	results, err := uc.translator.TranslateToMany(ctx, doc.ID, doc.ExtractedText, opts.TargetLanguages)
	if err != nil {
		return failed(fmt.Errorf("translate document: %w", err))
	}
	translated := 0
	perLanguage := make(map[string]string, len(results))
	for _, r := range results {
		if r.Error == "" {
			translated++
			perLanguage[r.Language] = "ok"
		} else {
			perLanguage[r.Language] = r.Error
		}
	}
	return completed(map[string]any{
		"requested":  len(opts.TargetLanguages),
		"translated": translated,
		"languages":  perLanguage,
	}, domain.DocumentUpdate{})
}

func (uc *PipelineUseCase) stageCompliance(ctx context.Context, doc *domain.Document) stageOutcome {
	report, err := uc.compliance.Check(ctx, doc)
	if err != nil {
		return failed(fmt.Errorf("compliance check: %w", err))
	}
	return completed(map[string]any{
		"overall_status": string(report.OverallStatus),
		"score":          report.Score,
		"checks":         len(report.Checks),
	}, domain.DocumentUpdate{})
}

// applyUpdate mirrors a persisted mutation onto the in-memory document so
// later stages observe it.
func applyUpdate(doc *domain.Document, update domain.DocumentUpdate) {
	if update.Type != nil {
		doc.Type = *update.Type
	}
	if update.Category != nil {
		doc.Category = *update.Category
	}
	if update.ExtractedText != nil {
		doc.ExtractedText = *update.ExtractedText
	}
	if update.Metadata != nil {
		doc.Metadata = *update.Metadata
	}
	if update.Status != nil {
		doc.Status = *update.Status
	}
	if update.ProcessingStatus != nil {
		doc.ProcessingStatus = *update.ProcessingStatus
	}
	if update.Error != nil {
		doc.Error = *update.Error
	}
	if len(update.ProcessingMetrics) > 0 {
		if doc.ProcessingMetrics == nil {
			doc.ProcessingMetrics = make(map[string]int64, len(update.ProcessingMetrics))
		}
		for k, v := range update.ProcessingMetrics {
			doc.ProcessingMetrics[k] = v
		}
	}
}

func stageMetricKey(stage domain.StageName) string {
	return string(stage) + "ProcessingTime"
}

func summarize(results []domain.StageResult, elapsed time.Duration) domain.ProcessingResult {
	var summary domain.ProcessingResult
	summary.TotalSteps = len(results)
	for _, r := range results {
		switch r.Status {
		case domain.StageCompleted:
			summary.CompletedSteps++
		case domain.StageFailed:
			summary.FailedSteps++
		}
	}
	summary.TotalProcessingTime = elapsed.Milliseconds()
	return summary
}

func failureSummary(results []domain.StageResult) string {
	var parts []string
	for _, r := range results {
		if r.Status == domain.StageFailed {
			parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Error))
		}
	}
	return strings.Join(parts, "; ")
}
