package usecase

import (
	"context"
	"fmt"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

const queueSliceLimit = 50

// RetryFailedProcessing re-runs the most recent failed job with its original
// options. The job row is reused so retryCount survives across attempts.
func (uc *PipelineUseCase) RetryFailedProcessing(ctx context.Context, documentID string) (*domain.ProcessingResult, error) {
	job, err := uc.jobs.LatestByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobFailed {
		return nil, domain.WrapError(domain.ErrInvalidInput, "retry processing",
			fmt.Errorf("latest job %s has status %s, want %s", job.ID, job.Status, domain.JobFailed))
	}
	if job.RetryCount >= job.MaxRetries {
		return nil, domain.WrapError(domain.ErrMaxRetriesExceeded, "retry processing",
			fmt.Errorf("job %s retried %d/%d times", job.ID, job.RetryCount, job.MaxRetries))
	}

	job.RetryCount++
	job.Status = domain.JobPending
	job.Error = ""
	if err := uc.jobs.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("reset job for retry: %w", err)
	}

	uc.logger.Info("retrying processing", "document_id", documentID, "job_id", job.ID, "retry", job.RetryCount)
	return uc.run(ctx, documentID, job.Options, job)
}

// CancelProcessing marks the latest job and the document failed with an
// explicit cancellation reason. A stage already executing is not interrupted:
// the in-flight run observes the flag at its next stage boundary.
func (uc *PipelineUseCase) CancelProcessing(ctx context.Context, documentID, reason string) error {
	if reason == "" {
		reason = "processing cancelled by caller"
	}

	uc.mu.Lock()
	if lease, ok := uc.inflight[documentID]; ok {
		lease.cancel(reason)
	}
	uc.mu.Unlock()

	job, err := uc.jobs.LatestByDocument(ctx, documentID)
	if err != nil {
		return err
	}
	job.Status = domain.JobFailed
	job.Error = reason
	if err := uc.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("mark job cancelled: %w", err)
	}

	failedStatus := domain.StatusFailed
	processingStatus := string(domain.JobFailed)
	if err := uc.docs.Update(ctx, documentID, domain.DocumentUpdate{
		Status:           &failedStatus,
		ProcessingStatus: &processingStatus,
		Error:            &reason,
	}); err != nil {
		return fmt.Errorf("mark document cancelled: %w", err)
	}

	uc.logger.Info("processing cancelled", "document_id", documentID, "job_id", job.ID, "reason", reason)
	return nil
}

// GetProcessingStatus returns the latest job, whose stage results carry the
// per-stage diagnostics for the document.
func (uc *PipelineUseCase) GetProcessingStatus(ctx context.Context, documentID string) (*domain.ProcessingJob, error) {
	return uc.jobs.LatestByDocument(ctx, documentID)
}

func (uc *PipelineUseCase) GetProcessingQueue(ctx context.Context) (*domain.ProcessingQueue, error) {
	pending, err := uc.jobs.ListByStatus(ctx, domain.JobPending, queueSliceLimit, true)
	if err != nil {
		return nil, fmt.Errorf("list pending jobs: %w", err)
	}
	inProgress, err := uc.jobs.ListByStatus(ctx, domain.JobInProgress, queueSliceLimit, true)
	if err != nil {
		return nil, fmt.Errorf("list in-progress jobs: %w", err)
	}
	failedJobs, err := uc.jobs.ListByStatus(ctx, domain.JobFailed, queueSliceLimit, false)
	if err != nil {
		return nil, fmt.Errorf("list failed jobs: %w", err)
	}
	return &domain.ProcessingQueue{
		Pending:    pending,
		InProgress: inProgress,
		Failed:     failedJobs,
	}, nil
}

func (uc *PipelineUseCase) GetProcessingStatistics(ctx context.Context) (*domain.ProcessingStatistics, error) {
	stats, err := uc.jobs.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect processing statistics: %w", err)
	}
	return stats, nil
}
