package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, document_id, job_type, status, retry_count, max_retries, options,
stage_results, error_message, scheduled_at, started_at, completed_at`

func (r *JobRepository) Create(ctx context.Context, job *domain.ProcessingJob) error {
	optionsJSON, err := json.Marshal(job.Options)
	if err != nil {
		return fmt.Errorf("marshal job options: %w", err)
	}
	stagesJSON, err := marshalStages(job.StageResults)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO processing_jobs (
	id, document_id, job_type, status, retry_count, max_retries, options,
	stage_results, error_message, scheduled_at, started_at, completed_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`,
		job.ID, job.DocumentID, job.JobType, string(job.Status), job.RetryCount, job.MaxRetries,
		optionsJSON, stagesJSON, job.Error, job.ScheduledAt, job.StartedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *domain.ProcessingJob) error {
	optionsJSON, err := json.Marshal(job.Options)
	if err != nil {
		return fmt.Errorf("marshal job options: %w", err)
	}
	stagesJSON, err := marshalStages(job.StageResults)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE processing_jobs
SET status = $2, retry_count = $3, options = $4, stage_results = $5,
    error_message = $6, started_at = $7, completed_at = $8
WHERE id = $1
`,
		job.ID, string(job.Status), job.RetryCount, optionsJSON, stagesJSON,
		job.Error, job.StartedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrJobNotFound, "update job", fmt.Errorf("id=%s", job.ID))
	}
	return nil
}

func (r *JobRepository) LatestByDocument(ctx context.Context, documentID string) (*domain.ProcessingJob, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+jobColumns+`
FROM processing_jobs
WHERE document_id = $1
ORDER BY scheduled_at DESC
LIMIT 1
`, documentID)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrJobNotFound, "latest job", fmt.Errorf("document_id=%s", documentID))
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return job, nil
}

func (r *JobRepository) ListByStatus(ctx context.Context, status domain.JobStatus, limit int, oldestFirst bool) ([]domain.ProcessingJob, error) {
	order := "DESC"
	if oldestFirst {
		order = "ASC"
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+jobColumns+`
FROM processing_jobs
WHERE status = $1
ORDER BY scheduled_at `+order+`
LIMIT $2
`, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs by status: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ProcessingJob, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return out, nil
}

func (r *JobRepository) Statistics(ctx context.Context) (*domain.ProcessingStatistics, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE status = 'completed'),
	COUNT(*) FILTER (WHERE status = 'failed'),
	COALESCE(AVG(EXTRACT(EPOCH FROM (completed_at - started_at)) * 1000) FILTER (WHERE completed_at IS NOT NULL), 0)
FROM processing_jobs
`)

	stats := &domain.ProcessingStatistics{StageFailures: make(map[domain.StageName]int64)}
	var avgMillis float64
	if err := row.Scan(&stats.TotalJobs, &stats.CompletedJobs, &stats.FailedJobs, &avgMillis); err != nil {
		return nil, fmt.Errorf("scan job statistics: %w", err)
	}
	stats.AverageDurationMS = int64(avgMillis)

	rows, err := r.db.QueryContext(ctx, `
SELECT stage->>'name', COUNT(*)
FROM processing_jobs, jsonb_array_elements(stage_results) AS stage
WHERE stage->>'status' = 'failed'
GROUP BY stage->>'name'
`)
	if err != nil {
		return nil, fmt.Errorf("query stage failures: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var count int64
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scan stage failure: %w", err)
		}
		stats.StageFailures[domain.StageName(name)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stage failures: %w", err)
	}
	return stats, nil
}

func scanJob(row rowScanner) (*domain.ProcessingJob, error) {
	var job domain.ProcessingJob
	var status string
	var optionsRaw, stagesRaw []byte

	err := row.Scan(
		&job.ID, &job.DocumentID, &job.JobType, &status, &job.RetryCount, &job.MaxRetries,
		&optionsRaw, &stagesRaw, &job.Error, &job.ScheduledAt, &job.StartedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(optionsRaw) > 0 {
		if err := json.Unmarshal(optionsRaw, &job.Options); err != nil {
			return nil, fmt.Errorf("unmarshal job options: %w", err)
		}
	}
	if len(stagesRaw) > 0 {
		if err := json.Unmarshal(stagesRaw, &job.StageResults); err != nil {
			return nil, fmt.Errorf("unmarshal stage results: %w", err)
		}
	}
	job.Status = domain.JobStatus(status)
	return &job, nil
}

func marshalStages(stages []domain.StageResult) ([]byte, error) {
	if stages == nil {
		stages = []domain.StageResult{}
	}
	raw, err := json.Marshal(stages)
	if err != nil {
		return nil, fmt.Errorf("marshal stage results: %w", err)
	}
	return raw, nil
}
