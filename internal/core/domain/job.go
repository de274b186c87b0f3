package domain

import "time"

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageInProgress StageStatus = "in_progress"
	StageCompleted  StageStatus = "completed"
	StageFailed     StageStatus = "failed"
)

type StageName string

const (
	StageOCR            StageName = "ocr"
	StageParsing        StageName = "parsing"
	StageClassification StageName = "classification"
	StageExtraction     StageName = "extraction"
	StageSimilarity     StageName = "similarity"
	StageTranslation    StageName = "translation"
	StageCompliance     StageName = "compliance"
)

// StageOrder is the total order stages execute and are appended in,
// regardless of which subset is enabled for a run.
var StageOrder = []StageName{
	StageOCR,
	StageParsing,
	StageClassification,
	StageExtraction,
	StageSimilarity,
	StageTranslation,
	StageCompliance,
}

const DefaultMaxRetries = 3

type StageResult struct {
	Name           StageName      `json:"name"`
	Status         StageStatus    `json:"status"`
	StartedAt      time.Time      `json:"started_at"`
	EndedAt        time.Time      `json:"ended_at"`
	DurationMillis int64          `json:"duration_ms"`
	Error          string         `json:"error,omitempty"`
	Details        map[string]any `json:"details,omitempty"`
}

// ProcessingOptions selects the stages a run executes and their parameters.
// The zero value disables everything; DefaultProcessingOptions enables the
// full pipeline.
type ProcessingOptions struct {
	EnableOCR            bool     `json:"enable_ocr"`
	EnableParsing        bool     `json:"enable_parsing"`
	EnableClassification bool     `json:"enable_classification"`
	EnableExtraction     bool     `json:"enable_extraction"`
	EnableSimilarity     bool     `json:"enable_similarity"`
	EnableTranslation    bool     `json:"enable_translation"`
	EnableCompliance     bool     `json:"enable_compliance"`
	TargetLanguages      []string `json:"target_languages,omitempty"`
	SimilarityAlgorithm  string   `json:"similarity_algorithm,omitempty"`
}

func DefaultProcessingOptions() ProcessingOptions {
	return ProcessingOptions{
		EnableOCR:            true,
		EnableParsing:        true,
		EnableClassification: true,
		EnableExtraction:     true,
		EnableSimilarity:     true,
		EnableTranslation:    false,
		EnableCompliance:     true,
	}
}

func (o ProcessingOptions) Enabled(stage StageName) bool {
	switch stage {
	case StageOCR:
		return o.EnableOCR
	case StageParsing:
		return o.EnableParsing
	case StageClassification:
		return o.EnableClassification
	case StageExtraction:
		return o.EnableExtraction
	case StageSimilarity:
		return o.EnableSimilarity
	case StageTranslation:
		return o.EnableTranslation
	case StageCompliance:
		return o.EnableCompliance
	}
	return false
}

type ProcessingJob struct {
	ID           string            `json:"id"`
	DocumentID   string            `json:"document_id"`
	JobType      string            `json:"job_type"`
	Status       JobStatus         `json:"status"`
	RetryCount   int               `json:"retry_count"`
	MaxRetries   int               `json:"max_retries"`
	Options      ProcessingOptions `json:"options"`
	StageResults []StageResult     `json:"stage_results"`
	Error        string            `json:"error,omitempty"`
	ScheduledAt  time.Time         `json:"scheduled_at"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}

// Terminal reports whether the job may never be auto-retried again.
func (j *ProcessingJob) Terminal() bool {
	return j.Status == JobFailed && j.RetryCount >= j.MaxRetries
}

// ProcessingResult is the run summary returned by Process.
type ProcessingResult struct {
	JobID               string         `json:"job_id"`
	DocumentID          string         `json:"document_id"`
	Status              DocumentStatus `json:"status"`
	StageResults        []StageResult  `json:"stage_results"`
	TotalSteps          int            `json:"total_steps"`
	CompletedSteps      int            `json:"completed_steps"`
	FailedSteps         int            `json:"failed_steps"`
	TotalProcessingTime int64          `json:"total_processing_time_ms"`
	Success             bool           `json:"success"`
}

// ProcessingQueue partitions live jobs by status for introspection.
// Pending is oldest-first, Failed newest-first, each capped at 50.
type ProcessingQueue struct {
	Pending    []ProcessingJob `json:"pending"`
	InProgress []ProcessingJob `json:"in_progress"`
	Failed     []ProcessingJob `json:"failed"`
}

type ProcessingStatistics struct {
	TotalJobs         int                 `json:"total_jobs"`
	CompletedJobs     int                 `json:"completed_jobs"`
	FailedJobs        int                 `json:"failed_jobs"`
	AverageDurationMS int64               `json:"average_duration_ms"`
	StageFailures     map[StageName]int64 `json:"stage_failures"`
}
