package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	size_bytes BIGINT NOT NULL DEFAULT 0,
	content_hash TEXT,
	doc_type TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	extracted_text TEXT NOT NULL DEFAULT '',
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	processing_metrics JSONB NOT NULL DEFAULT '{}'::jsonb,
	status TEXT NOT NULL,
	processing_status TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents(owner_id);
CREATE INDEX IF NOT EXISTS idx_documents_category ON documents(category);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);

CREATE TABLE IF NOT EXISTS processing_jobs (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id),
	job_type TEXT NOT NULL,
	status TEXT NOT NULL,
	retry_count INT NOT NULL DEFAULT 0,
	max_retries INT NOT NULL DEFAULT 3,
	options JSONB NOT NULL DEFAULT '{}'::jsonb,
	stage_results JSONB NOT NULL DEFAULT '[]'::jsonb,
	error_message TEXT NOT NULL DEFAULT '',
	scheduled_at TIMESTAMPTZ NOT NULL,
	started_at TIMESTAMPTZ,
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_jobs_document_scheduled ON processing_jobs(document_id, scheduled_at DESC);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON processing_jobs(status);

CREATE TABLE IF NOT EXISTS similarity_cache (
	doc_id_1 TEXT NOT NULL,
	doc_id_2 TEXT NOT NULL,
	algorithm TEXT NOT NULL,
	score DOUBLE PRECISION NOT NULL,
	components JSONB NOT NULL DEFAULT '{}'::jsonb,
	computed_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (doc_id_1, doc_id_2, algorithm)
);

CREATE INDEX IF NOT EXISTS idx_similarity_cache_computed ON similarity_cache(computed_at);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	metricsJSON, err := marshalMetrics(doc.ProcessingMetrics)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, owner_id, filename, mime_type, storage_path, size_bytes, content_hash, doc_type,
	category, extracted_text, metadata, processing_metrics, status, processing_status,
	error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
`,
		doc.ID, doc.OwnerID, doc.Filename, doc.MimeType, doc.StoragePath, doc.SizeBytes,
		doc.ContentHash, string(doc.Type), doc.Category, doc.ExtractedText, metadataJSON,
		metricsJSON, string(doc.Status), doc.ProcessingStatus, doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

const documentColumns = `id, owner_id, filename, mime_type, storage_path, size_bytes, content_hash, doc_type,
category, extracted_text, metadata, processing_metrics, status, processing_status,
error_message, created_at, updated_at`

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

// Update applies only the fields the caller set; nil members stay untouched.
func (r *DocumentRepository) Update(ctx context.Context, id string, update domain.DocumentUpdate) error {
	sets := make([]string, 0, 8)
	args := make([]any, 0, 9)
	args = append(args, id)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if update.Type != nil {
		sets = append(sets, "doc_type = "+arg(string(*update.Type)))
	}
	if update.Category != nil {
		sets = append(sets, "category = "+arg(*update.Category))
	}
	if update.ExtractedText != nil {
		sets = append(sets, "extracted_text = "+arg(*update.ExtractedText))
	}
	if update.Metadata != nil {
		metadataJSON, err := json.Marshal(*update.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		sets = append(sets, "metadata = "+arg(metadataJSON))
	}
	if len(update.ProcessingMetrics) > 0 {
		metricsJSON, err := marshalMetrics(update.ProcessingMetrics)
		if err != nil {
			return err
		}
		sets = append(sets, "processing_metrics = processing_metrics || "+arg(metricsJSON)+"::jsonb")
	}
	if update.Status != nil {
		sets = append(sets, "status = "+arg(string(*update.Status)))
	}
	if update.ProcessingStatus != nil {
		sets = append(sets, "processing_status = "+arg(*update.ProcessingStatus))
	}
	if update.Error != nil {
		sets = append(sets, "error_message = "+arg(*update.Error))
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = "+arg(time.Now().UTC()))

	query := "UPDATE documents SET " + strings.Join(sets, ", ") + " WHERE id = $1"
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document", fmt.Errorf("id=%s", id))
	}
	return nil
}

// FindCandidates selects comparison candidates for similarity search: same
// owner, same category, or recently created; never the document itself.
func (r *DocumentRepository) FindCandidates(ctx context.Context, doc *domain.Document, since time.Time, limit int) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id <> $1
  AND (owner_id = $2 OR (category <> '' AND category = $3) OR created_at >= $4)
ORDER BY created_at DESC
LIMIT $5
`, doc.ID, doc.OwnerID, doc.Category, since, limit)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Document, 0)
	for rows.Next() {
		candidate, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, *candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var docType, status string
	var metadataRaw, metricsRaw []byte

	err := row.Scan(
		&doc.ID, &doc.OwnerID, &doc.Filename, &doc.MimeType, &doc.StoragePath, &doc.SizeBytes,
		&doc.ContentHash, &docType, &doc.Category, &doc.ExtractedText, &metadataRaw,
		&metricsRaw, &status, &doc.ProcessingStatus, &doc.Error, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if len(metricsRaw) > 0 {
		if err := json.Unmarshal(metricsRaw, &doc.ProcessingMetrics); err != nil {
			return nil, fmt.Errorf("unmarshal processing metrics: %w", err)
		}
	}
	doc.Type = domain.DocumentType(docType)
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

func marshalMetrics(metrics map[string]int64) ([]byte, error) {
	if metrics == nil {
		metrics = map[string]int64{}
	}
	raw, err := json.Marshal(metrics)
	if err != nil {
		return nil, fmt.Errorf("marshal processing metrics: %w", err)
	}
	return raw, nil
}
