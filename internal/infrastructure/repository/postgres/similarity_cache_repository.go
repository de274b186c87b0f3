package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

// SimilarityCacheRepository stores pairwise scores keyed by the canonical
// (lexicographically ordered) document pair plus algorithm. Upserts are
// last-writer-wins; TTL-bounded staleness makes races acceptable.
type SimilarityCacheRepository struct {
	db *sql.DB
}

func NewSimilarityCacheRepository(db *sql.DB) *SimilarityCacheRepository {
	return &SimilarityCacheRepository{db: db}
}

func (r *SimilarityCacheRepository) Get(ctx context.Context, docID1, docID2 string, algorithm domain.SimilarityAlgorithm) (*domain.SimilarityCacheEntry, error) {
	docID1, docID2 = domain.CanonicalPair(docID1, docID2)
	row := r.db.QueryRowContext(ctx, `
SELECT doc_id_1, doc_id_2, algorithm, score, components, computed_at, expires_at
FROM similarity_cache
WHERE doc_id_1 = $1 AND doc_id_2 = $2 AND algorithm = $3
`, docID1, docID2, string(algorithm))

	var entry domain.SimilarityCacheEntry
	var alg string
	var componentsRaw []byte
	err := row.Scan(&entry.DocID1, &entry.DocID2, &alg, &entry.Score, &componentsRaw, &entry.ComputedAt, &entry.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan similarity cache entry: %w", err)
	}
	if len(componentsRaw) > 0 {
		if err := json.Unmarshal(componentsRaw, &entry.Components); err != nil {
			return nil, fmt.Errorf("unmarshal components: %w", err)
		}
	}
	entry.Algorithm = domain.SimilarityAlgorithm(alg)
	return &entry, nil
}

func (r *SimilarityCacheRepository) Put(ctx context.Context, entry *domain.SimilarityCacheEntry) error {
	entry.DocID1, entry.DocID2 = domain.CanonicalPair(entry.DocID1, entry.DocID2)
	componentsJSON, err := json.Marshal(entry.Components)
	if err != nil {
		return fmt.Errorf("marshal components: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO similarity_cache (doc_id_1, doc_id_2, algorithm, score, components, computed_at, expires_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (doc_id_1, doc_id_2, algorithm)
DO UPDATE SET score = EXCLUDED.score, components = EXCLUDED.components,
              computed_at = EXCLUDED.computed_at, expires_at = EXCLUDED.expires_at
`,
		entry.DocID1, entry.DocID2, string(entry.Algorithm), entry.Score,
		componentsJSON, entry.ComputedAt, entry.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("upsert similarity cache entry: %w", err)
	}
	return nil
}

func (r *SimilarityCacheRepository) PurgeExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
DELETE FROM similarity_cache
WHERE computed_at < $1
`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("purge similarity cache: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge rows affected: %w", err)
	}
	return rows, nil
}
