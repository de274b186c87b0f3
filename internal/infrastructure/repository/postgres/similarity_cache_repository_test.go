package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

func newCacheRepoWithMock(t *testing.T) (*SimilarityCacheRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &SimilarityCacheRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestCacheGetCanonicalizesPair(t *testing.T) {
	repo, mock, done := newCacheRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	// Queried with reversed IDs; the lookup must use lexicographic order.
	mock.ExpectQuery("FROM similarity_cache").
		WithArgs("doc-a", "doc-b", "cosine").
		WillReturnRows(sqlmock.NewRows([]string{
			"doc_id_1", "doc_id_2", "algorithm", "score", "components", "computed_at", "expires_at",
		}).AddRow("doc-a", "doc-b", "cosine", 0.87, []byte(`{"text":0.9,"metadata":0.8,"structure":0.7}`), now, now.Add(24*time.Hour)))

	entry, err := repo.Get(context.Background(), "doc-b", "doc-a", domain.AlgorithmCosine)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry == nil || entry.Score != 0.87 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Components.Text != 0.9 {
		t.Fatalf("components not unmarshalled: %+v", entry.Components)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCacheGetMissReturnsNil(t *testing.T) {
	repo, mock, done := newCacheRepoWithMock(t)
	defer done()

	mock.ExpectQuery("FROM similarity_cache").
		WithArgs("doc-a", "doc-b", "cosine").
		WillReturnError(sql.ErrNoRows)

	entry, err := repo.Get(context.Background(), "doc-a", "doc-b", domain.AlgorithmCosine)
	if err != nil {
		t.Fatalf("cache miss must not be an error, got %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil entry on miss, got %+v", entry)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCachePutCanonicalizesAndUpserts(t *testing.T) {
	repo, mock, done := newCacheRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectExec("ON CONFLICT \\(doc_id_1, doc_id_2, algorithm\\)").
		WithArgs("doc-a", "doc-b", "jaccard", 0.42, sqlmock.AnyArg(), now, now.Add(24*time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Put(context.Background(), &domain.SimilarityCacheEntry{
		DocID1:     "doc-b",
		DocID2:     "doc-a",
		Algorithm:  domain.AlgorithmJaccard,
		Score:      0.42,
		ComputedAt: now,
		ExpiresAt:  now.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPurgeExpiredReportsDeletedRows(t *testing.T) {
	repo, mock, done := newCacheRepoWithMock(t)
	defer done()

	horizon := time.Now().UTC().Add(-30 * 24 * time.Hour)
	mock.ExpectExec("DELETE FROM similarity_cache").
		WithArgs(horizon).
		WillReturnResult(sqlmock.NewResult(0, 17))

	purged, err := repo.PurgeExpired(context.Background(), horizon)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if purged != 17 {
		t.Fatalf("expected 17 purged rows, got %d", purged)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
