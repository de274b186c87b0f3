package similarity

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/antonkudrin/docforge/internal/core/domain"
	"github.com/antonkudrin/docforge/internal/core/ports"
	"github.com/antonkudrin/docforge/internal/observability/metrics"
)

const scoreConcurrency = 8

// Engine computes pairwise document similarity over a bounded candidate set,
// with read-through caching of pairwise scores.
type Engine struct {
	docs    ports.DocumentRepository
	cache   ports.SimilarityCache
	metrics *metrics.SimilarityMetrics
	logger  *slog.Logger

	defaults domain.SimilarityOptions
}

// NewEngine builds an engine; zero fields in defaults fall back to the
// domain constants.
func NewEngine(docs ports.DocumentRepository, cache ports.SimilarityCache, simMetrics *metrics.SimilarityMetrics, logger *slog.Logger, defaults domain.SimilarityOptions) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if defaults.Algorithm == "" {
		defaults.Algorithm = domain.AlgorithmCosine
	}
	if defaults.RelatedThreshold <= 0 {
		defaults.RelatedThreshold = domain.DefaultRelatedThreshold
	}
	if defaults.DuplicateThreshold <= 0 {
		defaults.DuplicateThreshold = domain.DefaultDuplicateThreshold
	}
	if defaults.MaxCandidates <= 0 {
		defaults.MaxCandidates = domain.MaxSimilarityCandidates
	}
	return &Engine{
		docs:     docs,
		cache:    cache,
		metrics:  simMetrics,
		logger:   logger,
		defaults: defaults,
	}
}

func (e *Engine) FindSimilar(ctx context.Context, documentID string, opts domain.SimilarityOptions) ([]domain.SimilarityResult, error) {
	opts = e.normalize(opts)

	doc, err := e.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	since := time.Now().UTC().Add(-domain.CandidateRecencyWindow)
	candidates, err := e.docs.FindCandidates(ctx, doc, since, opts.MaxCandidates)
	if err != nil {
		return nil, fmt.Errorf("select candidates: %w", err)
	}
	if len(candidates) == 0 {
		return []domain.SimilarityResult{}, nil
	}

	baseVec := Vectorize(doc)

	var mu sync.Mutex
	results := make([]domain.SimilarityResult, 0, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scoreConcurrency)
	for i := range candidates {
		candidate := candidates[i]
		g.Go(func() error {
			res, err := e.scorePair(gctx, doc, baseVec, &candidate, opts)
			if err != nil {
				// A single unreadable candidate must not sink the search.
				e.logger.Warn("score candidate", "document_id", doc.ID, "candidate_id", candidate.ID, "error", err)
				return nil
			}
			mu.Lock()
			results = append(results, *res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	filtered := results[:0]
	for _, r := range results {
		if r.Similarity >= opts.RelatedThreshold {
			filtered = append(filtered, r)
		}
	}
	deduped := dedupeByDocument(filtered)
	sort.Slice(deduped, func(i, j int) bool { return deduped[i].Similarity > deduped[j].Similarity })
	return deduped, nil
}

func (e *Engine) Compare(ctx context.Context, idA, idB string, algorithm domain.SimilarityAlgorithm) (*domain.SimilarityResult, error) {
	opts := e.normalize(domain.SimilarityOptions{Algorithm: algorithm})

	docA, err := e.docs.GetByID(ctx, idA)
	if err != nil {
		return nil, err
	}
	docB, err := e.docs.GetByID(ctx, idB)
	if err != nil {
		return nil, err
	}
	return e.scorePair(ctx, docA, Vectorize(docA), docB, opts)
}

// DetectDuplicates is FindSimilar restricted to scores at or above the
// duplicate threshold.
func (e *Engine) DetectDuplicates(ctx context.Context, documentID string) ([]domain.SimilarityResult, error) {
	opts := e.normalize(domain.SimilarityOptions{})
	opts.RelatedThreshold = opts.DuplicateThreshold
	return e.FindSimilar(ctx, documentID, opts)
}

// PurgeExpiredCache removes cache rows past the 30-day horizon.
func (e *Engine) PurgeExpiredCache(ctx context.Context) (int64, error) {
	horizon := time.Now().UTC().Add(-domain.SimilarityCachePurgeAfter)
	purged, err := e.cache.PurgeExpired(ctx, horizon)
	if err != nil {
		return 0, fmt.Errorf("purge similarity cache: %w", err)
	}
	if purged > 0 {
		e.logger.Info("similarity cache purged", "entries", purged)
	}
	return purged, nil
}

// scorePair resolves one pairwise similarity, consulting the cache first.
// The cache key is the canonical (sorted) pair, so hits are symmetric in
// call order.
func (e *Engine) scorePair(ctx context.Context, doc *domain.Document, docVec *DocumentVector, other *domain.Document, opts domain.SimilarityOptions) (*domain.SimilarityResult, error) {
	id1, id2 := domain.CanonicalPair(doc.ID, other.ID)
	if e.cache != nil {
		entry, err := e.cache.Get(ctx, id1, id2, opts.Algorithm)
		if err != nil {
			e.logger.Warn("similarity cache read", "pair", id1+"/"+id2, "error", err)
		} else if entry != nil && time.Now().UTC().Before(entry.ExpiresAt) {
			if e.metrics != nil {
				e.metrics.CacheHit()
			}
			return &domain.SimilarityResult{
				DocumentID:  other.ID,
				Algorithm:   opts.Algorithm,
				Similarity:  entry.Score,
				Components:  entry.Components,
				IsDuplicate: entry.Score >= opts.DuplicateThreshold,
				FromCache:   true,
			}, nil
		}
	}
	if e.metrics != nil {
		e.metrics.CacheMiss()
	}

	otherVec := Vectorize(other)
	if docVec.empty() && otherVec.empty() {
		return nil, domain.WrapError(domain.ErrInsufficientData, "compare documents",
			fmt.Errorf("documents %s and %s have no comparable features", doc.ID, other.ID))
	}

	components, err := compareVectors(docVec, otherVec, opts.Algorithm)
	if err != nil {
		return nil, err
	}
	weights := domain.DefaultSimilarityWeights()
	if opts.Weights != nil {
		weights = *opts.Weights
	}
	score := weightedScore(components, weights)
	if e.metrics != nil {
		e.metrics.ComparisonDone(string(opts.Algorithm))
	}

	if e.cache != nil {
		now := time.Now().UTC()
		entry := &domain.SimilarityCacheEntry{
			DocID1:     id1,
			DocID2:     id2,
			Algorithm:  opts.Algorithm,
			Score:      score,
			Components: components,
			ComputedAt: now,
			ExpiresAt:  now.Add(domain.SimilarityCacheFreshFor),
		}
		if err := e.cache.Put(ctx, entry); err != nil {
			e.logger.Warn("similarity cache write", "pair", id1+"/"+id2, "error", err)
		}
	}

	return &domain.SimilarityResult{
		DocumentID:  other.ID,
		Algorithm:   opts.Algorithm,
		Similarity:  score,
		Components:  components,
		IsDuplicate: score >= opts.DuplicateThreshold,
	}, nil
}

func (e *Engine) normalize(opts domain.SimilarityOptions) domain.SimilarityOptions {
	out := opts
	if out.Algorithm == "" {
		out.Algorithm = e.defaults.Algorithm
	}
	if out.RelatedThreshold <= 0 {
		out.RelatedThreshold = e.defaults.RelatedThreshold
	}
	if out.DuplicateThreshold <= 0 {
		out.DuplicateThreshold = e.defaults.DuplicateThreshold
	}
	if out.MaxCandidates <= 0 || out.MaxCandidates > domain.MaxSimilarityCandidates {
		out.MaxCandidates = e.defaults.MaxCandidates
	}
	return out
}

// dedupeByDocument keeps the highest score per (document, algorithm) pair.
func dedupeByDocument(results []domain.SimilarityResult) []domain.SimilarityResult {
	type key struct {
		id  string
		alg domain.SimilarityAlgorithm
	}
	best := make(map[key]domain.SimilarityResult, len(results))
	for _, r := range results {
		k := key{id: r.DocumentID, alg: r.Algorithm}
		if existing, ok := best[k]; !ok || r.Similarity > existing.Similarity {
			best[k] = r
		}
	}
	out := make([]domain.SimilarityResult, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	return out
}
