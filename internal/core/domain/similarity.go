package domain

import (
	"strings"
	"time"
)

type SimilarityAlgorithm string

const (
	AlgorithmCosine      SimilarityAlgorithm = "cosine"
	AlgorithmJaccard     SimilarityAlgorithm = "jaccard"
	AlgorithmLevenshtein SimilarityAlgorithm = "levenshtein"
	AlgorithmEuclidean   SimilarityAlgorithm = "euclidean"
	AlgorithmManhattan   SimilarityAlgorithm = "manhattan"
)

const (
	DefaultDuplicateThreshold = 0.95
	DefaultRelatedThreshold   = 0.6

	DefaultTextWeight      = 0.7
	DefaultMetadataWeight  = 0.2
	DefaultStructureWeight = 0.1

	// SimilarityCacheFreshFor bounds how old a cached pairwise score may be
	// before a direct lookup recomputes it.
	SimilarityCacheFreshFor = 24 * time.Hour
	// SimilarityCachePurgeAfter is the maintenance-sweep horizon.
	SimilarityCachePurgeAfter = 30 * 24 * time.Hour

	MaxSimilarityCandidates = 100
	CandidateRecencyWindow  = 30 * 24 * time.Hour
)

type SimilarityWeights struct {
	Text      float64 `json:"text"`
	Metadata  float64 `json:"metadata"`
	Structure float64 `json:"structure"`
}

func DefaultSimilarityWeights() SimilarityWeights {
	return SimilarityWeights{
		Text:      DefaultTextWeight,
		Metadata:  DefaultMetadataWeight,
		Structure: DefaultStructureWeight,
	}
}

type SimilarityOptions struct {
	Algorithm          SimilarityAlgorithm `json:"algorithm,omitempty"`
	Weights            *SimilarityWeights  `json:"weights,omitempty"`
	RelatedThreshold   float64             `json:"related_threshold,omitempty"`
	DuplicateThreshold float64             `json:"duplicate_threshold,omitempty"`
	MaxCandidates      int                 `json:"max_candidates,omitempty"`
}

// SimilarityComponents is the per-feature-space breakdown behind an overall score.
type SimilarityComponents struct {
	Text      float64 `json:"text"`
	Metadata  float64 `json:"metadata"`
	Structure float64 `json:"structure"`
}

type SimilarityResult struct {
	DocumentID  string               `json:"document_id"`
	Algorithm   SimilarityAlgorithm  `json:"algorithm"`
	Similarity  float64              `json:"similarity"`
	Components  SimilarityComponents `json:"components"`
	IsDuplicate bool                 `json:"is_duplicate"`
	FromCache   bool                 `json:"from_cache"`
}

// SimilarityCacheEntry persists one pairwise score. DocID1/DocID2 are stored
// in canonical (lexicographic) order so symmetric lookups hit the same row.
type SimilarityCacheEntry struct {
	DocID1     string               `json:"doc_id_1"`
	DocID2     string               `json:"doc_id_2"`
	Algorithm  SimilarityAlgorithm  `json:"algorithm"`
	Score      float64              `json:"score"`
	Components SimilarityComponents `json:"components"`
	ComputedAt time.Time            `json:"computed_at"`
	ExpiresAt  time.Time            `json:"expires_at"`
}

// CanonicalPair orders two document IDs lexicographically so the unordered
// pair maps to exactly one cache key.
func CanonicalPair(a, b string) (string, string) {
	if strings.Compare(a, b) > 0 {
		return b, a
	}
	return a, b
}
