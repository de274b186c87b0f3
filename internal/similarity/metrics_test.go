package similarity

import (
	"math"
	"testing"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

var allAlgorithms = []domain.SimilarityAlgorithm{
	domain.AlgorithmCosine,
	domain.AlgorithmJaccard,
	domain.AlgorithmLevenshtein,
	domain.AlgorithmEuclidean,
	domain.AlgorithmManhattan,
}

func TestSelfSimilarityIsMaximal(t *testing.T) {
	vec := Vectorize(sampleDoc())

	c, err := compareVectors(vec, vec, domain.AlgorithmCosine)
	if err != nil {
		t.Fatalf("compareVectors: %v", err)
	}
	for name, v := range map[string]float64{"text": c.Text, "metadata": c.Metadata, "structure": c.Structure} {
		if math.Abs(v-1) > 1e-9 {
			t.Fatalf("cosine self-similarity for %s = %f, want 1", name, v)
		}
	}

	score := weightedScore(c, domain.DefaultSimilarityWeights())
	if math.Abs(score-1) > 1e-9 {
		t.Fatalf("weighted self-score = %f, want 1", score)
	}
}

func TestAllMetricsStayInUnitInterval(t *testing.T) {
	a := Vectorize(sampleDoc())

	other := sampleDoc()
	other.ID = "doc-2"
	other.Type = domain.TypeText
	other.Category = "invoice"
	other.ExtractedText = "completely different invoice wording about shipping charges"
	other.Metadata = domain.DocumentMetadata{WordCount: 80}
	b := Vectorize(other)

	for _, alg := range allAlgorithms {
		c, err := compareVectors(a, b, alg)
		if err != nil {
			t.Fatalf("%s: %v", alg, err)
		}
		for name, v := range map[string]float64{"text": c.Text, "metadata": c.Metadata, "structure": c.Structure} {
			if v < 0 || v > 1 {
				t.Fatalf("%s %s component out of range: %f", alg, name, v)
			}
		}
		score := weightedScore(c, domain.DefaultSimilarityWeights())
		if score < 0 || score > 1 {
			t.Fatalf("%s weighted score out of range: %f", alg, score)
		}
	}
}

func TestCompareIsSymmetric(t *testing.T) {
	a := Vectorize(sampleDoc())
	other := sampleDoc()
	other.ID = "doc-2"
	other.ExtractedText = "annual revenue summary with audited figures"
	b := Vectorize(other)

	for _, alg := range allAlgorithms {
		ab, err := compareVectors(a, b, alg)
		if err != nil {
			t.Fatalf("%s: %v", alg, err)
		}
		ba, err := compareVectors(b, a, alg)
		if err != nil {
			t.Fatalf("%s: %v", alg, err)
		}
		if math.Abs(ab.Text-ba.Text) > 1e-9 ||
			math.Abs(ab.Metadata-ba.Metadata) > 1e-9 ||
			math.Abs(ab.Structure-ba.Structure) > 1e-9 {
			t.Fatalf("%s is not symmetric: %+v vs %+v", alg, ab, ba)
		}
	}
}

func TestUnknownAlgorithmRejected(t *testing.T) {
	vec := Vectorize(sampleDoc())
	_, err := compareVectors(vec, vec, "soundex")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestWeightedScoreNormalizesWeights(t *testing.T) {
	c := domain.SimilarityComponents{Text: 1, Metadata: 1, Structure: 1}

	if got := weightedScore(c, domain.SimilarityWeights{Text: 7, Metadata: 2, Structure: 1}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("expected normalized score 1, got %f", got)
	}
	// Degenerate weights fall back to the defaults.
	if got := weightedScore(c, domain.SimilarityWeights{}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("expected fallback score 1, got %f", got)
	}
}

func TestDisjointTextScoresZeroCosine(t *testing.T) {
	a := textVector("alpha beta gamma alpha")
	b := textVector("delta epsilon zeta delta")
	if got := cosineSparse(a, b); got != 0 {
		t.Fatalf("expected 0 cosine for disjoint vocabularies, got %f", got)
	}
	if got := jaccardSparse(a, b); got != 0 {
		t.Fatalf("expected 0 jaccard for disjoint vocabularies, got %f", got)
	}
}

func TestLevenshteinDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
	}
	for _, tc := range cases {
		if got := levenshteinDistance(tc.a, tc.b); got != tc.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestDistanceToSimilarityBounds(t *testing.T) {
	if got := distanceToSimilarity(0); got != 1 {
		t.Fatalf("zero distance must map to 1, got %f", got)
	}
	if got := distanceToSimilarity(1e9); got <= 0 || got > 0.001 {
		t.Fatalf("large distance must approach 0, got %f", got)
	}
}
