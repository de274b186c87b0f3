package similarity

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

// compareVectors scores two documents per feature space under one metric.
// Every metric maps to a similarity in [0,1]. Levenshtein applies to the
// flattened text vector only; the dense spaces fall back to cosine.
func compareVectors(a, b *DocumentVector, algorithm domain.SimilarityAlgorithm) (domain.SimilarityComponents, error) {
	var c domain.SimilarityComponents
	switch algorithm {
	case domain.AlgorithmCosine, "":
		c.Text = cosineSparse(a.Text, b.Text)
		c.Metadata = cosineDense(a.Metadata, b.Metadata)
		c.Structure = cosineDense(a.Structure, b.Structure)
	case domain.AlgorithmJaccard:
		c.Text = jaccardSparse(a.Text, b.Text)
		c.Metadata = jaccardDense(a.Metadata, b.Metadata)
		c.Structure = jaccardDense(a.Structure, b.Structure)
	case domain.AlgorithmLevenshtein:
		c.Text = levenshteinSimilarity(flattenSparse(a.Text), flattenSparse(b.Text))
		c.Metadata = cosineDense(a.Metadata, b.Metadata)
		c.Structure = cosineDense(a.Structure, b.Structure)
	case domain.AlgorithmEuclidean:
		c.Text = distanceToSimilarity(euclideanSparse(a.Text, b.Text))
		c.Metadata = distanceToSimilarity(euclideanDense(a.Metadata, b.Metadata))
		c.Structure = distanceToSimilarity(euclideanDense(a.Structure, b.Structure))
	case domain.AlgorithmManhattan:
		c.Text = distanceToSimilarity(manhattanSparse(a.Text, b.Text))
		c.Metadata = distanceToSimilarity(manhattanDense(a.Metadata, b.Metadata))
		c.Structure = distanceToSimilarity(manhattanDense(a.Structure, b.Structure))
	default:
		return c, domain.WrapError(domain.ErrInvalidInput, "compare vectors", fmt.Errorf("unknown algorithm %q", algorithm))
	}
	return c, nil
}

func weightedScore(c domain.SimilarityComponents, w domain.SimilarityWeights) float64 {
	total := w.Text + w.Metadata + w.Structure
	if total <= 0 {
		w = domain.DefaultSimilarityWeights()
		total = w.Text + w.Metadata + w.Structure
	}
	score := (c.Text*w.Text + c.Metadata*w.Metadata + c.Structure*w.Structure) / total
	return clamp01(score)
}

func cosineSparse(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	var dot, normA, normB float64
	for k, v := range small {
		if w, ok := large[k]; ok {
			dot += v * w
		}
	}
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return clamp01(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

func cosineDense(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return clamp01(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// jaccardSparse binarizes at >0 and compares term sets.
func jaccardSparse(a, b map[string]float64) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	var intersection int
	for k, v := range a {
		if v <= 0 {
			continue
		}
		if w, ok := b[k]; ok && w > 0 {
			intersection++
		}
	}
	union := positiveCountSparse(a) + positiveCountSparse(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func jaccardDense(a, b []float64) float64 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	var intersection, union int
	for i := 0; i < n; i++ {
		av := dimAt(a, i) > 0
		bv := dimAt(b, i) > 0
		if av && bv {
			intersection++
		}
		if av || bv {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func euclideanSparse(a, b map[string]float64) float64 {
	var sum float64
	for k, v := range a {
		d := v - b[k]
		sum += d * d
	}
	for k, v := range b {
		if _, ok := a[k]; !ok {
			sum += v * v
		}
	}
	return math.Sqrt(sum)
}

func euclideanDense(a, b []float64) float64 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := dimAt(a, i) - dimAt(b, i)
		sum += d * d
	}
	return math.Sqrt(sum)
}

func manhattanSparse(a, b map[string]float64) float64 {
	var sum float64
	for k, v := range a {
		sum += math.Abs(v - b[k])
	}
	for k, v := range b {
		if _, ok := a[k]; !ok {
			sum += math.Abs(v)
		}
	}
	return sum
}

func manhattanDense(a, b []float64) float64 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(dimAt(a, i) - dimAt(b, i))
	}
	return sum
}

// distanceToSimilarity maps an unbounded distance into (0,1].
func distanceToSimilarity(distance float64) float64 {
	return 1.0 / (1.0 + distance)
}

// flattenSparse renders a sparse vector as a deterministic numeric string so
// edit distance can proxy text similarity.
func flattenSparse(vec map[string]float64) string {
	if len(vec) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vec))
	for k := range vec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('|')
		}
		fmt.Fprintf(&sb, "%s:%.3f", k, vec[k])
	}
	return sb.String()
}

func levenshteinSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	distance := levenshteinDistance(a, b)
	return clamp01(1.0 - float64(distance)/float64(maxLen))
}

// levenshteinDistance is the classic two-row DP edit distance.
func levenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func positiveCountSparse(vec map[string]float64) int {
	count := 0
	for _, v := range vec {
		if v > 0 {
			count++
		}
	}
	return count
}

func dimAt(vec []float64, i int) float64 {
	if i < len(vec) {
		return vec[i]
	}
	return 0
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
