package similarity

import (
	"math"
	"strings"
	"unicode"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

// DocumentVector is the ephemeral three-space representation of one document.
// Each sub-vector is L2-normalized independently; the struct never outlives
// a single comparison call.
type DocumentVector struct {
	Text      map[string]float64
	Metadata  []float64
	Structure []float64
}

func (v *DocumentVector) empty() bool {
	return len(v.Text) == 0 && sumAbs(v.Metadata) == 0 && sumAbs(v.Structure) == 0
}

const (
	minTokenLength = 3

	// Normalization ceilings for scalar metadata/structure dimensions.
	sizeNormBytes    = 10 * 1024 * 1024
	wordCountNorm    = 10000
	pageCountNorm    = 100
	headingCountNorm = 50
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "her": {}, "was": {}, "one": {},
	"our": {}, "out": {}, "has": {}, "have": {}, "had": {}, "this": {},
	"that": {}, "with": {}, "they": {}, "them": {}, "from": {}, "will": {},
	"would": {}, "there": {}, "their": {}, "what": {}, "about": {},
	"which": {}, "when": {}, "were": {}, "been": {}, "than": {}, "then": {},
	"into": {}, "also": {}, "its": {}, "his": {}, "she": {}, "him": {},
}

// Vectorize builds the three feature-space vectors for a document.
func Vectorize(doc *domain.Document) *DocumentVector {
	return &DocumentVector{
		Text:      textVector(doc.ExtractedText),
		Metadata:  metadataVector(doc),
		Structure: structureVector(doc),
	}
}

// textVector weights tokens by term frequency scaled with a logarithmic
// inverse-frequency proxy ln(totalTokens/termCount), then L2-normalizes.
func textVector(text string) map[string]float64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	counts := make(map[string]float64, len(tokens)/2)
	for _, token := range tokens {
		counts[token]++
	}

	total := float64(len(tokens))
	vec := make(map[string]float64, len(counts))
	for term, count := range counts {
		tf := count / total
		idf := math.Log(total / count)
		if idf <= 0 {
			idf = 0
		}
		weight := tf * idf
		if weight > 0 {
			vec[term] = weight
		}
	}

	normalizeSparse(vec)
	return vec
}

func metadataVector(doc *domain.Document) []float64 {
	vec := make([]float64, 0, 2+len(domain.KnownDocumentTypes)+len(domain.KnownCategories))
	vec = append(vec, clamp01(float64(doc.SizeBytes)/sizeNormBytes))
	for _, t := range domain.KnownDocumentTypes {
		if doc.Type == t {
			vec = append(vec, 1)
		} else {
			vec = append(vec, 0)
		}
	}
	for _, c := range domain.KnownCategories {
		if strings.EqualFold(doc.Category, c) {
			vec = append(vec, 1)
		} else {
			vec = append(vec, 0)
		}
	}
	vec = append(vec, clamp01(float64(doc.Metadata.WordCount)/wordCountNorm))
	normalizeDense(vec)
	return vec
}

func structureVector(doc *domain.Document) []float64 {
	vec := []float64{
		boolDim(doc.Metadata.HasTables),
		boolDim(doc.Metadata.HasImages),
		boolDim(doc.Metadata.HasLinks),
		clamp01(float64(doc.Metadata.PageCount) / pageCountNorm),
		clamp01(float64(doc.Metadata.HeadingCount) / headingCountNorm),
	}
	normalizeDense(vec)
	return vec
}

func tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 64)
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		token := b.String()
		b.Reset()
		if len(token) < minTokenLength {
			return
		}
		if _, stop := stopWords[token]; stop {
			return
		}
		out = append(out, token)
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return out
}

func normalizeSparse(vec map[string]float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for k, v := range vec {
		vec[k] = v / norm
	}
}

func normalizeDense(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i, v := range vec {
		vec[i] = v / norm
	}
}

func boolDim(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func sumAbs(vec []float64) float64 {
	var sum float64
	for _, v := range vec {
		sum += math.Abs(v)
	}
	return sum
}
