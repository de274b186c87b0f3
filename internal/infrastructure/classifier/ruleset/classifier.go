// Package ruleset implements keyword-table document classification.
package ruleset

import (
	"context"
	"sort"
	"strings"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

const fallbackCategory = "correspondence"

// categoryKeywords maps each category to its trigger terms. Scores are
// occurrence counts; the densest category wins.
var categoryKeywords = map[string][]string{
	"report":   {"report", "summary", "analysis", "quarterly", "annual", "findings", "overview", "review"},
	"invoice":  {"invoice", "amount", "total", "payment", "due", "billed", "vat", "subtotal", "remit"},
	"contract": {"agreement", "contract", "party", "parties", "hereby", "terms", "clause", "witness", "executed"},
	"correspondence": {
		"dear", "regards", "sincerely", "hello", "thank", "letter", "request",
	},
}

type Classifier struct{}

func New() *Classifier {
	return &Classifier{}
}

func (c *Classifier) Classify(ctx context.Context, documentID, text string) (*domain.Classification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "classify", errEmptyText(documentID))
	}

	lowered := strings.ToLower(text)
	words := len(strings.Fields(lowered))

	scores := make(map[string]int, len(categoryKeywords))
	for category, keywords := range categoryKeywords {
		for _, kw := range keywords {
			scores[category] += strings.Count(lowered, kw)
		}
	}

	best := fallbackCategory
	bestScore := 0
	categories := make([]string, 0, len(scores))
	for category := range scores {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		if scores[category] > bestScore {
			best = category
			bestScore = scores[category]
		}
	}

	confidence := 0.25
	if words > 0 && bestScore > 0 {
		confidence = float64(bestScore) / float64(words) * 10
		if confidence > 0.99 {
			confidence = 0.99
		}
		if confidence < 0.3 {
			confidence = 0.3
		}
	}

	var tags []string
	for _, kw := range categoryKeywords[best] {
		if strings.Contains(lowered, kw) {
			tags = append(tags, kw)
		}
	}

	return &domain.Classification{
		Category:   best,
		Confidence: confidence,
		Tags:       tags,
	}, nil
}

type errEmptyText string

func (e errEmptyText) Error() string {
	return "empty text for document " + string(e)
}
