// Package content implements lexicon-based entity, keyword and sentiment
// extraction for the extraction stage.
package content

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	datePattern  = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}/\d{1,2}/\d{2,4}\b`)
	moneyPattern = regexp.MustCompile(`[$€£]\s?\d[\d,]*(?:\.\d{2})?`)
)

var positiveWords = map[string]struct{}{
	"good": {}, "great": {}, "excellent": {}, "positive": {}, "success": {},
	"approved": {}, "agree": {}, "benefit": {}, "improve": {}, "growth": {},
}

var negativeWords = map[string]struct{}{
	"bad": {}, "poor": {}, "negative": {}, "failure": {}, "rejected": {},
	"decline": {}, "loss": {}, "problem": {}, "issue": {}, "risk": {},
}

const (
	maxKeywords = 10
	maxTopics   = 5
)

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) ExtractContent(ctx context.Context, documentID, text string) (*domain.ExtractedContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entities := extractEntities(text)
	keywords := topKeywords(text, maxKeywords)

	topics := keywords
	if len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}

	return &domain.ExtractedContent{
		Entities:  entities,
		Keywords:  keywords,
		Sentiment: sentimentScore(text),
		Topics:    topics,
		Summary:   headSummary(text),
	}, nil
}

func extractEntities(text string) []domain.Entity {
	var entities []domain.Entity
	for _, m := range emailPattern.FindAllString(text, -1) {
		entities = append(entities, domain.Entity{Kind: "email", Value: m})
	}
	for _, m := range datePattern.FindAllString(text, -1) {
		entities = append(entities, domain.Entity{Kind: "date", Value: m})
	}
	for _, m := range moneyPattern.FindAllString(text, -1) {
		entities = append(entities, domain.Entity{Kind: "money", Value: m})
	}
	return entities
}

func topKeywords(text string, limit int) []string {
	counts := make(map[string]int)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?()[]{}\"'")
		if len(word) < 4 {
			continue
		}
		counts[word]++
	}

	type freq struct {
		word  string
		count int
	}
	ranked := make([]freq, 0, len(counts))
	for word, count := range counts {
		ranked = append(ranked, freq{word: word, count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]string, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.word)
	}
	return out
}

// sentimentScore is the signed lexicon balance normalized to [-1,1].
func sentimentScore(text string) float64 {
	var positive, negative int
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?")
		if _, ok := positiveWords[word]; ok {
			positive++
		}
		if _, ok := negativeWords[word]; ok {
			negative++
		}
	}
	total := positive + negative
	if total == 0 {
		return 0
	}
	return float64(positive-negative) / float64(total)
}

func headSummary(text string) string {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	var out []string
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, ". ") + "."
}
