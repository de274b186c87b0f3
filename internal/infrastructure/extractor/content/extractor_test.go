package content

import (
	"context"
	"testing"
)

const sampleText = `Please contact finance@example.com before 2026-09-15.
The outstanding balance of $1,250.00 shows excellent growth and a positive
trend. Budget budget budget planning planning continues. Great success overall.`

func TestExtractContentEntities(t *testing.T) {
	e := New()
	got, err := e.ExtractContent(context.Background(), "doc-1", sampleText)
	if err != nil {
		t.Fatalf("ExtractContent: %v", err)
	}

	kinds := make(map[string][]string)
	for _, entity := range got.Entities {
		kinds[entity.Kind] = append(kinds[entity.Kind], entity.Value)
	}
	if len(kinds["email"]) != 1 || kinds["email"][0] != "finance@example.com" {
		t.Fatalf("expected email entity, got %v", kinds["email"])
	}
	if len(kinds["date"]) != 1 || kinds["date"][0] != "2026-09-15" {
		t.Fatalf("expected date entity, got %v", kinds["date"])
	}
	if len(kinds["money"]) != 1 {
		t.Fatalf("expected money entity, got %v", kinds["money"])
	}
}

func TestExtractContentKeywordsRankedByFrequency(t *testing.T) {
	e := New()
	got, err := e.ExtractContent(context.Background(), "doc-1", sampleText)
	if err != nil {
		t.Fatalf("ExtractContent: %v", err)
	}
	if len(got.Keywords) == 0 {
		t.Fatal("expected keywords")
	}
	if got.Keywords[0] != "budget" {
		t.Fatalf("expected most frequent keyword first, got %q", got.Keywords[0])
	}
	if len(got.Topics) > maxTopics {
		t.Fatalf("topics exceed cap: %d", len(got.Topics))
	}
}

func TestExtractContentSentiment(t *testing.T) {
	e := New()

	positive, err := e.ExtractContent(context.Background(), "doc-1", "great success and excellent growth improve results")
	if err != nil {
		t.Fatalf("ExtractContent: %v", err)
	}
	if positive.Sentiment <= 0 {
		t.Fatalf("expected positive sentiment, got %f", positive.Sentiment)
	}

	negative, err := e.ExtractContent(context.Background(), "doc-1", "bad failure with poor results and a rejected claim")
	if err != nil {
		t.Fatalf("ExtractContent: %v", err)
	}
	if negative.Sentiment >= 0 {
		t.Fatalf("expected negative sentiment, got %f", negative.Sentiment)
	}

	neutral, err := e.ExtractContent(context.Background(), "doc-1", "the quarterly meeting happens on tuesday")
	if err != nil {
		t.Fatalf("ExtractContent: %v", err)
	}
	if neutral.Sentiment != 0 {
		t.Fatalf("expected neutral sentiment, got %f", neutral.Sentiment)
	}
}

func TestExtractContentSummaryTakesLeadingSentences(t *testing.T) {
	e := New()
	got, err := e.ExtractContent(context.Background(), "doc-1", "First sentence here. Second sentence follows! Third is dropped?")
	if err != nil {
		t.Fatalf("ExtractContent: %v", err)
	}
	want := "First sentence here. Second sentence follows."
	if got.Summary != want {
		t.Fatalf("summary = %q, want %q", got.Summary, want)
	}
}

func TestExtractContentEmptyText(t *testing.T) {
	e := New()
	got, err := e.ExtractContent(context.Background(), "doc-1", "")
	if err != nil {
		t.Fatalf("ExtractContent: %v", err)
	}
	if len(got.Entities) != 0 || len(got.Keywords) != 0 || got.Summary != "" || got.Sentiment != 0 {
		t.Fatalf("expected empty extraction, got %+v", got)
	}
}
