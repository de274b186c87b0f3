package ruleset

import (
	"context"
	"testing"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

func TestClassifyPicksDensestCategory(t *testing.T) {
	c := New()

	cases := map[string]string{
		"invoice": "Invoice 2026-113. Total amount due: $4,200. Payment due within 30 days. Subtotal before VAT.",
		"report":  "Quarterly report with revenue analysis. Summary of findings and annual overview attached.",
		"contract": "This agreement is entered into by the parties. The contract terms and each clause " +
			"are hereby executed in witness whereof.",
		"correspondence": "Dear Ms. Novak, thank you for your letter. Kind regards, sincerely yours.",
	}
	for want, text := range cases {
		cls, err := c.Classify(context.Background(), "doc-1", text)
		if err != nil {
			t.Fatalf("Classify(%s): %v", want, err)
		}
		if cls.Category != want {
			t.Errorf("expected category %s, got %s", want, cls.Category)
		}
		if cls.Confidence < 0.25 || cls.Confidence > 0.99 {
			t.Errorf("%s: confidence out of range: %f", want, cls.Confidence)
		}
		if len(cls.Tags) == 0 {
			t.Errorf("%s: expected matched keywords as tags", want)
		}
	}
}

func TestClassifyEmptyTextRejected(t *testing.T) {
	c := New()
	_, err := c.Classify(context.Background(), "doc-1", "   \n\t ")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestClassifyNoKeywordsFallsBack(t *testing.T) {
	c := New()
	cls, err := c.Classify(context.Background(), "doc-1", "zebra xylophone quantum flux capacitor")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cls.Category != fallbackCategory {
		t.Fatalf("expected fallback category %s, got %s", fallbackCategory, cls.Category)
	}
	if cls.Confidence != 0.25 {
		t.Fatalf("expected floor confidence 0.25, got %f", cls.Confidence)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := New()
	const text = "report analysis of the invoice payment terms in the agreement"
	first, err := c.Classify(context.Background(), "doc-1", text)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	for i := 0; i < 10; i++ {
		next, err := c.Classify(context.Background(), "doc-1", text)
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if next.Category != first.Category {
			t.Fatalf("tie-break not deterministic: %s vs %s", next.Category, first.Category)
		}
	}
}
