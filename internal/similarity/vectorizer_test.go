package similarity

import (
	"math"
	"testing"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

func sampleDoc() *domain.Document {
	return &domain.Document{
		ID:            "doc-1",
		Type:          domain.TypePDF,
		Category:      "report",
		SizeBytes:     2 * 1024 * 1024,
		ExtractedText: "quarterly revenue report with quarterly revenue figures",
		Metadata: domain.DocumentMetadata{
			PageCount:    12,
			WordCount:    4200,
			HeadingCount: 8,
			HasTables:    true,
			HasLinks:     true,
		},
	}
}

func TestVectorizeDimensions(t *testing.T) {
	vec := Vectorize(sampleDoc())

	if len(vec.Metadata) != 11 {
		t.Fatalf("expected 11 metadata dimensions, got %d", len(vec.Metadata))
	}
	if len(vec.Structure) != 5 {
		t.Fatalf("expected 5 structure dimensions, got %d", len(vec.Structure))
	}
	if len(vec.Text) == 0 {
		t.Fatal("expected non-empty text vector")
	}
}

func TestVectorsAreUnitLength(t *testing.T) {
	vec := Vectorize(sampleDoc())

	var textNorm float64
	for _, v := range vec.Text {
		textNorm += v * v
	}
	if math.Abs(math.Sqrt(textNorm)-1) > 1e-9 {
		t.Fatalf("text vector not unit length: %f", math.Sqrt(textNorm))
	}

	for name, dense := range map[string][]float64{"metadata": vec.Metadata, "structure": vec.Structure} {
		var norm float64
		for _, v := range dense {
			norm += v * v
		}
		if math.Abs(math.Sqrt(norm)-1) > 1e-9 {
			t.Fatalf("%s vector not unit length: %f", name, math.Sqrt(norm))
		}
	}
}

func TestTokenizeFiltersShortAndStopWords(t *testing.T) {
	tokens := tokenize("The cat and THE dog went to the market, obviously!")
	for _, tok := range tokens {
		if len(tok) < minTokenLength {
			t.Fatalf("token %q shorter than %d", tok, minTokenLength)
		}
		if _, stop := stopWords[tok]; stop {
			t.Fatalf("stop word %q survived tokenization", tok)
		}
	}
	want := map[string]bool{"cat": true, "dog": true, "went": true, "market": true, "obviously": true}
	for _, tok := range tokens {
		if !want[tok] {
			t.Fatalf("unexpected token %q", tok)
		}
	}
}

func TestTextVectorEmptyForBlankText(t *testing.T) {
	if vec := textVector("   "); len(vec) != 0 {
		t.Fatalf("expected empty vector for blank text, got %d terms", len(vec))
	}
}

func TestMetadataVectorOneHotPlacement(t *testing.T) {
	doc := sampleDoc()
	vec := metadataVector(doc)

	// Layout: [size, 5 type dims, 4 category dims, word count].
	typeStart := 1
	for i, dt := range domain.KnownDocumentTypes {
		dim := vec[typeStart+i]
		if dt == doc.Type && dim == 0 {
			t.Fatalf("expected hot dimension for type %s", dt)
		}
		if dt != doc.Type && dim != 0 {
			t.Fatalf("expected cold dimension for type %s, got %f", dt, dim)
		}
	}
	catStart := typeStart + len(domain.KnownDocumentTypes)
	for i, cat := range domain.KnownCategories {
		dim := vec[catStart+i]
		if cat == doc.Category && dim == 0 {
			t.Fatalf("expected hot dimension for category %s", cat)
		}
		if cat != doc.Category && dim != 0 {
			t.Fatalf("expected cold dimension for category %s, got %f", cat, dim)
		}
	}
}

func TestStructureVectorBooleans(t *testing.T) {
	doc := sampleDoc()
	doc.Metadata.HasImages = false
	vec := structureVector(doc)

	if vec[0] == 0 {
		t.Fatal("expected tables dimension set")
	}
	if vec[1] != 0 {
		t.Fatal("expected images dimension unset")
	}
	if vec[2] == 0 {
		t.Fatal("expected links dimension set")
	}
}

func TestEmptyVectorDetection(t *testing.T) {
	bare := Vectorize(&domain.Document{ID: "bare"})
	if !bare.empty() {
		t.Fatal("document with no text, type, category or counters must vectorize empty")
	}

	if Vectorize(sampleDoc()).empty() {
		t.Fatal("populated document must not vectorize empty")
	}
}

func TestScalarDimensionsClamped(t *testing.T) {
	doc := sampleDoc()
	doc.SizeBytes = 1 << 40
	doc.Metadata.WordCount = 10_000_000
	doc.Metadata.PageCount = 100_000

	meta := metadataVector(doc)
	structure := structureVector(doc)
	for _, v := range append(append([]float64{}, meta...), structure...) {
		if v < 0 || v > 1 {
			t.Fatalf("dimension out of [0,1]: %f", v)
		}
	}
}
