package parser

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

func parsePDF(path string) (*domain.ParseResult, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	pageCount := reader.NumPage()
	var sb strings.Builder
	hasImages := false
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A page without a text layer is common in scanned PDFs.
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
		if resourceHasImages(page) {
			hasImages = true
		}
	}

	result := &domain.ParseResult{
		Text: strings.TrimSpace(sb.String()),
		Metadata: domain.DocumentMetadata{
			PageCount: pageCount,
			HasImages: hasImages,
		},
	}
	fillWordCount(result)
	return result, nil
}

func resourceHasImages(page pdf.Page) bool {
	resources := page.V.Key("Resources")
	if resources.IsNull() {
		return false
	}
	xobjects := resources.Key("XObject")
	if xobjects.IsNull() {
		return false
	}
	for _, name := range xobjects.Keys() {
		if xobjects.Key(name).Key("Subtype").Name() == "Image" {
			return true
		}
	}
	return false
}
