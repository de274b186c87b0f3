package parser

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

func parsePlaintext(path string) (*domain.ParseResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text file: %w", err)
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("file is not valid utf-8 text")
	}

	text := strings.TrimSpace(string(raw))
	headings := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			headings++
		}
	}

	result := &domain.ParseResult{
		Text: text,
		Metadata: domain.DocumentMetadata{
			PageCount:    1,
			HeadingCount: headings,
		},
	}
	fillWordCount(result)
	return result, nil
}
