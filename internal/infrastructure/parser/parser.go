// Package parser provides format-specific text and structure extraction for
// the parsing stage. Each format handler fills a domain.ParseResult; the
// dispatcher picks the handler from the detected document type.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

type Parser struct{}

func New() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(ctx context.Context, path string, docType domain.DocumentType) (*domain.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch docType {
	case domain.TypePDF:
		return parsePDF(path)
	case domain.TypeSpreadsheet:
		if strings.EqualFold(filepath.Ext(path), ".csv") {
			return parseCSV(path)
		}
		return parseSpreadsheet(path)
	case domain.TypeText:
		if isHTML(path) {
			return parseHTML(path)
		}
		return parsePlaintext(path)
	case domain.TypeImage, domain.TypeWord:
		// No text layer to parse; structural metadata only.
		return &domain.ParseResult{Metadata: domain.DocumentMetadata{PageCount: 1, HasImages: docType == domain.TypeImage}}, nil
	default:
		return nil, fmt.Errorf("unsupported document type %q", docType)
	}
}

// DetectType maps a filename extension to the document type taxonomy.
func (p *Parser) DetectType(filename string) domain.DocumentType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return domain.TypePDF
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp":
		return domain.TypeImage
	case ".doc", ".docx":
		return domain.TypeWord
	case ".xls", ".xlsx", ".csv":
		return domain.TypeSpreadsheet
	default:
		return domain.TypeText
	}
}

func isHTML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// fillWordCount derives word count from text when the format handler did not
// set one.
func fillWordCount(result *domain.ParseResult) {
	if result.Metadata.WordCount == 0 && result.Text != "" {
		result.Metadata.WordCount = len(strings.Fields(result.Text))
	}
}
