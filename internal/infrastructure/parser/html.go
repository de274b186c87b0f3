package parser

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

func parseHTML(path string) (*domain.ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open html: %w", err)
	}
	defer f.Close()

	root, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var sb strings.Builder
	meta := domain.DocumentMetadata{PageCount: 1}
	walkHTML(root, &sb, &meta)

	result := &domain.ParseResult{
		Text:     strings.Join(strings.Fields(sb.String()), " "),
		Metadata: meta,
	}
	fillWordCount(result)
	return result, nil
}

func walkHTML(node *html.Node, sb *strings.Builder, meta *domain.DocumentMetadata) {
	switch node.Type {
	case html.ElementNode:
		switch node.Data {
		case "script", "style":
			return
		case "table":
			meta.HasTables = true
		case "img":
			meta.HasImages = true
		case "a":
			meta.HasLinks = true
		case "h1", "h2", "h3", "h4", "h5", "h6":
			meta.HeadingCount++
		case "title":
			if node.FirstChild != nil && meta.Title == "" {
				meta.Title = strings.TrimSpace(node.FirstChild.Data)
			}
		}
	case html.TextNode:
		sb.WriteString(node.Data)
		sb.WriteString(" ")
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		walkHTML(child, sb, meta)
	}
}
