package recognition

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chai2010/tiff"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

// ExtractTextFromMultiPage rasterizes a multi-page document (PDF or
// multi-page TIFF) into per-page images and recognizes each page
// independently, reusing the pool sequentially. A page-level failure is
// logged and that page is omitted; temporary page images are always removed.
func (p *Pool) ExtractTextFromMultiPage(ctx context.Context, path string, opts domain.RecognitionOptions) ([]*domain.RecognitionResult, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return p.extractFromPDF(ctx, path, opts)
	case ".tif", ".tiff":
		return p.extractFromTIFF(ctx, path, opts)
	default:
		// Single-frame formats degrade to one-page extraction.
		result, err := p.ExtractText(ctx, path, opts)
		if err != nil {
			return nil, err
		}
		result.Page = 1
		return []*domain.RecognitionResult{result}, nil
	}
}

func (p *Pool) extractFromPDF(ctx context.Context, path string, opts domain.RecognitionOptions) ([]*domain.RecognitionResult, error) {
	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("count pdf pages: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "docforge-pages-*")
	if err != nil {
		return nil, fmt.Errorf("create page dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	if err := api.ExtractImagesFile(path, tempDir, nil, nil); err != nil {
		return nil, fmt.Errorf("extract page images: %w", err)
	}

	pages, err := listImageFiles(tempDir)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdf %s: no rasterized page content (%d pages)", filepath.Base(path), pageCount)
	}
	return p.recognizePages(ctx, pages, opts), nil
}

func (p *Pool) extractFromTIFF(ctx context.Context, path string, opts domain.RecognitionOptions) ([]*domain.RecognitionResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tiff: %w", err)
	}
	defer f.Close()

	frames, _, err := tiff.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("decode multi-page tiff: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "docforge-pages-*")
	if err != nil {
		return nil, fmt.Errorf("create page dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	var pages []string
	for i, frame := range frames {
		if len(frame) == 0 {
			continue
		}
		pagePath := filepath.Join(tempDir, fmt.Sprintf("page-%04d.png", i+1))
		out, err := os.Create(pagePath)
		if err != nil {
			return nil, fmt.Errorf("create page image: %w", err)
		}
		if err := png.Encode(out, frame[0]); err != nil {
			out.Close()
			return nil, fmt.Errorf("encode page image: %w", err)
		}
		if err := out.Close(); err != nil {
			return nil, fmt.Errorf("close page image: %w", err)
		}
		pages = append(pages, pagePath)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("tiff %s: no decodable frames", filepath.Base(path))
	}
	return p.recognizePages(ctx, pages, opts), nil
}

// recognizePages runs pages sequentially through the pool. Failed pages are
// omitted from the result, not fatal.
func (p *Pool) recognizePages(ctx context.Context, pages []string, opts domain.RecognitionOptions) []*domain.RecognitionResult {
	results := make([]*domain.RecognitionResult, 0, len(pages))
	for i, pagePath := range pages {
		result, err := p.ExtractText(ctx, pagePath, opts)
		if err != nil {
			p.logger.Warn("page recognition failed", "page", i+1, "path", pagePath, "error", err)
			continue
		}
		result.Page = i + 1
		results = append(results, result)
	}
	return results
}

func listImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list page images: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
