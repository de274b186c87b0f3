package recognition

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

// Engine is one stateful text-recognition instance. Implementations are not
// safe for concurrent use; the pool serializes access.
type Engine interface {
	Recognize(ctx context.Context, imagePath string, opts domain.RecognitionOptions) (*domain.RecognitionResult, error)
	Close() error
}

// EngineFactory builds one engine pre-loaded with a fixed language set.
type EngineFactory func(languages []string) (Engine, error)

// tesseractEngine wraps a long-lived gosseract client.
type tesseractEngine struct {
	client    *gosseract.Client
	languages []string
}

// NewTesseractEngine constructs a gosseract-backed engine with the given
// languages loaded eagerly.
func NewTesseractEngine(languages []string) (Engine, error) {
	client := gosseract.NewClient()
	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("load languages %v: %w", languages, err)
		}
	}
	return &tesseractEngine{client: client, languages: languages}, nil
}

func (e *tesseractEngine) Recognize(ctx context.Context, imagePath string, opts domain.RecognitionOptions) (*domain.RecognitionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	started := time.Now()

	if err := e.client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("set image %s: %w", imagePath, err)
	}
	if opts.DPI > 0 {
		if err := e.client.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(opts.DPI)); err != nil {
			return nil, fmt.Errorf("set dpi: %w", err)
		}
	}

	text, err := e.client.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	words, confidence := e.words()
	result := &domain.RecognitionResult{
		Text:             strings.TrimSpace(text),
		Confidence:       confidence,
		Words:            words,
		Lines:            e.lines(),
		Paragraphs:       e.paragraphs(),
		Language:         firstLanguage(e.languages),
		ProcessingTimeMS: time.Since(started).Milliseconds(),
	}
	return result, nil
}

func (e *tesseractEngine) words() ([]domain.RecognizedWord, float64) {
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil, 0
	}
	words := make([]domain.RecognizedWord, 0, len(boxes))
	var sum float64
	for _, b := range boxes {
		conf := b.Confidence / 100.0
		sum += conf
		words = append(words, domain.RecognizedWord{
			Text:       b.Word,
			Confidence: conf,
			X:          b.Box.Min.X,
			Y:          b.Box.Min.Y,
			Width:      b.Box.Dx(),
			Height:     b.Box.Dy(),
		})
	}
	return words, sum / float64(len(words))
}

func (e *tesseractEngine) lines() []domain.RecognizedLine {
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil
	}
	lines := make([]domain.RecognizedLine, 0, len(boxes))
	for _, b := range boxes {
		lines = append(lines, domain.RecognizedLine{
			Text:       strings.TrimSpace(b.Word),
			Confidence: b.Confidence / 100.0,
		})
	}
	return lines
}

func (e *tesseractEngine) paragraphs() []domain.RecognizedParagraph {
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_PARA)
	if err != nil {
		return nil
	}
	paragraphs := make([]domain.RecognizedParagraph, 0, len(boxes))
	for _, b := range boxes {
		paragraphs = append(paragraphs, domain.RecognizedParagraph{
			Text:       strings.TrimSpace(b.Word),
			Confidence: b.Confidence / 100.0,
		})
	}
	return paragraphs
}

func (e *tesseractEngine) Close() error {
	return e.client.Close()
}

func firstLanguage(languages []string) string {
	if len(languages) == 0 {
		return ""
	}
	return languages[0]
}
