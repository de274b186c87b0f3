// Package httpapi adapts an external translation service. Calls are rate
// limited and run through the shared resilience executor; a failed language
// is reported in its result entry so the remaining languages still run.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/antonkudrin/docforge/internal/core/domain"
	"github.com/antonkudrin/docforge/internal/infrastructure/resilience"
)

type Translator struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
	limiter    *rate.Limiter
	logger     *slog.Logger
}

func New(baseURL string, executor *resilience.Executor, requestsPerSecond float64, burst int, logger *slog.Logger) *Translator {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	if burst <= 0 {
		burst = 1
	}
	return &Translator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		logger:     logger,
	}
}

func (t *Translator) TranslateToMany(ctx context.Context, documentID, text string, targetLangs []string) ([]domain.TranslationResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "translator.TranslateToMany", fmt.Errorf("empty source text"))
	}

	results := make([]domain.TranslationResult, 0, len(targetLangs))
	for _, lang := range targetLangs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		translated, err := t.translateOne(ctx, text, lang)
		if err != nil {
			t.logger.Warn("translation_failed",
				"document_id", documentID,
				"language", lang,
				"error", err,
			)
			results = append(results, domain.TranslationResult{
				Language: lang,
				Error:    err.Error(),
			})
			continue
		}
		results = append(results, domain.TranslationResult{
			Language:       lang,
			TranslatedText: translated,
		})
	}
	return results, nil
}

func (t *Translator) translateOne(ctx context.Context, text, lang string) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var translated string
	err := t.executor.Execute(ctx, "translate", func(ctx context.Context) error {
		out, err := t.postTranslate(ctx, text, lang)
		if err != nil {
			return err
		}
		translated = out
		return nil
	}, classifyTranslateError)
	if err != nil {
		return "", wrapTemporaryIfNeeded("translator.translateOne", err)
	}
	return translated, nil
}

func (t *Translator) postTranslate(ctx context.Context, text, lang string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"text":   text,
		"target": lang,
	})
	if err != nil {
		return "", fmt.Errorf("marshal translate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &HTTPStatusError{
			Operation:  "translate",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}

	var response struct {
		TranslatedText string `json:"translated_text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode translate response: %w", err)
	}
	return strings.TrimSpace(response.TranslatedText), nil
}
