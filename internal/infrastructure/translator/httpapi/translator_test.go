package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/antonkudrin/docforge/internal/core/domain"
	"github.com/antonkudrin/docforge/internal/infrastructure/resilience"
)

func newTestTranslator(baseURL string) *Translator {
	cfg := resilience.DefaultConfig()
	cfg.BreakerEnabled = false
	cfg.RetryMaxAttempts = 1
	return New(baseURL, resilience.NewExecutor(cfg), 1000, 1000, slog.New(slog.DiscardHandler))
}

func TestTranslateToManyFansOutPerLanguage(t *testing.T) {
	var requested []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Text   string `json:"text"`
			Target string `json:"target"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		requested = append(requested, payload.Target)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"translated_text": "[" + payload.Target + "] " + payload.Text,
		})
	}))
	defer server.Close()

	tr := newTestTranslator(server.URL)
	results, err := tr.TranslateToMany(context.Background(), "doc-1", "hello world", []string{"de", "fr"})
	if err != nil {
		t.Fatalf("TranslateToMany: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, lang := range []string{"de", "fr"} {
		if results[i].Language != lang || results[i].Error != "" {
			t.Fatalf("unexpected result %d: %+v", i, results[i])
		}
		if !strings.HasPrefix(results[i].TranslatedText, "["+lang+"]") {
			t.Fatalf("unexpected translation: %q", results[i].TranslatedText)
		}
	}
	if len(requested) != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", len(requested))
	}
}

func TestTranslateToManyIsolatesLanguageFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Target string `json:"target"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload.Target == "de" {
			http.Error(w, "unsupported language", http.StatusUnprocessableEntity)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"translated_text": "ok"})
	}))
	defer server.Close()

	tr := newTestTranslator(server.URL)
	results, err := tr.TranslateToMany(context.Background(), "doc-1", "hello", []string{"de", "fr"})
	if err != nil {
		t.Fatalf("per-language failure must not fail the call: %v", err)
	}
	if results[0].Error == "" || !strings.Contains(results[0].Error, "unsupported language") {
		t.Fatalf("expected failure recorded on de result, got %+v", results[0])
	}
	if results[1].Error != "" || results[1].TranslatedText != "ok" {
		t.Fatalf("expected fr to succeed, got %+v", results[1])
	}
}

func TestTranslateToManyEmptyTextRejected(t *testing.T) {
	tr := newTestTranslator("http://unreachable.invalid")
	_, err := tr.TranslateToMany(context.Background(), "doc-1", "  ", []string{"de"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestTranslateRetriesRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"translated_text": "ok"})
	}))
	defer server.Close()

	cfg := resilience.DefaultConfig()
	cfg.BreakerEnabled = false
	cfg.RetryMaxAttempts = 2
	cfg.RetryInitialBackoff = 1
	tr := New(server.URL, resilience.NewExecutor(cfg), 1000, 1000, slog.New(slog.DiscardHandler))

	results, err := tr.TranslateToMany(context.Background(), "doc-1", "hello", []string{"de"})
	if err != nil {
		t.Fatalf("TranslateToMany: %v", err)
	}
	if results[0].Error != "" {
		t.Fatalf("expected retried success, got %+v", results[0])
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestClassifyTranslateError(t *testing.T) {
	retryable := classifyTranslateError(&HTTPStatusError{StatusCode: http.StatusServiceUnavailable})
	if !retryable.Retryable || !retryable.RecordFailure {
		t.Fatalf("503 must be retryable and recorded: %+v", retryable)
	}

	permanent := classifyTranslateError(&HTTPStatusError{StatusCode: http.StatusUnprocessableEntity})
	if permanent.Retryable || permanent.RecordFailure {
		t.Fatalf("422 must be permanent and unrecorded: %+v", permanent)
	}

	cancelled := classifyTranslateError(context.Canceled)
	if cancelled.Retryable || cancelled.RecordFailure {
		t.Fatalf("cancellation must not be retried or recorded: %+v", cancelled)
	}
}
