package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "LOG_LEVEL", "METRICS_PORT", "POSTGRES_DSN", "NATS_URL",
		"NATS_SUBJECT", "STORAGE_PATH", "OCR_POOL_SIZE", "OCR_LANGUAGES",
		"SIMILARITY_RELATED_THRESHOLD", "SIMILARITY_DUPLICATE_THRESHOLD",
		"CACHE_PURGE_INTERVAL_MINUTES", "TRANSLATOR_URL", "TRANSLATOR_RATE_LIMIT",
		"TRANSLATOR_BURST", "PROCESS_TIMEOUT_MINUTES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OCRPoolSize != 4 {
		t.Fatalf("expected default pool size 4, got %d", cfg.OCRPoolSize)
	}
	if cfg.SimilarityRelatedThreshold != 0.6 || cfg.SimilarityDuplicateThreshold != 0.95 {
		t.Fatalf("unexpected default thresholds: %f / %f",
			cfg.SimilarityRelatedThreshold, cfg.SimilarityDuplicateThreshold)
	}
	if cfg.NATSSubject != "documents.uploaded" {
		t.Fatalf("unexpected default subject %q", cfg.NATSSubject)
	}
	if len(cfg.OCRLanguages) != 5 {
		t.Fatalf("expected 5 default OCR languages, got %v", cfg.OCRLanguages)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OCR_POOL_SIZE", "8")
	t.Setenv("OCR_LANGUAGES", "eng,jpn")
	t.Setenv("SIMILARITY_RELATED_THRESHOLD", "0.7")
	t.Setenv("TRANSLATOR_BURST", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OCRPoolSize != 8 {
		t.Fatalf("expected pool size override 8, got %d", cfg.OCRPoolSize)
	}
	if len(cfg.OCRLanguages) != 2 || cfg.OCRLanguages[1] != "jpn" {
		t.Fatalf("expected language override, got %v", cfg.OCRLanguages)
	}
	if cfg.SimilarityRelatedThreshold != 0.7 {
		t.Fatalf("expected threshold override 0.7, got %f", cfg.SimilarityRelatedThreshold)
	}
	if cfg.TranslatorBurst != 3 {
		t.Fatalf("expected burst override 3, got %d", cfg.TranslatorBurst)
	}
}

func TestLoadYAMLFileWithEnvPrecedence(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := "ocr_pool_size: 2\nmetrics_port: \"9999\"\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("OCR_POOL_SIZE", "6")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MetricsPort != "9999" {
		t.Fatalf("expected yaml metrics port, got %q", cfg.MetricsPort)
	}
	if cfg.OCRPoolSize != 6 {
		t.Fatalf("environment must win over yaml, got %d", cfg.OCRPoolSize)
	}
}

func TestLoadInvalidIntFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("OCR_POOL_SIZE", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OCRPoolSize != 4 {
		t.Fatalf("expected fallback pool size 4, got %d", cfg.OCRPoolSize)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", "/nonexistent/config.yaml")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
