package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

type storageFake struct {
	saved   map[string]string
	saveErr error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if f.saved == nil {
		f.saved = make(map[string]string)
	}
	f.saved[key] = string(raw)
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f.saved[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(strings.NewReader(raw)), nil
}

func (f *storageFake) Path(key string) string { return "/data/" + key }

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishDocumentUploaded(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *queueFake) SubscribeDocumentUploaded(context.Context, func(context.Context, string) error) error {
	return nil
}

type ingestRepoFake struct {
	created *domain.Document
	err     error
}

func (f *ingestRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.err != nil {
		return f.err
	}
	f.created = doc
	return nil
}

func (f *ingestRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	return f.created, nil
}

func (f *ingestRepoFake) Update(context.Context, string, domain.DocumentUpdate) error { return nil }

func (f *ingestRepoFake) FindCandidates(context.Context, *domain.Document, time.Time, int) ([]domain.Document, error) {
	return nil, nil
}

func TestUploadStoresAndPublishes(t *testing.T) {
	repo := &ingestRepoFake{}
	storage := &storageFake{}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(repo, storage, queue, &parserFake{})

	doc, err := uc.Upload(context.Background(), "owner-1", "Q1 report.pdf", "application/pdf", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if doc.ID == "" {
		t.Fatal("expected generated document id")
	}
	if doc.SizeBytes != int64(len("payload")) {
		t.Fatalf("expected size %d, got %d", len("payload"), doc.SizeBytes)
	}
	if doc.ContentHash == "" {
		t.Fatal("expected content hash")
	}
	if doc.Status != domain.StatusUploading {
		t.Fatalf("expected status uploading, got %s", doc.Status)
	}
	if !strings.HasPrefix(doc.StoragePath, "/data/"+doc.ID+"_") {
		t.Fatalf("unexpected storage path %q", doc.StoragePath)
	}
	if strings.Contains(doc.StoragePath, " ") {
		t.Fatalf("storage path must be sanitized, got %q", doc.StoragePath)
	}
	if repo.created == nil {
		t.Fatal("expected document persisted")
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("expected upload event for %s, got %v", doc.ID, queue.published)
	}
}

func TestUploadStorageFailure(t *testing.T) {
	uc := NewIngestDocumentUseCase(&ingestRepoFake{}, &storageFake{saveErr: errors.New("disk full")}, &queueFake{}, &parserFake{})

	_, err := uc.Upload(context.Background(), "owner-1", "a.txt", "text/plain", strings.NewReader("x"))
	if err == nil {
		t.Fatal("expected error when storage fails")
	}
}

func TestUploadPublishFailure(t *testing.T) {
	uc := NewIngestDocumentUseCase(&ingestRepoFake{}, &storageFake{}, &queueFake{err: errors.New("nats down")}, &parserFake{})

	_, err := uc.Upload(context.Background(), "owner-1", "a.txt", "text/plain", strings.NewReader("x"))
	if err == nil {
		t.Fatal("expected error when publish fails")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"Q1 report.pdf":     "Q1_report.pdf",
		"../../etc/passwd":  "passwd",
		"résumé (final).md": "r_sum___final_.md",
		"":                  "document.bin",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
