package localfs

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "storage"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	if err := store.Save(ctx, "doc-1_report.pdf", strings.NewReader("payload")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rc, err := store.Open(ctx, "doc-1_report.pdf")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestPathResolvesUnderBase(t *testing.T) {
	base := filepath.Join(t.TempDir(), "storage")
	store, err := New(base)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	want := filepath.Join(base, "key.bin")
	if got := store.Path("key.bin"); got != want {
		t.Fatalf("Path = %q, want %q", got, want)
	}
}

func TestOpenMissingKey(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := store.Open(context.Background(), "absent"); err == nil {
		t.Fatal("expected error for missing key")
	}
}
