package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}

	id := uuid.New()
	path, err := s.Upload(ctx, id, "My Lease.pdf", "application/pdf", bytes.NewReader([]byte("%PDF-1.4")))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(path, id.String()[:2]+"/") || !strings.HasSuffix(path, "_My_Lease.pdf") {
		t.Fatalf("unexpected storage path %q", path)
	}

	rc, err := s.Download(ctx, path)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if string(got) != "%PDF-1.4" {
		t.Fatalf("unexpected content %q", got)
	}

	if err := s.Delete(ctx, path); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, path); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	if _, err := s.Download(ctx, path); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalStorageRejectsEscapingPath(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	if _, err := s.Download(context.Background(), "../../etc/passwd"); err == nil {
		t.Fatalf("expected error for path outside base directory")
	}
}

func TestDocumentPathSanitizes(t *testing.T) {
	id := uuid.MustParse("3f2b8c1e-0000-4000-8000-000000000000")
	got := documentPath(id, `..\evil/na:me?.DOCX`)
	want := "3f/3f2b8c1e-0000-4000-8000-000000000000_na_me_.docx"
	if got != want {
		t.Fatalf("documentPath = %q, want %q", got, want)
	}
}
