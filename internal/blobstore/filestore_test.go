package blobstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"imageforge/internal/domain"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	signer := NewURLSigner("test-secret", "http://localhost:8080/static", time.Hour)
	store, err := NewFileStore(t.TempDir(), signer)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return store
}

func TestPutExistsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	res, err := store.Put(ctx, "generated/images/rec-1/cover.png", []byte("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasPrefix(res.URI, "file://") {
		t.Fatalf("URI missing file scheme: %s", res.URI)
	}
	if !store.URLValid(res.URL) {
		t.Fatalf("Put returned an invalid url: %s", res.URL)
	}

	ok, err := store.Exists(ctx, "generated/images/rec-1/cover.png")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !ok {
		t.Fatal("stored artifact should exist")
	}

	ok, err = store.Exists(ctx, "generated/images/rec-2/cover.png")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Fatal("missing artifact should not exist")
	}
}

func TestPutOverwritesDeterministicPath(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Put(ctx, "generated/images/rec-1/cover.png", []byte("first"), "image/png"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := store.Put(ctx, "generated/images/rec-1/cover.png", []byte("second"), "image/png"); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(store.BasePath(), "generated", "images", "rec-1", "cover.png"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "second" {
		t.Fatalf("retry did not overwrite: %q", data)
	}
}

func TestPutRejectsTraversal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"../outside.png", "", "   ", "a/../../outside.png"} {
		if _, err := store.Put(ctx, key, []byte("x"), "image/png"); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestRefreshURL(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Put(ctx, "generated/images/rec-1/cover.png", []byte("x"), "image/png"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	url, err := store.RefreshURL(ctx, "generated/images/rec-1/cover.png")
	if err != nil {
		t.Fatalf("RefreshURL: %v", err)
	}
	if !store.URLValid(url) {
		t.Fatalf("refreshed url should verify: %s", url)
	}

	_, err = store.RefreshURL(ctx, "generated/images/rec-9/cover.png")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing artifact, got %v", err)
	}
}
