package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStoreUpload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://files.local/")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	url, err := store.Upload(context.Background(), []byte("artifact"), "deck.pptx", "")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(url, "http://files.local/") || !strings.HasSuffix(url, ".pptx") {
		t.Fatalf("unexpected url %q", url)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 artifact on disk, got %d", len(entries))
	}
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "artifact" {
		t.Fatalf("artifact content mismatch: %q", data)
	}
}

func TestLocalStorePathWithoutBaseURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	path, err := store.Upload(context.Background(), []byte("x"), "", "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(path, dir) || !strings.HasSuffix(path, ".png") {
		t.Fatalf("expected local path with mime extension, got %q", path)
	}
}

func TestExtensionFor(t *testing.T) {
	cases := []struct {
		name     string
		mimeType string
		want     string
	}{
		{"deck.PPTX", "", ".pptx"},
		{"", "image/png", ".png"},
		{"", "image/jpeg", ".jpg"},
		{"", "application/json", ".json"},
		{"", "application/octet-stream", ".bin"},
	}
	for _, tc := range cases {
		if got := extensionFor(tc.name, tc.mimeType); got != tc.want {
			t.Fatalf("extensionFor(%q, %q) = %q, want %q", tc.name, tc.mimeType, got, tc.want)
		}
	}
}
