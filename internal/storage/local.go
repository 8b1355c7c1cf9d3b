// Package storage persists generated artifacts (rebuilt decks, thumbnail
// images, extracted media) and hands back URLs clients can fetch.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store uploads one artifact and returns its public URL.
type Store interface {
	Upload(ctx context.Context, data []byte, name, mimeType string) (string, error)
}

// LocalStore writes artifacts under a base directory and serves them from
// a configured base URL.
type LocalStore struct {
	baseDir string
	baseURL string
}

func NewLocalStore(baseDir, baseURL string) (*LocalStore, error) {
	if baseDir == "" {
		baseDir = filepath.Join(os.TempDir(), "luna-artifacts")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %s: %w", baseDir, err)
	}
	return &LocalStore{
		baseDir: baseDir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (s *LocalStore) Upload(_ context.Context, data []byte, name, mimeType string) (string, error) {
	filename := uuid.NewString() + extensionFor(name, mimeType)
	path := filepath.Join(s.baseDir, filename)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", filename, err)
	}

	if s.baseURL == "" {
		return path, nil
	}
	return s.baseURL + "/" + filename, nil
}

func extensionFor(name, mimeType string) string {
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		return ext
	}
	switch strings.ToLower(mimeType) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/svg+xml":
		return ".svg"
	case "application/vnd.openxmlformats-officedocument.presentationml.presentation":
		return ".pptx"
	case "application/json":
		return ".json"
	default:
		return ".bin"
	}
}
