package blobstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"imageforge/internal/domain"
)

// FileStore persists artifacts on the local filesystem and hands out signed
// URLs served from a static file route. It stands in for an object storage
// service in development and test environments.
type FileStore struct {
	basePath string
	signer   *URLSigner
}

// NewFileStore initializes a FileStore rooted at basePath.
func NewFileStore(basePath string, signer *URLSigner) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("blobstore: base path is required")
	}
	if signer == nil {
		return nil, errors.New("blobstore: url signer is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath, signer: signer}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	return s.basePath
}

// Put writes the blob and returns its locator plus a signed access URL. Keys
// are cleaned to prevent directory traversal.
func (s *FileStore) Put(ctx context.Context, key string, data []byte, contentType string) (PutResult, error) {
	if err := ctx.Err(); err != nil {
		return PutResult{}, err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return PutResult{}, err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return PutResult{}, fmt.Errorf("%w: ensure directory: %v", domain.ErrStorage, err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return PutResult{}, fmt.Errorf("%w: write file: %v", domain.ErrStorage, err)
	}
	return PutResult{
		URI: "file://" + fullPath,
		URL: s.signer.Sign(cleanKey),
	}, nil
}

// Exists reports whether an artifact is present at key.
func (s *FileStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(filepath.Join(s.basePath, filepath.FromSlash(cleanKey)))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: stat: %v", domain.ErrStorage, err)
	}
	return !info.IsDir(), nil
}

// RefreshURL issues a fresh signed URL for an existing artifact.
func (s *FileStore) RefreshURL(ctx context.Context, key string) (string, error) {
	ok, err := s.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: artifact %s", domain.ErrNotFound, key)
	}
	cleanKey, _ := sanitizeKey(key)
	return s.signer.Sign(cleanKey), nil
}

// URLValid reports whether url carries a valid, unexpired signature.
func (s *FileStore) URLValid(url string) bool {
	return s.signer.Valid(url)
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("blobstore: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("blobstore: invalid key")
	}
	return cleaned, nil
}

var _ Store = (*FileStore)(nil)
