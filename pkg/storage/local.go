package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalStore persists objects on disk for development setups without an object store.
// Files are expected to be served by the HTTP router under publicBase.
type LocalStore struct {
	baseDir    string
	publicBase string
	logger     *zap.Logger
}

// NewLocalStore ensures the base directory exists and returns a handle.
func NewLocalStore(baseDir, publicBase string, logger *zap.Logger) (*LocalStore, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &LocalStore{baseDir: baseDir, publicBase: strings.TrimRight(publicBase, "/"), logger: logger}, nil
}

// Dir returns the directory holding stored files.
func (s *LocalStore) Dir() string {
	return s.baseDir
}

// Upload copies the body into a file named after a generated key.
func (s *LocalStore) Upload(_ context.Context, obj Object) (string, error) {
	key := NewKey(obj.Folder, obj.Filename)
	path := s.resolve(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare upload directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, obj.Body); err != nil {
		return "", fmt.Errorf("write upload stream: %w", err)
	}
	return key, nil
}

// Delete removes a stored file. Failures are logged and swallowed.
func (s *LocalStore) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}
	if err := os.Remove(s.resolve(key)); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to delete upload", zap.String("key", key), zap.Error(err))
	}
}

// URL resolves the public URL of a key.
func (s *LocalStore) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.publicBase + "/" + key
}

// KeyFromURL recovers the key from a URL built by URL.
func (s *LocalStore) KeyFromURL(raw string) string {
	if s.publicBase != "" && strings.HasPrefix(raw, s.publicBase+"/") {
		return strings.TrimPrefix(raw, s.publicBase+"/")
	}
	return keyFromURL(raw, "")
}

func (s *LocalStore) resolve(key string) string {
	clean := filepath.Clean("/" + key)
	return filepath.Join(s.baseDir, clean)
}
