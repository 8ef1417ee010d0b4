// Package storage persists raw and processed receipt images.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/common"
)

// FileStore is a flat key/value store for image bytes. Keys use forward slashes.
type FileStore interface {
	// Put writes the object and returns its public URL.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	// Open returns NotFoundError when the key does not exist.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Remove is idempotent: a missing key is not an error.
	Remove(ctx context.Context, key string) error
	URL(key string) string
}

const processedName = "processed.png"

// RawKey is receipts/<id>/raw<ext>.
func RawKey(id uuid.UUID, ext string) string {
	ext = constants.NormalizeExt(ext)
	if ext == "" {
		return path.Join("receipts", id.String(), "raw")
	}
	return path.Join("receipts", id.String(), "raw."+ext)
}

// ProcessedKey is receipts/<id>/processed.png.
func ProcessedKey(id uuid.UUID) string {
	return path.Join("receipts", id.String(), processedName)
}

// New builds the backend named by cfg.Backend.
func New(ctx context.Context, cfg common.StorageConfig, logger *slog.Logger) (FileStore, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStore(cfg.RootDir, cfg.PublicBaseURL, logger)
	case "s3":
		return NewS3Store(ctx, S3Config{
			Bucket:        cfg.Bucket,
			Region:        cfg.Region,
			Endpoint:      cfg.Endpoint,
			AccessKey:     cfg.AccessKey,
			SecretKey:     cfg.SecretKey,
			PublicBaseURL: cfg.PublicBaseURL,
		}, logger)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// PutFile uploads a local file under key.
func PutFile(ctx context.Context, fs FileStore, key, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()
	return fs.Put(ctx, key, f, constants.ContentTypeForExt(filepath.Ext(localPath)))
}

// Download copies key into a temp file (keeping its extension, which OCR
// relies on) and returns the path plus a cleanup func.
func Download(ctx context.Context, fs FileStore, key, tmpDir string) (string, func(), error) {
	rc, err := fs.Open(ctx, key)
	if err != nil {
		return "", nil, err
	}
	defer rc.Close()

	if tmpDir != "" {
		if err := os.MkdirAll(tmpDir, 0o755); err != nil {
			return "", nil, fmt.Errorf("mkdir %s: %w", tmpDir, err)
		}
	}
	f, err := os.CreateTemp(tmpDir, "receipt-*"+path.Ext(key))
	if err != nil {
		return "", nil, fmt.Errorf("create temp: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	if _, err := io.Copy(f, rc); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("download %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return f.Name(), cleanup, nil
}

func validKey(key string) error {
	clean := path.Clean(key)
	if key == "" || clean != key || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, "..") {
		return common.NewValidationError("key", fmt.Sprintf("invalid storage key %q", key))
	}
	return nil
}
