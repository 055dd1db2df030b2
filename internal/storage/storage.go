package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"docforge/internal/config"
	"docforge/internal/logger"
)

// Package storage contains the content storage abstraction used for
// template and document files. Implementations own raw path->bytes
// mappings only; they have no knowledge of domain entities.

var (
	// ErrNotFound is returned by Download when no object exists at the path.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidPath is returned before any I/O when a path would resolve
	// outside the backend root (directory traversal).
	ErrInvalidPath = errors.New("invalid storage path")
)

// UploadInfo describes a completed upload. Hash is the hex SHA-256 digest
// of the exact bytes written.
type UploadInfo struct {
	Path       string
	Size       int64
	Hash       string
	UploadedAt time.Time
}

// FileInfo describes one stored object in a listing.
type FileInfo struct {
	Path       string
	Size       int64
	ModifiedAt time.Time
}

// Backend is the uniform content storage contract, polymorphic over the
// chosen medium (local filesystem or S3-compatible object store).
type Backend interface {
	// Upload writes content under path, creating intermediate path
	// segments as needed, and returns the upload result including the
	// content digest.
	Upload(ctx context.Context, path string, content []byte, metadata map[string]string) (UploadInfo, error)
	// Download returns the object bytes, or ErrNotFound if absent.
	Download(ctx context.Context, path string) ([]byte, error)
	// Delete removes the object. It returns false (not an error) if the
	// target never existed.
	Delete(ctx context.Context, path string) (bool, error)
	// Exists reports whether an object is stored at path.
	Exists(ctx context.Context, path string) (bool, error)
	// List returns objects under the prefix, optionally filtered by tags.
	List(ctx context.Context, prefix string, tags map[string]string) ([]FileInfo, error)
	// SetReadonly toggles write protection at the medium's granularity.
	// Object stores without this primitive implement it best-effort.
	SetReadonly(ctx context.Context, path string, readonly bool) (bool, error)
}

// Hash computes the project-wide content digest (hex SHA-256) of content.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// New constructs the backend selected by cfg.Kind. Backend kinds are
// enumerated here explicitly; there is no registration mechanism.
func New(cfg config.StorageConfig, log *logger.Logger) (Backend, error) {
	switch cfg.Kind {
	case "local":
		return NewLocal(cfg.LocalRoot)
	case "minio":
		return NewMinIO(cfg.MinIO, log)
	default:
		return nil, fmt.Errorf("unknown storage kind: %q", cfg.Kind)
	}
}
