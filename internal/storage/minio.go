package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docforge/internal/config"
	"docforge/internal/logger"
)

// minioBackend implements Backend against an S3-compatible object store
// (MinIO, AWS S3, etc.). It is safe for concurrent use by multiple
// goroutines.
type minioBackend struct {
	client *minio.Client
	bucket string
	log    *logger.Logger
}

// NewMinIO creates a new S3-compatible storage backend.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func NewMinIO(cfg config.MinIOConfig, log *logger.Logger) (Backend, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ensure bucket exists.
	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &minioBackend{client: cli, bucket: cfg.Bucket, log: log}, nil
}

// validateKey enforces the traversal invariant for object keys before any
// request is issued. Object stores treat keys as opaque, but a key that
// normalizes outside the bucket root must never be accepted.
func validateKey(path string) error {
	if path == "" || strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return nil
}

func (m *minioBackend) Upload(ctx context.Context, path string, content []byte, metadata map[string]string) (UploadInfo, error) {
	if err := validateKey(path); err != nil {
		return UploadInfo{}, err
	}
	_, err := m.client.PutObject(ctx, m.bucket, path, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		UserMetadata: metadata,
	})
	if err != nil {
		return UploadInfo{}, fmt.Errorf("put object: %w", err)
	}
	return UploadInfo{
		Path:       path,
		Size:       int64(len(content)),
		Hash:       Hash(content),
		UploadedAt: time.Now().UTC(),
	}, nil
}

func (m *minioBackend) Download(ctx context.Context, path string) ([]byte, error) {
	if err := validateKey(path); err != nil {
		return nil, err
	}
	obj, err := m.client.GetObject(ctx, m.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer obj.Close()

	content, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read object: %w", err)
	}
	return content, nil
}

func (m *minioBackend) Delete(ctx context.Context, path string) (bool, error) {
	if err := validateKey(path); err != nil {
		return false, err
	}
	// RemoveObject succeeds on missing keys, so probe first to keep the
	// "false when absent" contract.
	exists, err := m.Exists(ctx, path)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	if err := m.client.RemoveObject(ctx, m.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return false, fmt.Errorf("remove object: %w", err)
	}
	return true, nil
}

func (m *minioBackend) Exists(ctx context.Context, path string) (bool, error) {
	if err := validateKey(path); err != nil {
		return false, err
	}
	_, err := m.client.StatObject(ctx, m.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat object: %w", err)
	}
	return true, nil
}

func (m *minioBackend) List(ctx context.Context, prefix string, tags map[string]string) ([]FileInfo, error) {
	if prefix != "" {
		if err := validateKey(prefix); err != nil {
			return nil, err
		}
	}
	files := make([]FileInfo, 0)
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		if len(tags) > 0 {
			match, err := m.tagsMatch(ctx, obj.Key, tags)
			if err != nil {
				return nil, err
			}
			if !match {
				continue
			}
		}
		files = append(files, FileInfo{
			Path:       obj.Key,
			Size:       obj.Size,
			ModifiedAt: obj.LastModified.UTC(),
		})
	}
	return files, nil
}

func (m *minioBackend) tagsMatch(ctx context.Context, key string, want map[string]string) (bool, error) {
	got, err := m.client.GetObjectTagging(ctx, m.bucket, key, minio.GetObjectTaggingOptions{})
	if err != nil {
		return false, fmt.Errorf("get object tags: %w", err)
	}
	objTags := got.ToMap()
	for k, v := range want {
		if objTags[k] != v {
			return false, nil
		}
	}
	return true, nil
}

// SetReadonly is best-effort on object stores: S3 has no per-object write
// protection short of object locking, which requires a lock-enabled
// bucket. The call verifies the object exists and reports success without
// changing the medium.
func (m *minioBackend) SetReadonly(ctx context.Context, path string, readonly bool) (bool, error) {
	exists, err := m.Exists(ctx, path)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	m.log.Debug("object store readonly toggle is best-effort", "path", path, "readonly", readonly)
	return true, nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}
