package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// localBackend stores objects as files under a fixed root directory.
// It is safe for concurrent use; conflicting writes serialize at the
// filesystem layer.
type localBackend struct {
	root string
}

// NewLocal creates a filesystem backend rooted at root, creating the
// directory if needed.
func NewLocal(root string) (Backend, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &localBackend{root: abs}, nil
}

// resolve maps a storage path to an absolute filesystem path, rejecting
// any path that would escape the backend root. The check runs before any
// I/O.
func (b *localBackend) resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	full := filepath.Join(b.root, filepath.FromSlash(path))
	if full != b.root && !strings.HasPrefix(full, b.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	return full, nil
}

func (b *localBackend) Upload(ctx context.Context, path string, content []byte, metadata map[string]string) (UploadInfo, error) {
	full, err := b.resolve(path)
	if err != nil {
		return UploadInfo{}, err
	}
	if err := ctx.Err(); err != nil {
		return UploadInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return UploadInfo{}, fmt.Errorf("create parent dirs: %w", err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return UploadInfo{}, fmt.Errorf("write object: %w", err)
	}
	return UploadInfo{
		Path:       path,
		Size:       int64(len(content)),
		Hash:       Hash(content),
		UploadedAt: time.Now().UTC(),
	}, nil
}

func (b *localBackend) Download(ctx context.Context, path string) ([]byte, error) {
	full, err := b.resolve(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read object: %w", err)
	}
	return content, nil
}

func (b *localBackend) Delete(ctx context.Context, path string) (bool, error) {
	full, err := b.resolve(path)
	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat object: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("%w: %s is a directory", ErrInvalidPath, path)
	}
	if err := os.Remove(full); err != nil {
		return false, fmt.Errorf("remove object: %w", err)
	}
	return true, nil
}

func (b *localBackend) Exists(ctx context.Context, path string) (bool, error) {
	full, err := b.resolve(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat object: %w", err)
	}
	return !info.IsDir(), nil
}

// List walks the subtree under prefix. Tag filters are not supported by
// the filesystem medium and are ignored.
func (b *localBackend) List(ctx context.Context, prefix string, tags map[string]string) ([]FileInfo, error) {
	start := b.root
	if prefix != "" {
		full, err := b.resolve(prefix)
		if err != nil {
			return nil, err
		}
		start = full
	}
	if _, err := os.Stat(start); errors.Is(err, fs.ErrNotExist) {
		return []FileInfo{}, nil
	}

	files := make([]FileInfo, 0)
	err := filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(b.root, p)
		if err != nil {
			return err
		}
		files = append(files, FileInfo{
			Path:       filepath.ToSlash(rel),
			Size:       info.Size(),
			ModifiedAt: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	return files, nil
}

// SetReadonly toggles the write permission bits of the stored file.
func (b *localBackend) SetReadonly(ctx context.Context, path string, readonly bool) (bool, error) {
	full, err := b.resolve(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	mode := fs.FileMode(0o644)
	if readonly {
		mode = 0o444
	}
	if err := os.Chmod(full, mode); err != nil {
		return false, fmt.Errorf("chmod object: %w", err)
	}
	return true, nil
}
