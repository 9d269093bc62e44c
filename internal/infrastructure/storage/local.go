package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hszk-dev/vidlib/internal/domain/repository"
)

const tempPrefix = ".upload-"

// LocalStore implements repository.BlobStore over a single flat directory.
// Each blob is one regular file named after the blob.
type LocalStore struct {
	dir string
}

// Compile-time verification that LocalStore implements repository.BlobStore.
var _ repository.BlobStore = (*LocalStore)(nil)

// NewLocalStore creates the directory if needed and removes temporary files
// left behind by uploads that never completed.
func NewLocalStore(dir string) (*LocalStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("storage dir is required")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}

	s := &LocalStore{dir: abs}
	if err := s.removeTemp(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the absolute directory holding the blobs.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save streams r into a temporary file and links it in under name, so readers
// never observe a partially written blob and an existing blob is never replaced.
func (s *LocalStore) Save(ctx context.Context, name string, r io.Reader) (int64, error) {
	path, err := s.path(name)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(s.dir, tempPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	n, err := io.Copy(tmp, contextReader{ctx: ctx, r: r})
	if err != nil {
		cleanup()
		return 0, fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return 0, fmt.Errorf("failed to sync blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return 0, fmt.Errorf("failed to close blob: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return 0, fmt.Errorf("failed to set blob mode: %w", err)
	}

	err = os.Link(tmpPath, path)
	cleanup()
	if errors.Is(err, fs.ErrExist) {
		return 0, repository.ErrBlobExists
	}
	if err != nil {
		return 0, fmt.Errorf("failed to link blob: %w", err)
	}

	return n, nil
}

// Open returns the named blob. The returned handle keeps reading the same
// bytes even if the blob is deleted or replaced afterwards.
func (s *LocalStore) Open(ctx context.Context, name string) (repository.Blob, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, mapFSError(err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat blob: %w", err)
	}
	if !fi.Mode().IsRegular() {
		_ = f.Close()
		return nil, repository.ErrBlobNotFound
	}

	return &fileBlob{File: f, info: blobInfo(name, fi)}, nil
}

// Stat returns metadata about the named blob.
func (s *LocalStore) Stat(ctx context.Context, name string) (repository.BlobInfo, error) {
	path, err := s.path(name)
	if err != nil {
		return repository.BlobInfo{}, err
	}
	if err := ctx.Err(); err != nil {
		return repository.BlobInfo{}, err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return repository.BlobInfo{}, mapFSError(err)
	}
	if !fi.Mode().IsRegular() {
		return repository.BlobInfo{}, repository.ErrBlobNotFound
	}
	return blobInfo(name, fi), nil
}

// Exists reports whether the named blob exists.
func (s *LocalStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.Stat(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrBlobNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Delete removes the named blob.
func (s *LocalStore) Delete(ctx context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		return mapFSError(err)
	}
	return nil
}

// path maps a blob name to its file. Names are single path elements; anything
// that could resolve outside the directory or collide with temp files is rejected.
func (s *LocalStore) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) ||
		strings.HasPrefix(name, ".") ||
		strings.ContainsRune(name, 0) {
		return "", repository.ErrInvalidBlobName
	}
	return filepath.Join(s.dir, name), nil
}

func (s *LocalStore) removeTemp() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read storage dir: %w", err)
	}
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasPrefix(e.Name(), tempPrefix) {
			if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to remove stale temp file: %w", err)
			}
		}
	}
	return nil
}

func mapFSError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return repository.ErrBlobNotFound
	}
	return fmt.Errorf("blob store: %w", err)
}

func blobInfo(name string, fi fs.FileInfo) repository.BlobInfo {
	return repository.BlobInfo{
		Name:    name,
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
	}
}

// fileBlob adapts *os.File to repository.Blob.
type fileBlob struct {
	*os.File
	info repository.BlobInfo
}

func (b *fileBlob) Info() repository.BlobInfo {
	return b.info
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
