package repository

import (
	"context"
	"io"
	"time"
)

// BlobStore defines the interface for the directory holding uploaded video files.
type BlobStore interface {
	// Save writes r under name. An existing blob is never replaced: Save
	// returns ErrBlobExists and leaves it untouched.
	// Returns the number of bytes written.
	Save(ctx context.Context, name string, r io.Reader) (int64, error)

	// Open returns a random-access reader over the named blob.
	// Caller is responsible for closing the returned Blob.
	// Returns ErrBlobNotFound if the blob does not exist.
	Open(ctx context.Context, name string) (Blob, error)

	// Stat returns metadata about the named blob.
	// Returns ErrBlobNotFound if the blob does not exist.
	Stat(ctx context.Context, name string) (BlobInfo, error)

	// Exists reports whether the named blob exists.
	Exists(ctx context.Context, name string) (bool, error)

	// Delete removes the named blob.
	// Returns ErrBlobNotFound if the blob does not exist.
	Delete(ctx context.Context, name string) error
}

// Blob is an open blob. Size is fixed at open time; concurrent deletes do not
// affect readers already holding the blob.
type Blob interface {
	io.ReaderAt
	io.Closer
	Info() BlobInfo
}

// BlobInfo contains metadata about a stored blob.
type BlobInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}
