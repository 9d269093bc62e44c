package repository

import "errors"

var (
	// ErrVideoNotFound is returned when a video cannot be found.
	ErrVideoNotFound = errors.New("video not found")

	// ErrDuplicateVideo is returned when attempting to create a video whose filename already exists.
	ErrDuplicateVideo = errors.New("video already exists")

	// ErrBlobNotFound is returned when a blob is missing from the blob store.
	ErrBlobNotFound = errors.New("blob not found")

	// ErrBlobExists is returned when saving under a name that is already taken.
	ErrBlobExists = errors.New("blob already exists")

	// ErrInvalidBlobName is returned for empty names or names escaping the store directory.
	ErrInvalidBlobName = errors.New("invalid blob name")
)
