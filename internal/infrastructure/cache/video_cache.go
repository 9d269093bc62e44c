package cache

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hszk-dev/vidlib/internal/domain/model"
)

// VideoCache defines the interface for caching video metadata.
// Implementations should handle serialization/deserialization transparently.
type VideoCache interface {
	// Get retrieves a video from cache by ID.
	// Returns nil, nil if the video is not found in cache (cache miss).
	Get(ctx context.Context, videoID uuid.UUID) (*model.Video, error)

	// Set stores a video in cache with the specified TTL.
	Set(ctx context.Context, video *model.Video, ttl time.Duration) error

	// Delete removes a video from cache by ID.
	// Returns nil if the video was not in cache.
	Delete(ctx context.Context, videoID uuid.UUID) error

	// GetList retrieves the cached full library listing.
	// Returns nil, nil on a cache miss. An empty library is a non-nil empty slice.
	GetList(ctx context.Context) ([]*model.Video, error)

	// SetList stores the full library listing with the specified TTL.
	SetList(ctx context.Context, videos []*model.Video, ttl time.Duration) error

	// DeleteList drops the cached listing.
	DeleteList(ctx context.Context) error
}
