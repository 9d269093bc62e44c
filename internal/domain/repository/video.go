package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/hszk-dev/vidlib/internal/domain/model"
)

// VideoRepository defines the interface for video metadata persistence.
// Implementations should be provided by the infrastructure layer (e.g., PostgreSQL, SQLite).
type VideoRepository interface {
	// Create persists a new video entity.
	// Returns ErrDuplicateVideo if a video with the same filename exists.
	Create(ctx context.Context, video *model.Video) error

	// GetByID retrieves a video by its unique identifier.
	// Returns nil and ErrVideoNotFound if the video does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error)

	// GetByFilename retrieves a video by its stored blob name.
	// Returns nil and ErrVideoNotFound if the video does not exist.
	GetByFilename(ctx context.Context, filename string) (*model.Video, error)

	// List returns all videos, newest first.
	List(ctx context.Context) ([]*model.Video, error)

	// Search returns videos whose title or description contains query
	// (case-insensitive), newest first.
	Search(ctx context.Context, query string) ([]*model.Video, error)

	// Update persists title and description changes of an existing video.
	// Returns ErrVideoNotFound if the video does not exist.
	Update(ctx context.Context, video *model.Video) error

	// Delete removes a video by ID.
	// Returns ErrVideoNotFound if the video does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
