package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType names a video lifecycle event.
type EventType string

const (
	EventVideoUploaded EventType = "video.uploaded"
	EventVideoDeleted  EventType = "video.deleted"
)

// VideoEvent is the message published after a video lifecycle change.
type VideoEvent struct {
	Type       EventType `json:"type"`
	VideoID    uuid.UUID `json:"video_id"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing video events.
// Implementations should be provided by the infrastructure layer (e.g., RabbitMQ).
type EventPublisher interface {
	// PublishVideoEvent sends an event to subscribers.
	PublishVideoEvent(ctx context.Context, event VideoEvent) error

	// Close gracefully closes the connection to the broker.
	Close() error
}
