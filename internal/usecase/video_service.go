package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hszk-dev/vidlib/internal/domain/model"
	"github.com/hszk-dev/vidlib/internal/domain/repository"
	"github.com/hszk-dev/vidlib/internal/infrastructure/metrics"
	"github.com/hszk-dev/vidlib/internal/media"
)

var (
	// ErrNoFile is returned when an upload carries no file payload.
	ErrNoFile = errors.New("no video file provided")

	// ErrEmptyFile is returned for zero-byte uploads.
	ErrEmptyFile = errors.New("file is empty")

	// ErrFileTooLarge is returned when an upload exceeds the configured maximum.
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnsupportedType is returned when neither the MIME type nor the extension is a supported video format.
	ErrUnsupportedType = errors.New("unsupported video type")

	// ErrUploadConflict is returned when the generated filename is already
	// taken by a file that no record owns yet.
	ErrUploadConflict = errors.New("upload with the same filename in progress")
)

// UploadInput describes one uploaded file.
type UploadInput struct {
	OriginalName string
	MimeType     string
	// Size is the size declared by the client. The stored size is the number
	// of bytes actually read from Content.
	Size    int64
	Content io.Reader
}

// UploadOutput contains the result of an upload.
// Created is false when the storage filename already had a record.
type UploadOutput struct {
	Video   *model.Video
	Created bool
}

// UpdateVideoInput holds a partial metadata change. Nil fields are kept.
type UpdateVideoInput struct {
	Title       *string
	Description *string
}

// StreamSource is an opened video ready to be streamed.
// The caller must close Content.
type StreamSource struct {
	Video   *model.Video
	Content repository.Blob
}

// Size is the current size of the stored bytes.
func (s *StreamSource) Size() int64 {
	return s.Content.Info().Size
}

// VideoService defines the interface for video business logic operations.
type VideoService interface {
	// ListVideos returns all videos newest first, or only those whose title
	// or description contains query when it is not blank.
	ListVideos(ctx context.Context, query string) ([]*model.Video, error)

	// GetVideo retrieves video information by ID.
	GetVideo(ctx context.Context, videoID uuid.UUID) (*model.Video, error)

	// UploadVideo validates and stores an uploaded file and records its metadata.
	// An upload whose storage filename already has a record returns that record.
	UploadVideo(ctx context.Context, input UploadInput) (*UploadOutput, error)

	// UpdateVideo changes the title and/or description of a video.
	UpdateVideo(ctx context.Context, videoID uuid.UUID, input UpdateVideoInput) (*model.Video, error)

	// DeleteVideo removes the record, then the stored file on a best-effort basis.
	DeleteVideo(ctx context.Context, videoID uuid.UUID) error

	// OpenVideo looks up a video and opens its stored file.
	OpenVideo(ctx context.Context, videoID uuid.UUID) (*StreamSource, error)

	// OpenContent opens the stored file of an already loaded video.
	OpenContent(ctx context.Context, video *model.Video) (*StreamSource, error)
}

// VideoServiceConfig holds configuration for VideoService.
type VideoServiceConfig struct {
	// MaxUploadSize is the largest accepted file in bytes.
	MaxUploadSize int64
	// Namer generates storage filenames. Uploads whose name is already
	// recorded are reported as duplicates.
	Namer media.Namer
	// Events receives lifecycle events. Optional.
	Events repository.EventPublisher
}

// DefaultVideoServiceConfig returns the default configuration.
func DefaultVideoServiceConfig() VideoServiceConfig {
	return VideoServiceConfig{
		MaxUploadSize: 500 << 20,
		Namer:         media.UniqueNamer{},
	}
}

type videoService struct {
	repo   repository.VideoRepository
	blobs  repository.BlobStore
	events repository.EventPublisher

	maxUploadSize int64
	namer         media.Namer
}

// NewVideoService creates a new VideoService instance.
func NewVideoService(
	repo repository.VideoRepository,
	blobs repository.BlobStore,
	cfg VideoServiceConfig,
) VideoService {
	defaults := DefaultVideoServiceConfig()
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = defaults.MaxUploadSize
	}
	if cfg.Namer == nil {
		cfg.Namer = defaults.Namer
	}

	return &videoService{
		repo:          repo,
		blobs:         blobs,
		events:        cfg.Events,
		maxUploadSize: cfg.MaxUploadSize,
		namer:         cfg.Namer,
	}
}

// ListVideos returns the library, newest first.
func (s *videoService) ListVideos(ctx context.Context, query string) ([]*model.Video, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.repo.List(ctx)
	}
	return s.repo.Search(ctx, query)
}

// GetVideo retrieves video information by ID.
func (s *videoService) GetVideo(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	return s.repo.GetByID(ctx, videoID)
}

// UploadVideo stores the file under a generated name and records it.
//
// All request validation happens before the blob store or the repository is
// touched. A record already holding the generated filename is returned as is,
// without rewriting its file.
func (s *videoService) UploadVideo(ctx context.Context, input UploadInput) (*UploadOutput, error) {
	out, err := s.upload(ctx, input)
	switch {
	case err == nil && out.Created:
		metrics.UploadsTotal.WithLabelValues(metrics.UploadCreated).Inc()
	case err == nil:
		metrics.UploadsTotal.WithLabelValues(metrics.UploadDuplicate).Inc()
	case isValidationError(err):
		metrics.UploadsTotal.WithLabelValues(metrics.UploadRejected).Inc()
	default:
		metrics.UploadsTotal.WithLabelValues(metrics.UploadFailed).Inc()
	}
	return out, err
}

func (s *videoService) upload(ctx context.Context, input UploadInput) (*UploadOutput, error) {
	if input.Content == nil || strings.TrimSpace(input.OriginalName) == "" {
		return nil, ErrNoFile
	}
	if input.Size > s.maxUploadSize {
		return nil, ErrFileTooLarge
	}
	if input.Size == 0 {
		return nil, ErrEmptyFile
	}
	if !media.IsSupported(input.OriginalName, input.MimeType) {
		return nil, ErrUnsupportedType
	}

	filename := s.namer.StorageName(input.OriginalName)

	existing, err := s.repo.GetByFilename(ctx, filename)
	switch {
	case err == nil:
		return &UploadOutput{Video: existing, Created: false}, nil
	case !errors.Is(err, repository.ErrVideoNotFound):
		return nil, fmt.Errorf("look up video by filename: %w", err)
	}

	// One byte past the limit is enough to tell an oversized body apart.
	written, err := s.blobs.Save(ctx, filename, io.LimitReader(input.Content, s.maxUploadSize+1))
	if errors.Is(err, repository.ErrBlobExists) {
		// Another upload owns the file; its record is the answer once it exists.
		existing, getErr := s.repo.GetByFilename(ctx, filename)
		switch {
		case getErr == nil:
			return &UploadOutput{Video: existing, Created: false}, nil
		case errors.Is(getErr, repository.ErrVideoNotFound):
			return nil, ErrUploadConflict
		default:
			return nil, fmt.Errorf("look up video by filename: %w", getErr)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("save video file: %w", err)
	}
	switch {
	case written > s.maxUploadSize:
		s.discardBlob(ctx, filename)
		return nil, ErrFileTooLarge
	case written == 0:
		s.discardBlob(ctx, filename)
		return nil, ErrEmptyFile
	}
	metrics.UploadedBytesTotal.Add(float64(written))

	video, err := model.NewVideo(model.NewVideoInput{
		Title:        media.TitleFromFilename(input.OriginalName, model.MaxTitleLength),
		Filename:     filename,
		OriginalName: input.OriginalName,
		MimeType:     media.ResolveMimeType(input.OriginalName, input.MimeType),
		Size:         written,
	})
	if err != nil {
		s.discardBlob(ctx, filename)
		return nil, err
	}

	if err := s.repo.Create(ctx, video); err != nil {
		if errors.Is(err, repository.ErrDuplicateVideo) {
			// A record named this file while it was missing; the bytes just
			// written back that record.
			existing, getErr := s.repo.GetByFilename(ctx, filename)
			if getErr != nil {
				return nil, fmt.Errorf("look up duplicate video: %w", getErr)
			}
			return &UploadOutput{Video: existing, Created: false}, nil
		}
		s.discardBlob(ctx, filename)
		return nil, fmt.Errorf("create video: %w", err)
	}

	s.publish(ctx, repository.EventVideoUploaded, video)

	return &UploadOutput{Video: video, Created: true}, nil
}

// UpdateVideo applies a metadata edit.
func (s *videoService) UpdateVideo(ctx context.Context, videoID uuid.UUID, input UpdateVideoInput) (*model.Video, error) {
	video, err := s.repo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if err := video.Edit(input.Title, input.Description); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, video); err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update video: %w", err)
	}

	return video, nil
}

// DeleteVideo removes the record first. The record is authoritative, so a
// failure to remove the file afterwards is logged and not returned.
func (s *videoService) DeleteVideo(ctx context.Context, videoID uuid.UUID) error {
	video, err := s.repo.GetByID(ctx, videoID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, videoID); err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			return err
		}
		return fmt.Errorf("delete video: %w", err)
	}

	switch err := s.blobs.Delete(ctx, video.Filename); {
	case err == nil:
		metrics.DeletesTotal.WithLabelValues(metrics.DeleteDeleted).Inc()
	case errors.Is(err, repository.ErrBlobNotFound):
		metrics.DeletesTotal.WithLabelValues(metrics.DeleteBlobMissing).Inc()
		slog.Warn("video file already missing on delete",
			"video_id", videoID,
			"filename", video.Filename,
		)
	default:
		metrics.DeletesTotal.WithLabelValues(metrics.DeleteBlobError).Inc()
		slog.Warn("failed to delete video file",
			"video_id", videoID,
			"filename", video.Filename,
			"error", err,
		)
	}

	s.publish(ctx, repository.EventVideoDeleted, video)

	return nil
}

// OpenVideo looks up a video and opens its stored file.
func (s *videoService) OpenVideo(ctx context.Context, videoID uuid.UUID) (*StreamSource, error) {
	video, err := s.repo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return s.OpenContent(ctx, video)
}

// OpenContent opens the stored file of video.
// Returns repository.ErrBlobNotFound when the record has no file.
func (s *videoService) OpenContent(ctx context.Context, video *model.Video) (*StreamSource, error) {
	blob, err := s.blobs.Open(ctx, video.Filename)
	if err != nil {
		if errors.Is(err, repository.ErrBlobNotFound) {
			slog.Warn("video record has no file",
				"video_id", video.ID,
				"filename", video.Filename,
			)
			return nil, err
		}
		return nil, fmt.Errorf("open video file: %w", err)
	}

	if size := blob.Info().Size; size != video.Size {
		slog.Warn("video file size differs from record",
			"video_id", video.ID,
			"filename", video.Filename,
			"recorded_size", video.Size,
			"file_size", size,
		)
	}

	return &StreamSource{Video: video, Content: blob}, nil
}

// discardBlob removes a file written by a failed upload.
func (s *videoService) discardBlob(ctx context.Context, filename string) {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), filename); err != nil && !errors.Is(err, repository.ErrBlobNotFound) {
		slog.Warn("failed to remove file of failed upload",
			"filename", filename,
			"error", err,
		)
	}
}

// publish sends a lifecycle event. Failures are logged and swallowed.
func (s *videoService) publish(ctx context.Context, eventType repository.EventType, video *model.Video) {
	if s.events == nil {
		return
	}

	event := repository.VideoEvent{
		Type:       eventType,
		VideoID:    video.ID,
		Filename:   video.Filename,
		Size:       video.Size,
		OccurredAt: time.Now().UTC(),
	}

	if err := s.events.PublishVideoEvent(ctx, event); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(eventType), metrics.EventError).Inc()
		slog.Warn("failed to publish video event",
			"type", eventType,
			"video_id", video.ID,
			"error", err,
		)
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues(string(eventType), metrics.EventSuccess).Inc()
}

// isValidationError reports whether err is a client input error.
func isValidationError(err error) bool {
	for _, target := range []error{
		ErrNoFile, ErrEmptyFile, ErrFileTooLarge, ErrUnsupportedType,
		model.ErrEmptyTitle, model.ErrTitleTooLong, model.ErrDescriptionTooLong,
		model.ErrEmptyFilename, model.ErrEmptyOriginalName, model.ErrInvalidSize, model.ErrInvalidDuration,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
