package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/hszk-dev/vidlib/internal/domain/model"
	"github.com/hszk-dev/vidlib/internal/infrastructure/cache"
	"github.com/hszk-dev/vidlib/internal/infrastructure/metrics"
)

// listFlightKey is the singleflight key for the unfiltered listing.
// Video keys are UUID strings and cannot collide with it.
const listFlightKey = "list"

// CachedVideoServiceConfig holds configuration for CachedVideoService.
type CachedVideoServiceConfig struct {
	// CacheTTL is the TTL for cached video metadata.
	CacheTTL time.Duration
}

// DefaultCachedVideoServiceConfig returns the default configuration.
func DefaultCachedVideoServiceConfig() CachedVideoServiceConfig {
	return CachedVideoServiceConfig{
		CacheTTL: 5 * time.Minute,
	}
}

// cachedVideoService wraps VideoService with caching capabilities.
// It implements the decorator pattern to add caching without modifying the original service.
// Single records and the unfiltered listing are cached; searches are not.
type cachedVideoService struct {
	delegate VideoService
	cache    cache.VideoCache
	sfGroup  singleflight.Group

	cacheTTL time.Duration
}

// NewCachedVideoService creates a new CachedVideoService wrapping the provided VideoService.
func NewCachedVideoService(
	delegate VideoService,
	videoCache cache.VideoCache,
	cfg CachedVideoServiceConfig,
) VideoService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCachedVideoServiceConfig().CacheTTL
	}
	return &cachedVideoService{
		delegate: delegate,
		cache:    videoCache,
		cacheTTL: cfg.CacheTTL,
	}
}

// ListVideos serves the unfiltered listing cache-aside. Searches go straight
// to the delegate.
func (s *cachedVideoService) ListVideos(ctx context.Context, query string) ([]*model.Video, error) {
	if strings.TrimSpace(query) != "" {
		return s.delegate.ListVideos(ctx, query)
	}

	result, err, shared := s.sfGroup.Do(listFlightKey, func() (any, error) {
		return s.listWithCache(ctx)
	})
	recordSingleflight(shared)
	if err != nil {
		return nil, err
	}
	return result.([]*model.Video), nil
}

func (s *cachedVideoService) listWithCache(ctx context.Context) ([]*model.Video, error) {
	videos, err := s.cache.GetList(ctx)
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		slog.Warn("cache get list failed, falling back to database", "error", err)
	}
	if videos != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypeRedis).Inc()
		return videos, nil
	}
	if err == nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeRedis).Inc()
	}

	videos, err = s.delegate.ListVideos(ctx, "")
	if err != nil {
		return nil, err
	}

	s.recordSet(s.cache.SetList(ctx, videos, s.cacheTTL), "failed to cache video list")
	return videos, nil
}

// GetVideo retrieves video information with caching.
// Uses singleflight to prevent cache stampede on concurrent requests for the same video.
func (s *cachedVideoService) GetVideo(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	result, err, shared := s.sfGroup.Do(videoID.String(), func() (any, error) {
		return s.getVideoWithCache(ctx, videoID)
	})
	recordSingleflight(shared)
	if err != nil {
		return nil, err
	}

	// Callers may edit the record; never hand out the shared instance.
	video := *result.(*model.Video)
	return &video, nil
}

// getVideoWithCache implements the cache-aside pattern.
func (s *cachedVideoService) getVideoWithCache(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	video, err := s.cache.Get(ctx, videoID)
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		slog.Warn("cache get failed, falling back to database",
			"video_id", videoID,
			"error", err,
		)
	}
	if video != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypeRedis).Inc()
		return video, nil
	}
	if err == nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeRedis).Inc()
	}

	video, err = s.delegate.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	s.recordSet(s.cache.Set(ctx, video, s.cacheTTL), "failed to cache video")
	return video, nil
}

// UploadVideo delegates and drops the cached listing when a record was created.
func (s *cachedVideoService) UploadVideo(ctx context.Context, input UploadInput) (*UploadOutput, error) {
	out, err := s.delegate.UploadVideo(ctx, input)
	if err != nil {
		return nil, err
	}
	if out.Created {
		s.invalidateList(ctx)
	}
	return out, nil
}

// UpdateVideo delegates, then invalidates the record and the listing.
func (s *cachedVideoService) UpdateVideo(ctx context.Context, videoID uuid.UUID, input UpdateVideoInput) (*model.Video, error) {
	video, err := s.delegate.UpdateVideo(ctx, videoID, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, videoID)
	return video, nil
}

// DeleteVideo delegates, then invalidates the record and the listing.
func (s *cachedVideoService) DeleteVideo(ctx context.Context, videoID uuid.UUID) error {
	if err := s.delegate.DeleteVideo(ctx, videoID); err != nil {
		return err
	}
	s.invalidate(ctx, videoID)
	return nil
}

// OpenVideo resolves the record through the cache and opens its file.
// A stale entry for a deleted video surfaces as a missing file.
func (s *cachedVideoService) OpenVideo(ctx context.Context, videoID uuid.UUID) (*StreamSource, error) {
	video, err := s.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return s.delegate.OpenContent(ctx, video)
}

func (s *cachedVideoService) OpenContent(ctx context.Context, video *model.Video) (*StreamSource, error) {
	return s.delegate.OpenContent(ctx, video)
}

func (s *cachedVideoService) invalidate(ctx context.Context, videoID uuid.UUID) {
	// Log but don't fail - cache invalidation failure is non-critical
	if err := s.cache.Delete(ctx, videoID); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		slog.Warn("failed to invalidate cached video",
			"video_id", videoID,
			"error", err,
		)
	} else {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
	}
	s.invalidateList(ctx)
}

func (s *cachedVideoService) invalidateList(ctx context.Context) {
	if err := s.cache.DeleteList(ctx); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		slog.Warn("failed to invalidate cached video list", "error", err)
		return
	}
	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
}

func (s *cachedVideoService) recordSet(err error, msg string) {
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		slog.Warn(msg, "error", err)
		return
	}
	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
}

func recordSingleflight(shared bool) {
	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}
}
