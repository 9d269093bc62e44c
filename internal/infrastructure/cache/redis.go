package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/vidlib/internal/config"
	"github.com/hszk-dev/vidlib/internal/domain/model"
)

const (
	// videoCacheKeyPrefix is the prefix for video cache keys in Redis.
	videoCacheKeyPrefix = "vidlib:video:"
	// listCacheKey holds the newest-first listing of the whole library.
	listCacheKey = "vidlib:videos"
)

// videoJSON is the JSON representation of a Video for caching.
// Using explicit struct avoids coupling to domain model's JSON tags.
type videoJSON struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mimetype"`
	Size         int64     `json:"size"`
	Duration     float64   `json:"duration"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// RedisVideoCache implements VideoCache using Redis as the backing store.
type RedisVideoCache struct {
	client *redis.Client
}

// Compile-time verification that RedisVideoCache implements VideoCache.
var _ VideoCache = (*RedisVideoCache)(nil)

// NewRedisVideoCache creates a new Redis-backed video cache.
func NewRedisVideoCache(client *redis.Client) *RedisVideoCache {
	return &RedisVideoCache{
		client: client,
	}
}

// Get retrieves a video from Redis cache.
// Returns nil, nil on cache miss.
func (c *RedisVideoCache) Get(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	data, err := c.client.Get(ctx, buildKey(videoID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var v videoJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("deserialize video: %w", err)
	}
	return v.toModel(), nil
}

// Set stores a video in Redis cache with the specified TTL.
func (c *RedisVideoCache) Set(ctx context.Context, video *model.Video, ttl time.Duration) error {
	data, err := json.Marshal(fromModel(video))
	if err != nil {
		return fmt.Errorf("serialize video: %w", err)
	}

	if err := c.client.Set(ctx, buildKey(video.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a video from Redis cache.
func (c *RedisVideoCache) Delete(ctx context.Context, videoID uuid.UUID) error {
	if err := c.client.Del(ctx, buildKey(videoID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// GetList retrieves the cached listing. Returns nil, nil on cache miss.
func (c *RedisVideoCache) GetList(ctx context.Context) ([]*model.Video, error) {
	data, err := c.client.Get(ctx, listCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var items []videoJSON
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("deserialize video list: %w", err)
	}

	videos := make([]*model.Video, len(items))
	for i := range items {
		videos[i] = items[i].toModel()
	}
	return videos, nil
}

// SetList stores the listing with the specified TTL.
func (c *RedisVideoCache) SetList(ctx context.Context, videos []*model.Video, ttl time.Duration) error {
	items := make([]videoJSON, len(videos))
	for i, v := range videos {
		items[i] = fromModel(v)
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("serialize video list: %w", err)
	}

	if err := c.client.Set(ctx, listCacheKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// DeleteList drops the cached listing.
func (c *RedisVideoCache) DeleteList(ctx context.Context) error {
	if err := c.client.Del(ctx, listCacheKey).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// buildKey constructs the Redis key for a video.
func buildKey(videoID uuid.UUID) string {
	return videoCacheKeyPrefix + videoID.String()
}

func fromModel(v *model.Video) videoJSON {
	return videoJSON{
		ID:           v.ID,
		Title:        v.Title,
		Description:  v.Description,
		Filename:     v.Filename,
		OriginalName: v.OriginalName,
		MimeType:     v.MimeType,
		Size:         v.Size,
		Duration:     v.Duration,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

func (v videoJSON) toModel() *model.Video {
	return &model.Video{
		ID:           v.ID,
		Title:        v.Title,
		Description:  v.Description,
		Filename:     v.Filename,
		OriginalName: v.OriginalName,
		MimeType:     v.MimeType,
		Size:         v.Size,
		Duration:     v.Duration,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}
