package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hszk-dev/vidlib/internal/domain/model"
	"github.com/hszk-dev/vidlib/internal/domain/repository"
)

// DBTX is an interface that abstracts pgxpool.Pool and pgx.Tx for testability.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const videoColumns = `id, title, description, filename, original_name, mimetype, size, duration, created_at, updated_at`

// uniqueViolation is the SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

// VideoRepository implements repository.VideoRepository using PostgreSQL.
type VideoRepository struct {
	db DBTX
}

// Compile-time verification that VideoRepository implements repository.VideoRepository.
var _ repository.VideoRepository = (*VideoRepository)(nil)

// NewVideoRepository creates a new VideoRepository instance.
func NewVideoRepository(db DBTX) *VideoRepository {
	return &VideoRepository{db: db}
}

// Create persists a new video entity.
func (r *VideoRepository) Create(ctx context.Context, video *model.Video) error {
	const query = `
		INSERT INTO videos (` + videoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		video.ID,
		video.Title,
		video.Description,
		video.Filename,
		video.OriginalName,
		video.MimeType,
		video.Size,
		video.Duration,
		video.CreatedAt,
		video.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicateVideo
		}
		return fmt.Errorf("failed to create video: %w", err)
	}

	return nil
}

// GetByID retrieves a video by its unique identifier.
func (r *VideoRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	const query = `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE id = $1
	`

	video, err := scanVideo(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video by ID: %w", err)
	}

	return video, nil
}

// GetByFilename retrieves a video by its stored blob name.
func (r *VideoRepository) GetByFilename(ctx context.Context, filename string) (*model.Video, error) {
	const query = `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE filename = $1
	`

	video, err := scanVideo(r.db.QueryRow(ctx, query, filename))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video by filename: %w", err)
	}

	return video, nil
}

// List returns all videos, newest first.
func (r *VideoRepository) List(ctx context.Context) ([]*model.Video, error) {
	const query = `
		SELECT ` + videoColumns + `
		FROM videos
		ORDER BY created_at DESC, id
	`

	return r.queryVideos(ctx, query)
}

// Search returns videos whose title or description contains query.
func (r *VideoRepository) Search(ctx context.Context, query string) ([]*model.Video, error) {
	const sql = `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE title ILIKE $1 ESCAPE '\' OR description ILIKE $1 ESCAPE '\'
		ORDER BY created_at DESC, id
	`

	return r.queryVideos(ctx, sql, containsPattern(query))
}

// Update persists title and description changes of an existing video.
func (r *VideoRepository) Update(ctx context.Context, video *model.Video) error {
	const query = `
		UPDATE videos
		SET title = $2, description = $3, updated_at = $4
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query,
		video.ID,
		video.Title,
		video.Description,
		video.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrVideoNotFound
	}

	return nil
}

// Delete removes a video by ID.
func (r *VideoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM videos WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrVideoNotFound
	}

	return nil
}

func (r *VideoRepository) queryVideos(ctx context.Context, query string, args ...any) ([]*model.Video, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	videos := []*model.Video{}
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating videos: %w", err)
	}

	return videos, nil
}

// scanVideo scans a single row into a Video model.
// Both pgx.Row and pgx.Rows satisfy the row argument.
func scanVideo(row pgx.Row) (*model.Video, error) {
	var video model.Video
	err := row.Scan(
		&video.ID,
		&video.Title,
		&video.Description,
		&video.Filename,
		&video.OriginalName,
		&video.MimeType,
		&video.Size,
		&video.Duration,
		&video.CreatedAt,
		&video.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &video, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching query as a literal substring.
func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}
