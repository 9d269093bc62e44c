// Package sqlite stores video metadata in a local SQLite file, for
// single-node deployments that do not run PostgreSQL.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/hszk-dev/vidlib/internal/domain/model"
	"github.com/hszk-dev/vidlib/internal/domain/repository"
)

const videoColumns = `id, title, description, filename, original_name, mimetype, size, duration, created_at, updated_at`

// VideoRepository implements repository.VideoRepository using SQLite.
// Timestamps are stored as Unix nanoseconds so ordering is numeric.
type VideoRepository struct {
	db *sql.DB
}

// Compile-time verification that VideoRepository implements repository.VideoRepository.
var _ repository.VideoRepository = (*VideoRepository)(nil)

func NewVideoRepository(db *sql.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) Create(ctx context.Context, video *model.Video) error {
	const query = `INSERT INTO videos (` + videoColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		video.ID.String(),
		video.Title,
		video.Description,
		video.Filename,
		video.OriginalName,
		video.MimeType,
		video.Size,
		video.Duration,
		video.CreatedAt.UnixNano(),
		video.UpdatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateVideo
		}
		return fmt.Errorf("failed to create video: %w", err)
	}
	return nil
}

func (r *VideoRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	const query = `SELECT ` + videoColumns + ` FROM videos WHERE id = ?`

	video, err := scanVideo(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video by ID: %w", err)
	}
	return video, nil
}

func (r *VideoRepository) GetByFilename(ctx context.Context, filename string) (*model.Video, error) {
	const query = `SELECT ` + videoColumns + ` FROM videos WHERE filename = ?`

	video, err := scanVideo(r.db.QueryRowContext(ctx, query, filename))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video by filename: %w", err)
	}
	return video, nil
}

func (r *VideoRepository) List(ctx context.Context) ([]*model.Video, error) {
	const query = `SELECT ` + videoColumns + ` FROM videos ORDER BY created_at DESC, id`
	return r.queryVideos(ctx, query)
}

// Search matches title or description as a substring. SQLite folds case for
// ASCII letters only.
func (r *VideoRepository) Search(ctx context.Context, query string) ([]*model.Video, error) {
	const sqlQuery = `SELECT ` + videoColumns + ` FROM videos
		WHERE title LIKE ?1 ESCAPE '\' OR description LIKE ?1 ESCAPE '\'
		ORDER BY created_at DESC, id`
	return r.queryVideos(ctx, sqlQuery, containsPattern(query))
}

func (r *VideoRepository) Update(ctx context.Context, video *model.Video) error {
	const query = `UPDATE videos SET title = ?, description = ?, updated_at = ? WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		video.Title,
		video.Description,
		video.UpdatedAt.UnixNano(),
		video.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}
	return expectOneRow(res)
}

func (r *VideoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	return expectOneRow(res)
}

func (r *VideoRepository) queryVideos(ctx context.Context, query string, args ...any) ([]*model.Video, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(row scanner) (*model.Video, error) {
	var (
		video              model.Video
		id                 string
		createdAt, updated int64
	)
	err := row.Scan(
		&id,
		&video.Title,
		&video.Description,
		&video.Filename,
		&video.OriginalName,
		&video.MimeType,
		&video.Size,
		&video.Duration,
		&createdAt,
		&updated,
	)
	if err != nil {
		return nil, err
	}

	video.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid video id %q: %w", id, err)
	}
	video.CreatedAt = time.Unix(0, createdAt)
	video.UpdatedAt = time.Unix(0, updated)
	return &video, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return repository.ErrVideoNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}
