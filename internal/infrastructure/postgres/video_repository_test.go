package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"

	"github.com/hszk-dev/vidlib/internal/domain/model"
	"github.com/hszk-dev/vidlib/internal/domain/repository"
)

var columns = []string{
	"id", "title", "description", "filename", "original_name", "mimetype", "size", "duration", "created_at", "updated_at",
}

func testVideo() *model.Video {
	now := time.Now()
	return &model.Video{
		ID:           uuid.New(),
		Title:        "Holiday",
		Description:  "Video file: holiday.mp4",
		Filename:     "holiday-1700000000000-42.mp4",
		OriginalName: "holiday.mp4",
		MimeType:     "video/mp4",
		Size:         1024,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func addRow(rows *pgxmock.Rows, v *model.Video) *pgxmock.Rows {
	return rows.AddRow(
		v.ID, v.Title, v.Description, v.Filename, v.OriginalName, v.MimeType, v.Size, v.Duration, v.CreatedAt, v.UpdatedAt,
	)
}

func TestVideoRepository_Create(t *testing.T) {
	tests := []struct {
		name    string
		mockFn  func(mock pgxmock.PgxPoolIface, video *model.Video)
		wantErr error
	}{
		{
			name: "successful creation",
			mockFn: func(mock pgxmock.PgxPoolIface, video *model.Video) {
				mock.ExpectExec("INSERT INTO videos").
					WithArgs(
						video.ID,
						video.Title,
						video.Description,
						video.Filename,
						video.OriginalName,
						video.MimeType,
						video.Size,
						video.Duration,
						pgxmock.AnyArg(),
						pgxmock.AnyArg(),
					).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
			wantErr: nil,
		},
		{
			name: "duplicate filename",
			mockFn: func(mock pgxmock.PgxPoolIface, video *model.Video) {
				mock.ExpectExec("INSERT INTO videos").
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
						pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(&pgconn.PgError{Code: "23505"})
			},
			wantErr: repository.ErrDuplicateVideo,
		},
		{
			name: "database error",
			mockFn: func(mock pgxmock.PgxPoolIface, video *model.Video) {
				mock.ExpectExec("INSERT INTO videos").
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
						pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: errors.New("failed to create video"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer mock.Close()

			video := testVideo()
			tt.mockFn(mock, video)

			repo := NewVideoRepository(mock)
			err = repo.Create(context.Background(), video)

			if tt.wantErr != nil {
				if err == nil {
					t.Fatal("Create() expected error, got nil")
				}
				if !errors.Is(err, tt.wantErr) && !containsError(err, tt.wantErr) {
					t.Errorf("Create() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Errorf("Create() unexpected error = %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestVideoRepository_GetByID(t *testing.T) {
	video := testVideo()

	tests := []struct {
		name    string
		mockFn  func(mock pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "successful retrieval",
			mockFn: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT .* FROM videos WHERE id").
					WithArgs(video.ID).
					WillReturnRows(addRow(pgxmock.NewRows(columns), video))
			},
		},
		{
			name: "video not found",
			mockFn: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT .* FROM videos WHERE id").
					WithArgs(video.ID).
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: repository.ErrVideoNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer mock.Close()

			tt.mockFn(mock)

			repo := NewVideoRepository(mock)
			got, err := repo.GetByID(context.Background(), video.ID)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("GetByID() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetByID() unexpected error = %v", err)
			}

			if got.ID != video.ID ||
				got.Title != video.Title ||
				got.Filename != video.Filename ||
				got.OriginalName != video.OriginalName ||
				got.MimeType != video.MimeType ||
				got.Size != video.Size {
				t.Errorf("GetByID() = %+v, want %+v", got, video)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestVideoRepository_GetByFilename(t *testing.T) {
	video := testVideo()

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		if err != nil {
			t.Fatalf("failed to create mock: %v", err)
		}
		defer mock.Close()

		mock.ExpectQuery("SELECT .* FROM videos WHERE filename").
			WithArgs(video.Filename).
			WillReturnRows(addRow(pgxmock.NewRows(columns), video))

		got, err := NewVideoRepository(mock).GetByFilename(context.Background(), video.Filename)
		if err != nil {
			t.Fatalf("GetByFilename() unexpected error = %v", err)
		}
		if got.ID != video.ID {
			t.Errorf("GetByFilename() ID = %v, want %v", got.ID, video.ID)
		}
	})

	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		if err != nil {
			t.Fatalf("failed to create mock: %v", err)
		}
		defer mock.Close()

		mock.ExpectQuery("SELECT .* FROM videos WHERE filename").
			WithArgs("missing.mp4").
			WillReturnError(pgx.ErrNoRows)

		_, err = NewVideoRepository(mock).GetByFilename(context.Background(), "missing.mp4")
		if !errors.Is(err, repository.ErrVideoNotFound) {
			t.Errorf("GetByFilename() error = %v, want ErrVideoNotFound", err)
		}
	})
}

func TestVideoRepository_List(t *testing.T) {
	newer := testVideo()
	older := testVideo()
	older.CreatedAt = newer.CreatedAt.Add(-time.Hour)

	tests := []struct {
		name      string
		mockFn    func(mock pgxmock.PgxPoolIface)
		wantCount int
		wantErr   bool
	}{
		{
			name: "multiple videos",
			mockFn: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(columns)
				addRow(rows, newer)
				addRow(rows, older)
				mock.ExpectQuery("SELECT .* FROM videos ORDER BY created_at DESC").
					WillReturnRows(rows)
			},
			wantCount: 2,
		},
		{
			name: "empty library",
			mockFn: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT .* FROM videos ORDER BY created_at DESC").
					WillReturnRows(pgxmock.NewRows(columns))
			},
			wantCount: 0,
		},
		{
			name: "query error",
			mockFn: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT .* FROM videos ORDER BY created_at DESC").
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer mock.Close()

			tt.mockFn(mock)

			got, err := NewVideoRepository(mock).List(context.Background())
			if tt.wantErr {
				if err == nil {
					t.Error("List() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("List() unexpected error = %v", err)
			}
			if got == nil {
				t.Error("List() should return an empty slice, not nil")
			}
			if len(got) != tt.wantCount {
				t.Errorf("List() returned %d videos, want %d", len(got), tt.wantCount)
			}
			if tt.wantCount == 2 && got[0].ID != newer.ID {
				t.Error("List() should keep the database order")
			}
		})
	}
}

func TestVideoRepository_Search(t *testing.T) {
	video := testVideo()

	tests := []struct {
		name        string
		query       string
		wantPattern string
	}{
		{name: "plain text", query: "holi", wantPattern: "%holi%"},
		{name: "wildcards are literal", query: "100%_off", wantPattern: `%100\%\_off%`},
		{name: "backslash is literal", query: `a\b`, wantPattern: `%a\\b%`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer mock.Close()

			mock.ExpectQuery("SELECT .* FROM videos WHERE title ILIKE").
				WithArgs(tt.wantPattern).
				WillReturnRows(addRow(pgxmock.NewRows(columns), video))

			got, err := NewVideoRepository(mock).Search(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Search() unexpected error = %v", err)
			}
			if len(got) != 1 {
				t.Errorf("Search() returned %d videos, want 1", len(got))
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestVideoRepository_Update(t *testing.T) {
	tests := []struct {
		name    string
		mockFn  func(mock pgxmock.PgxPoolIface, video *model.Video)
		wantErr error
	}{
		{
			name: "successful update",
			mockFn: func(mock pgxmock.PgxPoolIface, video *model.Video) {
				mock.ExpectExec("UPDATE videos").
					WithArgs(video.ID, video.Title, video.Description, video.UpdatedAt).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "video not found",
			mockFn: func(mock pgxmock.PgxPoolIface, video *model.Video) {
				mock.ExpectExec("UPDATE videos").
					WithArgs(video.ID, video.Title, video.Description, video.UpdatedAt).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			wantErr: repository.ErrVideoNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer mock.Close()

			video := testVideo()
			tt.mockFn(mock, video)

			err = NewVideoRepository(mock).Update(context.Background(), video)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Update() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestVideoRepository_Delete(t *testing.T) {
	tests := []struct {
		name    string
		result  pgconn.CommandTag
		dbErr   error
		wantErr error
	}{
		{name: "deleted", result: pgxmock.NewResult("DELETE", 1)},
		{name: "video not found", result: pgxmock.NewResult("DELETE", 0), wantErr: repository.ErrVideoNotFound},
		{name: "database error", dbErr: errors.New("connection reset"), wantErr: errors.New("failed to delete video")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer mock.Close()

			id := uuid.New()
			exp := mock.ExpectExec("DELETE FROM videos").WithArgs(id)
			if tt.dbErr != nil {
				exp.WillReturnError(tt.dbErr)
			} else {
				exp.WillReturnResult(tt.result)
			}

			err = NewVideoRepository(mock).Delete(context.Background(), id)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Delete() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) && !containsError(err, tt.wantErr) {
				t.Errorf("Delete() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func containsError(err, target error) bool {
	if err == nil || target == nil {
		return false
	}
	return len(err.Error()) >= len(target.Error()) &&
		err.Error()[:len(target.Error())] == target.Error()
}
