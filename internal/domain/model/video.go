package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Video is the metadata record of one uploaded video file.
// Filename is the unique name of the blob holding the bytes.
type Video struct {
	ID           uuid.UUID
	Title        string
	Description  string
	Filename     string
	OriginalName string
	MimeType     string
	Size         int64
	Duration     float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var (
	ErrEmptyTitle         = errors.New("title cannot be empty")
	ErrTitleTooLong       = errors.New("title exceeds maximum length of 200 characters")
	ErrDescriptionTooLong = errors.New("description exceeds maximum length of 1000 characters")
	ErrEmptyFilename      = errors.New("filename cannot be empty")
	ErrEmptyOriginalName  = errors.New("original name cannot be empty")
	ErrInvalidSize        = errors.New("file size must be positive")
	ErrInvalidDuration    = errors.New("duration cannot be negative")
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// NewVideoInput carries the attributes of a freshly stored blob.
type NewVideoInput struct {
	Title        string
	Description  string
	Filename     string
	OriginalName string
	MimeType     string
	Size         int64
	Duration     float64
}

// NewVideo creates a validated Video with a fresh ID.
// The title is trimmed; an empty description defaults to one naming the original file.
func NewVideo(in NewVideoInput) (*Video, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Description == "" {
		in.Description = DefaultDescription(in.OriginalName)
	}

	if err := validateText(in.Title, in.Description); err != nil {
		return nil, err
	}
	if in.Filename == "" {
		return nil, ErrEmptyFilename
	}
	if in.OriginalName == "" {
		return nil, ErrEmptyOriginalName
	}
	if in.Size <= 0 {
		return nil, ErrInvalidSize
	}
	if in.Duration < 0 {
		return nil, ErrInvalidDuration
	}

	now := time.Now()
	return &Video{
		ID:           uuid.New(),
		Title:        in.Title,
		Description:  in.Description,
		Filename:     in.Filename,
		OriginalName: in.OriginalName,
		MimeType:     in.MimeType,
		Size:         in.Size,
		Duration:     in.Duration,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// DefaultDescription is the description given to uploads that carry none,
// cut to MaxDescriptionLength characters.
func DefaultDescription(originalName string) string {
	desc := "Video file: " + originalName
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		desc = string([]rune(desc)[:MaxDescriptionLength])
	}
	return desc
}

// Edit applies a metadata change. Nil fields are left untouched; a new title
// is trimmed like a derived one.
func (v *Video) Edit(title, description *string) error {
	nextTitle, nextDescription := v.Title, v.Description
	if title != nil {
		nextTitle = strings.TrimSpace(*title)
	}
	if description != nil {
		nextDescription = *description
	}

	if err := validateText(nextTitle, nextDescription); err != nil {
		return err
	}

	v.Title = nextTitle
	v.Description = nextDescription
	v.UpdatedAt = time.Now()
	return nil
}

func validateText(title, description string) error {
	if title == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}
