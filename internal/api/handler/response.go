package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/docker/go-units"

	"github.com/hszk-dev/vidlib/internal/domain/model"
)

// Response is the success envelope shared by every JSON endpoint.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Warn("failed to encode response", "error", err)
		}
	}
}

// OK writes a success envelope.
func OK(w http.ResponseWriter, status int, data any, message string) {
	JSON(w, status, Response{
		Success: true,
		Data:    data,
		Message: message,
	})
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{
		Success: false,
		Error:   message,
	})
}

// VideoSummary is the list representation of a video.
type VideoSummary struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Filename    string  `json:"filename"`
	Duration    float64 `json:"duration"`
	Size        int64   `json:"size"`
	SizeHuman   string  `json:"sizeHuman"`
	StreamURL   string  `json:"streamUrl"`
	CreatedAt   string  `json:"createdAt"`
	ModifiedAt  string  `json:"modifiedAt"`
}

// VideoDetail adds upload attributes to the summary.
type VideoDetail struct {
	VideoSummary
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimetype"`
}

func toVideoSummary(v *model.Video) VideoSummary {
	return VideoSummary{
		ID:          v.ID.String(),
		Title:       v.Title,
		Description: v.Description,
		Filename:    v.Filename,
		Duration:    v.Duration,
		Size:        v.Size,
		SizeHuman:   units.BytesSize(float64(v.Size)),
		StreamURL:   streamURL(v),
		CreatedAt:   v.CreatedAt.UTC().Format(time.RFC3339),
		ModifiedAt:  v.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toVideoDetail(v *model.Video) VideoDetail {
	return VideoDetail{
		VideoSummary: toVideoSummary(v),
		OriginalName: v.OriginalName,
		MimeType:     v.MimeType,
	}
}

func toVideoSummaries(videos []*model.Video) []VideoSummary {
	out := make([]VideoSummary, 0, len(videos))
	for _, v := range videos {
		out = append(out, toVideoSummary(v))
	}
	return out
}

func streamURL(v *model.Video) string {
	return "/api/video/" + v.ID.String() + "/stream"
}
