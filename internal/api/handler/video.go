package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/docker/go-units"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hszk-dev/vidlib/internal/api/middleware"
	"github.com/hszk-dev/vidlib/internal/domain/model"
	"github.com/hszk-dev/vidlib/internal/domain/repository"
	"github.com/hszk-dev/vidlib/internal/infrastructure/metrics"
	"github.com/hszk-dev/vidlib/internal/streaming"
	"github.com/hszk-dev/vidlib/internal/usecase"
)

const (
	// uploadField is the multipart field carrying the video file.
	uploadField = "video"

	// multipartMemory is how much of a multipart form is kept in memory
	// before spilling file parts to temporary files.
	multipartMemory = 32 << 20

	// multipartOverhead bounds the non-file bytes of an upload request.
	multipartOverhead = 1 << 20

	maxEditBodySize = 64 << 10
)

type UpdateVideoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// VideoHandlerConfig holds configuration for VideoHandler.
type VideoHandlerConfig struct {
	MaxUploadSize int64
	Copier        streaming.Copier
}

// VideoHandler handles video-related HTTP requests.
type VideoHandler struct {
	svc           usecase.VideoService
	maxUploadSize int64
	copier        streaming.Copier
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(svc usecase.VideoService, cfg VideoHandlerConfig) *VideoHandler {
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = usecase.DefaultVideoServiceConfig().MaxUploadSize
	}
	return &VideoHandler{
		svc:           svc,
		maxUploadSize: cfg.MaxUploadSize,
		copier:        cfg.Copier,
	}
}

// Register mounts the video routes on r.
func (h *VideoHandler) Register(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/upload", h.Upload)
	r.Get("/{id}/info", h.Info)
	r.Get("/{id}/stream", h.Stream)
	r.Head("/{id}/stream", h.Stream)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// List handles GET /api/video and GET /api/video?q=text
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	videos, err := h.svc.ListVideos(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	OK(w, http.StatusOK, toVideoSummaries(videos), "")
}

// Info handles GET /api/video/{id}/info
func (h *VideoHandler) Info(w http.ResponseWriter, r *http.Request) {
	videoID, ok := parseVideoID(w, r)
	if !ok {
		return
	}

	video, err := h.svc.GetVideo(r.Context(), videoID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	OK(w, http.StatusOK, toVideoDetail(video), "")
}

// Upload handles POST /api/video/upload
func (h *VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	limit := h.maxUploadSize + multipartOverhead
	if r.ContentLength > limit {
		Error(w, http.StatusBadRequest, h.tooLargeMessage())
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			Error(w, http.StatusBadRequest, h.tooLargeMessage())
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			Error(w, http.StatusBadRequest, "No video file provided")
		default:
			Error(w, http.StatusBadRequest, "Invalid upload request")
		}
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			middleware.Log(r.Context()).Warn("failed to remove multipart temp files", "error", err)
		}
	}()

	for field := range r.MultipartForm.File {
		if field != uploadField {
			Error(w, http.StatusBadRequest, "Unexpected field")
			return
		}
	}

	files := r.MultipartForm.File[uploadField]
	switch {
	case len(files) == 0:
		Error(w, http.StatusBadRequest, "No video file provided")
		return
	case len(files) > 1:
		Error(w, http.StatusBadRequest, "Too many files")
		return
	}

	header := files[0]
	file, err := header.Open()
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	defer file.Close()

	out, err := h.svc.UploadVideo(r.Context(), usecase.UploadInput{
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Size:         header.Size,
		Content:      file,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if !out.Created {
		OK(w, http.StatusOK, toVideoDetail(out.Video), "Video already exists")
		return
	}
	OK(w, http.StatusCreated, toVideoDetail(out.Video), "Video uploaded successfully")
}

// Update handles PATCH /api/video/{id}
func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	videoID, ok := parseVideoID(w, r)
	if !ok {
		return
	}

	var req UpdateVideoRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEditBodySize)).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	video, err := h.svc.UpdateVideo(r.Context(), videoID, usecase.UpdateVideoInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	OK(w, http.StatusOK, toVideoDetail(video), "Video updated successfully")
}

// Delete handles DELETE /api/video/{id}
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	videoID, ok := parseVideoID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteVideo(r.Context(), videoID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	OK(w, http.StatusOK, nil, "Video deleted successfully")
}

// Stream handles GET and HEAD /api/video/{id}/stream
func (h *VideoHandler) Stream(w http.ResponseWriter, r *http.Request) {
	videoID, ok := parseVideoID(w, r)
	if !ok {
		return
	}

	src, err := h.svc.OpenVideo(r.Context(), videoID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	defer src.Content.Close()

	plan := streaming.PlanResponse(src.Size(), r.Header.Get("Range"), src.Video.MimeType)
	plan.Apply(w)
	metrics.StreamResponsesTotal.WithLabelValues(strconv.Itoa(plan.Status)).Inc()

	if !plan.HasBody || r.Method == http.MethodHead {
		return
	}

	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	n, err := h.copier.Copy(r.Context(), w, src.Content, plan.Window)
	metrics.StreamedBytesTotal.Add(float64(n))
	if err == nil {
		return
	}

	// Headers are already sent; the only thing left is to record why.
	if streaming.IsClientGone(err) {
		metrics.StreamAbortsTotal.WithLabelValues(metrics.AbortClientGone).Inc()
		middleware.Log(r.Context()).Debug("stream aborted by client",
			"video_id", videoID,
			"sent", n,
			"error", err,
		)
		return
	}
	metrics.StreamAbortsTotal.WithLabelValues(metrics.AbortError).Inc()
	middleware.Log(r.Context()).Error("stream failed",
		"video_id", videoID,
		"filename", src.Video.Filename,
		"sent", n,
		"error", err,
	)
}

// parseVideoID writes a 404 when the path id is not a UUID; no video can
// have such an id.
func parseVideoID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusNotFound, "Video not found")
		return uuid.Nil, false
	}
	return videoID, true
}

func (h *VideoHandler) tooLargeMessage() string {
	return "File too large. Maximum size is " + units.BytesSize(float64(h.maxUploadSize))
}

func (h *VideoHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrVideoNotFound), errors.Is(err, repository.ErrBlobNotFound):
		Error(w, http.StatusNotFound, "Video not found")
	case errors.Is(err, usecase.ErrNoFile):
		Error(w, http.StatusBadRequest, "No video file provided")
	case errors.Is(err, usecase.ErrEmptyFile):
		Error(w, http.StatusBadRequest, "File is empty")
	case errors.Is(err, usecase.ErrFileTooLarge):
		Error(w, http.StatusBadRequest, h.tooLargeMessage())
	case errors.Is(err, usecase.ErrUnsupportedType):
		Error(w, http.StatusBadRequest, "Only video files are allowed")
	case errors.Is(err, model.ErrEmptyTitle):
		Error(w, http.StatusBadRequest, "Title cannot be empty")
	case errors.Is(err, model.ErrTitleTooLong):
		Error(w, http.StatusBadRequest, "Title exceeds maximum length of 200 characters")
	case errors.Is(err, model.ErrDescriptionTooLong):
		Error(w, http.StatusBadRequest, "Description exceeds maximum length of 1000 characters")
	case errors.Is(err, usecase.ErrUploadConflict):
		Error(w, http.StatusConflict, "Video upload already in progress")
	case errors.Is(err, repository.ErrInvalidBlobName):
		Error(w, http.StatusBadRequest, "Invalid file name")
	default:
		middleware.Log(r.Context()).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		Error(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
