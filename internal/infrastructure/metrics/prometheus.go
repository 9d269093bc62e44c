// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vidlib"

var (
	// HTTPRequestDuration tracks request latency.
	// Labels:
	//   - method: HTTP method
	//   - route: chi route pattern, e.g. /api/video/{id}/stream
	//   - status: response status code
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// UploadsTotal tracks upload outcomes.
	// Labels:
	//   - result: created, duplicate, rejected, failed
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Total number of upload attempts by result",
		},
		[]string{"result"},
	)

	// UploadedBytesTotal counts bytes written to the blob store by uploads.
	UploadedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Total number of bytes stored by uploads",
		},
	)

	// DeletesTotal tracks delete outcomes.
	// Labels:
	//   - result: deleted, blob_missing, blob_error
	DeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletes_total",
			Help:      "Total number of video deletions by result",
		},
		[]string{"result"},
	)

	// StreamResponsesTotal tracks stream responses.
	// Labels:
	//   - status: 200, 206, 416
	StreamResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_responses_total",
			Help:      "Total number of stream responses by status",
		},
		[]string{"status"},
	)

	// StreamedBytesTotal counts body bytes sent by stream responses.
	StreamedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streamed_bytes_total",
			Help:      "Total number of bytes streamed to clients",
		},
	)

	// StreamAbortsTotal tracks streams that ended before the window was sent.
	// Labels:
	//   - reason: client_gone, error
	StreamAbortsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_aborts_total",
			Help:      "Total number of streams that ended early",
		},
		[]string{"reason"},
	)

	// ActiveStreams is the number of stream bodies currently being copied.
	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_streams",
			Help:      "Number of stream bodies in flight",
		},
	)

	// CacheOperationsTotal tracks cache operations (get, set, delete).
	// Labels:
	//   - operation: get, set, delete
	//   - status: hit, miss, success, error
	//   - cache_type: redis
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of cache operations",
		},
		[]string{"operation", "status", "cache_type"},
	)

	// SingleflightRequestsTotal tracks singleflight behavior.
	// Labels:
	//   - result: initiated (new execution), shared (reused result)
	SingleflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "singleflight_requests_total",
			Help:      "Total number of singleflight requests",
		},
		[]string{"result"},
	)

	// EventsPublishedTotal tracks lifecycle event publication.
	// Labels:
	//   - type: video.uploaded, video.deleted
	//   - status: success, error
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of lifecycle events published",
		},
		[]string{"type", "status"},
	)
)

// Upload result constants.
const (
	UploadCreated   = "created"
	UploadDuplicate = "duplicate"
	UploadRejected  = "rejected"
	UploadFailed    = "failed"
)

// Delete result constants.
const (
	DeleteDeleted     = "deleted"
	DeleteBlobMissing = "blob_missing"
	DeleteBlobError   = "blob_error"
)

// Stream abort reason constants.
const (
	AbortClientGone = "client_gone"
	AbortError      = "error"
)

// Cache operation status constants.
const (
	CacheStatusHit     = "hit"
	CacheStatusMiss    = "miss"
	CacheStatusSuccess = "success"
	CacheStatusError   = "error"
)

// Cache operation type constants.
const (
	CacheOpGet    = "get"
	CacheOpSet    = "set"
	CacheOpDelete = "delete"
)

// Cache type constants.
const (
	CacheTypeRedis = "redis"
)

// Singleflight result constants.
const (
	SingleflightInitiated = "initiated"
	SingleflightShared    = "shared"
)

// Event publication status constants.
const (
	EventSuccess = "success"
	EventError   = "error"
)
