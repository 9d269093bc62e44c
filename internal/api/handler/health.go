package handler

import (
	"context"
	"net/http"
	"time"
)

type HealthResponse struct {
	Status string `json:"status"`
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// Health answers 200 while the metadata store responds and 503 otherwise.
// A nil store always reports ok.
func Health(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				JSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
				return
			}
		}
		JSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
