package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tubevault/tubevault/internal/download"
	"github.com/tubevault/tubevault/internal/logctx"
)

// ProgressSource exposes a live snapshot of the download run.
type ProgressSource interface {
	Progress() download.Summary
}

// StatusHandler serves the downloader's ops endpoints.
type StatusHandler struct {
	progress ProgressSource
	metrics  http.Handler
}

func NewStatusHandler(progress ProgressSource, metrics http.Handler) *StatusHandler {
	return &StatusHandler{progress: progress, metrics: metrics}
}

func (h *StatusHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/status", h.handleStatus)

	if h.metrics != nil {
		r.Handle("/metrics", h.metrics)
	}

	return r
}

func (h *StatusHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(h.progress.Progress()); err != nil {
		logctx.LoggerFromContext(r.Context()).Error("failed to encode status", "err", err)
	}
}
