// Package api exposes the action engine over HTTP.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/actionserver/internal/engine"
	"github.com/gyaneshwarpardhi/actionserver/internal/metrics"
	"github.com/gyaneshwarpardhi/actionserver/internal/tracker"
)

// IndexText is served on GET /.
const IndexText = "Action Server Running"

// maxRequestBody bounds a webhook body; trackers carry the whole event log.
const maxRequestBody = 16 << 20

// Reloader re-reads the action store. It returns the number of actions loaded.
type Reloader interface {
	Reload() (int, error)
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng   *engine.Engine
	store Reloader
	mux   *http.ServeMux
}

// New creates an HTTP handler and registers all routes. store may be nil when
// the action store cannot be reloaded.
func New(eng *engine.Engine, store Reloader) http.Handler {
	h := &Handler{eng: eng, store: store, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /webhook", h.webhook)
	h.mux.HandleFunc("GET /{$}", h.index)
	h.mux.HandleFunc("POST /v1/store/reload", h.reloadStore)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// POST /webhook: run one action for the orchestrator.
func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	var req tracker.Request
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}

	res, err := h.eng.Handle(r.Context(), &req)
	if err != nil {
		slog.Error("dispatch failed", "action", req.NextAction, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// A nil result encodes as null.
	writeJSON(w, http.StatusOK, res)
}

// GET /: plain-text liveness banner.
func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, IndexText)
}

// POST /v1/store/reload: re-read the action store from disk.
func (h *Handler) reloadStore(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotImplemented, "action store does not support reloading")
		return
	}
	n, err := h.store.Reload()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":      true,
		"actions_count": n,
	})
}

// GET /healthz: always 200 (liveness check).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"action_types": h.eng.Types(),
	})
}

// GET /readyz: 503 if the audit queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.AuditQueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}
