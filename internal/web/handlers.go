package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/justestif/go-library-themes/internal/themes"
)

// Handlers contains the HTTP handlers of the theme API.
type Handlers struct {
	engine Discoverer
	runner *Runner
	log    *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(engine Discoverer, runner *Runner, log *zap.Logger) *Handlers {
	return &Handlers{engine: engine, runner: runner, log: log}
}

type themesResponse struct {
	Themes []themes.Theme `json:"themes"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Themes returns the cached themes (GET /api/themes).
func (h *Handlers) Themes(w http.ResponseWriter, r *http.Request) {
	cached, ok := h.engine.Cached()
	if !ok {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no cached themes, start a discovery run"})
		return
	}
	h.writeJSON(w, http.StatusOK, themesResponse{Themes: cached})
}

// StartDiscovery launches a run (POST /api/themes/discover).
func (h *Handlers) StartDiscovery(w http.ResponseWriter, r *http.Request) {
	job, err := h.runner.Start()
	if errors.Is(err, ErrDiscoveryRunning) {
		h.writeJSON(w, http.StatusConflict, struct {
			errorResponse
			Job Job `json:"job"`
		}{errorResponse{Error: err.Error()}, job})
		return
	}
	w.Header().Set("Location", "/api/themes/discover")
	h.writeJSON(w, http.StatusAccepted, job)
}

// DiscoveryStatus reports the latest run (GET /api/themes/discover).
func (h *Handlers) DiscoveryStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := h.runner.Status()
	if !ok {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no discovery has been started"})
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

// CancelDiscovery stops the running job (DELETE /api/themes/discover).
func (h *Handlers) CancelDiscovery(w http.ResponseWriter, r *http.Request) {
	if !h.runner.Cancel() {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no discovery is running"})
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// ClearCache removes the cached themes (DELETE /api/themes/cache).
func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ClearCache(); err != nil {
		h.log.Error("clearing theme cache", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to clear cache"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health answers liveness probes (GET /healthz).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn("writing response", zap.Error(err))
	}
}
