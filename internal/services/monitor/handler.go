package monitor

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Routes mounts the manual triggers used by the external management layer.
func (e *Engine) Routes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/cycle", e.handleCycle)
		r.Post("/rotate", e.handleRotate)
	})
}

// Health reports whether the loops are running.
func (e *Engine) Health(context.Context) error {
	if !e.Running() {
		return errNotRunning
	}
	return nil
}

func (e *Engine) handleCycle(w http.ResponseWriter, r *http.Request) {
	// a client hanging up must not abandon checks mid-probe
	stats, err := e.ProcessAllChecks(context.WithoutCancel(r.Context()))
	if err != nil {
		e.log.Warn("manual cycle failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (e *Engine) handleRotate(w http.ResponseWriter, r *http.Request) {
	stats, err := e.RotateLogs(r.Context())
	if err != nil {
		writeJSON(w, http.StatusMultiStatus, map[string]any{"stats": stats, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
