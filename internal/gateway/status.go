package gateway

import (
	"net/http"
	"strconv"
	"time"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status    string `json:"status"` // "ok" or "degraded"
	Uptime    string `json:"uptime"`
	Providers int    `json:"providers"`
	Enabled   int    `json:"enabled"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
// Returns 200 while at least one provider is enabled, 503 once the chain
// has no one left to try.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snap := g.completer.Stats()

		resp := HealthResponse{
			Status:    "ok",
			Uptime:    time.Since(g.startedAt).Round(time.Second).String(),
			Providers: len(snap),
		}
		for _, ps := range snap {
			if ps.Enabled {
				resp.Enabled++
			}
		}
		if resp.Enabled == 0 {
			resp.Status = "degraded"
		}

		status := http.StatusOK
		if resp.Status == "degraded" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

// handleStats returns an http.HandlerFunc for GET /v1/stats: the usage
// snapshot for every configured provider.
func (g *Gateway) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, g.completer.Stats())
	}
}

// handleActivity returns an http.HandlerFunc for GET /v1/activity: the
// most recent interactions, newest first. The limit query parameter caps
// the result (default 50).
func (g *Gateway) handleActivity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.activity == nil {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "activity log disabled"})
			return
		}

		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
				return
			}
			limit = n
		}

		items, err := g.activity.Recent(r.Context(), limit)
		if err != nil {
			g.logger.Error("activity query failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}
