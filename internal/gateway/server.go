package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Public routes, no auth required.
	r.Get("/health", g.handleHealth())
	if g.promReg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(g.promReg, promhttp.HandlerOpts{}))
	}

	// API endpoints, bearer auth when a token is configured.
	r.Group(func(r chi.Router) {
		if g.config.BearerToken != "" {
			r.Use(authMiddleware(g.config.BearerToken))
		}
		r.Post("/v1/chat", g.handleChat())
		r.Get("/v1/chat/ws", g.handleChatWS())
		r.Get("/v1/stats", g.handleStats())
		r.Get("/v1/activity", g.handleActivity())
	})

	return r
}
