// Package gateway exposes the dispatch engine over HTTP: completion and
// streaming endpoints, usage stats, recent activity, health, and metrics.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nyxmora/relay/internal/activity"
	"github.com/nyxmora/relay/internal/cache"
	"github.com/nyxmora/relay/internal/config"
	"github.com/nyxmora/relay/internal/dispatch"
)

// Completer is the dispatch surface the gateway depends on.
type Completer interface {
	Dispatch(ctx context.Context, req dispatch.Request) (dispatch.Result, error)
	Stats() dispatch.Snapshot
}

// ActivityLog is the interaction log surface the gateway depends on.
type ActivityLog interface {
	Record(ctx context.Context, in activity.Interaction) error
	Recent(ctx context.Context, limit int) ([]activity.Interaction, error)
}

// Gateway is the HTTP front of the relay. All fields are set at
// construction; Start and Stop manage the server lifecycle.
type Gateway struct {
	config    config.GatewayConfig
	logger    *slog.Logger
	completer Completer
	cache     *cache.Cache[chatResult] // nil when response caching is off
	activity  ActivityLog              // nil when the activity log is off
	promReg   prometheus.Gatherer
	server    *http.Server
	startedAt time.Time
}

// Option configures optional Gateway collaborators.
type Option func(*Gateway)

// WithResponseCache enables response caching with the given entry
// lifetime.
func WithResponseCache(ttl time.Duration) Option {
	return func(g *Gateway) { g.cache = cache.New[chatResult](ttl) }
}

// WithActivityLog enables interaction logging.
func WithActivityLog(l ActivityLog) Option {
	return func(g *Gateway) { g.activity = l }
}

// WithPrometheus mounts GET /metrics serving the given gatherer.
func WithPrometheus(reg prometheus.Gatherer) Option {
	return func(g *Gateway) { g.promReg = reg }
}

// New creates a Gateway over the given dispatcher.
func New(cfg config.GatewayConfig, completer Completer, logger *slog.Logger, opts ...Option) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{
		config:    cfg,
		logger:    logger,
		completer: completer,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Start binds the listener and serves in the background.
func (g *Gateway) Start() error {
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeoutDuration(),
		WriteTimeout: g.config.WriteTimeoutDuration(),
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.Bind)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully within the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeoutDuration())
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
