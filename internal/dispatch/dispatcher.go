package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nyxmora/relay/internal/metrics"
	"github.com/nyxmora/relay/internal/provider"
)

// nopHandler is a slog.Handler that discards all log records.
// Enabled returns false so slog skips formatting entirely (zero cost).
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (nopHandler) Handle(context.Context, slog.Record) error { return nil }

func (nopHandler) WithAttrs([]slog.Attr) slog.Handler { return nopHandler{} }

func (nopHandler) WithGroup(string) slog.Handler { return nopHandler{} }

// Normalizer post-processes successful completion text. A failing
// normalizer never fails the dispatch; the raw text is returned instead.
type Normalizer interface {
	Normalize(text string) (string, error)
}

// Request is the input to one dispatch call.
type Request struct {
	Messages    []provider.Message `json:"messages"`
	Temperature *float64           `json:"temperature,omitempty"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
	FixTypos    bool               `json:"fix_typos,omitempty"`
}

// Result is the terminal success of one dispatch call.
type Result struct {
	Text     string        `json:"text"`
	Provider string        `json:"provider"`
	Elapsed  time.Duration `json:"elapsed"`
}

// ExhaustionError is the terminal failure of one dispatch call: every
// enabled provider was tried and failed. Attempted lists the provider
// names in traversal order; it is empty when no provider was enabled at
// call start. LastVerdict is meaningful only when LastErr is non-nil.
type ExhaustionError struct {
	Attempted   []string
	LastErr     error
	LastVerdict Verdict
}

// Error implements the error interface.
func (e *ExhaustionError) Error() string {
	if len(e.Attempted) == 0 {
		return "dispatch: no enabled providers"
	}
	return fmt.Sprintf("dispatch: all %d providers failed (attempted: %s): last error: %v",
		len(e.Attempted), strings.Join(e.Attempted, ", "), e.LastErr)
}

// Unwrap returns the last raw provider error.
func (e *ExhaustionError) Unwrap() error { return e.LastErr }

// Option configures optional Dispatcher behavior.
type Option func(*Dispatcher)

// WithLogger injects a structured logger. When nil or omitted, all log
// output is silently discarded.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithNormalizer injects the response normalizer used when a request sets
// FixTypos.
func WithNormalizer(n Normalizer) Option {
	return func(d *Dispatcher) { d.normalizer = n }
}

// WithMetrics injects the Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// Dispatcher orchestrates the registry traversal: it invokes adapters in
// priority order, classifies their failures, updates breaker state and
// stats, and returns the first success or an aggregate failure. A single
// call is strictly sequential; concurrent calls are safe.
type Dispatcher struct {
	reg        *Registry
	normalizer Normalizer
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// New creates a Dispatcher over the given registry.
func New(reg *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		reg:    reg,
		tracer: otel.Tracer("relay/dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.New(nopHandler{})
	}
	return d
}

// Stats returns the usage snapshot for every configured provider.
func (d *Dispatcher) Stats() Snapshot {
	return d.reg.Stats()
}

// Dispatch runs one completion request through the provider chain. It
// returns the first successful result, or an *ExhaustionError once every
// enabled provider has been tried. Caller cancellation is returned as-is.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Result, error) {
	ctx, span := d.tracer.Start(ctx, "dispatch")
	defer span.End()

	start := time.Now()
	candidates := d.reg.enabledEntries()
	attempted := make([]string, 0, len(candidates))

	if len(candidates) == 0 {
		d.metrics.RecordDispatch("exhausted", time.Since(start))
		d.logger.Error("dispatch failed: no enabled providers")
		return Result{}, &ExhaustionError{Attempted: attempted}
	}

	preq := provider.Request{
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	var (
		lastVerdict    Verdict
		winner         *entry
		attemptElapsed time.Duration
	)

	text, err := provider.TryEach(ctx, candidates,
		func(ctx context.Context, e *entry) (string, error) {
			attempted = append(attempted, e.desc.Name)
			attemptStart := time.Now()

			actx, attemptSpan := d.tracer.Start(ctx, "dispatch.attempt",
				trace.WithAttributes(
					attribute.String("provider", e.desc.Name),
					attribute.String("model", e.impl.ModelName()),
				))
			text, err := e.impl.Complete(actx, preq)
			if err != nil {
				attemptSpan.RecordError(err)
			}
			attemptSpan.End()

			if err == nil {
				attemptElapsed = time.Since(attemptStart)
				winner = e
				e.recordSuccess()
				d.metrics.RecordAttempt(e.desc.Name, "success")
				d.logger.Info("provider succeeded",
					"provider", e.desc.Name,
					"elapsed", attemptElapsed,
				)
			}
			return text, err
		},
		func(e *entry, err error) bool {
			verdict := Classify(err)
			lastVerdict = verdict
			e.recordFailure(verdict == VerdictUnavailable)
			d.metrics.RecordAttempt(e.desc.Name, verdict.String())

			switch verdict {
			case VerdictUnavailable:
				d.logger.Warn("provider permanently unavailable, disabled for this run",
					"provider", e.desc.Name,
					"error", err,
				)
			case VerdictFatal:
				d.logger.Error("provider failed; likely needs operator action",
					"provider", e.desc.Name,
					"error", err,
				)
			default:
				d.logger.Warn("provider failed, trying next",
					"provider", e.desc.Name,
					"error", err,
				)
			}

			// One provider's failure never aborts the chain: a healthy
			// lower-priority provider must still get its turn.
			return true
		},
	)

	if err != nil {
		if cerr := ctx.Err(); cerr != nil && errors.Is(err, cerr) {
			return Result{}, err
		}

		exh := &ExhaustionError{Attempted: attempted, LastErr: err, LastVerdict: lastVerdict}
		d.metrics.RecordDispatch("exhausted", time.Since(start))
		d.logger.Error("all providers exhausted",
			"attempted", attempted,
			"last_error", err,
			"last_verdict", lastVerdict.String(),
		)
		return Result{}, exh
	}

	res := Result{
		Text:     text,
		Provider: winner.desc.Name,
		Elapsed:  attemptElapsed,
	}

	if req.FixTypos && d.normalizer != nil {
		fixed, nerr := d.normalizer.Normalize(text)
		if nerr != nil {
			d.logger.Warn("normalizer failed, returning raw text",
				"provider", res.Provider,
				"error", nerr,
			)
		} else {
			res.Text = fixed
		}
	}

	d.metrics.RecordDispatch("succeeded", time.Since(start))
	return res, nil
}
