// Package dispatch implements the multi-provider dispatch engine: the
// tier-ordered provider registry, the per-call fallback traversal, the
// error classifier, the session-scoped circuit breaker, and the usage
// stats accumulator.
package dispatch

import (
	"context"
	"errors"

	"github.com/nyxmora/relay/internal/provider"
)

// Verdict describes how a provider failure affects subsequent control
// flow. It is derived deterministically from the raw error and never
// stored.
type Verdict int

const (
	// VerdictRetryable marks transient failures: rate limiting, service
	// unavailable, timeouts, connection faults. The traversal advances
	// and the provider stays enabled for future calls.
	VerdictRetryable Verdict = iota

	// VerdictUnavailable marks the upstream reporting the requested
	// resource gone or not found. The provider is disabled for the rest
	// of the process lifetime: a 410/404 reflects a deprecated model id,
	// not load, so retrying later in the same run is pointless.
	VerdictUnavailable

	// VerdictFatal marks everything else, typically authentication or
	// malformed-request failures. The traversal still advances, since one
	// provider's misconfiguration must not deny service when another
	// provider is healthy, but the failure is logged as needing operator
	// action.
	VerdictFatal
)

// String returns a human-readable label for the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictRetryable:
		return "retryable"
	case VerdictUnavailable:
		return "unavailable"
	case VerdictFatal:
		return "fatal"
	default:
		return "invalid"
	}
}

// Classify maps a raw adapter failure to a verdict. It is a pure function
// of the error value: the same error always yields the same verdict.
func Classify(err error) Verdict {
	if errors.Is(err, provider.ErrModelsExhausted) {
		return VerdictUnavailable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return VerdictRetryable
	}

	switch provider.KindOf(err) {
	case provider.KindModelGone:
		return VerdictUnavailable
	case provider.KindRateLimit, provider.KindUnavailable,
		provider.KindTimeout, provider.KindConnection:
		return VerdictRetryable
	default:
		return VerdictFatal
	}
}
