// Package provider defines the adapter interface for text-completion
// backends, the typed error taxonomy they report failures through, and a
// reusable ordered-fallback helper shared by the dispatcher and by adapters
// with intra-provider model fallback.
package provider

import (
	"context"
	"time"
)

// Provider is the interface one backing service implements. An adapter
// translates the generic Request into its provider's wire call and returns
// raw text, or a raw *Error carrying the originating status and kind.
// Adapters never classify their own failures; that policy lives in the
// dispatcher so there is exactly one of it.
type Provider interface {
	// Complete sends a completion request and returns the generated text.
	Complete(ctx context.Context, req Request) (string, error)

	// ModelName returns the identifier of the model currently in use.
	ModelName() string
}

// Descriptor is the configuration-time identity of a provider. It is built
// once at startup and never mutated afterwards.
type Descriptor struct {
	// Name is the display name, e.g. "groq".
	Name string

	// Tier is the priority rank. Lower tiers are tried first and tier
	// values are unique within a registry.
	Tier int

	// Timeout bounds a single adapter invocation.
	Timeout time.Duration

	// Model is the primary model identifier.
	Model string

	// FallbackModels is the ordered list of model ids tried when the
	// primary reports gone/not-found. Only adapters that support
	// intra-provider model fallback use it.
	FallbackModels []string
}
