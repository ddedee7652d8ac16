package dispatch

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nyxmora/relay/internal/provider"
)

// ErrNoProviders indicates the registry would be empty: no provider kind
// had usable credentials. This is the only condition that refuses startup.
var ErrNoProviders = errors.New("no providers configured")

// Entry pairs a provider descriptor with its adapter for registry
// construction.
type Entry struct {
	Descriptor provider.Descriptor
	Provider   provider.Provider
}

// entry is the internal representation: the immutable descriptor plus the
// mutable runtime state. The mutex guards enabled and both counters; the
// descriptor and adapter are never written after construction.
type entry struct {
	desc provider.Descriptor
	impl provider.Provider

	mu       sync.Mutex
	enabled  bool
	success  int64
	failures int64
}

// isEnabled reports whether the provider participates in new traversals.
func (e *entry) isEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// recordSuccess increments the success counter.
func (e *entry) recordSuccess() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.success++
}

// recordFailure increments the failure counter and, when disable is set,
// flips the provider off for the remainder of the process lifetime.
func (e *entry) recordFailure(disable bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures++
	if disable {
		e.enabled = false
	}
}

// counters returns a consistent view of the runtime state.
func (e *entry) counters() (enabled bool, success, failures int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled, e.success, e.failures
}

// Registry is the ordered list of configured providers. The order is the
// priority order: entries are sorted by strictly increasing tier at
// construction time and never reordered.
type Registry struct {
	entries []*entry
}

// NewRegistry creates a registry from the given entries. Entries must be
// in strictly increasing tier order with unique names.
func NewRegistry(entries []Entry) (*Registry, error) {
	if len(entries) == 0 {
		return nil, ErrNoProviders
	}

	seen := make(map[string]struct{}, len(entries))
	internal := make([]*entry, len(entries))
	for i, e := range entries {
		if e.Provider == nil {
			return nil, fmt.Errorf("registry: entry %q has nil provider", e.Descriptor.Name)
		}
		if _, dup := seen[e.Descriptor.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate provider name %q", e.Descriptor.Name)
		}
		seen[e.Descriptor.Name] = struct{}{}
		if i > 0 && e.Descriptor.Tier <= entries[i-1].Descriptor.Tier {
			return nil, fmt.Errorf("registry: tier %d of %q does not increase over previous entry",
				e.Descriptor.Tier, e.Descriptor.Name)
		}
		internal[i] = &entry{
			desc:    e.Descriptor,
			impl:    e.Provider,
			enabled: true,
		}
	}

	return &Registry{entries: internal}, nil
}

// Len returns the number of configured providers, enabled or not.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Names returns every configured provider name in priority order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.desc.Name
	}
	return names
}

// enabledEntries snapshots the currently enabled providers in priority
// order. A provider disabled by a concurrent call after the snapshot is
// still attempted by traversals already in flight; that is the documented
// visibility contract.
func (r *Registry) enabledEntries() []*entry {
	out := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.isEnabled() {
			out = append(out, e)
		}
	}
	return out
}
