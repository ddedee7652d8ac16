package dispatch

// ProviderStats is the read-only usage view of one provider.
type ProviderStats struct {
	Enabled  bool  `json:"enabled"`
	Success  int64 `json:"success"`
	Failures int64 `json:"failures"`

	// SuccessRate is success/(success+failures). Nil when the provider
	// has not been attempted yet.
	SuccessRate *float64 `json:"success_rate,omitempty"`
}

// Snapshot maps provider names to their usage stats.
type Snapshot map[string]ProviderStats

// Stats returns a point-in-time usage snapshot for every configured
// provider, including disabled ones.
func (r *Registry) Stats() Snapshot {
	snap := make(Snapshot, len(r.entries))
	for _, e := range r.entries {
		enabled, success, failures := e.counters()
		ps := ProviderStats{
			Enabled:  enabled,
			Success:  success,
			Failures: failures,
		}
		if total := success + failures; total > 0 {
			rate := float64(success) / float64(total)
			ps.SuccessRate = &rate
		}
		snap[e.desc.Name] = ps
	}
	return snap
}
