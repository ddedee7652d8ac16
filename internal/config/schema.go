// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for relay.
package config

import "time"

// Config is the top-level configuration structure. Every section is
// optional; a missing config file yields Default().
type Config struct {
	Gateway   GatewayConfig             `yaml:"gateway"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Cache     CacheConfig               `yaml:"cache"`
	Activity  ActivityConfig            `yaml:"activity"`
	Telemetry TelemetryConfig           `yaml:"telemetry"`
	Report    ReportConfig              `yaml:"report"`
}

// GatewayConfig holds HTTP gateway configuration.
type GatewayConfig struct {
	Bind            string `yaml:"bind"`
	BearerToken     string `yaml:"bearer_token"`
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// ProviderConfig overrides the built-in defaults of one provider kind.
// The map key in Config.Providers selects the kind ("groq", "huggingface",
// "gemini"). Absent credentials silently omit the provider from the
// registry; that is not an error unless it empties the registry.
type ProviderConfig struct {
	APIKey         string   `yaml:"api_key"`
	Model          string   `yaml:"model"`
	FallbackModels []string `yaml:"fallback_models"`
	BaseURL        string   `yaml:"base_url"`
	Timeout        string   `yaml:"timeout"`
	Disabled       bool     `yaml:"disabled"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	TTL     string `yaml:"ttl"`
}

// ActivityConfig controls the sqlite interaction log.
type ActivityConfig struct {
	Path string `yaml:"path"`
}

// TelemetryConfig controls the OTLP trace exporter.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// ReportConfig controls the periodic usage report job.
type ReportConfig struct {
	// Schedule is a cron expression. Empty disables the job.
	Schedule string `yaml:"schedule"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.defaults()
	return cfg
}

// defaults fills zero-valued fields with sensible defaults.
func (c *Config) defaults() {
	if c.Gateway.Bind == "" {
		c.Gateway.Bind = "127.0.0.1:8080"
	}
	if c.Gateway.ReadTimeout == "" {
		c.Gateway.ReadTimeout = "10s"
	}
	if c.Gateway.WriteTimeout == "" {
		c.Gateway.WriteTimeout = "120s"
	}
	if c.Gateway.ShutdownTimeout == "" {
		c.Gateway.ShutdownTimeout = "5s"
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = "5m"
	}
}

// Provider returns the override section for the given kind, or a zero
// value when the section is absent.
func (c *Config) Provider(kind string) ProviderConfig {
	if c.Providers == nil {
		return ProviderConfig{}
	}
	return c.Providers[kind]
}

// parseDuration parses a duration string, falling back when unset.
// Assumes the value has been validated by Validate.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// ReadTimeoutDuration returns the parsed gateway read timeout.
func (c *GatewayConfig) ReadTimeoutDuration() time.Duration {
	return parseDuration(c.ReadTimeout, 10*time.Second)
}

// WriteTimeoutDuration returns the parsed gateway write timeout.
func (c *GatewayConfig) WriteTimeoutDuration() time.Duration {
	return parseDuration(c.WriteTimeout, 120*time.Second)
}

// ShutdownTimeoutDuration returns the parsed gateway shutdown timeout.
func (c *GatewayConfig) ShutdownTimeoutDuration() time.Duration {
	return parseDuration(c.ShutdownTimeout, 5*time.Second)
}

// TimeoutDuration returns the parsed per-provider timeout, or fallback
// when unset.
func (p ProviderConfig) TimeoutDuration(fallback time.Duration) time.Duration {
	return parseDuration(p.Timeout, fallback)
}

// TTLDuration returns the parsed cache TTL.
func (c CacheConfig) TTLDuration() time.Duration {
	return parseDuration(c.TTL, 5*time.Minute)
}
