// Package gemini implements the Google Gemini generateContent adapter.
// Gemini takes a single prompt, so conversations are flattened into a
// labeled prompt string before the call.
package gemini

import (
	"errors"
	"net/http"
	"time"

	"github.com/nyxmora/relay/internal/provider"
)

// Name is the provider display name used in registry entries and errors.
const Name = "gemini"

// Config holds the configuration for the Gemini adapter.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// defaults fills zero-valued fields with sensible defaults.
func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = "gemini-pro"
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.Timeout <= 0 {
		c.Timeout = 45 * time.Second
	}
}

// Client is the Gemini adapter.
type Client struct {
	config Config
	client *http.Client
}

// Compile-time interface guard.
var _ provider.Provider = (*Client)(nil)

// New creates a Gemini adapter from the given config.
func New(cfg Config) (*Client, error) {
	cfg.defaults()
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	return &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// ModelName returns the configured model identifier.
func (c *Client) ModelName() string {
	return c.config.Model
}
