// Package groq implements the Groq chat completions adapter. Groq exposes
// an OpenAI-compatible API, so the wire shapes here follow that format.
package groq

import (
	"errors"
	"net/http"
	"time"

	"github.com/nyxmora/relay/internal/provider"
)

// Name is the provider display name used in registry entries and errors.
const Name = "groq"

// Config holds the configuration for the Groq adapter.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// defaults fills zero-valued fields with sensible defaults.
func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = "llama-3.3-70b-versatile"
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// Client is the Groq adapter.
type Client struct {
	config Config
	client *http.Client
}

// Compile-time interface guard.
var _ provider.Provider = (*Client)(nil)

// New creates a Groq adapter from the given config.
func New(cfg Config) (*Client, error) {
	cfg.defaults()
	if cfg.APIKey == "" {
		return nil, errors.New("groq: api key is required")
	}
	return &Client{
		config: cfg,
		// The client timeout is the descriptor timeout: it bounds the
		// whole request including the response body.
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// ModelName returns the configured model identifier.
func (c *Client) ModelName() string {
	return c.config.Model
}
