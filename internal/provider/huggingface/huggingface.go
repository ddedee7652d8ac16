// Package huggingface implements the Hugging Face Inference API adapter.
// The Inference API has no structured-chat concept, so conversations are
// flattened into a single labeled prompt. Deprecated model ids are common
// on this service; the adapter walks an ordered list of fallback model ids
// when the primary reports gone/not-found.
package huggingface

import (
	"errors"
	"net/http"
	"time"

	"github.com/nyxmora/relay/internal/provider"
)

// Name is the provider display name used in registry entries and errors.
const Name = "huggingface"

// defaultFallbackModels is the ordered list tried after the primary,
// most recent first.
var defaultFallbackModels = []string{
	"mistralai/Mixtral-8x7B-Instruct-v0.1",
	"meta-llama/Llama-3-8b-instruct",
	"google/flan-t5-large",
}

// Config holds the configuration for the Hugging Face adapter.
type Config struct {
	APIKey         string
	Model          string
	FallbackModels []string
	BaseURL        string
	Timeout        time.Duration

	// WarmupDelay is the pause before the single retry performed when a
	// model reports it is still loading.
	WarmupDelay time.Duration
}

// defaults fills zero-valued fields with sensible defaults.
func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = "mistralai/Mistral-7B-Instruct-v0.3"
	}
	if c.FallbackModels == nil {
		c.FallbackModels = defaultFallbackModels
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api-inference.huggingface.co/models"
	}
	if c.Timeout <= 0 {
		c.Timeout = 45 * time.Second
	}
	if c.WarmupDelay <= 0 {
		c.WarmupDelay = 5 * time.Second
	}
}

// Client is the Hugging Face adapter.
type Client struct {
	config Config
	client *http.Client
	models []string // primary followed by fallbacks, in try order
}

// Compile-time interface guard.
var _ provider.Provider = (*Client)(nil)

// New creates a Hugging Face adapter from the given config.
func New(cfg Config) (*Client, error) {
	cfg.defaults()
	if cfg.APIKey == "" {
		return nil, errors.New("huggingface: api key is required")
	}

	models := make([]string, 0, 1+len(cfg.FallbackModels))
	models = append(models, cfg.Model)
	models = append(models, cfg.FallbackModels...)

	return &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		models: models,
	}, nil
}

// ModelName returns the primary model identifier.
func (c *Client) ModelName() string {
	return c.config.Model
}

// FallbackModelNames returns the ordered fallback model ids.
func (c *Client) FallbackModelNames() []string {
	return c.config.FallbackModels
}
