package dispatch

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/nyxmora/relay/internal/config"
	"github.com/nyxmora/relay/internal/provider"
	"github.com/nyxmora/relay/internal/provider/gemini"
	"github.com/nyxmora/relay/internal/provider/groq"
	"github.com/nyxmora/relay/internal/provider/huggingface"
)

// kind describes one constructible provider kind. The slice order is the
// tier order: fastest and most reliable first.
type kind struct {
	name    string
	tier    int
	envVars []string
	build   func(pc config.ProviderConfig, key string) (provider.Provider, provider.Descriptor, error)
}

var kinds = []kind{
	{
		name:    groq.Name,
		tier:    1,
		envVars: []string{"GROQ_API_KEY"},
		build:   buildGroq,
	},
	{
		name:    huggingface.Name,
		tier:    2,
		envVars: []string{"HUGGINGFACE_API_KEY"},
		build:   buildHuggingFace,
	},
	{
		name:    gemini.Name,
		tier:    3,
		envVars: []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"},
		build:   buildGemini,
	},
}

// FromConfig builds the registry by probing each known provider kind in
// tier order. A kind with no credential is silently omitted; a kind whose
// adapter fails to construct is logged and omitted. Only an empty result
// is an error, and that error names every credential the operator could
// supply.
func FromConfig(cfg *config.Config, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.New(nopHandler{})
	}

	var entries []Entry
	for _, k := range kinds {
		pc := cfg.Provider(k.name)
		if pc.Disabled {
			logger.Info("provider disabled in config", "provider", k.name)
			continue
		}

		key := pc.APIKey
		if key == "" {
			key = firstEnv(k.envVars)
		}
		if key == "" {
			logger.Info("provider not configured, skipping",
				"provider", k.name,
				"credential", strings.Join(k.envVars, " or "),
			)
			continue
		}

		p, desc, err := k.build(pc, key)
		if err != nil {
			logger.Warn("provider construction failed, skipping",
				"provider", k.name,
				"error", err,
			)
			continue
		}
		desc.Tier = k.tier

		entries = append(entries, Entry{Descriptor: desc, Provider: p})
		logger.Info("provider registered",
			"provider", k.name,
			"tier", k.tier,
			"model", desc.Model,
		)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: set at least one of %s",
			ErrNoProviders, strings.Join(credentialVars(), ", "))
	}

	return NewRegistry(entries)
}

// credentialVars lists every credential environment variable across all
// known kinds, in tier order.
func credentialVars() []string {
	var vars []string
	for _, k := range kinds {
		vars = append(vars, k.envVars...)
	}
	return vars
}

// firstEnv returns the first non-empty value among the named variables.
func firstEnv(names []string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func buildGroq(pc config.ProviderConfig, key string) (provider.Provider, provider.Descriptor, error) {
	timeout := pc.TimeoutDuration(30 * time.Second)
	c, err := groq.New(groq.Config{
		APIKey:  key,
		Model:   pc.Model,
		BaseURL: pc.BaseURL,
		Timeout: timeout,
	})
	if err != nil {
		return nil, provider.Descriptor{}, err
	}
	return c, provider.Descriptor{
		Name:    groq.Name,
		Timeout: timeout,
		Model:   c.ModelName(),
	}, nil
}

func buildHuggingFace(pc config.ProviderConfig, key string) (provider.Provider, provider.Descriptor, error) {
	timeout := pc.TimeoutDuration(45 * time.Second)
	c, err := huggingface.New(huggingface.Config{
		APIKey:         key,
		Model:          pc.Model,
		FallbackModels: pc.FallbackModels,
		BaseURL:        pc.BaseURL,
		Timeout:        timeout,
	})
	if err != nil {
		return nil, provider.Descriptor{}, err
	}
	return c, provider.Descriptor{
		Name:           huggingface.Name,
		Timeout:        timeout,
		Model:          c.ModelName(),
		FallbackModels: c.FallbackModelNames(),
	}, nil
}

func buildGemini(pc config.ProviderConfig, key string) (provider.Provider, provider.Descriptor, error) {
	timeout := pc.TimeoutDuration(45 * time.Second)
	c, err := gemini.New(gemini.Config{
		APIKey:  key,
		Model:   pc.Model,
		BaseURL: pc.BaseURL,
		Timeout: timeout,
	})
	if err != nil {
		return nil, provider.Descriptor{}, err
	}
	return c, provider.Descriptor{
		Name:    gemini.Name,
		Timeout: timeout,
		Model:   c.ModelName(),
	}, nil
}
