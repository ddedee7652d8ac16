package config

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// knownKinds are the provider kinds the registry can construct.
var knownKinds = map[string]struct{}{
	"groq":        {},
	"huggingface": {},
	"gemini":      {},
}

// Validate checks the configuration for structural problems. It collects
// every error it finds rather than stopping at the first one.
func Validate(cfg *Config) error {
	var errs []error

	if _, err := net.ResolveTCPAddr("tcp", cfg.Gateway.Bind); err != nil {
		errs = append(errs, fmt.Errorf("gateway: invalid bind address %q", cfg.Gateway.Bind))
	}

	for field, val := range map[string]string{
		"gateway.read_timeout":     cfg.Gateway.ReadTimeout,
		"gateway.write_timeout":    cfg.Gateway.WriteTimeout,
		"gateway.shutdown_timeout": cfg.Gateway.ShutdownTimeout,
		"cache.ttl":                cfg.Cache.TTL,
	} {
		if err := validDuration(val); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}

	for kind, pc := range cfg.Providers {
		if _, ok := knownKinds[kind]; !ok {
			errs = append(errs, fmt.Errorf("providers: unknown kind %q", kind))
			continue
		}
		if err := validDuration(pc.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("providers.%s.timeout: %w", kind, err))
		}
	}

	return errors.Join(errs...)
}

// validDuration accepts empty strings (defaults apply) and valid positive
// Go duration strings.
func validDuration(s string) error {
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q", s)
	}
	if d <= 0 {
		return fmt.Errorf("duration %q must be positive", s)
	}
	return nil
}
