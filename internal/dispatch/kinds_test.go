package dispatch

import (
	"errors"
	"strings"
	"testing"

	"github.com/nyxmora/relay/internal/config"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, name := range credentialVars() {
		t.Setenv(name, "")
	}
}

func TestFromConfigNoCredentials(t *testing.T) {
	clearCredentialEnv(t)

	_, err := FromConfig(config.Default(), nil)
	if !errors.Is(err, ErrNoProviders) {
		t.Fatalf("FromConfig error = %v, want ErrNoProviders", err)
	}
	for _, name := range []string{"GROQ_API_KEY", "HUGGINGFACE_API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not name %s", err, name)
		}
	}
}

func TestFromConfigEnvCredential(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-test")

	reg, err := FromConfig(config.Default(), nil)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if got := reg.Names(); len(got) != 1 || got[0] != "groq" {
		t.Errorf("Names() = %v, want [groq]", got)
	}
}

func TestFromConfigTierOrder(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("HUGGINGFACE_API_KEY", "hf-test")
	t.Setenv("GEMINI_API_KEY", "goog-test")

	reg, err := FromConfig(config.Default(), nil)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	want := []string{"groq", "huggingface", "gemini"}
	got := reg.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFromConfigKeyOverridesEnv(t *testing.T) {
	clearCredentialEnv(t)

	cfg := config.Default()
	cfg.Providers = map[string]config.ProviderConfig{
		"gemini": {APIKey: "from-config", Model: "gemini-1.5-flash"},
	}

	reg, err := FromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if got := reg.Names(); len(got) != 1 || got[0] != "gemini" {
		t.Fatalf("Names() = %v, want [gemini]", got)
	}

	snap := reg.Stats()
	if _, ok := snap["gemini"]; !ok {
		t.Error("gemini missing from stats")
	}
	if reg.entries[0].desc.Model != "gemini-1.5-flash" {
		t.Errorf("model = %q, want config override", reg.entries[0].desc.Model)
	}
}

func TestFromConfigDisabledSkipsKind(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("HUGGINGFACE_API_KEY", "hf-test")

	cfg := config.Default()
	cfg.Providers = map[string]config.ProviderConfig{
		"huggingface": {Disabled: true},
	}

	reg, err := FromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if got := reg.Names(); len(got) != 1 || got[0] != "groq" {
		t.Errorf("Names() = %v, want [groq]", got)
	}
}
