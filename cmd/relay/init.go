package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create a configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString("output")
			if out == "" {
				out = configCandidates()[0]
			}
			return runInit(out)
		},
	}
	cmd.Flags().StringP("output", "o", "", "Where to write the configuration file")
	return cmd
}

func runInit(path string) error {
	var (
		groqKey     string
		hfKey       string
		geminiKey   string
		bind        = "127.0.0.1:8080"
		bearerToken string
		enableCache = true
		activityDB  string
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Groq API key").
				Description("Leave empty to skip this provider (or set GROQ_API_KEY later).").
				EchoMode(huh.EchoModePassword).
				Value(&groqKey),
			huh.NewInput().
				Title("Hugging Face API key").
				Description("Leave empty to skip this provider (or set HUGGINGFACE_API_KEY later).").
				EchoMode(huh.EchoModePassword).
				Value(&hfKey),
			huh.NewInput().
				Title("Gemini API key").
				Description("Leave empty to skip this provider (or set GEMINI_API_KEY later).").
				EchoMode(huh.EchoModePassword).
				Value(&geminiKey),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Bind address").
				Value(&bind),
			huh.NewInput().
				Title("Bearer token").
				Description("Leave empty to serve without authentication.").
				EchoMode(huh.EchoModePassword).
				Value(&bearerToken),
			huh.NewConfirm().
				Title("Enable response caching?").
				Value(&enableCache),
			huh.NewInput().
				Title("Activity database path").
				Description("Leave empty to disable the interaction log.").
				Value(&activityDB),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	doc := map[string]any{
		"gateway": map[string]any{
			"bind":         bind,
			"bearer_token": bearerToken,
		},
		"cache": map[string]any{
			"enabled": enableCache,
		},
	}

	providers := map[string]any{}
	if groqKey != "" {
		providers["groq"] = map[string]any{"api_key": groqKey}
	}
	if hfKey != "" {
		providers["huggingface"] = map[string]any{"api_key": hfKey}
	}
	if geminiKey != "" {
		providers["gemini"] = map[string]any{"api_key": geminiKey}
	}
	if len(providers) > 0 {
		doc["providers"] = providers
	}
	if activityDB != "" {
		doc["activity"] = map[string]any{"path": activityDB}
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	// The file may hold API keys; keep it private.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}

	fmt.Printf("Configuration written to %s\n", path)
	return nil
}
