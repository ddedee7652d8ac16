package config

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// envRef matches ${NAME} and ${NAME:-fallback} references in raw YAML.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// Load reads the YAML file at path, expands environment references, and
// returns the parsed configuration with defaults filled in.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse parses already-read YAML configuration bytes. Exposed so callers
// with in-memory config (tests, embedded defaults) skip the file read.
func Parse(raw []byte) (*Config, error) {
	expanded, err := expandEnv(raw)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}

	cfg.defaults()
	return &cfg, nil
}

// expandEnv rewrites every environment reference in raw. A set variable
// wins over the fallback; a reference with neither is collected and
// reported in a single error naming all of them.
func expandEnv(raw []byte) ([]byte, error) {
	var (
		out     bytes.Buffer
		missing []string
		last    int
	)

	for _, m := range envRef.FindAllSubmatchIndex(raw, -1) {
		out.Write(raw[last:m[0]])
		last = m[1]

		name := string(raw[m[2]:m[3]])
		if v, ok := os.LookupEnv(name); ok {
			out.WriteString(v)
			continue
		}
		if m[4] >= 0 {
			out.Write(raw[m[4]:m[5]])
			continue
		}
		missing = append(missing, name)
	}
	out.Write(raw[last:])

	if len(missing) > 0 {
		return nil, fmt.Errorf("unresolved variables: %s", strings.Join(missing, ", "))
	}
	return out.Bytes(), nil
}
