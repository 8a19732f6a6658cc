// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/llm"
)

// Config holds all application configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	// DBPath is the event store location. Empty means the default
	// XDG data path.
	DBPath string

	// AllowedOrigins is the CORS allowlist for the browser client.
	AllowedOrigins []string

	// PythonInterpreter names the interpreter binary for the Python
	// execution environment.
	PythonInterpreter string

	// LLM carries provider selection and credentials.
	LLM llm.Config
}

// Load reads configuration from the environment, consulting a .env file
// when present.
func Load() (*Config, error) {
	// Missing .env is fine; plain env vars still apply.
	_ = godotenv.Load()

	cfg := &Config{
		Addr:              getEnv("DSPAD_ADDR", ":8080"),
		DBPath:            os.Getenv("DSPAD_DB"),
		AllowedOrigins:    splitList(getEnv("DSPAD_ALLOWED_ORIGINS", "*")),
		PythonInterpreter: getEnv("DSPAD_PYTHON", "python3"),
		LLM:               llm.ConfigFromEnv(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the fields that must be set. The LLM credential is
// deliberately not required here: the generation proxy accepts a
// caller-supplied key per request and only fails when neither is present.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("DSPAD_ADDR cannot be empty")
	}
	if c.PythonInterpreter == "" {
		return fmt.Errorf("DSPAD_PYTHON cannot be empty")
	}
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("DSPAD_ALLOWED_ORIGINS cannot be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
