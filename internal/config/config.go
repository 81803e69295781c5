// Package config handles configuration loading and stride home resolution.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is used when neither the config file nor the environment
// name an API host.
const DefaultBaseURL = "http://localhost:3001/api"

// BaseURLEnv overrides api.base_url.
const BaseURLEnv = "STRIDE_API_BASE_URL"

// HomeEnv overrides the stride home directory.
const HomeEnv = "STRIDE_HOME"

// ---------------------------------------------------------------------------
// Config types
// ---------------------------------------------------------------------------

// APIConfig holds settings for the REST backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SessionConfig controls how the auth token is persisted.
type SessionConfig struct {
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// UIConfig controls rendering and interaction limits.
type UIConfig struct {
	ReactionPalette []string `yaml:"reaction_palette"`
	MaxCommentDepth int      `yaml:"max_comment_depth"` // interaction stops at this level
}

// StrideConfig is the root per-home configuration.
type StrideConfig struct {
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	UI      UIConfig      `yaml:"ui"`
}

// Default returns a StrideConfig populated with sensible defaults.
func Default() *StrideConfig {
	return &StrideConfig{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: 15 * time.Second,
		},
		Session: SessionConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		UI: UIConfig{
			ReactionPalette: []string{"🔥", "🎉", "🤘"},
			MaxCommentDepth: 4,
		},
	}
}

// Load reads a per-home config.yaml from path, then applies environment
// overrides (including a .env file in the working directory).
// If the file does not exist the defaults are used. Missing keys retain their
// default values.
func Load(path string) (*StrideConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := applyYAML(cfg, data); err != nil {
			return nil, fmt.Errorf("config.Load %s: %w", path, err)
		}
	}

	// .env never overrides variables that are already set.
	_ = godotenv.Load()
	if v := strings.TrimSpace(os.Getenv(BaseURLEnv)); v != "" {
		cfg.API.BaseURL = v
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	return cfg, nil
}

func applyYAML(cfg *StrideConfig, data []byte) error {
	// Unmarshal into a plain map so we can apply only the keys that are present.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}

	if api, ok := raw["api"].(map[string]any); ok {
		if v, ok := api["base_url"].(string); ok && v != "" {
			cfg.API.BaseURL = v
		}
		if v, ok := api["timeout"].(string); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("api.timeout: %w", err)
			}
			cfg.API.Timeout = d
		}
	}

	if sess, ok := raw["session"].(map[string]any); ok {
		if v, ok := sess["token_ttl"].(string); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("session.token_ttl: %w", err)
			}
			cfg.Session.TokenTTL = d
		}
	}

	if ui, ok := raw["ui"].(map[string]any); ok {
		if v, ok := ui["reaction_palette"].([]any); ok && len(v) > 0 {
			palette := make([]string, 0, len(v))
			for _, e := range v {
				if s, ok := e.(string); ok && s != "" {
					palette = append(palette, s)
				}
			}
			if len(palette) > 0 {
				cfg.UI.ReactionPalette = palette
			}
		}
		if v, ok := ui["max_comment_depth"].(int); ok && v > 0 {
			cfg.UI.MaxCommentDepth = v
		}
	}
	return nil
}
