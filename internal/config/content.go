package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// ContentConfig configures the OpenAI-compatible content service that
// writes captions and paints images.
type ContentConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	TextModel  string        `mapstructure:"text_model"`
	ImageModel string        `mapstructure:"image_model"`
	ImageSize  string        `mapstructure:"image_size"`
	APIKey     string        `mapstructure:"api_key"`     // API key (can be set directly or via env var)
	APIKeyEnv  string        `mapstructure:"api_key_env"` // Environment variable name for API key
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ResolveEnvVars loads the API key from APIKeyEnv when no key is set directly.
func (c *ContentConfig) ResolveEnvVars() {
	if c.APIKeyEnv != "" && c.APIKey == "" {
		if val := os.Getenv(c.APIKeyEnv); val != "" {
			c.APIKey = val
		}
	}
}

// Validate checks that the content service can be called.
func (c *ContentConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("content: base_url is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("content: base_url %q must be an http(s) URL", c.BaseURL)
	}
	if c.TextModel == "" {
		return fmt.Errorf("content: text_model is required")
	}
	if c.ImageModel == "" {
		return fmt.Errorf("content: image_model is required")
	}
	if c.APIKey == "" {
		envHint := "OPENAI_API_KEY"
		if c.APIKeyEnv != "" {
			envHint = c.APIKeyEnv
		}
		return fmt.Errorf("content: API key is required (set api_key or %s)", envHint)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("content: timeout must be positive")
	}
	return nil
}
