package ai

import (
	"errors"
	"time"

	"github.com/hrygo/veida/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	Enabled bool

	LLM LLMConfig
	// MaxConcurrent bounds the generation requests running at once.
	MaxConcurrent int
}

// LLMConfig represents LLM configuration. Any OpenAI compatible endpoint works.
type LLMConfig struct {
	Model       string // gpt-4o-mini
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 4096
	Temperature float32 // default: 0.3
	MaxRetries  int     // default: 3
	// RetryBackoff is the first wait between attempts; it doubles each retry.
	RetryBackoff time.Duration // default: 1s
	Timeout      time.Duration // default: 2m
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled:       p.IsAIEnabled(),
		MaxConcurrent: p.AIMaxConcurrent,
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 3
	}

	if !cfg.Enabled {
		return cfg
	}

	cfg.LLM = LLMConfig{
		Model:        p.AILLMModel,
		APIKey:       p.AIOpenAIAPIKey,
		BaseURL:      p.AIOpenAIBaseURL,
		MaxTokens:    4096,
		Temperature:  0.3,
		MaxRetries:   3,
		RetryBackoff: time.Second,
		Timeout:      2 * time.Minute,
	}
	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.LLM.Model == "" {
		return errors.New("LLM model is required")
	}
	if c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}
	return nil
}
