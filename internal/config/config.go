// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime settings.
type Config struct {
	DatabaseURL  string `env:"DATABASE_URL,required"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY,required"`

	// Avatar generation is disabled when no Google key is set.
	GoogleAPIKey string `env:"GOOGLE_API_KEY"`

	LLMModel         string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	ImageModel       string `env:"IMAGE_MODEL" envDefault:"gemini-2.0-flash-exp"`
	ImageAspectRatio string `env:"IMAGE_ASPECT_RATIO" envDefault:"1:1"`

	ListenAddr        string        `env:"LISTEN_ADDR" envDefault:":8080"`
	GenerationTimeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"45s"`
	HistoryLimit      int           `env:"HISTORY_LIMIT" envDefault:"12"`
	AvatarQueueSize   int           `env:"AVATAR_QUEUE_SIZE" envDefault:"16"`
}

// Load parses env vars and validates required fields.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// AvatarsEnabled reports whether image generation is configured.
func (c Config) AvatarsEnabled() bool {
	return c.GoogleAPIKey != ""
}
