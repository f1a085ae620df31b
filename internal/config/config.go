// Package config holds the environment-driven service configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Reply backend selectors.
const (
	ReplyCanned = "canned"
	ReplyOpenAI = "openai"
)

// Config is read once at startup and never mutated afterwards.
type Config struct {
	ListenAddr string

	STTURL      string
	STTLanguage string
	STTTimeout  time.Duration

	TTSURL       string
	TTSAuthToken string
	TTSTimeout   time.Duration

	ReplyBackend  string
	OpenAIAPIKey  string
	OpenAIModel   string
	MaxReplyChars int

	StagingDir string
	BodyLimit  int
	LogLevel   string
}

// Load builds a Config from the environment. Call godotenv.Load first if a
// .env file should be honored.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:    ":" + envOr("PORT", "5000"),
		STTURL:        os.Getenv("STT_URL"),
		STTLanguage:   envOr("STT_LANGUAGE", "es"),
		STTTimeout:    envDurationMS("STT_TIMEOUT_MS", 30*time.Second),
		TTSURL:        os.Getenv("TTS_URL"),
		TTSAuthToken:  os.Getenv("TTS_AUTH_TOKEN"),
		TTSTimeout:    envDurationMS("TTS_TIMEOUT_MS", 10*time.Second),
		ReplyBackend:  envOr("REPLY_BACKEND", ReplyCanned),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   os.Getenv("OPENAI_MODEL"),
		MaxReplyChars: envInt("REPLY_MAX_CHARS", 200),
		StagingDir:    os.Getenv("STAGING_DIR"),
		BodyLimit:     envInt("BODY_LIMIT_BYTES", 10<<20),
		LogLevel:      os.Getenv("LOG_LEVEL"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.MaxReplyChars <= 0 {
		return fmt.Errorf("reply max chars must be positive, got %d", c.MaxReplyChars)
	}
	if c.BodyLimit <= 0 {
		return fmt.Errorf("body limit must be positive, got %d", c.BodyLimit)
	}
	switch c.ReplyBackend {
	case ReplyCanned, ReplyOpenAI:
	default:
		return fmt.Errorf("unknown reply backend %q (want %q or %q)", c.ReplyBackend, ReplyCanned, ReplyOpenAI)
	}
	if c.ReplyBackend == ReplyOpenAI && c.OpenAIAPIKey == "" {
		return fmt.Errorf("reply backend %q requires OPENAI_API_KEY", ReplyOpenAI)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDurationMS(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}
