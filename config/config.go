// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// Contract violations (inverted delay bounds, empty pools) fail Load up front.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hushline-media/streamroom/chatsim"
)

type Config struct {
	// HTTP
	HTTPAddr string

	// Database (optional; empty disables persistence)
	DBDsn string

	// Storage
	DataDir string

	// Chat simulation
	ChatBufferSize int
	ChatMinDelay   time.Duration
	ChatMaxDelay   time.Duration
	ChatTemplates  []string
	ChatAuthors    []string

	// Sessions
	SessionTTL             time.Duration
	SessionJanitorInterval time.Duration
	MaxSessions            int

	// Uploads
	UploadMaxBytes          int64
	UploadKeepDays          int
	UploadKeepCount         int
	UploadRetentionInterval time.Duration
	UploadRetentionDryRun   bool
}

// Load reads environment variables, applies defaults, and validates the chat
// parameters. An unset DB_DSN is not an error; persistence is simply off.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.DBDsn = os.Getenv("DB_DSN")

	cfg.DataDir = os.Getenv("DATA_DIR")
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}

	// Chat
	cfg.ChatBufferSize = envInt("CHAT_BUFFER_SIZE", chatsim.DefaultMaxSize)

	var err error
	if cfg.ChatMinDelay, err = envDuration("CHAT_MIN_DELAY", chatsim.DefaultMinDelay); err != nil {
		return nil, err
	}
	if cfg.ChatMaxDelay, err = envDuration("CHAT_MAX_DELAY", chatsim.DefaultMaxDelay); err != nil {
		return nil, err
	}

	cfg.ChatTemplates = envList("CHAT_TEMPLATES", chatsim.DefaultTemplates)
	cfg.ChatAuthors = envList("CHAT_AUTHORS", chatsim.DefaultAuthors)

	// Sessions
	if cfg.SessionTTL, err = envDuration("SESSION_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SessionJanitorInterval, err = envDuration("SESSION_JANITOR_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	cfg.MaxSessions = envInt("MAX_SESSIONS", 1000)

	// Uploads
	cfg.UploadMaxBytes = int64(envInt("UPLOAD_MAX_BYTES", 50<<20))
	cfg.UploadKeepDays = envInt("UPLOAD_KEEP_DAYS", 0)
	cfg.UploadKeepCount = envInt("UPLOAD_KEEP_COUNT", 0)
	if cfg.UploadRetentionInterval, err = envDuration("UPLOAD_RETENTION_INTERVAL", 6*time.Hour); err != nil {
		return nil, err
	}
	cfg.UploadRetentionDryRun = os.Getenv("UPLOAD_RETENTION_DRY_RUN") == "1"

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects chat parameter combinations the engine treats as caller
// contract violations, so misconfiguration surfaces at startup rather than as
// silent degradation.
func (c *Config) Validate() error {
	if c.ChatBufferSize <= 0 {
		return fmt.Errorf("CHAT_BUFFER_SIZE must be positive, got %d", c.ChatBufferSize)
	}
	if len(c.ChatTemplates) == 0 {
		return fmt.Errorf("chat template pool must not be empty")
	}
	if len(c.ChatAuthors) == 0 {
		return fmt.Errorf("chat author pool must not be empty")
	}
	if c.ChatMinDelay <= 0 {
		return fmt.Errorf("CHAT_MIN_DELAY must be positive, got %s", c.ChatMinDelay)
	}
	if c.ChatMaxDelay < c.ChatMinDelay {
		return fmt.Errorf("CHAT_MAX_DELAY %s is below CHAT_MIN_DELAY %s", c.ChatMaxDelay, c.ChatMinDelay)
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", c.UploadMaxBytes)
	}
	return nil
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s (duration): %w", key, err)
	}
	return d, nil
}

// envList parses a pipe-separated list, trimming blanks. Pipe keeps commas
// usable inside chat template text.
func envList(key string, def []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
