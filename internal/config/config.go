package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	AppName     = "scrapify"
	EnvFileName = "config.env"
)

// Config is the runtime configuration, read from the environment.
type Config struct {
	GeminiAPIKey    string
	GeminiModel     string
	BotToken        string
	Addr            string
	DBPath          string
	DatabaseURL     string
	CacheEnabled    bool
	CacheSalt       string
	Location        *time.Location
	SessionTTL      time.Duration
	PickupDelay     time.Duration
	EstimateTimeout time.Duration
	LogLevel        zerolog.Level
}

// requiredEnvVars lists all environment variables that must be set for the
// service to run.
var requiredEnvVars = []string{"GEMINI_API_KEY"}

// CheckRequiredConfig returns the names of any missing required variables.
func CheckRequiredConfig() []string {
	var missing []string
	for _, v := range requiredEnvVars {
		if os.Getenv(v) == "" {
			missing = append(missing, v)
		}
	}
	return missing
}

// configDir returns the application's config directory path, creating it
// if needed.
func configDir() (string, error) {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	dir := filepath.Join(configBase, AppName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// FilePath returns the full path to the config file.
func FilePath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, EnvFileName), nil
}

// LoadEnvFile loads environment variables from the config file in the
// user's config directory. Variables already set in the environment win.
// Errors are ignored since the file may not exist.
func LoadEnvFile() {
	configPath, err := FilePath()
	if err != nil {
		return
	}
	_ = godotenv.Load(configPath)
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		GeminiAPIKey: get("GEMINI_API_KEY", ""),
		GeminiModel:  get("GEMINI_MODEL", ""),
		BotToken:     get("BOT_TOKEN", ""),
		Addr:         get("SCRAPIFY_ADDR", ":8080"),
		DBPath:       get("SCRAPIFY_DB_PATH", "scrapify-cache.db"),
		DatabaseURL:  get("SCRAPIFY_DATABASE_URL", ""),
		CacheSalt:    get("SCRAPIFY_CACHE_SALT", AppName),
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	switch strings.ToLower(get("SCRAPIFY_CACHE", "on")) {
	case "on", "true", "1", "yes":
		cfg.CacheEnabled = true
	case "off", "false", "0", "no":
		cfg.CacheEnabled = false
	default:
		return nil, fmt.Errorf("SCRAPIFY_CACHE must be on or off, got %q", getenv("SCRAPIFY_CACHE"))
	}

	loc, err := time.LoadLocation(get("SCRAPIFY_TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCRAPIFY_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"SCRAPIFY_SESSION_TTL", 2 * time.Hour, &cfg.SessionTTL},
		{"SCRAPIFY_PICKUP_DELAY", 1500 * time.Millisecond, &cfg.PickupDelay},
		{"SCRAPIFY_ESTIMATE_TIMEOUT", 60 * time.Second, &cfg.EstimateTimeout},
	}
	for _, d := range durations {
		*d.dst = d.def
		raw := getenv(d.key)
		if strings.TrimSpace(raw) == "" {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		if parsed < 0 {
			return nil, fmt.Errorf("%s must not be negative", d.key)
		}
		*d.dst = parsed
	}
	if cfg.SessionTTL == 0 {
		return nil, fmt.Errorf("SCRAPIFY_SESSION_TTL must be positive")
	}

	level, err := zerolog.ParseLevel(get("SCRAPIFY_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCRAPIFY_LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	return cfg, nil
}

// BotEnabled reports whether the Telegram front end should start.
func (c *Config) BotEnabled() bool {
	return c.BotToken != ""
}
