// Package config resolves crawldash settings from defaults, the platform
// config backend, .env files and CRAWLDASH_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Token store kinds accepted by session.store.
const (
	StoreSQLite   = "sqlite"
	StoreKeychain = "keychain"
)

type Config struct {
	API     APIConfig
	Storage StorageConfig
	Session SessionConfig
	Server  ServerConfig
	Log     LogConfig
}

type APIConfig struct {
	BaseURL string
	// Timeout bounds each backend request. Zero disables it.
	Timeout time.Duration
}

type StorageConfig struct {
	DataDir string
}

type SessionConfig struct {
	Store string
}

type ServerConfig struct {
	Port int
}

type LogConfig struct {
	Level string
}

// SlogLevel maps Level onto a slog.Level, defaulting to info.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000/api/v1",
			Timeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Session: SessionConfig{
			Store: StoreSQLite,
		},
		Server: ServerConfig{
			Port: 4100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, .env files and
// environment variables.
//
// On macOS the backend is UserDefaults (domain: com.crawldash.app).
// Elsewhere it is a JSON file at $XDG_CONFIG_HOME/crawldash/config.json.
//
// .env files are read from ENV_FILE when set, otherwise from .env.local and
// .env in the working directory. They never override variables already set
// in the environment. CRAWLDASH_* variables override backend values.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	if err := loadEnvFiles(); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("loading env file %s: %w", envFile, err)
		}
		return nil
	}
	if err := godotenv.Load(".env.local"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading .env.local: %w", err)
	}
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

func (c Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid config: api.base_url %q must be an http(s) URL", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("invalid config: api.timeout must not be negative, got %s", c.API.Timeout)
	}
	if c.Session.Store != StoreSQLite && c.Session.Store != StoreKeychain {
		return fmt.Errorf("invalid config: session.store must be %q or %q, got %q",
			StoreSQLite, StoreKeychain, c.Session.Store)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port %d out of range", c.Server.Port)
	}
	return nil
}
