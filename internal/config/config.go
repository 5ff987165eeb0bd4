// Package config loads server configuration from a JSON file backend with
// MOVIESIR_* environment overrides.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Auth    AuthConfig
	Log     LogConfig
	Engine  EngineConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

type AuthConfig struct {
	APIToken string
}

type LogConfig struct {
	Level string
}

type EngineConfig struct {
	// MinYear is the release-year cutoff applied to every track.
	MinYear int
	// HistoryWindow caps how many previously recommended movie ids are
	// pulled from the session store into a call's exclusion set.
	HistoryWindow int
}

func defaults() Config {
	return Config{
		Server:  ServerConfig{Port: 4600},
		Storage: StorageConfig{DataDir: defaultDataDir()},
		Log:     LogConfig{Level: "info"},
		Engine: EngineConfig{
			MinYear:       2000,
			HistoryWindow: 100,
		},
	}
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/moviesir/config.json, then applies MOVIESIR_*
// environment overrides. A missing API token is generated once and
// persisted to the backend.
func Load() (Config, error) {
	return loadWith(newFileBackend())
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)

	if cfg.Auth.APIToken == "" {
		token, err := generateToken()
		if err != nil {
			return Config{}, fmt.Errorf("generating API token: %w", err)
		}
		if err := b.SetString(keyAPIToken, token); err != nil {
			return Config{}, fmt.Errorf("persisting API token: %w", err)
		}
		cfg.Auth.APIToken = token
	}

	return cfg, nil
}

func applyBackend(cfg *Config, b Backend) error {
	if v, ok, err := b.GetInt(keyServerPort); err != nil {
		return fmt.Errorf("reading %s: %w", keyServerPort, err)
	} else if ok {
		cfg.Server.Port = v
	}
	if v, ok, err := b.GetString(keyDataDir); err != nil {
		return fmt.Errorf("reading %s: %w", keyDataDir, err)
	} else if ok {
		cfg.Storage.DataDir = v
	}
	if v, ok, err := b.GetString(keyAPIToken); err != nil {
		return fmt.Errorf("reading %s: %w", keyAPIToken, err)
	} else if ok {
		cfg.Auth.APIToken = v
	}
	if v, ok, err := b.GetString(keyLogLevel); err != nil {
		return fmt.Errorf("reading %s: %w", keyLogLevel, err)
	} else if ok {
		cfg.Log.Level = v
	}
	if v, ok, err := b.GetInt(keyMinYear); err != nil {
		return fmt.Errorf("reading %s: %w", keyMinYear, err)
	} else if ok {
		cfg.Engine.MinYear = v
	}
	if v, ok, err := b.GetInt(keyHistoryWindow); err != nil {
		return fmt.Errorf("reading %s: %w", keyHistoryWindow, err)
	} else if ok {
		cfg.Engine.HistoryWindow = v
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MOVIESIR_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MOVIESIR_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("MOVIESIR_API_TOKEN"); v != "" {
		cfg.Auth.APIToken = v
	}
	if v := os.Getenv("MOVIESIR_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MOVIESIR_MIN_YEAR"); v != "" {
		if year, err := strconv.Atoi(v); err == nil {
			cfg.Engine.MinYear = year
		}
	}
	if v := os.Getenv("MOVIESIR_HISTORY_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.HistoryWindow = n
		}
	}
}

func generateToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
