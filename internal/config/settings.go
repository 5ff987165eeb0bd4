package config

import (
	"fmt"
	"strconv"
	"strings"
)

// KV is one key/value pair for display.
type KV struct {
	Key   string
	Value string
}

// ShowAll flattens a Config into display pairs in stable key order.
// The API token is masked.
func ShowAll(cfg Config) []KV {
	token := cfg.Auth.APIToken
	if len(token) > 8 {
		token = token[:8] + "..."
	}
	return []KV{
		{keyServerPort, strconv.Itoa(cfg.Server.Port)},
		{keyDataDir, cfg.Storage.DataDir},
		{keyAPIToken, token},
		{keyLogLevel, cfg.Log.Level},
		{keyMinYear, strconv.Itoa(cfg.Engine.MinYear)},
		{keyHistoryWindow, strconv.Itoa(cfg.Engine.HistoryWindow)},
	}
}

// SetKey persists one config value in the file backend.
func SetKey(key, value string) error {
	return setKeyWith(NewFileBackend(), key, value)
}

func setKeyWith(b Backend, key, value string) error {
	switch key {
	case keyServerPort, keyMinYear, keyHistoryWindow:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s requires an integer value: %w", key, err)
		}
		return b.SetInt(key, n)
	case keyDataDir, keyAPIToken, keyLogLevel:
		return b.SetString(key, value)
	}
	return fmt.Errorf("unknown config key %q (known keys: %s)", key, strings.Join(Keys(), ", "))
}
