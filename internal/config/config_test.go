package config

import (
	"strconv"
	"testing"
)

// memBackend is an in-memory Backend for tests.
type memBackend struct {
	values map[string]string
}

func newMemBackend() *memBackend {
	return &memBackend{values: make(map[string]string)}
}

func (b *memBackend) GetString(key string) (string, bool, error) {
	v, ok := b.values[key]
	return v, ok, nil
}

func (b *memBackend) GetInt(key string) (int, bool, error) {
	v, ok := b.values[key]
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (b *memBackend) SetString(key, val string) error {
	b.values[key] = val
	return nil
}

func (b *memBackend) SetInt(key string, val int) error {
	b.values[key] = strconv.Itoa(val)
	return nil
}

func (b *memBackend) Delete(key string) error {
	delete(b.values, key)
	return nil
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadWith(newMemBackend())
	if err != nil {
		t.Fatalf("loadWith failed: %v", err)
	}

	if cfg.Server.Port != 4600 {
		t.Errorf("Port = %d, want 4600", cfg.Server.Port)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Engine.MinYear != 2000 {
		t.Errorf("MinYear = %d, want 2000", cfg.Engine.MinYear)
	}
	if cfg.Engine.HistoryWindow != 100 {
		t.Errorf("HistoryWindow = %d, want 100", cfg.Engine.HistoryWindow)
	}
}

func TestLoad_BackendOverridesDefaults(t *testing.T) {
	b := newMemBackend()
	b.SetInt(keyServerPort, 9999)
	b.SetString(keyLogLevel, "debug")
	b.SetInt(keyMinYear, 1990)

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("loadWith failed: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Engine.MinYear != 1990 {
		t.Errorf("MinYear = %d, want 1990", cfg.Engine.MinYear)
	}
}

func TestLoad_EnvOverridesBackend(t *testing.T) {
	b := newMemBackend()
	b.SetInt(keyServerPort, 9999)

	t.Setenv("MOVIESIR_PORT", "4700")
	t.Setenv("MOVIESIR_LOG_LEVEL", "debug")
	t.Setenv("MOVIESIR_API_TOKEN", "env-token")

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("loadWith failed: %v", err)
	}

	if cfg.Server.Port != 4700 {
		t.Errorf("Port = %d, want env override 4700", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Auth.APIToken != "env-token" {
		t.Errorf("APIToken = %q, want env-token", cfg.Auth.APIToken)
	}
}

func TestLoad_GeneratesAndPersistsToken(t *testing.T) {
	b := newMemBackend()

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("loadWith failed: %v", err)
	}
	if len(cfg.Auth.APIToken) != 48 {
		t.Fatalf("token length = %d, want 48 hex chars", len(cfg.Auth.APIToken))
	}

	// A second load reuses the persisted token.
	again, err := loadWith(b)
	if err != nil {
		t.Fatalf("second loadWith failed: %v", err)
	}
	if again.Auth.APIToken != cfg.Auth.APIToken {
		t.Error("token regenerated on second load")
	}
}

func TestSetKey(t *testing.T) {
	b := newMemBackend()

	if err := setKeyWith(b, keyServerPort, "5000"); err != nil {
		t.Fatalf("setKeyWith(port) failed: %v", err)
	}
	if v, ok, _ := b.GetInt(keyServerPort); !ok || v != 5000 {
		t.Errorf("stored port = %d, %v", v, ok)
	}

	if err := setKeyWith(b, keyLogLevel, "debug"); err != nil {
		t.Fatalf("setKeyWith(log level) failed: %v", err)
	}

	if err := setKeyWith(b, keyServerPort, "not-a-number"); err == nil {
		t.Error("setKeyWith accepted a non-integer port")
	}
	if err := setKeyWith(b, "bogus.key", "x"); err == nil {
		t.Error("setKeyWith accepted an unknown key")
	}
}

func TestShowAll_MasksToken(t *testing.T) {
	cfg := defaults()
	cfg.Auth.APIToken = "0123456789abcdef0123456789abcdef"

	for _, kv := range ShowAll(cfg) {
		if kv.Key == keyAPIToken {
			if kv.Value == cfg.Auth.APIToken {
				t.Error("ShowAll exposed the full API token")
			}
			return
		}
	}
	t.Error("ShowAll missing the API token key")
}
