package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %q", cfg.Server.Addr)
	}
	if cfg.Server.DBPath != "reclaim.sqlite3" {
		t.Errorf("expected default db path, got %q", cfg.Server.DBPath)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `server:
  addr: ":9090"
  dbPath: /data/board.sqlite3
ai:
  model: gemini-2.5-flash
  baseUrl: http://localhost:1234
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected addr :9090, got %q", cfg.Server.Addr)
	}
	if cfg.AI.Model != "gemini-2.5-flash" {
		t.Errorf("expected model from file, got %q", cfg.AI.Model)
	}
	if cfg.AI.BaseURL != "http://localhost:1234" {
		t.Errorf("expected base url from file, got %q", cfg.AI.BaseURL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(geminiAPIKeyEnv, "env-key")
	t.Setenv(jwtSecretEnv, "env-secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AI.APIKey != "env-key" {
		t.Errorf("expected api key from env, got %q", cfg.AI.APIKey)
	}
	if cfg.Server.JWTSecret != "env-secret" {
		t.Errorf("expected jwt secret from env, got %q", cfg.Server.JWTSecret)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
