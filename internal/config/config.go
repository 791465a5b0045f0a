// Package config loads server settings from an optional YAML file with
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	geminiAPIKeyEnv = "GEMINI_API_KEY"
	jwtSecretEnv    = "RECLAIM_JWT_SECRET"
)

// Config holds settings required across the application.
type Config struct {
	Server ServerConfig `yaml:"server"`
	AI     AIConfig     `yaml:"ai"`
}

// ServerConfig describes the HTTP listener and database location.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	DBPath    string `yaml:"dbPath"`
	JWTSecret string `yaml:"jwtSecret"`
}

// AIConfig defines how to contact the reasoning service. APIKey normally
// comes from the environment, not the file.
type AIConfig struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseUrl"`
}

// Load reads the config file if path is non-empty, then applies environment
// overrides. A missing path yields defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:   ":8080",
			DBPath: "reclaim.sqlite3",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if key := os.Getenv(geminiAPIKeyEnv); key != "" {
		cfg.AI.APIKey = key
	}
	if secret := os.Getenv(jwtSecretEnv); secret != "" {
		cfg.Server.JWTSecret = secret
	}

	return cfg, nil
}
