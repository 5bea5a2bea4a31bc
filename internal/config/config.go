// Package config provides configuration loading and structs for the Nuvem server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application. Secrets (admin
// credentials, token signing secret, Gemini API key) never live in the YAML
// file; they are read from the environment, optionally seeded from a .env.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Cloud     CloudConfig     `yaml:"cloud"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Report    ReportConfig    `yaml:"report"`
	Admin     AdminConfig     `yaml:"admin"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects the board backend and its paths.
type StorageConfig struct {
	Backend      string `yaml:"backend"` // "file" (default) or "sqlite"
	DataPath     string `yaml:"data_path"`
	DatabasePath string `yaml:"database_path"`
}

// CloudConfig holds aggregation settings for the rendered cloud.
type CloudConfig struct {
	TopWords int `yaml:"top_words"` // default ranking size for summaries
	MaxWords int `yaml:"max_words"` // hard cap a client may request
}

// RateLimitConfig holds the per-IP token-bucket limit applied to public
// submissions.
type RateLimitConfig struct {
	Enabled *bool   `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

// EnabledOrDefault reports whether rate limiting is on; defaults to true when unset.
func (r *RateLimitConfig) EnabledOrDefault() bool {
	if r.Enabled != nil {
		return *r.Enabled
	}
	return true
}

// ReportConfig holds settings for the optional Gemini report call. APIKey
// comes from the GEMINI_API_KEY environment variable; when empty the feature
// is disabled and every other part of the system runs unaffected.
type ReportConfig struct {
	Model            string `yaml:"model"`
	MaxSampleEntries int    `yaml:"max_sample_entries"`
	APIKey           string `yaml:"-"`
}

// AdminConfig holds the admin gate settings. Credentials and the signing
// secret are environment-only; an empty password disables the admin area
// entirely (fail closed).
type AdminConfig struct {
	Username    string `yaml:"-"`
	Password    string `yaml:"-"`
	TokenSecret string `yaml:"-"`
	TokenTTLMin int    `yaml:"token_ttl_minutes"`
}

// Load reads and parses the config file at path, applies defaults, expands
// storage paths relative to the config directory, and pulls secrets from the
// environment. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DataPath = expandPath(cfg.Storage.DataPath, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)

	LoadSecrets(&cfg)
	return &cfg, nil
}

// Default returns a config with every default applied and secrets loaded,
// for when no config file exists.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	LoadSecrets(cfg)
	return cfg
}

// LoadSecrets reads admin credentials, the token signing secret, and the
// Gemini API key from the environment, after seeding it from a .env file in
// the working directory when present.
func LoadSecrets(cfg *Config) {
	_ = godotenv.Load()

	cfg.Admin.Username = envOr("ADMIN_USER", "admin")
	cfg.Admin.Password = os.Getenv("ADMIN_PASS")
	cfg.Admin.TokenSecret = os.Getenv("NUVEM_TOKEN_SECRET")
	cfg.Report.APIKey = os.Getenv("GEMINI_API_KEY")
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
