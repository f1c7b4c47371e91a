// Package config loads and validates the msgwrapped configuration file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"msgwrapped/internal/domain"

	"gopkg.in/yaml.v3"
)

// DefaultAPIBaseURL is the production upload endpoint.
const DefaultAPIBaseURL = "https://messageswrapped.com"

// Config is the root configuration for msgwrapped.
type Config struct {
	ChatDBPath      string `yaml:"chatDbPath"`
	AddressBookPath string `yaml:"addressBookPath"`
	APIBaseURL      string `yaml:"apiBaseUrl"`
	LogLevel        string `yaml:"logLevel"`
}

func Defaults() *Config {
	return &Config{
		ChatDBPath:      "~/Library/Messages/chat.db",
		AddressBookPath: "~/Library/Application Support/AddressBook",
		APIBaseURL:      DefaultAPIBaseURL,
		LogLevel:        "info",
	}
}

// DefaultConfigDir returns ~/.msgwrapped (unexpanded when home is unknown).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".msgwrapped"
	}
	return filepath.Join(home, ".msgwrapped")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Load reads a YAML config file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	path, err := expandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Save writes the config as YAML.
func Save(path string, cfg *Config) error {
	path, err := expandPath(path)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks invariants that would otherwise surface mid-pipeline.
func Validate(cfg *Config) error {
	if cfg.ChatDBPath == "" {
		return fmt.Errorf("chatDbPath must not be empty")
	}
	if cfg.AddressBookPath == "" {
		return fmt.Errorf("addressBookPath must not be empty")
	}
	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("apiBaseUrl must be an http(s) URL, got %q", cfg.APIBaseURL)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logLevel must be one of debug|info|warn|error, got %q", cfg.LogLevel)
	}
	return nil
}

// Resolve expands home-relative store paths. An unresolvable home directory
// is a fatal configuration error and must surface before any phase runs.
func (c *Config) Resolve() (*Config, error) {
	out := *c
	var err error
	if out.ChatDBPath, err = expandPath(c.ChatDBPath); err != nil {
		return nil, err
	}
	if out.AddressBookPath, err = expandPath(c.AddressBookPath); err != nil {
		return nil, err
	}
	out.APIBaseURL = strings.TrimRight(out.APIBaseURL, "/")
	return &out, nil
}

func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", domain.WrapError(domain.KindConfiguration, "cannot resolve home directory", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/")), nil
	}
	return path, nil
}
