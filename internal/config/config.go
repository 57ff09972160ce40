// Package config handles expense-agent configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/expense-agent/config.yaml,
// /etc/expense-agent/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "expense-agent", "config.yaml"))
	}

	paths = append(paths, "/etc/expense-agent/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all expense-agent configuration.
type Config struct {
	Listen    ListenConfig    `yaml:"listen"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Database  DatabaseConfig  `yaml:"database"`
	LogLevel  string          `yaml:"log_level"`
}

// ListenConfig defines the webhook server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// TelegramConfig defines the bot connection settings.
type TelegramConfig struct {
	Token string `yaml:"token"`
	// WebhookURL is the public URL registered with Telegram on startup.
	// Leave empty to skip registration (e.g. behind an existing setup).
	WebhookURL string `yaml:"webhook_url"`
	// WebhookSecret is echoed by Telegram in the
	// X-Telegram-Bot-Api-Secret-Token header; requests without it are
	// rejected.
	WebhookSecret string `yaml:"webhook_secret"`
}

// AnthropicConfig defines Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// DatabaseConfig defines the expense store location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Listen:   ListenConfig{Port: 8080},
		Database: DatabaseConfig{Path: "expenses.db"},
	}
}
