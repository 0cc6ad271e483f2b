package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Database settings
	Database DatabaseConfig `yaml:"database"`

	// Invoice form settings
	Invoice InvoiceConfig `yaml:"invoice"`

	// Issuer block printed on exported invoices
	Company CompanyConfig `yaml:"company"`

	Export ExportConfig `yaml:"export"`

	Log LogConfig `yaml:"log"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required"` // Path to SQLite database
}

type InvoiceConfig struct {
	OutputDir      string `yaml:"output_dir" validate:"required"`     // Directory for exported PDFs
	CurrencyPrefix string `yaml:"currency_prefix" validate:"max=8"`   // Shown before money values (e.g., "Rs")
	DraftRows      int    `yaml:"draft_rows" validate:"gte=1,lte=50"` // Blank rows on a new draft
}

type CompanyConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Phone   string `yaml:"phone"`
	Email   string `yaml:"email" validate:"omitempty,email"`
}

type ExportConfig struct {
	// NativeEnabled is false on runtimes that cannot write or share files
	NativeEnabled bool `yaml:"native_enabled"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=trace debug info warn error disabled"`
	File  string `yaml:"file"` // TUI log destination; empty disables TUI logging
}

// DefaultConfigPath returns ~/.config/wattsun/config.yaml
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir unavailable
		return filepath.Join(".", ".config", "wattsun", "config.yaml")
	}
	return filepath.Join(homeDir, ".config", "wattsun", "config.yaml")
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	base := filepath.Join(homeDir, ".config", "wattsun")

	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(base, "wattsun.db"),
		},
		Invoice: InvoiceConfig{
			OutputDir:      filepath.Join(base, "invoices"),
			CurrencyPrefix: "Rs",
			DraftRows:      5,
		},
		Export: ExportConfig{
			NativeEnabled: true,
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(base, "wattsun.log"),
		},
	}
}

// Load loads config from the given path, or returns defaults if file doesn't exist
func Load(path string) (*Config, error) {
	// If file doesn't exist, return defaults
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// Save writes the config to the given path
func (c *Config) Save(path string) error {
	// Create parent directories if they don't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EnsureDirectories creates the database and export directories
func (c *Config) EnsureDirectories() error {
	dbDir := filepath.Dir(c.Database.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return err
	}

	if c.Export.NativeEnabled {
		if err := os.MkdirAll(c.Invoice.OutputDir, 0755); err != nil {
			return err
		}
	}

	return nil
}
