package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ymatsuda/caseload/internal/model"
	"github.com/ymatsuda/caseload/internal/normalize"
)

// Config holds all runtime configuration for a caseload run.
type Config struct {
	DSN        string
	FilePath   string // import/plan: path to the CSV file
	ListenAddr string // serve: HTTP listen address
	StaticDir  string // serve: optional front-end directory
	LogFormat  string // "text" or "json"

	// HeaderAliases adds extra source-header spellings on top of the fixed
	// table, e.g. a site whose export renamed a column. Keys are raw header
	// cells (normalized before matching), values are internal field names.
	HeaderAliases map[string]string `yaml:"header_aliases"`
}

// yamlConfig is the on-disk YAML structure.
type yamlConfig struct {
	ListenAddr    string            `yaml:"listen_addr"`
	StaticDir     string            `yaml:"static_dir"`
	HeaderAliases map[string]string `yaml:"header_aliases"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.
// Flag values already set take precedence over the file.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if c.ListenAddr == "" {
		c.ListenAddr = yc.ListenAddr
	}
	if c.StaticDir == "" {
		c.StaticDir = yc.StaticDir
	}
	c.HeaderAliases = yc.HeaderAliases
	return c.validateAliases()
}

// validateAliases checks that every alias targets a known field name.
// Aliases may add spellings but never remove the defaults.
func (c *Config) validateAliases() error {
	for label, field := range c.HeaderAliases {
		if _, ok := model.FieldByName(field); !ok {
			return fmt.Errorf("header alias %q targets unknown field %q", label, field)
		}
	}
	return nil
}

// HeaderMap returns the full normalized-label → field-name table: the
// fixed defaults overlaid with any configured aliases.
func (c *Config) HeaderMap() map[string]string {
	m := model.DefaultHeaderMap()
	for label, field := range c.HeaderAliases {
		m[normalize.Header(label)] = field
	}
	return m
}

// Validate checks required fields for file-based commands.
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return fmt.Errorf("--file is required")
	}
	if _, err := os.Stat(c.FilePath); err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}
	return nil
}

// ValidateWithDSN checks both file and DSN fields.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DSN == "" {
		return fmt.Errorf("--dsn or DATABASE_URL is required")
	}
	return nil
}
