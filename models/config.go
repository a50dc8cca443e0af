// Package models defines the data structures shared by the extraction pipeline.
package models

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultConfigFile = "enquote.yaml"

// ArchiveConfig bounds the archive wait.
type ArchiveConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Interval    time.Duration `yaml:"interval"`
}

// Config holds runtime configuration. Values come from the YAML file and
// are overridden by CLI flags.
type Config struct {
	Language        string            `yaml:"language,omitempty"` // persisted preference, empty means detect
	ArchiveBase     string            `yaml:"archive_base"`
	CatalogBase     string            `yaml:"catalog_base"`
	Archive         ArchiveConfig     `yaml:"archive"`
	MaxFrameDepth   int               `yaml:"max_frame_depth"`
	PassagePolicy   map[string]string `yaml:"passage_policy,omitempty"` // source kind -> policy
	DBPath          string            `yaml:"db_path,omitempty"`
	CacheDir        string            `yaml:"cache_dir,omitempty"`
	CatalogCacheTTL time.Duration     `yaml:"catalog_cache_ttl"`
	UserAgent       string            `yaml:"user_agent"`
	BridgeAddr      string            `yaml:"bridge_addr"`
	DetectLanguages []string          `yaml:"detect_languages"` // candidates when guessing from a passage
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		ArchiveBase: "https://archive.ph",
		CatalogBase: "https://www.googleapis.com/books/v1",
		Archive: ArchiveConfig{
			MaxAttempts: 100,
			Interval:    100 * time.Millisecond,
		},
		MaxFrameDepth:   8,
		CatalogCacheTTL: 24 * time.Hour,
		UserAgent:       "enquote/1.0 (+https://github.com/dtnitsch/enquote)",
		BridgeAddr:      "127.0.0.1:8931",
		DetectLanguages: []string{"en", "fr", "de", "es", "it", "pt", "nl"},
	}
}

// LoadConfig reads the YAML config at path. A missing file is not an error;
// defaults are returned instead.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.applyDefaults()

	return cfg, nil
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.ArchiveBase == "" {
		c.ArchiveBase = d.ArchiveBase
	}
	if c.CatalogBase == "" {
		c.CatalogBase = d.CatalogBase
	}
	if c.Archive.MaxAttempts <= 0 {
		c.Archive.MaxAttempts = d.Archive.MaxAttempts
	}
	if c.Archive.Interval <= 0 {
		c.Archive.Interval = d.Archive.Interval
	}
	if c.MaxFrameDepth <= 0 {
		c.MaxFrameDepth = d.MaxFrameDepth
	}
	if c.CatalogCacheTTL <= 0 {
		c.CatalogCacheTTL = d.CatalogCacheTTL
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.BridgeAddr == "" {
		c.BridgeAddr = d.BridgeAddr
	}
	if c.DetectLanguages == nil {
		c.DetectLanguages = d.DetectLanguages
	}
}

// SaveConfig writes cfg to path.
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// PreferenceFile is the persisted preference store backed by the config file.
// It is re-read on every call so a change made by another process is picked
// up by the next extraction.
type PreferenceFile struct {
	Path string
}

// Language returns the stored language code, or "" when unset or unreadable.
func (p PreferenceFile) Language() string {
	cfg, err := LoadConfig(p.Path)
	if err != nil {
		return ""
	}
	return cfg.Language
}

// SetLanguage updates the stored language code, keeping the other settings.
func (p PreferenceFile) SetLanguage(code string) error {
	cfg, err := LoadConfig(p.Path)
	if err != nil {
		return err
	}
	cfg.Language = code
	return SaveConfig(p.Path, cfg)
}
