package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig indicates a configuration value is out of range
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the main configuration
type Config struct {
	HTTP        HTTPConfig   `mapstructure:"http"`
	Output      OutputConfig `mapstructure:"output"`
	Dedup       DedupConfig  `mapstructure:"dedup"`
	SourcesFile string       `mapstructure:"sources_file"`
	Lists       []FilterList `mapstructure:"lists"`
}

// HTTPConfig contains HTTP client settings
type HTTPConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	Retries     int           `mapstructure:"retries"`
	Backoff     time.Duration `mapstructure:"backoff"`
	UserAgent   string        `mapstructure:"user_agent"`
	Concurrency int           `mapstructure:"concurrency"`
}

// OutputConfig contains output settings
type OutputConfig struct {
	Dir               string   `mapstructure:"dir"`
	Formats           []string `mapstructure:"formats"`
	MaxRulesPerFile   int      `mapstructure:"max_rules_per_file"`
	GenerateManifest  bool     `mapstructure:"generate_manifest"`
	Categories        []string `mapstructure:"categories"`
	ExcludeCategories []string `mapstructure:"exclude_categories"`
	MinPriority       int      `mapstructure:"min_priority"`
	Tags              []string `mapstructure:"tags"`
}

// DedupConfig contains deduplicator settings
type DedupConfig struct {
	Enabled    bool           `mapstructure:"enabled"`
	Maintainer string         `mapstructure:"maintainer"`
	CacheSize  int            `mapstructure:"cache_size"`
	Weights    map[string]int `mapstructure:"weights"`
}

// FilterList represents a single filter list configuration
type FilterList struct {
	Name    string `mapstructure:"name"`
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

// EnabledLists returns only enabled filter lists
func (c *Config) EnabledLists() []FilterList {
	var enabled []FilterList
	for _, l := range c.Lists {
		if l.Enabled {
			enabled = append(enabled, l)
		}
	}
	return enabled
}

// Validate checks value ranges that would otherwise fail late
func (c *Config) Validate() error {
	if c.HTTP.Retries < 0 {
		return fmt.Errorf("%w: http.retries must not be negative", ErrInvalidConfig)
	}
	if c.HTTP.Concurrency < 0 {
		return fmt.Errorf("%w: http.concurrency must not be negative", ErrInvalidConfig)
	}
	if c.Output.MaxRulesPerFile < 0 {
		return fmt.Errorf("%w: output.max_rules_per_file must not be negative", ErrInvalidConfig)
	}
	if c.Dedup.CacheSize < 0 {
		return fmt.Errorf("%w: dedup.cache_size must not be negative", ErrInvalidConfig)
	}
	for i, l := range c.Lists {
		if l.URL == "" {
			return fmt.Errorf("%w: lists[%d] (%q) has no url", ErrInvalidConfig, i, l.Name)
		}
	}
	return nil
}
