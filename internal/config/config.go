// Package config loads OpenClaw Memory's layered configuration: built-in
// defaults, the global config.toml, the project .openclaw_memory.toml, and
// OPENCLAW_<SECTION>_<FIELD> environment overrides, in that order of
// increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	memerr "github.com/openclaw/memory/internal/errors"
)

// Config is the fully merged, validated configuration for one run.
type Config struct {
	Embedding Embedding
	Privacy   Privacy
	Search    Search
	Project   Project
}

// Embedding selects and configures the embedding backend.
type Embedding struct {
	Provider  string // "openai", "ollama", or "local"
	Model     string
	Dimension int
	APIKey    string
	BaseURL   string
}

// Privacy controls which content the write pipeline refuses to persist.
type Privacy struct {
	Enabled  bool
	Patterns []string
}

// Search tunes the retriever's defaults.
type Search struct {
	DefaultMaxTokens    int
	RecencyHalfLifeDays float64
	DefaultTopK         int
}

// Project carries human-facing metadata rendered into the primer.
type Project struct {
	Name        string
	Description string
}

const (
	// GlobalFileName is the config file name under the global root.
	GlobalFileName = "config.toml"
	// ProjectFileName is the config file name at the project root.
	ProjectFileName = ".openclaw_memory.toml"
	envPrefix       = "OPENCLAW"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("embedding.provider", "local")
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.dimension", 768)
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("privacy.enabled", true)
	v.SetDefault("privacy.patterns", []string{})
	v.SetDefault("search.default_max_tokens", 1500)
	v.SetDefault("search.recency_half_life_days", 30.0)
	v.SetDefault("search.default_top_k", 10)
	v.SetDefault("project.name", "")
	v.SetDefault("project.description", "")
}

// Load merges defaults, globalRoot/config.toml, projectRoot/.openclaw_memory.toml,
// and OPENCLAW_* environment variables, then validates the result.
// Either root may be empty, in which case its file is skipped.
func Load(globalRoot, projectRoot string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)

	if globalRoot != "" {
		if err := mergeFile(v, filepath.Join(globalRoot, GlobalFileName)); err != nil {
			return nil, err
		}
	}
	if projectRoot != "" {
		if err := mergeFile(v, filepath.Join(projectRoot, ProjectFileName)); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Embedding: Embedding{
			Provider:  v.GetString("embedding.provider"),
			Model:     v.GetString("embedding.model"),
			Dimension: v.GetInt("embedding.dimension"),
			APIKey:    v.GetString("embedding.api_key"),
			BaseURL:   v.GetString("embedding.base_url"),
		},
		Privacy: Privacy{
			Enabled:  v.GetBool("privacy.enabled"),
			Patterns: v.GetStringSlice("privacy.patterns"),
		},
		Search: Search{
			DefaultMaxTokens:    v.GetInt("search.default_max_tokens"),
			RecencyHalfLifeDays: v.GetFloat64("search.recency_half_life_days"),
			DefaultTopK:         v.GetInt("search.default_top_k"),
		},
		Project: Project{
			Name:        v.GetString("project.name"),
			Description: v.GetString("project.description"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func mergeFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return memerr.ConfigError(fmt.Sprintf("read %s", path), err)
	}
	return nil
}

// Validate rejects configurations that would leave the embedder or store
// misconfigured.
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "openai", "ollama", "local":
	default:
		return memerr.ConfigError(fmt.Sprintf("embedding.provider must be one of openai, ollama, local (got %q)", c.Embedding.Provider), nil)
	}
	if c.Embedding.Dimension <= 0 {
		return memerr.ConfigError("embedding.dimension must be positive", nil)
	}
	if c.Search.RecencyHalfLifeDays <= 0 {
		return memerr.ConfigError("search.recency_half_life_days must be positive", nil)
	}
	return nil
}

const defaultTOML = `# OpenClaw Memory configuration.
# Project-level overrides live in .openclaw_memory.toml at the project root.
# Any field can also be set via OPENCLAW_<SECTION>_<FIELD>, e.g.
# OPENCLAW_EMBEDDING_PROVIDER=openai.

[embedding]
provider = "local"
model = ""
dimension = 768
api_key = ""
base_url = ""

[privacy]
enabled = true
patterns = []

[search]
default_max_tokens = 1500
recency_half_life_days = 30
default_top_k = 10

[project]
name = ""
description = ""
`

// WriteDefault writes a commented default config.toml to path unless a file
// already exists there.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return memerr.ConfigError("create config directory", err)
	}
	if err := os.WriteFile(path, []byte(defaultTOML), 0o644); err != nil {
		return memerr.ConfigError("write default config", err)
	}
	return nil
}

// FindProjectRoot walks up from startDir looking for an existing
// .openclaw_memory directory, returning startDir if none is found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for {
		if _, err := os.Stat(filepath.Join(dir, ".openclaw_memory")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}
