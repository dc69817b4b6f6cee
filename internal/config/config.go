// Package config resolves the vigil configuration from defaults, optional
// configuration files, and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config captures the vigil settings resolved from defaults, optional files,
// and environment overrides.
type Config struct {
	OutputDir    string `yaml:"output_dir" toml:"output_dir"`
	FlagPattern  string `yaml:"flag_pattern" toml:"flag_pattern"`
	MaxKeyLength int    `yaml:"max_key_length" toml:"max_key_length"`
	MinSeqLen    int    `yaml:"min_seq_len" toml:"min_seq_len"`
	MaxSeqLen    int    `yaml:"max_seq_len" toml:"max_seq_len"`
	TopResults   int    `yaml:"top_results" toml:"top_results"`
	Quiet        bool   `yaml:"quiet" toml:"quiet"`
}

// Default returns the built-in vigil configuration.
func Default() Config {
	return Config{
		OutputDir:    "out",
		FlagPattern:  `flag\{.*?\}`,
		MaxKeyLength: 20,
		MinSeqLen:    3,
		MaxSeqLen:    5,
		TopResults:   5,
		Quiet:        false,
	}
}

// Load resolves the configuration using defaults, configuration files, and
// environment overrides. The lookup order for configuration files is:
//  1. ~/.vigil/config.toml (TOML)
//  2. ./vigil.yml (YAML)
//
// Environment variables prefixed with VIGIL_ have the highest precedence.
func Load() (Config, error) {
	cfg := Default()

	if err := loadHomeConfig(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadLocalConfig(&cfg); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.MaxKeyLength < 2 {
		return fmt.Errorf("max_key_length must be at least 2, got %d", c.MaxKeyLength)
	}
	if c.TopResults < 1 {
		return fmt.Errorf("top_results must be at least 1, got %d", c.TopResults)
	}
	if c.MinSeqLen < 1 || c.MaxSeqLen < c.MinSeqLen {
		return fmt.Errorf("sequence window [%d,%d] is invalid", c.MinSeqLen, c.MaxSeqLen)
	}
	return nil
}

// fileConfig mirrors Config with pointer fields so absent keys leave the
// existing values untouched.
type fileConfig struct {
	OutputDir    *string `yaml:"output_dir" toml:"output_dir"`
	FlagPattern  *string `yaml:"flag_pattern" toml:"flag_pattern"`
	MaxKeyLength *int    `yaml:"max_key_length" toml:"max_key_length"`
	MinSeqLen    *int    `yaml:"min_seq_len" toml:"min_seq_len"`
	MaxSeqLen    *int    `yaml:"max_seq_len" toml:"max_seq_len"`
	TopResults   *int    `yaml:"top_results" toml:"top_results"`
	Quiet        *bool   `yaml:"quiet" toml:"quiet"`
}

func loadHomeConfig(cfg *Config) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	path := filepath.Join(home, ".vigil", "config.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	fc.apply(cfg)
	return nil
}

func loadLocalConfig(cfg *Config) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determine working directory: %w", err)
	}
	path := filepath.Join(wd, "vigil.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	fc.apply(cfg)
	return nil
}

func (fc fileConfig) apply(cfg *Config) {
	if fc.OutputDir != nil {
		cfg.OutputDir = strings.TrimSpace(*fc.OutputDir)
	}
	if fc.FlagPattern != nil {
		cfg.FlagPattern = strings.TrimSpace(*fc.FlagPattern)
	}
	if fc.MaxKeyLength != nil {
		cfg.MaxKeyLength = *fc.MaxKeyLength
	}
	if fc.MinSeqLen != nil {
		cfg.MinSeqLen = *fc.MinSeqLen
	}
	if fc.MaxSeqLen != nil {
		cfg.MaxSeqLen = *fc.MaxSeqLen
	}
	if fc.TopResults != nil {
		cfg.TopResults = *fc.TopResults
	}
	if fc.Quiet != nil {
		cfg.Quiet = *fc.Quiet
	}
}

func applyEnvOverrides(cfg *Config) {
	if val := strings.TrimSpace(os.Getenv("VIGIL_OUT")); val != "" {
		cfg.OutputDir = val
	}
	if val := strings.TrimSpace(os.Getenv("VIGIL_FLAG_FORMAT")); val != "" {
		cfg.FlagPattern = val
	}
	if val := strings.TrimSpace(os.Getenv("VIGIL_MAX_KEY_LENGTH")); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			cfg.MaxKeyLength = parsed
		}
	}
	if val := strings.TrimSpace(os.Getenv("VIGIL_TOP")); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			cfg.TopResults = parsed
		}
	}
	if val := strings.TrimSpace(os.Getenv("VIGIL_QUIET")); val != "" {
		cfg.Quiet = val == "1" || strings.EqualFold(val, "true")
	}
}
