// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates .nglint.yaml.
package config

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/nglint/services/lint/expression"
	"github.com/AleutianAI/nglint/services/lint/metadata"
	"github.com/AleutianAI/nglint/services/lint/rules"
)

// =============================================================================
// Embedded Default Configuration
// =============================================================================

//go:embed default_config.yaml
var defaultConfigYAML []byte

// DefaultYAML returns the embedded default configuration text.
func DefaultYAML() []byte {
	return append([]byte(nil), defaultConfigYAML...)
}

// FileName is the configuration file looked up in the working directory.
const FileName = ".nglint.yaml"

// ErrInvalidConfig indicates a configuration that failed to parse or
// validate.
var ErrInvalidConfig = errors.New("invalid config")

var tracer = otel.Tracer("nglint.config")

// =============================================================================
// Configuration Types
// =============================================================================

// Config is the lint configuration.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type Config struct {
	// Rules maps rule names to their settings.
	Rules map[string]RuleConfig `yaml:"rules"`

	// Include and Exclude are doublestar globs over slash-separated paths
	// relative to the lint root.
	Include []string `yaml:"include" validate:"dive,required"`
	Exclude []string `yaml:"exclude" validate:"dive,required"`

	// Directives are declared in addition to the builtin ones.
	Directives []metadata.DirectiveDeclaration `yaml:"directives" validate:"dive"`

	// Interpolation holds the start and end delimiters.
	Interpolation []string `yaml:"interpolation" validate:"omitempty,len=2,dive,required"`

	Style StyleConfig `yaml:"style"`
	Cache CacheConfig `yaml:"cache"`

	// Jobs bounds concurrent file lints. Zero uses GOMAXPROCS.
	Jobs int `yaml:"jobs" validate:"gte=0,lte=1024"`

	// MaxFileSize bounds source, template and style files in bytes.
	MaxFileSize int64 `yaml:"max_file_size" validate:"gte=0"`
}

// RuleConfig enables a rule and carries its options.
//
// Accepted YAML forms: `true`, `false`, `[true, "opt", ...]`, and
// `{enabled: true, options: [...]}`.
type RuleConfig struct {
	Enabled bool  `yaml:"enabled"`
	Options []any `yaml:"options"`
}

// StyleConfig controls stylesheet preprocessing.
type StyleConfig struct {
	// Transform is "none" or "sass".
	Transform string `yaml:"transform" validate:"omitempty,oneof=none sass"`

	// SassBinary is the Dart Sass executable; empty searches PATH.
	SassBinary string `yaml:"sass_binary"`
}

// CacheConfig controls the result cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir" validate:"required_if=Enabled true"`
}

// =============================================================================
// Defaults
// =============================================================================

const (
	// DefaultMaxFileSize is the default per-file size limit.
	DefaultMaxFileSize = 10 << 20

	// DefaultCacheDir is the default cache directory.
	DefaultCacheDir = ".nglint-cache"

	// TransformNone disables stylesheet preprocessing.
	TransformNone = "none"

	// TransformSass compiles SCSS and Sass through Dart Sass.
	TransformSass = "sass"
)

// UnmarshalYAML accepts the boolean and list shorthand forms.
func (r *RuleConfig) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Decode(&r.Enabled)
	case yaml.SequenceNode:
		var items []any
		if err := n.Decode(&items); err != nil {
			return err
		}
		r.Enabled = true
		if len(items) > 0 {
			if b, ok := items[0].(bool); ok {
				r.Enabled = b
				items = items[1:]
			}
		}
		r.Options = items
		return nil
	case yaml.MappingNode:
		type plain RuleConfig
		var p plain
		p.Enabled = true
		if err := n.Decode(&p); err != nil {
			return err
		}
		*r = RuleConfig(p)
		return nil
	default:
		return fmt.Errorf("line %d: unsupported rule setting", n.Line)
	}
}

// =============================================================================
// Loading
// =============================================================================

var (
	defaultConfigMu      sync.RWMutex
	defaultConfigOnce    sync.Once
	cachedDefaultConfig  *Config
	defaultConfigLoadErr error
)

// Default returns the cached embedded configuration.
//
// Thread Safety: Safe for concurrent use via sync.Once.
func Default(ctx context.Context) (*Config, error) {
	defaultConfigMu.RLock()
	if cachedDefaultConfig != nil || defaultConfigLoadErr != nil {
		cfg, err := cachedDefaultConfig, defaultConfigLoadErr
		defaultConfigMu.RUnlock()
		return cfg, err
	}
	defaultConfigMu.RUnlock()

	defaultConfigMu.Lock()
	defer defaultConfigMu.Unlock()
	defaultConfigOnce.Do(func() {
		cachedDefaultConfig, defaultConfigLoadErr = Load(ctx, defaultConfigYAML)
	})
	return cachedDefaultConfig, defaultConfigLoadErr
}

// ResetDefault clears the cached default config for tests.
func ResetDefault() {
	defaultConfigMu.Lock()
	defer defaultConfigMu.Unlock()
	cachedDefaultConfig = nil
	defaultConfigLoadErr = nil
	defaultConfigOnce = sync.Once{}
}

// LoadFile reads and validates the configuration at path. A missing file
// yields the embedded default.
//
// Outputs:
//   - *Config: The validated configuration.
//   - error: ErrInvalidConfig for parse or validation failures, or the
//     read error.
func LoadFile(ctx context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Load(ctx, data)
}

// Load parses YAML over the embedded defaults and validates the result.
//
// Description:
//
//	Keys absent from data keep their default values. The rules map is
//	replaced as a whole when data sets it.
//
// Inputs:
//   - ctx: Context for tracing.
//   - data: Raw YAML bytes.
//
// Outputs:
//   - *Config: The validated configuration.
//   - error: Wraps ErrInvalidConfig.
func Load(ctx context.Context, data []byte) (*Config, error) {
	_, span := tracer.Start(ctx, "config.Load")
	defer span.End()

	cfg := &Config{}
	if err := yaml.Unmarshal(defaultConfigYAML, cfg); err != nil {
		return nil, fmt.Errorf("%w: embedded default: %v", ErrInvalidConfig, err)
	}
	if len(data) > 0 {
		var override Config
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if override.Rules != nil {
			cfg.Rules = override.Rules
		}
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("rules", len(cfg.Rules)),
		attribute.Int("directives", len(cfg.Directives)),
	)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Style.Transform == "" {
		cfg.Style.Transform = TransformNone
	}
	if cfg.Cache.Enabled && cfg.Cache.Dir == "" {
		cfg.Cache.Dir = DefaultCacheDir
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints, rule names and glob syntax.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	for name := range c.Rules {
		if _, err := rules.Default().Get(name); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	for _, p := range append(append([]string(nil), c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("%w: bad glob %q", ErrInvalidConfig, p)
		}
	}
	return nil
}

// =============================================================================
// Derived Settings
// =============================================================================

// Selection returns the enabled rules with their options.
func (c *Config) Selection() map[string]rules.Options {
	out := make(map[string]rules.Options)
	for name, rc := range c.Rules {
		if rc.Enabled {
			out[name] = rules.Options(rc.Options)
		}
	}
	return out
}

// EnabledRules returns the enabled rule names sorted.
func (c *Config) EnabledRules() []string {
	var names []string
	for name, rc := range c.Rules {
		if rc.Enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// InterpolationConfig returns the configured delimiters.
func (c *Config) InterpolationConfig() expression.InterpolationConfig {
	if len(c.Interpolation) != 2 {
		return expression.DefaultInterpolation
	}
	return expression.InterpolationConfig{Start: c.Interpolation[0], End: c.Interpolation[1]}
}

// AllDirectives returns the builtin directives followed by the
// configured ones.
func (c *Config) AllDirectives() []metadata.DirectiveDeclaration {
	return append(metadata.DefaultDirectives(), c.Directives...)
}

// Workers returns the effective job count.
func (c *Config) Workers() int {
	if c.Jobs > 0 {
		return c.Jobs
	}
	return runtime.GOMAXPROCS(0)
}

// Fingerprint identifies the settings that affect lint results. It
// changes whenever rules, directives, interpolation or style settings do.
func (c *Config) Fingerprint() string {
	data, err := yaml.Marshal(struct {
		Rules         map[string]RuleConfig           `yaml:"rules"`
		Directives    []metadata.DirectiveDeclaration `yaml:"directives"`
		Interpolation []string                        `yaml:"interpolation"`
		Style         StyleConfig                     `yaml:"style"`
		MaxFileSize   int64                           `yaml:"max_file_size"`
	}{c.Rules, c.Directives, c.Interpolation, c.Style, c.MaxFileSize})
	if err != nil {
		data = []byte(fmt.Sprintf("%+v", *c))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
