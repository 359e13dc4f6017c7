package config

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable read by WithEnv.
const EnvPrefix = "MEDITATE_"

// Builder layers configuration sources. Later layers override earlier ones;
// zero values in a layer leave the earlier value in place, except for
// optional pointer fields where any non-nil value wins.
type Builder struct {
	logger *slog.Logger
	layers []*Config
	err    error
}

// NewBuilder creates a Builder seeded with DefaultConfig.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		logger: logger,
		layers: []*Config{DefaultConfig()},
	}
}

// WithFile layers the config file at path (DefaultPath when empty). A file
// that cannot be read or parsed is logged and skipped.
func (b *Builder) WithFile(path string) *Builder {
	if path == "" {
		path = DefaultPath()
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		b.logger.Warn("failed to load config file, using defaults", "path", path, "error", err)
		return b
	}

	b.logger.Debug("loaded config file", "path", path)
	b.layers = append(b.layers, cfg)
	return b
}

// WithEnv layers MEDITATE_* environment variables.
func (b *Builder) WithEnv() *Builder {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		b.err = errors.Join(b.err, fmt.Errorf("error getting env configs: %w", err))
		return b
	}

	b.layers = append(b.layers, cfg)
	return b
}

// WithOverrides layers explicitly set values, typically command-line flags.
func (b *Builder) WithOverrides(cfg *Config) *Builder {
	if cfg != nil {
		b.layers = append(b.layers, cfg)
	}
	return b
}

// Build merges all layers.
func (b *Builder) Build() (*Config, error) {
	if b.err != nil {
		return nil, fmt.Errorf("error occurred during building config: %w", b.err)
	}

	cfg := new(Config)
	for _, layer := range b.layers {
		if err := mergo.Merge(cfg, layer, mergo.WithOverride, mergo.WithTransformers(optionalTransformer{})); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}

	return cfg, nil
}

// optionalTransformer makes a non-nil optional field replace the earlier
// layer's value even when it points at false or 0.
type optionalTransformer struct{}

func (optionalTransformer) Transformer(typ reflect.Type) func(dst, src reflect.Value) error {
	switch typ {
	case reflect.TypeFor[*bool](), reflect.TypeFor[*int]():
		return func(dst, src reflect.Value) error {
			if dst.CanSet() && !src.IsNil() {
				dst.Set(src)
			}
			return nil
		}
	}
	return nil
}
