// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read by EnvSource.
const EnvPrefix = "NETREACH_"

// Source priorities. Higher values are loaded later and win.
const (
	PriorityDefaults = 0
	PriorityFile     = 10
	PriorityEnv      = 20
	PriorityFlags    = 30
	PriorityDebug    = 40
)

// ConfigSource is a single layer of configuration.
type ConfigSource interface {
	Name() string
	Priority() int
	Load(k *koanf.Koanf) error
}

// MapSource loads a flat key/value map. It backs the defaults layer and the
// --debug override.
type MapSource struct {
	name     string
	priority int
	values   map[string]any
}

// NewMapSource creates a MapSource.
func NewMapSource(name string, priority int, values map[string]any) *MapSource {
	return &MapSource{name: name, priority: priority, values: values}
}

func (s *MapSource) Name() string  { return s.name }
func (s *MapSource) Priority() int { return s.priority }

func (s *MapSource) Load(k *koanf.Koanf) error {
	return k.Load(confmap.Provider(s.values, "."), nil)
}

// DefaultsSource returns the built-in defaults layer.
func DefaultsSource() ConfigSource {
	return NewMapSource("defaults", PriorityDefaults, DefaultConfigAsMap())
}

// FileSource loads a YAML configuration file.
type FileSource struct {
	Path string
}

func (s *FileSource) Name() string  { return "file:" + s.Path }
func (s *FileSource) Priority() int { return PriorityFile }

func (s *FileSource) Load(k *koanf.Koanf) error {
	if _, err := os.Stat(s.Path); err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	return k.Load(file.Provider(s.Path), yaml.Parser())
}

// EnvSource loads NETREACH_* environment variables.
type EnvSource struct {
	Prefix string
}

func (s *EnvSource) Name() string  { return "env" }
func (s *EnvSource) Priority() int { return PriorityEnv }

func (s *EnvSource) Load(k *koanf.Koanf) error {
	prefix := s.Prefix
	if prefix == "" {
		prefix = EnvPrefix
	}
	return k.Load(env.Provider(prefix, ".", func(key string) string {
		return EnvKey(prefix, key)
	}), nil)
}

// EnvKey maps an environment variable name to a config key:
// NETREACH_PROBE_DEFAULT_PORT becomes probe.default_port.
func EnvKey(prefix, name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, prefix))
	return strings.Replace(key, "_", ".", 1)
}

// FlagKeys maps command-line flag names to config keys. Flags not listed
// here do not participate in configuration.
var FlagKeys = map[string]string{
	"log-format":   "log.format",
	"log-file":     "log.file",
	"timeout":      "probe.timeout",
	"concurrency":  "probe.concurrency",
	"default-port": "probe.default_port",
	"output":       "output.format",
	"summary":      "output.summary",
	"no-color":     "output.color",
}

// FlagSource loads explicitly set command-line flags.
type FlagSource struct {
	Flags *pflag.FlagSet
}

func (s *FlagSource) Name() string  { return "flags" }
func (s *FlagSource) Priority() int { return PriorityFlags }

func (s *FlagSource) Load(k *koanf.Koanf) error {
	if s.Flags == nil {
		return nil
	}
	return k.Load(posflag.ProviderWithFlag(s.Flags, ".", k, func(f *pflag.Flag) (string, any) {
		key, ok := FlagKeys[f.Name]
		if !ok || !f.Changed {
			return "", nil
		}
		val := posflag.FlagVal(s.Flags, f)
		if f.Name == "no-color" {
			noColor, _ := val.(bool)
			return key, !noColor
		}
		return key, val
	}), nil)
}

// DefaultSources assembles the standard source chain. An empty path skips the
// file layer. debug forces log.level=debug above every other source.
func DefaultSources(path string, flags *pflag.FlagSet, debug bool) []ConfigSource {
	sources := []ConfigSource{DefaultsSource()}
	if path != "" {
		sources = append(sources, &FileSource{Path: path})
	}
	sources = append(sources, &EnvSource{Prefix: EnvPrefix}, &FlagSource{Flags: flags})
	if debug {
		sources = append(sources, NewMapSource("debug", PriorityDebug, map[string]any{"log.level": "debug"}))
	}
	return sources
}
