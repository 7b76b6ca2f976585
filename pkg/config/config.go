// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package config loads netreach configuration from defaults, a YAML file,
// environment variables and command-line flags.
package config

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
)

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex
}

// NewManager creates a new Manager with its own Koanf instance, so repeated
// loads in one process (tests, embedded use) never see each other's keys.
func NewManager() *Manager {
	return &Manager{
		koanfInstance: koanf.New("."),
		currentConfig: DefaultConfig(),
	}
}

// DefaultConfig returns a new Config struct populated with hardcoded default values.
// These serve as the baseline configuration if no other sources override them.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
			File:   "",
		},
		Probe: DefaultProbeConfig(),
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Summary: false,
		},
	}
}

// Load loads configuration from various sources based on precedence.
//
// Configuration precedence (highest to lowest):
//  1. --debug flag (forces log.level=debug)
//  2. Command-line flags (--timeout=500ms)
//  3. Environment variables (NETREACH_PROBE_TIMEOUT=500ms)
//  4. Config file (YAML)
//  5. Default values
//
// Environment variables use the NETREACH_ prefix; the first underscore after
// the prefix separates the section from the key:
//
//	NETREACH_LOG_LEVEL           -> log.level
//	NETREACH_PROBE_DEFAULT_PORT  -> probe.default_port
func (m *Manager) Load(flags *pflag.FlagSet, customConfigFilePath string) error {
	debug := false
	if flags != nil {
		debugFlag := flags.Lookup("debug")
		if debugFlag != nil && debugFlag.Value.String() == "true" {
			debug = true
		}
	}

	sources := DefaultSources(customConfigFilePath, flags, debug)
	return m.LoadWithSources(sources)
}

// LoadWithSources loads configuration from the provided sources in priority order.
// Sources with lower priority values are loaded first, higher priority sources
// override lower priority values.
func (m *Manager) LoadWithSources(sources []ConfigSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Priority() < sources[j].Priority()
	})

	for _, src := range sources {
		if err := src.Load(m.koanfInstance); err != nil {
			return fmt.Errorf("error loading config from %s: %w", src.Name(), err)
		}
	}

	var newCfg Config
	if err := m.koanfInstance.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}
	m.currentConfig = newCfg

	return m.postProcessConfig()
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg := m.currentConfig
	cfg.Probe.Targets = append([]string(nil), m.currentConfig.Probe.Targets...)
	return cfg
}

// postProcessConfig normalises values after unmarshaling and rejects values
// that can never be valid.
func (m *Manager) postProcessConfig() error {
	cfg := &m.currentConfig
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))

	if cfg.Probe.Timeout != "" {
		if _, err := ParseTimeout(cfg.Probe.Timeout); err != nil {
			return fmt.Errorf("invalid probe.timeout: %w", err)
		}
	}
	return nil
}

// DefaultConfigAsMap converts the DefaultConfig struct to a flat map for
// Koanf's confmap provider so every key is known to Koanf.
func DefaultConfigAsMap() map[string]any {
	def := DefaultConfig()
	return map[string]any{
		"log.level":  def.Log.Level,
		"log.format": def.Log.Format,
		"log.file":   def.Log.File,

		"probe.timeout":      def.Probe.Timeout,
		"probe.concurrency":  def.Probe.Concurrency,
		"probe.default_port": def.Probe.DefaultPort,
		"probe.targets":      []string{},

		"output.format":  def.Output.Format,
		"output.color":   def.Output.Color,
		"output.summary": def.Output.Summary,
	}
}

// BindFlags defines the global command-line flags that override configuration.
// Command-specific flags (timeout, concurrency, ...) are declared by the
// commands themselves and mapped to keys by FlagKeys.
func BindFlags(flags *pflag.FlagSet) {
	var debug bool
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")

	var noColor bool
	flags.BoolVar(&noColor, "no-color", false, "Disable colored output")

	var logFormat string
	flags.StringVar(&logFormat, "log-format", "", "Log format (text, json)")

	var logFile string
	flags.StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")
}

// ParseTimeout interprets a timeout value. Strings are parsed as Go durations
// ("750ms", "2s"); bare integers (as numbers or strings) are milliseconds.
func ParseTimeout(v any) (time.Duration, error) {
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, fmt.Errorf("empty timeout")
		}
		if ms, err := cast.ToInt64E(s); err == nil {
			return millis(ms)
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid timeout '%s': expected a duration like 500ms or an integer in milliseconds", s)
		}
		return d, nil
	default:
		ms, err := cast.ToInt64E(val)
		if err != nil {
			return 0, fmt.Errorf("invalid timeout %v: %w", v, err)
		}
		return millis(ms)
	}
}

// maxTimeoutMillis is the largest millisecond count a time.Duration can hold.
const maxTimeoutMillis = math.MaxInt64 / int64(time.Millisecond)

func millis(ms int64) (time.Duration, error) {
	if ms > maxTimeoutMillis || ms < -maxTimeoutMillis {
		return 0, fmt.Errorf("timeout %dms is out of range", ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
