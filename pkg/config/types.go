// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config

// Config is the fully merged application configuration.
type Config struct {
	Log    LogConfig    `koanf:"log"`
	Probe  ProbeConfig  `koanf:"probe"`
	Output OutputConfig `koanf:"output"`
}

// LogConfig controls the zerolog logger.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text (console writer) or json
	File   string `koanf:"file"`   // optional log file; stderr when empty
}

// ProbeConfig holds probing round parameters.
type ProbeConfig struct {
	// Timeout is a Go duration ("750ms") or a bare integer in milliseconds.
	Timeout     string   `koanf:"timeout"`
	Concurrency int      `koanf:"concurrency"`
	DefaultPort int      `koanf:"default_port"`
	Targets     []string `koanf:"targets"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format  string `koanf:"format"` // text, json, yaml
	Color   bool   `koanf:"color"`
	Summary bool   `koanf:"summary"`
}

// DefaultProbeConfig returns the built-in probing defaults.
func DefaultProbeConfig() ProbeConfig {
	return ProbeConfig{
		Timeout:     "2s",
		Concurrency: 256,
		DefaultPort: 0,
	}
}
