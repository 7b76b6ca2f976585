// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vulntor/netreach/pkg/config"
)

// Options are the command-line knobs that adjust the configured level.
type Options struct {
	// Verbosity is the -v count: 1 enables info, 2 or more enables debug.
	Verbosity int
	// Verbose enables debug logging.
	Verbose bool
	// Stderr is the destination when no log file is configured.
	Stderr io.Writer
}

// Level resolves the effective level. The most verbose of the configured
// level and the command-line verbosity wins.
func Level(cfg config.LogConfig, opts Options) (zerolog.Level, error) {
	level := zerolog.WarnLevel
	if s := strings.TrimSpace(cfg.Level); s != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(s))
		if err != nil {
			return zerolog.NoLevel, fmt.Errorf("invalid log.level '%s': %w", cfg.Level, err)
		}
		level = parsed
	}

	cli := zerolog.WarnLevel
	switch {
	case opts.Verbose || opts.Verbosity >= 2:
		cli = zerolog.DebugLevel
	case opts.Verbosity == 1:
		cli = zerolog.InfoLevel
	}
	return min(level, cli), nil
}

// Setup installs the global logger and level. The returned closer releases
// the log file, if any.
func Setup(cfg config.LogConfig, opts Options) (io.Closer, error) {
	level, err := Level(cfg, opts)
	if err != nil {
		return nil, err
	}

	var (
		w      io.Writer = opts.Stderr
		closer io.Closer = nopCloser{}
		isFile bool
	)
	if w == nil {
		w = os.Stderr
	}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer, isFile = f, f, true
	}

	switch strings.ToLower(cfg.Format) {
	case "", "text", "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: isFile}
	case "json":
	default:
		_ = closer.Close()
		return nil, fmt.Errorf("invalid log.format '%s' (want text or json)", cfg.Format)
	}

	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
