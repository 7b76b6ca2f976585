// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package probeexec

import (
	"context"
	"errors"
	"fmt"

	"github.com/vulntor/netreach/pkg/probe"
)

// Configuration errors. All of them match probe.ErrInvalidConfiguration
// with errors.Is.
var (
	ErrNoTargets          = fmt.Errorf("%w: no targets given", probe.ErrInvalidConfiguration)
	ErrNoValidTargets     = fmt.Errorf("%w: no valid targets", probe.ErrInvalidConfiguration)
	ErrInvalidTimeout     = fmt.Errorf("%w: timeout must be positive", probe.ErrInvalidConfiguration)
	ErrInvalidConcurrency = fmt.Errorf("%w: concurrency must not be negative", probe.ErrInvalidConfiguration)
	ErrInvalidDefaultPort = fmt.Errorf("%w: default port must be between 0 and 65535", probe.ErrInvalidConfiguration)
	ErrInvalidFormat      = fmt.Errorf("%w: unsupported output format", probe.ErrInvalidConfiguration)
)

// Exit codes returned by the CLI.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitConfiguration = 2
)

// ErrorCode maps an error to a stable machine-readable code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoTargets):
		return "NO_TARGETS"
	case errors.Is(err, ErrNoValidTargets):
		return "NO_VALID_TARGETS"
	case errors.Is(err, ErrInvalidTimeout):
		return "INVALID_TIMEOUT"
	case errors.Is(err, ErrInvalidConcurrency):
		return "INVALID_CONCURRENCY"
	case errors.Is(err, ErrInvalidDefaultPort):
		return "INVALID_DEFAULT_PORT"
	case errors.Is(err, ErrInvalidFormat):
		return "INVALID_FORMAT"
	case errors.Is(err, probe.ErrInvalidConfiguration):
		return "INVALID_CONFIGURATION"
	case errors.Is(err, context.Canceled):
		return "CANCELED"
	case errors.Is(err, context.DeadlineExceeded):
		return "DEADLINE_EXCEEDED"
	default:
		return "INTERNAL_ERROR"
	}
}

// ExitCode maps an error to the process exit status: 0 on success,
// 2 for configuration errors and 1 for anything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, probe.ErrInvalidConfiguration):
		return ExitConfiguration
	default:
		return ExitFailure
	}
}
