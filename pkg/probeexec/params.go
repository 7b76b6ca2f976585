// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package probeexec

import (
	"time"

	"github.com/vulntor/netreach/pkg/probe"
	"github.com/vulntor/netreach/pkg/target"
)

// Params defines the input required to start a probing round.
type Params struct {
	// Targets are raw entries ("host:port", "10.0.0.0/30:22", "host:80,443").
	Targets     []string
	Timeout     time.Duration
	Concurrency int // 0 selects probe.DefaultConcurrency
	DefaultPort int // applied to entries without a port; 0 disables
}

// Result is the outcome of one probing round.
type Result struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	Status    string
	Timeout   time.Duration

	// Targets are the parsed targets in probing order.
	Targets []target.Target
	// Rejected holds entries that could not be parsed.
	Rejected []*target.ParseError
	Report   probe.Report
}

// Duration returns the wall-clock time of the round.
func (r *Result) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
