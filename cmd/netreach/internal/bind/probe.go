// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package bind turns command flags and loaded configuration into service
// parameters.
package bind

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vulntor/netreach/pkg/config"
	"github.com/vulntor/netreach/pkg/probeexec"
	"github.com/vulntor/netreach/pkg/report"
)

// ProbeOptions is everything the probe command needs to run.
type ProbeOptions struct {
	Params   probeexec.Params
	Format   report.Format
	Summary  bool
	Progress bool
	Color    bool
}

// RegisterProbeFlags declares the probe command flags. Flags left unset fall
// back to the loaded configuration.
func RegisterProbeFlags(flags *pflag.FlagSet) {
	flags.StringArrayP("targets", "t", nil, "Target entry (host:port, cidr:port, host:80,443); repeatable")
	flags.String("timeout", "", "Per-target timeout as a duration (750ms) or milliseconds (default from config: 2s)")
	flags.Int("concurrency", 0, "Maximum simultaneous connection attempts (default from config: 256)")
	flags.Int("default-port", 0, "Port used for entries without one (0 rejects such entries)")
	flags.StringP("output", "o", "text", "Report format: text, json, yaml")
	flags.Bool("summary", false, "Print a status summary table on stderr")
	flags.Bool("progress", false, "Print each outcome on stderr as it completes")
}

// BindProbeOptions extracts and validates probe command flags.
//
// Explicitly set flags win over cfg, which already merges defaults, the
// config file and NETREACH_* variables.
//
// Flags read:
//   - --targets: Additional target entries (repeatable)
//   - --timeout: Per-target timeout, a duration ("750ms") or bare milliseconds
//   - --concurrency: Maximum simultaneous attempts (0 selects the default)
//   - --default-port: Port for entries that carry none
//   - --output: Report format (text, json, yaml)
//   - --summary: Print a status summary table on stderr
//   - --progress: Print each outcome on stderr as it completes
//   - --no-color: Disable styled terminal output
//
// Entries come from positional arguments followed by --targets. When neither
// supplies any, probe.targets from the configuration is used.
func BindProbeOptions(cmd *cobra.Command, args []string, cfg config.Config) (ProbeOptions, error) {
	flags := cmd.Flags()

	targetFlags, _ := flags.GetStringArray("targets")
	entries := make([]string, 0, len(args)+len(targetFlags))
	entries = append(entries, args...)
	entries = append(entries, targetFlags...)
	if len(entries) == 0 {
		entries = append(entries, cfg.Probe.Targets...)
	}

	timeoutRaw := cfg.Probe.Timeout
	if flags.Changed("timeout") {
		timeoutRaw, _ = flags.GetString("timeout")
	}
	timeout, err := config.ParseTimeout(timeoutRaw)
	if err != nil {
		return ProbeOptions{}, fmt.Errorf("%w: %v", probeexec.ErrInvalidTimeout, err)
	}

	concurrency := cfg.Probe.Concurrency
	if flags.Changed("concurrency") {
		concurrency, _ = flags.GetInt("concurrency")
	}

	defaultPort := cfg.Probe.DefaultPort
	if flags.Changed("default-port") {
		defaultPort, _ = flags.GetInt("default-port")
	}

	formatRaw := cfg.Output.Format
	if flags.Changed("output") {
		formatRaw, _ = flags.GetString("output")
	}
	format, err := report.ParseFormat(formatRaw)
	if err != nil {
		return ProbeOptions{}, err
	}

	summary := cfg.Output.Summary
	if flags.Changed("summary") {
		summary, _ = flags.GetBool("summary")
	}
	progress, _ := flags.GetBool("progress")

	color := cfg.Output.Color
	if flags.Changed("no-color") {
		noColor, _ := flags.GetBool("no-color")
		color = !noColor
	}

	opts := ProbeOptions{
		Params: probeexec.Params{
			Targets:     entries,
			Timeout:     timeout,
			Concurrency: concurrency,
			DefaultPort: defaultPort,
		},
		Format:   format,
		Summary:  summary,
		Progress: progress,
		Color:    color,
	}
	if err := opts.Params.Validate(); err != nil {
		return ProbeOptions{}, err
	}
	return opts, nil
}
