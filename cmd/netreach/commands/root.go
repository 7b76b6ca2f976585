// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package commands wires the netreach CLI.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/netreach/pkg/appctx"
	"github.com/vulntor/netreach/pkg/config"
	"github.com/vulntor/netreach/pkg/logging"
	"github.com/vulntor/netreach/pkg/probe"
	"github.com/vulntor/netreach/pkg/probeexec"
)

const cliExecutable = "netreach"

// reportedError marks an error that has already been shown to the user.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// logSession owns the log file opened while a command runs.
type logSession struct {
	closer io.Closer
}

// Close releases the log file. It is safe to call more than once.
func (s *logSession) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// Execute runs the CLI with args and returns the process exit status.
func Execute(ctx context.Context, args []string) int {
	cmd, logs := newCommand()
	cmd.SetArgs(args)
	return run(ctx, cmd, logs)
}

// run executes cmd and always releases the log file, including when RunE
// fails and cobra skips the post-run hooks.
func run(ctx context.Context, cmd *cobra.Command, logs *logSession) int {
	err := cmd.ExecuteContext(ctx)
	if cerr := logs.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close log file: %w", cerr)
	}
	if err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}
	return probeexec.ExitCode(err)
}

// newCommand constructs the top-level netreach command, wiring global flags,
// configuration loading and logging. The returned logSession owns the log
// file opened by the pre-run hook.
func newCommand() (*cobra.Command, *logSession) {
	var (
		configFile     string
		verbosityCount int
		verbose        bool
	)
	logs := &logSession{}

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "netreach checks TCP reachability of many targets concurrently",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			mgr := config.NewManager()
			if err := mgr.Load(cmd.Flags(), configFile); err != nil {
				return fmt.Errorf("%w: %w", probe.ErrInvalidConfiguration, err)
			}
			cfg := mgr.Get()

			closer, err := logging.Setup(cfg.Log, logging.Options{
				Verbosity: verbosityCount,
				Verbose:   verbose,
				Stderr:    cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("%w: %w", probe.ErrInvalidConfiguration, err)
			}
			logs.closer = closer

			log.Debug().
				Str("config_file", configFile).
				Str("log_level", cfg.Log.Level).
				Msg("Configuration loaded")

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = appctx.WithConfig(ctx, cfg)

			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return logs.Close()
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path (YAML)")
	cmd.PersistentFlags().CountVarP(&verbosityCount, "verbosity", "v", "Increase logging verbosity (repeatable)")
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")

	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewProbeCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd, logs
}
