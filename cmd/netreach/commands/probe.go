// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/netreach/cmd/netreach/internal/bind"
	"github.com/vulntor/netreach/pkg/appctx"
	"github.com/vulntor/netreach/pkg/output"
	"github.com/vulntor/netreach/pkg/output/subscribers"
	"github.com/vulntor/netreach/pkg/probe"
	"github.com/vulntor/netreach/pkg/probeexec"
	"github.com/vulntor/netreach/pkg/report"
)

// NewProbeCommand builds the 'probe' command.
func NewProbeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe [targets...]",
		Short: "Probe TCP reachability of the given targets",
		Long: `Attempts one TCP connection per target, all targets concurrently, and
reports each one as reachable, unreachable:<reason> or timed_out.

Targets are host:port, [ipv6]:port, cidr:port or a.b.c.d-N:port; the port part
may be a list or range (host:80,443 or host:8000-8002). The report goes to
stdout; warnings, progress and the summary go to stderr.`,
		Example: `  netreach probe example.com:443 10.0.0.0/30:22
  netreach probe --timeout 500 -o json db.internal:5432 cache.internal:6379
  netreach probe --default-port 80 intranet.local --summary`,
		Args: cobra.ArbitraryArgs,
		RunE: runProbeCommand,
	}

	bind.RegisterProbeFlags(cmd.Flags())
	return cmd
}

func runProbeCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := appctx.Config(ctx)
	verbosity, _ := cmd.Flags().GetCount("verbosity")
	logger := log.With().Str("command", "probe").Logger()

	opts, err := bind.BindProbeOptions(cmd, args, cfg)
	if err != nil {
		out := setupOutputPipeline(cmd.ErrOrStderr(), report.FormatText, cfg.Output.Color, verbosity)
		logger.Error().Err(err).Msg("Failed to bind probe options")
		out.Error(err)
		return &reportedError{err: err}
	}

	out := setupOutputPipeline(cmd.ErrOrStderr(), opts.Format, opts.Color, verbosity)
	ctx = output.WithOutput(ctx, out)

	out.Diag(output.LevelVerbose, "Probe options bound", map[string]any{
		"entries":     len(opts.Params.Targets),
		"timeout":     opts.Params.Timeout.String(),
		"concurrency": opts.Params.Concurrency,
		"format":      string(opts.Format),
	})

	svc := probeexec.NewService().WithProgressSink(&progressReporter{
		out:          out,
		logger:       logger,
		showOutcomes: opts.Progress,
	})

	res, err := svc.Run(ctx, opts.Params)
	if err != nil {
		logger.Error().Err(err).Str("code", probeexec.ErrorCode(err)).Msg("Probe run failed")
		out.Error(err)
		return &reportedError{err: err}
	}

	doc := report.FromResult(res)
	if err := report.Write(cmd.OutOrStdout(), opts.Format, doc); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if opts.Summary {
		out.Table(report.SummaryRows(doc))
	}
	out.Diag(output.LevelVerbose, "Probe run finished", map[string]any{
		"run_id":      res.RunID,
		"duration_ms": doc.DurationMS,
	})
	return nil
}

// setupOutputPipeline builds the stderr message pipeline. Machine-readable
// report formats get JSON Lines messages; text gets the human formatter.
func setupOutputPipeline(w io.Writer, format report.Format, color bool, verbosity int) output.Output {
	stream := output.NewOutputEventStream()
	if format == report.FormatText {
		stream.Subscribe(subscribers.NewHumanFormatter(w, w, color))
	} else {
		stream.Subscribe(subscribers.NewJSONFormatter(w))
	}
	stream.Subscribe(subscribers.NewDiagnosticSubscriber(output.LevelFromVerbosity(verbosity), w))
	return output.NewDefaultOutput(stream)
}

// progressReporter forwards service progress to the output pipeline.
type progressReporter struct {
	out          output.Output
	logger       zerolog.Logger
	showOutcomes bool
}

func (p *progressReporter) OnEvent(ev probeexec.ProgressEvent) {
	switch {
	case ev.Phase == "plan" && ev.Status == "rejected":
		p.out.Warning(ev.Message)

	case ev.Phase == "run" && ev.Status == "start":
		p.out.Info(fmt.Sprintf("Probing %d targets", ev.Total))

	case ev.Phase == "probe":
		p.logger.Debug().
			Str("target", ev.Target).
			Str("status", ev.Status).
			Dur("elapsed", ev.Elapsed).
			Int("completed", ev.Completed).
			Int("total", ev.Total).
			Msg("Target probed")
		if !p.showOutcomes {
			p.out.Progress(ev.Completed, ev.Total, ev.Target+" "+ev.Status)
			return
		}
		p.out.Outcome(output.OutcomeData{
			Address:   ev.Target,
			Label:     ev.Status,
			Reachable: ev.Status == string(probe.StatusReachable),
			Elapsed:   ev.Elapsed,
		})

	default:
		p.out.Diag(output.LevelDebug, fmt.Sprintf("%s %s", ev.Phase, ev.Status), map[string]any{
			"total":   ev.Total,
			"message": ev.Message,
		})
	}
}
