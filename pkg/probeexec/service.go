// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package probeexec validates a probing request, expands its target entries
// and runs one probing round.
package probeexec

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vulntor/netreach/pkg/output"
	"github.com/vulntor/netreach/pkg/probe"
	"github.com/vulntor/netreach/pkg/target"
)

// Run status values.
const (
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

// ProgressSink receives progress notifications while a round runs.
// OnEvent may be called from several goroutines at once.
type ProgressSink interface {
	OnEvent(ProgressEvent)
}

// ProgressEvent describes one step of a run.
type ProgressEvent struct {
	Phase     string // plan, probe, run
	Target    string
	Status    string
	Message   string
	Completed int
	Total     int
	Elapsed   time.Duration
	Timestamp time.Time
}

// Service orchestrates a probing round.
type Service struct {
	connector    probe.Connector
	progressSink ProgressSink
	logger       zerolog.Logger
}

// NewService builds a Service that dials real TCP connections.
func NewService() *Service {
	return &Service{
		connector: probe.NewTCPConnector(),
		logger:    log.With().Str("component", "probeexec").Logger(),
	}
}

// WithProgressSink attaches a sink to receive progress notifications.
func (s *Service) WithProgressSink(sink ProgressSink) *Service {
	s.progressSink = sink
	return s
}

// WithConnector replaces the connector (useful for tests).
func (s *Service) WithConnector(c probe.Connector) *Service {
	if c != nil {
		s.connector = c
	}
	return s
}

// Validate checks params without probing anything.
func (p Params) Validate() error {
	if len(p.Targets) == 0 {
		return ErrNoTargets
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("%w, got %s", ErrInvalidTimeout, p.Timeout)
	}
	if p.Concurrency < 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidConcurrency, p.Concurrency)
	}
	if p.DefaultPort < 0 || p.DefaultPort > 65535 {
		return fmt.Errorf("%w, got %d", ErrInvalidDefaultPort, p.DefaultPort)
	}
	return nil
}

// Run validates params, parses the target entries and probes every valid
// target. On cancellation it returns a nil Result and the context error.
func (s *Service) Run(ctx context.Context, params Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	logger := s.logger.With().Str("run_id", runID).Logger()
	startTime := time.Now()

	out := output.FromContext(ctx)
	targets, rejected := target.ParseAll(params.Targets, params.DefaultPort)
	out.Diag(output.LevelVerbose, "Target entries expanded", map[string]any{
		"run_id":   runID,
		"entries":  len(params.Targets),
		"targets":  len(targets),
		"rejected": len(rejected),
	})
	for _, perr := range rejected {
		s.emit(ProgressEvent{Phase: "plan", Target: perr.Entry, Status: "rejected", Message: perr.Error()})
	}
	if len(targets) == 0 {
		logger.Warn().Int("rejected", len(rejected)).Msg("No valid targets")
		return nil, fmt.Errorf("%w: all %d entries were rejected", ErrNoValidTargets, len(rejected))
	}
	s.emit(ProgressEvent{
		Phase:   "plan",
		Status:  StatusCompleted,
		Total:   len(targets),
		Message: fmt.Sprintf("targets=%d rejected=%d", len(targets), len(rejected)),
	})

	total := len(targets)
	var (
		progressMu sync.Mutex
		completed  int
	)
	prober := probe.New(
		probe.WithConnector(s.connector),
		probe.WithConcurrency(params.Concurrency),
		probe.WithOutcomeHook(func(o probe.Outcome) {
			// Completed counts reach the sink in increasing order.
			progressMu.Lock()
			defer progressMu.Unlock()
			completed++
			s.emit(ProgressEvent{
				Phase:     "probe",
				Target:    o.Target.Address(),
				Status:    o.Label(),
				Completed: completed,
				Total:     total,
				Elapsed:   o.Elapsed,
			})
		}),
	)

	logger.Info().
		Int("targets", total).
		Int("rejected", len(rejected)).
		Dur("timeout", params.Timeout).
		Int("concurrency", prober.Concurrency()).
		Msg("Probe round started")
	s.emit(ProgressEvent{Phase: "run", Status: "start", Total: total})

	report, err := prober.ProbeAll(ctx, targets, params.Timeout)
	if err != nil {
		s.emit(ProgressEvent{Phase: "run", Status: StatusCanceled, Message: err.Error()})
		logger.Warn().Err(err).Msg("Probe round aborted")
		return nil, err
	}

	endTime := time.Now()
	counts := report.Counts()
	logger.Info().
		Int("reachable", counts[probe.StatusReachable]).
		Int("unreachable", counts[probe.StatusUnreachable]).
		Int("timed_out", counts[probe.StatusTimedOut]).
		Dur("duration", endTime.Sub(startTime)).
		Msg("Probe round completed")
	s.emit(ProgressEvent{Phase: "run", Status: StatusCompleted, Completed: total, Total: total})

	return &Result{
		RunID:     runID,
		StartTime: startTime,
		EndTime:   endTime,
		Status:    StatusCompleted,
		Timeout:   params.Timeout,
		Targets:   targets,
		Rejected:  rejected,
		Report:    report,
	}, nil
}

func (s *Service) emit(ev ProgressEvent) {
	if s.progressSink == nil {
		return
	}
	ev.Timestamp = time.Now()
	s.progressSink.OnEvent(ev)
}
