// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package probe implements concurrent TCP reachability probing.
//
// A Prober takes a list of targets and a per-target timeout, attempts a
// connection to every target concurrently (bounded by a concurrency ceiling)
// and returns a Report with exactly one Outcome per submitted target, in
// submission order. Per-target failures are data in the Report; only invalid
// configuration or cancellation of the whole round are returned as errors.
package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/vulntor/netreach/pkg/target"
)

// DefaultConcurrency is the ceiling on simultaneous connection attempts used
// when none is configured.
const DefaultConcurrency = 256

// ErrInvalidConfiguration is returned (wrapped) when a probing round cannot
// start because of its parameters.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Prober probes targets concurrently through a Connector.
type Prober struct {
	connector   Connector
	concurrency int
	onOutcome   func(Outcome)
	logger      zerolog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithConnector replaces the default TCPConnector.
func WithConnector(c Connector) Option {
	return func(p *Prober) {
		if c != nil {
			p.connector = c
		}
	}
}

// WithConcurrency sets the maximum number of in-flight attempts. Values < 1
// select DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(p *Prober) {
		if n < 1 {
			n = DefaultConcurrency
		}
		p.concurrency = n
	}
}

// WithOutcomeHook registers fn to be called once per finished target, as soon
// as its outcome is known. fn is called from probing goroutines and must be
// safe for concurrent use.
func WithOutcomeHook(fn func(Outcome)) Option {
	return func(p *Prober) {
		p.onOutcome = fn
	}
}

// New builds a Prober. Without options it dials real TCP endpoints with
// DefaultConcurrency.
func New(opts ...Option) *Prober {
	p := &Prober{
		connector:   NewTCPConnector(),
		concurrency: DefaultConcurrency,
		logger:      log.With().Str("component", "prober").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Concurrency returns the configured ceiling.
func (p *Prober) Concurrency() int { return p.concurrency }

// ProbeAll attempts a connection to every target and returns one Outcome per
// target in input order. Duplicated targets are probed and reported once per
// occurrence.
//
// Each attempt gets its own timeout, counted from the moment the attempt is
// scheduled; a target that does not answer in time is reported as TimedOut and
// its attempt is abandoned. If ctx is cancelled before every target finished,
// ProbeAll returns an empty Report and the context error.
func (p *Prober) ProbeAll(ctx context.Context, targets []target.Target, timeout time.Duration) (Report, error) {
	if timeout <= 0 {
		return Report{}, fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidConfiguration, timeout)
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	outcomes := make([]Outcome, len(targets))
	if len(targets) == 0 {
		return Report{Outcomes: outcomes}, nil
	}

	p.logger.Debug().
		Int("targets", len(targets)).
		Int("concurrency", p.concurrency).
		Dur("timeout", timeout).
		Msg("Starting probing round")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, t := range targets {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcome, err := p.probeOne(gctx, t, timeout)
			if err != nil {
				return err
			}
			// Each goroutine owns exactly one slot; Wait publishes them.
			outcomes[i] = outcome
			if p.onOutcome != nil {
				p.onOutcome(outcome)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		p.logger.Debug().Err(err).Msg("Probing round aborted")
		return Report{}, err
	}
	if err := ctx.Err(); err != nil {
		p.logger.Debug().Err(err).Msg("Probing round aborted")
		return Report{}, err
	}

	return Report{Outcomes: outcomes}, nil
}

// probeOne runs a single attempt bounded by timeout. It returns an error only
// when the round itself was cancelled.
func (p *Prober) probeOne(ctx context.Context, t target.Target, timeout time.Duration) (Outcome, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- p.connector.AttemptConnection(attemptCtx, t)
	}()

	var err error
	select {
	case err = <-done:
	case <-attemptCtx.Done():
		err = attemptCtx.Err()
	}
	elapsed := time.Since(start)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return Outcome{}, ctxErr
	}

	status, reason := Classify(err)
	outcome := Outcome{
		Target:  t,
		Status:  status,
		Reason:  reason,
		Elapsed: elapsed,
	}
	if status == StatusUnreachable && err != nil {
		outcome.Detail = err.Error()
	}

	p.logger.Debug().
		Str("target", t.Address()).
		Str("status", outcome.Label()).
		Dur("elapsed", elapsed).
		Msg("Probe finished")

	return outcome, nil
}
