// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vulntor/netreach/pkg/probe/probetest"
	"github.com/vulntor/netreach/pkg/target"
)

// listenLocal starts a TCP listener on an ephemeral localhost port that
// accepts and immediately closes every connection.
func listenLocal(t *testing.T) target.Target {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	return targetFromAddr(t, ln.Addr().String())
}

// closedLocalPort returns a localhost target on which nothing listens.
func closedLocalPort(t *testing.T) target.Target {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return targetFromAddr(t, addr)
}

func targetFromAddr(t *testing.T, addr string) target.Target {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return target.MustNew(host, port)
}

func TestProbeAll_ReachableLocalListener(t *testing.T) {
	tgt := listenLocal(t)
	timeout := 2 * time.Second

	report, err := New().ProbeAll(context.Background(), []target.Target{tgt}, timeout)
	require.NoError(t, err)
	require.Equal(t, 1, report.Len())

	outcome := report.Outcomes[0]
	require.Equal(t, tgt, outcome.Target)
	require.Equal(t, StatusReachable, outcome.Status)
	require.Equal(t, ReasonNone, outcome.Reason)
	require.Less(t, outcome.Elapsed, timeout)
	require.Equal(t, "reachable", outcome.Label())
}

func TestProbeAll_RefusedLocalPort(t *testing.T) {
	tgt := closedLocalPort(t)

	report, err := New().ProbeAll(context.Background(), []target.Target{tgt}, 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, 1, report.Len())

	outcome := report.Outcomes[0]
	require.Equal(t, StatusUnreachable, outcome.Status)
	require.Equal(t, ReasonRefused, outcome.Reason)
	require.Equal(t, "unreachable:refused", outcome.Label())
	require.NotEmpty(t, outcome.Detail)
}

func TestProbeAll_EmptyTargets(t *testing.T) {
	report, err := New().ProbeAll(context.Background(), nil, time.Second)
	require.NoError(t, err)
	require.Equal(t, 0, report.Len())
}

func TestProbeAll_NonPositiveTimeout(t *testing.T) {
	targets := []target.Target{target.MustNew("127.0.0.1", 80)}

	for _, timeout := range []time.Duration{0, -time.Second} {
		t.Run(timeout.String(), func(t *testing.T) {
			connector := probetest.NewConnector()
			p := New(WithConnector(connector))

			_, err := p.ProbeAll(context.Background(), targets, timeout)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidConfiguration))
			require.Zero(t, connector.Calls(targets[0]), "no probing may start on invalid configuration")

			_, err = p.ProbeAll(context.Background(), nil, timeout)
			require.True(t, errors.Is(err, ErrInvalidConfiguration))
		})
	}
}

func TestProbeAll_OneOutcomePerTarget(t *testing.T) {
	connector := probetest.NewConnector()
	var targets []target.Target
	for i := range 60 {
		tgt := target.MustNew(fmt.Sprintf("host-%d.test", i), 1000+i)
		switch i % 3 {
		case 0:
			connector.On(tgt, probetest.Behavior{Delay: time.Millisecond})
		case 1:
			connector.On(tgt, probetest.Behavior{Err: refusedError()})
		case 2:
			connector.On(tgt, probetest.Behavior{Hang: true})
		}
		targets = append(targets, tgt)
	}

	report, err := New(WithConnector(connector), WithConcurrency(16)).
		ProbeAll(context.Background(), targets, 100*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, len(targets), report.Len())

	for i, outcome := range report.Outcomes {
		require.Equal(t, targets[i], outcome.Target, "outcomes follow input order")
		require.Equal(t, 1, connector.Calls(targets[i]))
	}

	counts := report.Counts()
	require.Equal(t, 20, counts[StatusReachable])
	require.Equal(t, 20, counts[StatusUnreachable])
	require.Equal(t, 20, counts[StatusTimedOut])
}

func TestProbeAll_HangingTargetDoesNotDelayBatch(t *testing.T) {
	connector := probetest.NewConnector()
	t.Cleanup(connector.Release)

	fast := target.MustNew("fast.test", 80)
	hanging := target.MustNew("hanging.test", 80)
	stubborn := target.MustNew("stubborn.test", 80)
	connector.On(hanging, probetest.Behavior{Hang: true})
	connector.On(stubborn, probetest.Behavior{Hang: true, IgnoreContext: true})

	timeout := 200 * time.Millisecond
	start := time.Now()
	report, err := New(WithConnector(connector)).
		ProbeAll(context.Background(), []target.Target{fast, hanging, stubborn}, timeout)
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Less(t, elapsed, timeout+500*time.Millisecond)

	require.Equal(t, StatusReachable, report.Outcomes[0].Status)
	require.Less(t, report.Outcomes[0].Elapsed, timeout)
	require.Equal(t, StatusTimedOut, report.Outcomes[1].Status)
	require.Equal(t, StatusTimedOut, report.Outcomes[2].Status, "timeout is enforced even if the connector ignores ctx")
	require.Equal(t, "timed_out", report.Outcomes[2].Label())
}

func TestProbeAll_DuplicatesArePreserved(t *testing.T) {
	connector := probetest.NewConnector()
	tgt := target.MustNew("down.test", 9)
	connector.On(tgt, probetest.Behavior{Err: refusedError()})

	report, err := New(WithConnector(connector)).
		ProbeAll(context.Background(), []target.Target{tgt, tgt}, time.Second)
	require.NoError(t, err)
	require.Equal(t, 2, report.Len())
	require.Equal(t, 2, connector.Calls(tgt))
	for _, outcome := range report.Outcomes {
		require.Equal(t, tgt, outcome.Target)
		require.Equal(t, ReasonRefused, outcome.Reason)
	}
}

func TestProbeAll_RespectsConcurrencyCeiling(t *testing.T) {
	connector := probetest.NewConnector()
	var targets []target.Target
	for i := range 20 {
		tgt := target.MustNew("slow.test", 2000+i)
		connector.On(tgt, probetest.Behavior{Delay: 20 * time.Millisecond})
		targets = append(targets, tgt)
	}

	p := New(WithConnector(connector), WithConcurrency(3))
	require.Equal(t, 3, p.Concurrency())

	report, err := p.ProbeAll(context.Background(), targets, time.Second)
	require.NoError(t, err)
	require.Equal(t, 20, report.Len())
	require.LessOrEqual(t, connector.MaxInFlight(), 3)
	require.Equal(t, 20, report.Counts()[StatusReachable])
}

func TestWithConcurrency_NonPositiveUsesDefault(t *testing.T) {
	require.Equal(t, DefaultConcurrency, New(WithConcurrency(0)).Concurrency())
	require.Equal(t, DefaultConcurrency, New(WithConcurrency(-4)).Concurrency())
}

func TestProbeAll_OrderIndependentOfCompletion(t *testing.T) {
	connector := probetest.NewConnector()
	slow := target.MustNew("slow.test", 1)
	medium := target.MustNew("medium.test", 2)
	quick := target.MustNew("quick.test", 3)
	connector.On(slow, probetest.Behavior{Delay: 60 * time.Millisecond})
	connector.On(medium, probetest.Behavior{Delay: 30 * time.Millisecond})

	var finished []target.Target
	finishedCh := make(chan target.Target, 3)
	p := New(WithConnector(connector), WithOutcomeHook(func(o Outcome) { finishedCh <- o.Target }))

	report, err := p.ProbeAll(context.Background(), []target.Target{slow, medium, quick}, time.Second)
	require.NoError(t, err)
	close(finishedCh)
	for tgt := range finishedCh {
		finished = append(finished, tgt)
	}

	require.Equal(t, []target.Target{quick, medium, slow}, finished)
	require.Equal(t, slow, report.Outcomes[0].Target)
	require.Equal(t, medium, report.Outcomes[1].Target)
	require.Equal(t, quick, report.Outcomes[2].Target)
}

func TestProbeAll_CancellationDiscardsPartialResults(t *testing.T) {
	connector := probetest.NewConnector()
	quick := target.MustNew("quick.test", 80)
	hanging := target.MustNew("hanging.test", 80)
	connector.On(hanging, probetest.Behavior{Hang: true})

	ctx, cancel := context.WithCancel(context.Background())
	var seen atomic.Int32
	p := New(WithConnector(connector), WithOutcomeHook(func(o Outcome) {
		if seen.Add(1) == 1 {
			cancel()
		}
	}))

	start := time.Now()
	report, err := p.ProbeAll(ctx, []target.Target{quick, hanging}, 10*time.Second)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
	require.Equal(t, 0, report.Len(), "a cancelled round never returns partial outcomes")
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestProbeAll_AlreadyCancelledContext(t *testing.T) {
	connector := probetest.NewConnector()
	tgt := target.MustNew("any.test", 80)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := New(WithConnector(connector)).ProbeAll(ctx, []target.Target{tgt}, time.Second)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, report.Len())
	require.Zero(t, connector.Calls(tgt))
}

func TestProbeAll_OutcomeHookCalledOncePerTarget(t *testing.T) {
	connector := probetest.NewConnector()
	targets := []target.Target{
		target.MustNew("a.test", 1),
		target.MustNew("b.test", 2),
		target.MustNew("a.test", 1),
	}
	var calls atomic.Int32
	p := New(WithConnector(connector), WithOutcomeHook(func(Outcome) { calls.Add(1) }))

	_, err := p.ProbeAll(context.Background(), targets, time.Second)
	require.NoError(t, err)
	require.EqualValues(t, 3, calls.Load())
}

func TestConnectorFunc(t *testing.T) {
	sentinel := errors.New("boom")
	var got target.Target
	fn := ConnectorFunc(func(_ context.Context, tgt target.Target) error {
		got = tgt
		return sentinel
	})
	tgt := target.MustNew("fn.test", 7)

	report, err := New(WithConnector(fn)).ProbeAll(context.Background(), []target.Target{tgt}, time.Second)
	require.NoError(t, err)
	require.Equal(t, tgt, got)
	require.Equal(t, StatusUnreachable, report.Outcomes[0].Status)
	require.Equal(t, ReasonOther, report.Outcomes[0].Reason)
	require.Equal(t, "boom", report.Outcomes[0].Detail)
}
