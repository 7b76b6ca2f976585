// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package probe

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"

	"github.com/vulntor/netreach/pkg/target"
)

// Connector attempts a single connection to a target. Implementations must
// return nil only when the endpoint accepted the connection, and should honour
// ctx cancellation; the Prober enforces the deadline either way.
type Connector interface {
	AttemptConnection(ctx context.Context, t target.Target) error
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context, t target.Target) error

// AttemptConnection calls f(ctx, t).
func (f ConnectorFunc) AttemptConnection(ctx context.Context, t target.Target) error {
	return f(ctx, t)
}

// TCPConnector dials targets over TCP and closes the connection as soon as
// the handshake completes.
type TCPConnector struct {
	Dialer net.Dialer
}

// NewTCPConnector returns a TCPConnector with a zero-value dialer.
func NewTCPConnector() *TCPConnector {
	return &TCPConnector{}
}

// AttemptConnection dials t and reports the dial error, if any.
func (c *TCPConnector) AttemptConnection(ctx context.Context, t target.Target) error {
	conn, err := c.Dialer.DialContext(ctx, "tcp", t.Address())
	if err != nil {
		return err
	}
	_ = conn.Close()
	return nil
}

// Classify maps a connection error to an outcome status and, for unreachable
// outcomes, the failure category. A nil error is reachable.
func Classify(err error) (Status, Reason) {
	if err == nil {
		return StatusReachable, ReasonNone
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return StatusTimedOut, ReasonNone
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return StatusTimedOut, ReasonNone
		}
		return StatusUnreachable, ReasonResolutionFailed
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return StatusUnreachable, ReasonRefused
	case errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.ENETUNREACH):
		return StatusUnreachable, ReasonNoRoute
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return StatusTimedOut, ReasonNone
	}

	return StatusUnreachable, ReasonOther
}
