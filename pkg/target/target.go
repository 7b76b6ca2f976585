// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package target defines the network endpoints probed by netreach and the
// parsing of their textual "host:port" form.
package target

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/vulntor/netreach/pkg/netutil"
)

// Target identifies a TCP endpoint. The zero value is not a valid target;
// use New or Parse. Target is comparable: two targets are equal when host and
// port are equal.
type Target struct {
	host string
	port int
}

// New validates host and port and returns a Target owning its host string.
func New(host string, port int) (Target, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return Target{}, fmt.Errorf("empty host")
	}
	if port < 1 || port > 65535 {
		return Target{}, fmt.Errorf("invalid port number '%d': %w", port, netutil.ErrPortOutOfRange)
	}
	return Target{host: strings.Clone(host), port: port}, nil
}

// MustNew is like New but panics on invalid input. Intended for tests and
// static tables.
func MustNew(host string, port int) Target {
	t, err := New(host, port)
	if err != nil {
		panic(err)
	}
	return t
}

// Host returns the host part (literal address or name).
func (t Target) Host() string { return t.host }

// Port returns the TCP port.
func (t Target) Port() int { return t.port }

// Address returns the dialable "host:port" form, bracketing IPv6 literals.
func (t Target) Address() string {
	return net.JoinHostPort(t.host, strconv.Itoa(t.port))
}

// String implements fmt.Stringer.
func (t Target) String() string { return t.Address() }

// MarshalText renders the target as "host:port".
func (t Target) MarshalText() ([]byte, error) {
	return []byte(t.Address()), nil
}
