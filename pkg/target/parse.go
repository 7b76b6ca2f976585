// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package target

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/vulntor/netreach/pkg/netutil"
)

// ParseError reports a malformed entry. Only that entry is rejected; other
// entries in the same batch are unaffected.
type ParseError struct {
	Entry string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid target '%s': %v", e.Entry, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MaxTargetsPerEntry caps the hosts × ports product a single entry may expand to.
const MaxTargetsPerEntry = 1 << 20

// ErrTooManyTargets is wrapped by the ParseError of an entry whose expansion
// exceeds MaxTargetsPerEntry.
var ErrTooManyTargets = errors.New("entry expands to too many targets")

// Parse parses a single entry into one or more targets.
//
// Accepted forms:
//
//	host:port            example.com:443, 10.0.0.1:22
//	[ipv6]:port          [::1]:8080
//	host:ports           example.com:80,443 or example.com:8000-8002
//	cidr:port            10.0.0.0/30:22
//	range:port           10.0.0.1-3:22
//	host                 only when defaultPort > 0
//
// The returned targets follow host expansion order, then ascending port order.
func Parse(entry string, defaultPort int) ([]Target, error) {
	raw := strings.TrimSpace(entry)
	if raw == "" {
		return nil, &ParseError{Entry: entry, Err: fmt.Errorf("empty entry")}
	}

	hostSpec, portSpec, err := splitEntry(raw)
	if err != nil {
		return nil, &ParseError{Entry: entry, Err: err}
	}

	var ports []int
	if portSpec == "" {
		if defaultPort <= 0 {
			return nil, &ParseError{Entry: entry, Err: fmt.Errorf("missing port")}
		}
		ports = []int{defaultPort}
	} else {
		ports, err = netutil.ParsePortString(portSpec)
		if err != nil {
			return nil, &ParseError{Entry: entry, Err: err}
		}
	}

	hosts, err := netutil.ExpandHosts(hostSpec)
	if err != nil {
		return nil, &ParseError{Entry: entry, Err: err}
	}

	if len(ports) > 0 && len(hosts) > MaxTargetsPerEntry/len(ports) {
		return nil, &ParseError{Entry: entry, Err: fmt.Errorf("%w: %d hosts × %d ports exceeds %d",
			ErrTooManyTargets, len(hosts), len(ports), MaxTargetsPerEntry)}
	}

	targets := make([]Target, 0, len(hosts)*len(ports))
	for _, h := range hosts {
		for _, p := range ports {
			t, err := New(h, p)
			if err != nil {
				return nil, &ParseError{Entry: entry, Err: err}
			}
			targets = append(targets, t)
		}
	}
	return targets, nil
}

// ParseAll parses every entry independently. Valid targets are returned in
// input order; each malformed entry contributes one ParseError.
func ParseAll(entries []string, defaultPort int) ([]Target, []*ParseError) {
	var (
		targets  []Target
		rejected []*ParseError
	)
	for _, entry := range entries {
		parsed, err := Parse(entry, defaultPort)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				rejected = append(rejected, pe)
			} else {
				rejected = append(rejected, &ParseError{Entry: entry, Err: err})
			}
			continue
		}
		targets = append(targets, parsed...)
	}
	return targets, rejected
}

// splitEntry separates the host specification from the port specification.
// An empty port spec means the entry carried no port.
func splitEntry(raw string) (string, string, error) {
	if strings.HasPrefix(raw, "[") {
		end := strings.Index(raw, "]")
		if end < 0 {
			return "", "", fmt.Errorf("missing ']' in address")
		}
		host := raw[1:end]
		rest := raw[end+1:]
		if rest == "" {
			return host, "", nil
		}
		if !strings.HasPrefix(rest, ":") {
			return "", "", fmt.Errorf("unexpected characters after ']'")
		}
		return host, rest[1:], nil
	}

	// Bare IPv6 literals (and IPv6 CIDRs) carry no port.
	if strings.Count(raw, ":") > 1 {
		if ip := net.ParseIP(raw); ip != nil {
			return raw, "", nil
		}
		if _, _, err := net.ParseCIDR(raw); err == nil {
			return raw, "", nil
		}
		return "", "", fmt.Errorf("too many colons in address; bracket IPv6 literals as [addr]:port")
	}

	host, port, found := strings.Cut(raw, ":")
	if !found {
		return raw, "", nil
	}
	if strings.TrimSpace(host) == "" {
		return "", "", fmt.Errorf("missing host")
	}
	if strings.TrimSpace(port) == "" {
		return "", "", fmt.Errorf("missing port")
	}
	return host, port, nil
}
