// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package netutil expands host and port specifications used in probe entries.
//
// Host specifications may be a literal address, a hostname, a CIDR block
// (10.0.0.0/30) or an IPv4 range (10.0.0.1-3 or 10.0.0.1-10.0.0.3).
// Port specifications may be a single port, a comma-separated list, or ranges
// (22,80,8000-8002). Hostnames are returned as-is and never resolved here.
package netutil

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
)

// MaxExpandedHosts caps the number of addresses a single CIDR block or range
// may expand into.
const MaxExpandedHosts = 65536

// ErrPortOutOfRange is returned (wrapped) for ports outside 1-65535.
var ErrPortOutOfRange = errors.New("port must be between 1 and 65535")

// incIP increments an IP address in place (IPv4 and IPv6).
func incIP(ip net.IP) {
	for j := len(ip) - 1; j >= 0; j-- {
		ip[j]++
		if ip[j] > 0 {
			break
		}
	}
}

// ExpandHosts expands one host specification into the list of hosts it denotes,
// preserving order. A plain hostname or address yields a single element.
func ExpandHosts(spec string) ([]string, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("empty host")
	}

	if strings.Contains(spec, "/") {
		return expandCIDR(spec)
	}

	// IPv6 literals never contain '-', hostnames may; only treat the spec as a
	// range when the left side is an IPv4 address.
	if left, right, ok := strings.Cut(spec, "-"); ok {
		start := net.ParseIP(strings.TrimSpace(left))
		if start != nil && start.To4() != nil {
			return expandRange(start.To4(), strings.TrimSpace(right), spec)
		}
	}

	if ip := net.ParseIP(spec); ip != nil {
		return []string{ip.String()}, nil
	}
	return []string{spec}, nil
}

func expandCIDR(spec string) ([]string, error) {
	ipAddr, ipNet, err := net.ParseCIDR(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid CIDR '%s': %w", spec, err)
	}

	ones, bits := ipNet.Mask.Size()
	if bits-ones > 16 {
		return nil, fmt.Errorf("CIDR '%s' expands to more than %d hosts", spec, MaxExpandedHosts)
	}

	// Single-address blocks (/32, /128) denote exactly that address.
	if ones == bits {
		return []string{ipAddr.String()}, nil
	}

	isV4 := ipAddr.To4() != nil
	var hosts []string
	current := ipAddr.Mask(ipNet.Mask)
	for ipNet.Contains(current) {
		ip := make(net.IP, len(current))
		copy(ip, current)

		skip := false
		// Network and broadcast addresses are not probe targets for IPv4
		// subnets larger than /31.
		if isV4 && ones < 31 {
			network := ipNet.IP.To4()
			broadcast := make(net.IP, net.IPv4len)
			for i := range net.IPv4len {
				broadcast[i] = network[i] | ^ipNet.Mask[i]
			}
			if ip.Equal(network) || ip.Equal(broadcast) {
				skip = true
			}
		}
		if !skip {
			hosts = append(hosts, ip.String())
		}

		incIP(current)
		if bytes.Equal(current, make(net.IP, len(current))) {
			break // wrapped around
		}
	}
	return hosts, nil
}

func expandRange(start net.IP, endSpec, spec string) ([]string, error) {
	var end net.IP
	if octet, err := strconv.Atoi(endSpec); err == nil {
		if octet < 0 || octet > 255 {
			return nil, fmt.Errorf("invalid range end in '%s'", spec)
		}
		end = net.IPv4(start[0], start[1], start[2], byte(octet)).To4()
	} else {
		parsed := net.ParseIP(endSpec)
		if parsed == nil || parsed.To4() == nil {
			return nil, fmt.Errorf("invalid range end in '%s'", spec)
		}
		end = parsed.To4()
	}

	if bytes.Compare(start, end) > 0 {
		return nil, fmt.Errorf("start address is greater than end address in range '%s'", spec)
	}

	var hosts []string
	current := make(net.IP, len(start))
	copy(current, start)
	for {
		hosts = append(hosts, current.String())
		if current.Equal(end) {
			break
		}
		if len(hosts) >= MaxExpandedHosts {
			return nil, fmt.Errorf("range '%s' expands to more than %d hosts", spec, MaxExpandedHosts)
		}
		incIP(current)
	}
	return hosts, nil
}

// ParsePortString parses a comma-separated string of ports and port ranges
// into a slice of unique ports in ascending order.
// Example: "80,443,1000-1002,22" -> [22, 80, 443, 1000, 1001, 1002]
func ParsePortString(portStr string) ([]int, error) {
	if strings.TrimSpace(portStr) == "" {
		return nil, fmt.Errorf("missing port")
	}

	seenPorts := make(map[int]struct{})
	var ports []int

	for part := range strings.SplitSeq(portStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if startStr, endStr, isRange := strings.Cut(part, "-"); isRange {
			start, err := parsePort(strings.TrimSpace(startStr))
			if err != nil {
				return nil, fmt.Errorf("invalid start port in range '%s': %w", part, err)
			}
			end, err := parsePort(strings.TrimSpace(endStr))
			if err != nil {
				return nil, fmt.Errorf("invalid end port in range '%s': %w", part, err)
			}
			if start > end {
				return nil, fmt.Errorf("start port %d cannot be greater than end port %d in range '%s'", start, end, part)
			}
			for i := start; i <= end; i++ {
				if _, found := seenPorts[i]; !found {
					ports = append(ports, i)
					seenPorts[i] = struct{}{}
				}
			}
			continue
		}

		port, err := parsePort(part)
		if err != nil {
			return nil, err
		}
		if _, found := seenPorts[port]; !found {
			ports = append(ports, port)
			seenPorts[port] = struct{}{}
		}
	}

	if len(ports) == 0 {
		return nil, fmt.Errorf("no valid ports parsed from '%s'", portStr)
	}
	sort.Ints(ports)
	return ports, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid port number '%s': not numeric", s)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port number '%d': %w", port, ErrPortOutOfRange)
	}
	return port, nil
}
