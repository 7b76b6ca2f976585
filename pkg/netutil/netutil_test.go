// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package netutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePortString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int
		wantErr bool
	}{
		{name: "single", input: "80", want: []int{80}},
		{name: "list sorted and deduplicated", input: "443,80,443", want: []int{80, 443}},
		{name: "range", input: "8000-8002", want: []int{8000, 8001, 8002}},
		{name: "mixed with spaces", input: " 22 , 1000-1001 ", want: []int{22, 1000, 1001}},
		{name: "empty", input: "", wantErr: true},
		{name: "non numeric", input: "http", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "too large", input: "65536", wantErr: true},
		{name: "reversed range", input: "90-80", wantErr: true},
		{name: "only commas", input: ",,", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePortString(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParsePortString_OutOfRangeIsWrapped(t *testing.T) {
	_, err := ParsePortString("70000")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrPortOutOfRange))
}

func TestExpandHosts(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{name: "hostname untouched", input: "example.com", want: []string{"example.com"}},
		{name: "hyphenated hostname is not a range", input: "my-host.local", want: []string{"my-host.local"}},
		{name: "ipv4 literal", input: "10.0.0.1", want: []string{"10.0.0.1"}},
		{name: "ipv6 literal normalised", input: "0:0:0:0:0:0:0:1", want: []string{"::1"}},
		{name: "cidr drops network and broadcast", input: "10.0.0.0/30", want: []string{"10.0.0.1", "10.0.0.2"}},
		{name: "cidr /31 keeps both", input: "10.0.0.0/31", want: []string{"10.0.0.0", "10.0.0.1"}},
		{name: "cidr /32", input: "10.0.0.7/32", want: []string{"10.0.0.7"}},
		{name: "short range", input: "192.168.1.10-12", want: []string{"192.168.1.10", "192.168.1.11", "192.168.1.12"}},
		{name: "full range", input: "192.168.1.254-192.168.2.1", want: []string{"192.168.1.254", "192.168.1.255", "192.168.2.0", "192.168.2.1"}},
		{name: "reversed range", input: "10.0.0.5-2", wantErr: true},
		{name: "bad cidr", input: "10.0.0.0/40", wantErr: true},
		{name: "huge cidr", input: "10.0.0.0/8", wantErr: true},
		{name: "empty", input: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandHosts(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
