// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package probe

import (
	"time"

	"github.com/vulntor/netreach/pkg/target"
)

// Status is the terminal classification of a single probe.
type Status string

const (
	StatusReachable   Status = "reachable"   // Connection established within the timeout
	StatusUnreachable Status = "unreachable" // Definitive failure before the timeout (see Reason)
	StatusTimedOut    Status = "timed_out"   // No definitive answer before the timeout
)

// String returns the string representation of Status.
func (s Status) String() string { return string(s) }

// Reason categorises an unreachable outcome.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonRefused          Reason = "refused"
	ReasonNoRoute          Reason = "no-route"
	ReasonResolutionFailed Reason = "resolution-failed"
	ReasonOther            Reason = "other"
)

// String returns the string representation of Reason.
func (r Reason) String() string { return string(r) }

// Outcome is the result of probing one Target. Outcomes are created once by
// the Prober and never modified afterwards.
type Outcome struct {
	Target  target.Target `json:"target" yaml:"target"`
	Status  Status        `json:"status" yaml:"status"`
	Reason  Reason        `json:"reason,omitempty" yaml:"reason,omitempty"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
	// Detail carries the underlying error text for unreachable outcomes.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Reachable reports whether the target accepted the connection.
func (o Outcome) Reachable() bool { return o.Status == StatusReachable }

// Label renders the status in its single-token form: "reachable",
// "unreachable:<reason>" or "timed_out".
func (o Outcome) Label() string {
	if o.Status == StatusUnreachable && o.Reason != ReasonNone {
		return string(o.Status) + ":" + string(o.Reason)
	}
	return string(o.Status)
}

// Report holds every Outcome of one probing round, in the order the targets
// were submitted.
type Report struct {
	Outcomes []Outcome `json:"outcomes" yaml:"outcomes"`
}

// Len returns the number of outcomes.
func (r Report) Len() int { return len(r.Outcomes) }

// Counts tallies outcomes by status.
func (r Report) Counts() map[Status]int {
	counts := map[Status]int{
		StatusReachable:   0,
		StatusUnreachable: 0,
		StatusTimedOut:    0,
	}
	for _, o := range r.Outcomes {
		counts[o.Status]++
	}
	return counts
}
