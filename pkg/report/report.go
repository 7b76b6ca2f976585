// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package report renders the result of a probing round as text, JSON or YAML.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vulntor/netreach/pkg/probe"
	"github.com/vulntor/netreach/pkg/probeexec"
)

// Format selects a renderer.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a user-supplied format name. "yml" is accepted as an
// alias of yaml.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w '%s' (want text, json or yaml)", probeexec.ErrInvalidFormat, s)
	}
}

// Document is the serialisable form of a probing round.
type Document struct {
	RunID      string      `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time   `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time   `json:"finished_at" yaml:"finished_at"`
	DurationMS int64       `json:"duration_ms" yaml:"duration_ms"`
	TimeoutMS  int64       `json:"timeout_ms" yaml:"timeout_ms"`
	Summary    Summary     `json:"summary" yaml:"summary"`
	Results    []Entry     `json:"results" yaml:"results"`
	Rejected   []Rejection `json:"rejected,omitempty" yaml:"rejected,omitempty"`
}

// Summary counts outcomes per status.
type Summary struct {
	Total       int `json:"total" yaml:"total"`
	Reachable   int `json:"reachable" yaml:"reachable"`
	Unreachable int `json:"unreachable" yaml:"unreachable"`
	TimedOut    int `json:"timed_out" yaml:"timed_out"`
}

// Entry is one probed target.
type Entry struct {
	Target    string `json:"target" yaml:"target"`
	Host      string `json:"host" yaml:"host"`
	Port      int    `json:"port" yaml:"port"`
	Status    string `json:"status" yaml:"status"`
	Reason    string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Reachable bool   `json:"reachable" yaml:"reachable"`
	ElapsedMS int64  `json:"elapsed_ms" yaml:"elapsed_ms"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Rejection is an input entry that could not be parsed.
type Rejection struct {
	Entry string `json:"entry" yaml:"entry"`
	Error string `json:"error" yaml:"error"`
}

// FromResult converts a run result into a Document. Entries keep the order in
// which targets were submitted.
func FromResult(res *probeexec.Result) Document {
	doc := Document{
		RunID:      res.RunID,
		StartedAt:  res.StartTime.UTC(),
		FinishedAt: res.EndTime.UTC(),
		DurationMS: res.Duration().Milliseconds(),
		TimeoutMS:  res.Timeout.Milliseconds(),
		Results:    make([]Entry, 0, res.Report.Len()),
	}

	for _, o := range res.Report.Outcomes {
		doc.Results = append(doc.Results, Entry{
			Target:    o.Target.Address(),
			Host:      o.Target.Host(),
			Port:      o.Target.Port(),
			Status:    o.Label(),
			Reason:    string(o.Reason),
			Reachable: o.Reachable(),
			ElapsedMS: o.Elapsed.Milliseconds(),
			Error:     o.Detail,
		})
	}
	for _, perr := range res.Rejected {
		doc.Rejected = append(doc.Rejected, Rejection{Entry: perr.Entry, Error: perr.Err.Error()})
	}

	counts := res.Report.Counts()
	doc.Summary = Summary{
		Total:       res.Report.Len(),
		Reachable:   counts[probe.StatusReachable],
		Unreachable: counts[probe.StatusUnreachable],
		TimedOut:    counts[probe.StatusTimedOut],
	}
	return doc
}

// SummaryRows returns the rows of the summary table: one row per status
// label seen (reachable, each unreachable reason, timed_out), then the total.
func SummaryRows(doc Document) (headers []string, rows [][]string) {
	headers = []string{"Status", "Count"}

	counts := make(map[string]int)
	var order []string
	for _, e := range doc.Results {
		if _, seen := counts[e.Status]; !seen {
			order = append(order, e.Status)
		}
		counts[e.Status]++
	}
	for _, label := range order {
		rows = append(rows, []string{label, strconv.Itoa(counts[label])})
	}
	rows = append(rows, []string{"total", strconv.Itoa(doc.Summary.Total)})
	if len(doc.Rejected) > 0 {
		rows = append(rows, []string{"rejected", strconv.Itoa(len(doc.Rejected))})
	}
	return headers, rows
}
