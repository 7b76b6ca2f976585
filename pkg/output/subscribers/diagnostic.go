// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package subscribers

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/vulntor/netreach/pkg/output"
)

// DiagnosticSubscriber prints EventDiag events up to a verbosity level.
type DiagnosticSubscriber struct {
	level  output.OutputLevel
	writer io.Writer
}

// NewDiagnosticSubscriber creates a subscriber that shows diagnostics at or
// below level.
func NewDiagnosticSubscriber(level output.OutputLevel, writer io.Writer) *DiagnosticSubscriber {
	return &DiagnosticSubscriber{level: level, writer: writer}
}

// Name returns the subscriber identifier.
func (s *DiagnosticSubscriber) Name() string {
	return "diagnostic-subscriber"
}

// ShouldHandle accepts diagnostic events whose level is enabled.
func (s *DiagnosticSubscriber) ShouldHandle(event output.OutputEvent) bool {
	return event.Type == output.EventDiag &&
		event.Level > output.LevelNormal &&
		event.Level <= s.level
}

// Handle writes "HH:MM:SS [LEVEL] message key:value ...".
func (s *DiagnosticSubscriber) Handle(event output.OutputEvent) {
	var b strings.Builder
	b.WriteString(event.Timestamp.Format("15:04:05"))
	b.WriteString(" [")
	b.WriteString(levelTag(event.Level))
	b.WriteString("] ")
	b.WriteString(event.Message)

	keys := make([]string, 0, len(event.Metadata))
	for k := range event.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s:%v", k, event.Metadata[k])
	}

	_, _ = fmt.Fprintln(s.writer, b.String())
}

func levelTag(level output.OutputLevel) string {
	switch level {
	case output.LevelVerbose:
		return "VERBOSE"
	case output.LevelDebug:
		return "DEBUG"
	case output.LevelTrace:
		return "TRACE"
	default:
		return "INFO"
	}
}
