// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package output carries user-facing messages from command logic to the
// terminal. Command code talks to the Output interface; subscribers decide how
// events are rendered. The probe report itself is not an output event: it is
// written to stdout by the report package so that stdout stays parseable.
package output

import "time"

// contextKey is a type for context keys to avoid collisions
type contextKey string

// OutputKey is the context key for Output interface
const OutputKey contextKey = "output"

// OutputEventType defines the type of output event.
type OutputEventType string

const (
	// EventInfo represents a general information message
	EventInfo OutputEventType = "info"

	// EventError represents an error message
	EventError OutputEventType = "error"

	// EventWarning represents a warning message (e.g. a rejected target entry)
	EventWarning OutputEventType = "warning"

	// EventTable represents tabular data output (the run summary)
	EventTable OutputEventType = "table"

	// EventProgress represents a progress update
	EventProgress OutputEventType = "progress"

	// EventOutcome represents one finished probe, emitted as it completes
	EventOutcome OutputEventType = "outcome"

	// EventDiag represents diagnostic information (only visible with -v/-vv/-vvv)
	EventDiag OutputEventType = "diag"
)

// OutputLevel defines the verbosity level for diagnostic messages.
type OutputLevel int

const (
	LevelNormal  OutputLevel = 0
	LevelVerbose OutputLevel = 1 // -v
	LevelDebug   OutputLevel = 2 // -vv
	LevelTrace   OutputLevel = 3 // -vvv
)

// LevelFromVerbosity clamps a -v count to a known OutputLevel.
func LevelFromVerbosity(count int) OutputLevel {
	switch {
	case count <= 0:
		return LevelNormal
	case count >= int(LevelTrace):
		return LevelTrace
	default:
		return OutputLevel(count)
	}
}

// OutcomeData is the payload of an EventOutcome.
type OutcomeData struct {
	Address   string        `json:"address"`
	Label     string        `json:"status"`
	Reachable bool          `json:"reachable"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

// OutputEvent represents a single output event emitted by command logic.
type OutputEvent struct {
	// Type identifies the event category (info, error, table, etc.)
	Type OutputEventType

	// Level specifies verbosity level (only used for EventDiag)
	Level OutputLevel

	// Message is the primary text content
	Message string

	// Data contains structured data (table headers/rows, progress values, OutcomeData)
	Data any

	// Metadata holds additional key-value pairs for diagnostic events
	Metadata map[string]any

	// Timestamp records when the event was created
	Timestamp time.Time
}

// Output is the interface command logic uses to emit messages without knowing
// how they are rendered.
type Output interface {
	// Info emits a general information message.
	Info(message string)

	// Error emits an error message.
	Error(err error)

	// Warning emits a warning message.
	// Example: out.Warning("invalid target 'db': missing port")
	Warning(message string)

	// Table emits tabular data with headers and rows.
	// Example: out.Table([]string{"Status", "Count"}, [][]string{{"reachable", "3"}})
	Table(headers []string, rows [][]string)

	// Progress emits a progress update.
	// Example: out.Progress(5, 20, "db.internal:5432 reachable")
	Progress(current, total int, message string)

	// Outcome emits a single finished probe.
	Outcome(data OutcomeData)

	// Diag emits diagnostic information (only visible with -v/-vv/-vvv).
	// Example: out.Diag(LevelVerbose, "Parsed targets", map[string]any{"count": 12})
	Diag(level OutputLevel, message string, metadata map[string]any)
}
