// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package output_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vulntor/netreach/pkg/output"
	"github.com/vulntor/netreach/pkg/output/subscribers"
)

// recorder is a test subscriber that records all events
type recorder struct {
	mu     sync.Mutex
	events []output.OutputEvent
	name   string
}

func newRecorder(name string) *recorder {
	return &recorder{name: name}
}

func (r *recorder) Name() string                         { return r.name }
func (r *recorder) ShouldHandle(output.OutputEvent) bool { return true }

func (r *recorder) Handle(event output.OutputEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func newRecordedOutput() (*output.DefaultOutput, *recorder) {
	stream := output.NewOutputEventStream()
	rec := newRecorder("test")
	stream.Subscribe(rec)
	return output.NewDefaultOutput(stream), rec
}

func TestOutputEventStream(t *testing.T) {
	t.Run("Subscribe and Emit", func(t *testing.T) {
		stream := output.NewOutputEventStream()
		first := newRecorder("first")
		second := newRecorder("second")
		stream.Subscribe(first)
		stream.Subscribe(second)

		stream.Emit(output.OutputEvent{Type: output.EventError, Message: "dial failed", Timestamp: time.Now()})

		require.Len(t, first.events, 1)
		require.Len(t, second.events, 1)
		require.Equal(t, output.EventError, second.events[0].Type)
	})

	t.Run("Concurrent Emit", func(t *testing.T) {
		stream := output.NewOutputEventStream()
		rec := newRecorder("test")
		stream.Subscribe(rec)

		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				stream.Emit(output.OutputEvent{Type: output.EventInfo})
			}()
		}
		wg.Wait()
		require.Len(t, rec.events, 50)
	})
}

func TestDefaultOutput(t *testing.T) {
	t.Run("Warning", func(t *testing.T) {
		out, rec := newRecordedOutput()
		out.Warning("invalid target 'db': missing port")

		require.Len(t, rec.events, 1)
		require.Equal(t, output.EventWarning, rec.events[0].Type)
		require.Equal(t, "invalid target 'db': missing port", rec.events[0].Message)
	})

	t.Run("Error", func(t *testing.T) {
		out, rec := newRecordedOutput()
		out.Error(errors.New("no targets given"))

		require.Len(t, rec.events, 1)
		require.Equal(t, output.EventError, rec.events[0].Type)
		require.Equal(t, "no targets given", rec.events[0].Message)
	})

	t.Run("Table", func(t *testing.T) {
		out, rec := newRecordedOutput()
		headers := []string{"Status", "Count"}
		rows := [][]string{{"reachable", "3"}}
		out.Table(headers, rows)

		data, ok := rec.events[0].Data.(map[string]any)
		require.True(t, ok)
		require.Equal(t, headers, data["headers"])
		require.Equal(t, rows, data["rows"])
	})

	t.Run("Progress", func(t *testing.T) {
		out, rec := newRecordedOutput()
		out.Progress(5, 20, "db.internal:5432 reachable")

		data, ok := rec.events[0].Data.(map[string]any)
		require.True(t, ok)
		require.Equal(t, 5, data["current"])
		require.Equal(t, 20, data["total"])
	})

	t.Run("Outcome", func(t *testing.T) {
		out, rec := newRecordedOutput()
		out.Outcome(output.OutcomeData{Address: "10.0.0.1:22", Label: "unreachable:refused", Elapsed: 3 * time.Millisecond})

		require.Equal(t, output.EventOutcome, rec.events[0].Type)
		require.Equal(t, "10.0.0.1:22 unreachable:refused", rec.events[0].Message)
		data, ok := rec.events[0].Data.(output.OutcomeData)
		require.True(t, ok)
		require.False(t, data.Reachable)
	})

	t.Run("Diag", func(t *testing.T) {
		out, rec := newRecordedOutput()
		metadata := map[string]any{"count": 12}
		out.Diag(output.LevelVerbose, "Parsed targets", metadata)

		require.Equal(t, output.EventDiag, rec.events[0].Type)
		require.Equal(t, output.LevelVerbose, rec.events[0].Level)
		require.Equal(t, metadata, rec.events[0].Metadata)
	})
}

func TestContext(t *testing.T) {
	out, rec := newRecordedOutput()
	ctx := output.WithOutput(context.Background(), out)
	output.FromContext(ctx).Info("hello")
	require.Len(t, rec.events, 1)

	require.NotNil(t, output.FromContext(context.Background()), "a missing Output falls back to a silent one")
	output.FromContext(context.Background()).Info("dropped")
}

func TestLevelFromVerbosity(t *testing.T) {
	require.Equal(t, output.LevelNormal, output.LevelFromVerbosity(-1))
	require.Equal(t, output.LevelNormal, output.LevelFromVerbosity(0))
	require.Equal(t, output.LevelVerbose, output.LevelFromVerbosity(1))
	require.Equal(t, output.LevelDebug, output.LevelFromVerbosity(2))
	require.Equal(t, output.LevelTrace, output.LevelFromVerbosity(7))
}

func TestJSONFormatter(t *testing.T) {
	t.Run("Warning Event", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := subscribers.NewJSONFormatter(buf)
		require.Equal(t, "json-formatter", formatter.Name())

		event := output.OutputEvent{
			Type:      output.EventWarning,
			Message:   "invalid target 'x'",
			Timestamp: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		}
		require.True(t, formatter.ShouldHandle(event))
		formatter.Handle(event)

		var result map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
		require.Equal(t, "warning", result["type"])
		require.Equal(t, "invalid target 'x'", result["message"])
		require.Equal(t, "2025-01-01T12:00:00Z", result["timestamp"])
	})

	t.Run("Skips Diagnostics And Progress", func(t *testing.T) {
		formatter := subscribers.NewJSONFormatter(&bytes.Buffer{})
		require.False(t, formatter.ShouldHandle(output.OutputEvent{Type: output.EventDiag, Level: output.LevelVerbose}))
		require.False(t, formatter.ShouldHandle(output.OutputEvent{Type: output.EventProgress}))
	})
}

func TestDiagnosticSubscriber(t *testing.T) {
	t.Run("Verbose Level", func(t *testing.T) {
		buf := &bytes.Buffer{}
		subscriber := subscribers.NewDiagnosticSubscriber(output.LevelVerbose, buf)
		require.Equal(t, "diagnostic-subscriber", subscriber.Name())

		event := output.OutputEvent{
			Type:      output.EventDiag,
			Level:     output.LevelVerbose,
			Message:   "Probe round started",
			Timestamp: time.Date(2025, 1, 1, 12, 30, 45, 0, time.UTC),
		}
		require.True(t, subscriber.ShouldHandle(event))
		subscriber.Handle(event)

		got := buf.String()
		require.Contains(t, got, "[VERBOSE]")
		require.Contains(t, got, "12:30:45")
		require.Contains(t, got, "Probe round started")
	})

	t.Run("Level Filtering", func(t *testing.T) {
		subscriber := subscribers.NewDiagnosticSubscriber(output.LevelVerbose, &bytes.Buffer{})
		require.True(t, subscriber.ShouldHandle(output.OutputEvent{Type: output.EventDiag, Level: output.LevelVerbose}))
		require.False(t, subscriber.ShouldHandle(output.OutputEvent{Type: output.EventDiag, Level: output.LevelDebug}))
		require.False(t, subscriber.ShouldHandle(output.OutputEvent{Type: output.EventInfo}))

		silent := subscribers.NewDiagnosticSubscriber(output.LevelNormal, &bytes.Buffer{})
		require.False(t, silent.ShouldHandle(output.OutputEvent{Type: output.EventDiag, Level: output.LevelVerbose}))
	})

	t.Run("Metadata Output", func(t *testing.T) {
		buf := &bytes.Buffer{}
		subscriber := subscribers.NewDiagnosticSubscriber(output.LevelDebug, buf)
		subscriber.Handle(output.OutputEvent{
			Type:      output.EventDiag,
			Level:     output.LevelDebug,
			Message:   "Probe finished",
			Timestamp: time.Now(),
			Metadata:  map[string]any{"target": "10.0.0.1:22", "elapsed_ms": 42},
		})

		got := buf.String()
		require.Contains(t, got, "[DEBUG]")
		require.Contains(t, got, "target:10.0.0.1:22")
		require.Contains(t, got, "elapsed_ms:42")
		require.Less(t, strings.Index(got, "elapsed_ms"), strings.Index(got, "target"), "metadata keys are sorted")
	})
}

func TestHumanFormatter(t *testing.T) {
	newFormatter := func() (*subscribers.HumanFormatter, *bytes.Buffer, *bytes.Buffer) {
		out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
		return subscribers.NewHumanFormatter(out, errOut, false), out, errOut
	}

	t.Run("Error Message", func(t *testing.T) {
		f, out, errOut := newFormatter()
		require.Equal(t, "human-formatter", f.Name())
		f.Handle(output.OutputEvent{Type: output.EventError, Message: "no targets given"})
		require.Contains(t, errOut.String(), "Error: no targets given")
		require.Empty(t, out.String())
	})

	t.Run("Warning Message", func(t *testing.T) {
		f, out, _ := newFormatter()
		f.Handle(output.OutputEvent{Type: output.EventWarning, Message: "invalid target 'db'"})
		require.Contains(t, out.String(), "Warning: invalid target 'db'")
	})

	t.Run("Outcome Line", func(t *testing.T) {
		f, out, _ := newFormatter()
		f.Handle(output.OutputEvent{Type: output.EventOutcome, Data: output.OutcomeData{
			Address: "example.com:443", Label: "reachable", Reachable: true, Elapsed: 12 * time.Millisecond,
		}})
		require.Equal(t, "✓ example.com:443 reachable (12ms)\n", out.String())
	})

	t.Run("Summary Table", func(t *testing.T) {
		f, out, _ := newFormatter()
		f.Handle(output.OutputEvent{Type: output.EventTable, Data: map[string]any{
			"headers": []string{"Status", "Count"},
			"rows":    [][]string{{"reachable", "2"}, {"timed_out", "1"}},
		}})
		got := out.String()
		require.Contains(t, got, "Status")
		require.Contains(t, got, "reachable")
		require.Contains(t, got, "timed_out")
	})

	t.Run("Progress Completes With Newline", func(t *testing.T) {
		f, out, _ := newFormatter()
		f.Handle(output.OutputEvent{Type: output.EventProgress, Message: "done", Data: map[string]any{"current": 4, "total": 4}})
		require.Equal(t, "\r[100%] done\n", out.String())
	})

	t.Run("Colored Output Keeps Text", func(t *testing.T) {
		out := &bytes.Buffer{}
		f := subscribers.NewHumanFormatter(out, out, true)
		f.Handle(output.OutputEvent{Type: output.EventOutcome, Data: output.OutcomeData{Address: "10.0.0.9:80", Label: "timed_out"}})
		require.Contains(t, out.String(), "10.0.0.9:80")
		require.Contains(t, out.String(), "timed_out")
	})

	t.Run("Diagnostic Events Should Not Handle", func(t *testing.T) {
		f, _, _ := newFormatter()
		require.False(t, f.ShouldHandle(output.OutputEvent{Type: output.EventDiag, Level: output.LevelVerbose}))
	})
}

func TestIntegration_HumanModeWithDiagnostics(t *testing.T) {
	stderr := &bytes.Buffer{}
	stream := output.NewOutputEventStream()
	stream.Subscribe(subscribers.NewHumanFormatter(stderr, stderr, false))
	stream.Subscribe(subscribers.NewDiagnosticSubscriber(output.LevelVerbose, stderr))

	out := output.NewDefaultOutput(stream)
	out.Warning("invalid target 'x:y'")
	out.Diag(output.LevelVerbose, "Probe round started", map[string]any{"targets": 3})
	out.Diag(output.LevelDebug, "hidden", nil)

	got := stderr.String()
	require.Contains(t, got, "Warning: invalid target 'x:y'")
	require.Contains(t, got, "[VERBOSE] Probe round started targets:3")
	require.NotContains(t, got, "hidden")
}
