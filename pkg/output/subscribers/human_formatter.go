// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package subscribers

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vulntor/netreach/pkg/output"
)

var (
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")) // Light gray

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")). // Red
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")). // Yellow
			Bold(true)

	reachableStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")) // Green

	unreachableStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")) // Bright red

	timedOutStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // Orange

	addressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // Cyan

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("62")). // Blue
				Padding(0, 1)
)

// HumanFormatter renders events for a person watching the terminal.
// Messages go to out, errors to errOut. netreach points both at stderr
// so the report on stdout is never interleaved with messages.
type HumanFormatter struct {
	out          io.Writer
	errOut       io.Writer
	colorEnabled bool
}

// NewHumanFormatter creates a new HumanFormatter subscriber.
func NewHumanFormatter(out, errOut io.Writer, colorEnabled bool) *HumanFormatter {
	return &HumanFormatter{
		out:          out,
		errOut:       errOut,
		colorEnabled: colorEnabled,
	}
}

// Name returns the subscriber identifier.
func (s *HumanFormatter) Name() string {
	return "human-formatter"
}

// ShouldHandle reports true for everything except diagnostic events, which
// belong to DiagnosticSubscriber.
func (s *HumanFormatter) ShouldHandle(event output.OutputEvent) bool {
	return event.Type != output.EventDiag
}

// Handle renders one event.
func (s *HumanFormatter) Handle(event output.OutputEvent) {
	switch event.Type {
	case output.EventInfo:
		s.printInfo(event.Message)

	case output.EventError:
		s.printError(event.Message)

	case output.EventWarning:
		s.printWarning(event.Message)

	case output.EventTable:
		if data, ok := event.Data.(map[string]any); ok {
			headers, _ := data["headers"].([]string)
			rows, _ := data["rows"].([][]string)
			s.printTable(headers, rows)
		}

	case output.EventProgress:
		if data, ok := event.Data.(map[string]any); ok {
			current, _ := data["current"].(int)
			total, _ := data["total"].(int)
			s.printProgress(current, total, event.Message)
		}

	case output.EventOutcome:
		if data, ok := event.Data.(output.OutcomeData); ok {
			s.printOutcome(data)
		}
	}
}

func (s *HumanFormatter) printInfo(message string) {
	if s.colorEnabled {
		message = infoStyle.Render(message)
	}
	_, _ = fmt.Fprintln(s.out, message)
}

func (s *HumanFormatter) printError(message string) {
	if !s.colorEnabled {
		_, _ = fmt.Fprintf(s.errOut, "Error: %s\n", message)
		return
	}
	_, _ = fmt.Fprintln(s.errOut, errorStyle.Render("✗ Error: "+message))
}

func (s *HumanFormatter) printWarning(message string) {
	if !s.colorEnabled {
		_, _ = fmt.Fprintf(s.out, "Warning: %s\n", message)
		return
	}
	_, _ = fmt.Fprintln(s.out, warningStyle.Render("! Warning: "+message))
}

// printOutcome prints one finished probe with a status icon.
func (s *HumanFormatter) printOutcome(data output.OutcomeData) {
	elapsed := data.Elapsed.Round(time.Millisecond)
	if !s.colorEnabled {
		_, _ = fmt.Fprintf(s.out, "%s %s %s (%s)\n", statusIcon(data), data.Address, data.Label, elapsed)
		return
	}

	style := unreachableStyle
	switch {
	case data.Reachable:
		style = reachableStyle
	case strings.HasPrefix(data.Label, "timed_out"):
		style = timedOutStyle
	}
	_, _ = fmt.Fprintf(s.out, "%s %s %s %s\n",
		style.Render(statusIcon(data)),
		addressStyle.Render(data.Address),
		style.Render(data.Label),
		infoStyle.Render("("+elapsed.String()+")"))
}

func statusIcon(data output.OutcomeData) string {
	switch {
	case data.Reachable:
		return "✓"
	case strings.HasPrefix(data.Label, "timed_out"):
		return "⏳"
	default:
		return "✗"
	}
}

func (s *HumanFormatter) printTable(headers []string, rows [][]string) {
	if !s.colorEnabled {
		w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
		for _, row := range rows {
			_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		_ = w.Flush()
		return
	}

	w := tabwriter.NewWriter(s.out, 0, 0, 3, ' ', 0)
	headerLine := make([]string, len(headers))
	for i, h := range headers {
		headerLine[i] = tableHeaderStyle.Render(strings.ToUpper(h))
	}
	_, _ = fmt.Fprintln(w, strings.Join(headerLine, "\t"))

	for _, row := range rows {
		styledRow := make([]string, len(row))
		for i, cell := range row {
			if i == 0 {
				styledRow[i] = labelStyle(cell).Render(cell)
			} else {
				styledRow[i] = cell
			}
		}
		_, _ = fmt.Fprintln(w, strings.Join(styledRow, "\t"))
	}
	_ = w.Flush()
}

// labelStyle colours summary rows by the status they count.
func labelStyle(label string) lipgloss.Style {
	switch {
	case label == "reachable":
		return reachableStyle
	case strings.HasPrefix(label, "unreachable"):
		return unreachableStyle
	case label == "timed_out":
		return timedOutStyle
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	}
}

func (s *HumanFormatter) printProgress(current, total int, message string) {
	if total <= 0 {
		return
	}
	percentage := float64(current) / float64(total) * 100
	_, _ = fmt.Fprintf(s.out, "\r[%3.0f%%] %s", percentage, message)
	if current == total {
		_, _ = fmt.Fprintln(s.out)
	}
}
