// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package subscribers

import (
	"encoding/json"
	"io"
	"time"

	"github.com/vulntor/netreach/pkg/output"
)

// JSONFormatter emits one compact JSON object per event (JSON Lines).
// It is used for messages when the report format is json or yaml.
type JSONFormatter struct {
	encoder *json.Encoder
}

// NewJSONFormatter creates a new JSONFormatter subscriber.
func NewJSONFormatter(writer io.Writer) *JSONFormatter {
	return &JSONFormatter{
		encoder: json.NewEncoder(writer),
	}
}

// Name returns the subscriber identifier.
func (s *JSONFormatter) Name() string {
	return "json-formatter"
}

// ShouldHandle reports true for everything except diagnostic events and
// carriage-return progress bars.
func (s *JSONFormatter) ShouldHandle(event output.OutputEvent) bool {
	return event.Type != output.EventDiag && event.Type != output.EventProgress
}

// Handle encodes the event as a single line.
func (s *JSONFormatter) Handle(event output.OutputEvent) {
	jsonEvent := map[string]any{
		"type":      event.Type,
		"timestamp": event.Timestamp.Format(time.RFC3339),
	}

	if event.Message != "" {
		jsonEvent["message"] = event.Message
	}
	if event.Data != nil {
		jsonEvent["data"] = event.Data
	}
	if len(event.Metadata) > 0 {
		jsonEvent["metadata"] = event.Metadata
	}

	// Subscribers cannot propagate errors; a broken pipe drops the event.
	_ = s.encoder.Encode(jsonEvent)
}
