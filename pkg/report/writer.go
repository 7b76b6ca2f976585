// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Write renders doc to w in the given format.
func Write(w io.Writer, format Format, doc Document) error {
	switch format {
	case FormatText:
		return WriteText(w, doc)
	case FormatJSON:
		return WriteJSON(w, doc)
	case FormatYAML:
		return WriteYAML(w, doc)
	default:
		_, err := ParseFormat(string(format))
		if err == nil {
			err = fmt.Errorf("renderer missing for format '%s'", format)
		}
		return err
	}
}

// WriteText writes one line per target: "host:port status elapsed_ms".
// Rejected entries are not part of the text report.
func WriteText(w io.Writer, doc Document) error {
	bw := bufio.NewWriter(w)
	for _, e := range doc.Results {
		if _, err := fmt.Fprintf(bw, "%s %s %d\n", e.Target, e.Status, e.ElapsedMS); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}
	return nil
}

// WriteYAML writes doc as a YAML document.
func WriteYAML(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	return enc.Close()
}
