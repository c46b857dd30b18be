package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"rubylens"
)

// CLIPin is the JSON shape of one pin for command output.
type CLIPin struct {
	Path       string `json:"path"`
	Kind       string `json:"kind"`
	Scope      string `json:"scope"`
	Visibility string `json:"visibility"`
	Type       string `json:"type,omitempty"`
	File       string `json:"file,omitempty"`
	Line       int    `json:"line,omitempty"`
	Docs       string `json:"docs,omitempty"`
}

func toCLIPins(pins []*rubylens.Pin) []CLIPin {
	out := make([]CLIPin, 0, len(pins))
	for _, p := range pins {
		out = append(out, CLIPin{
			Path:       p.Path(),
			Kind:       p.Kind.String(),
			Scope:      p.Scope.String(),
			Visibility: p.Visibility.String(),
			Type:       p.TypeName,
			File:       p.Location.Filename,
			Line:       p.Location.Range.Start.Line,
			Docs:       p.Docs,
		})
	}
	return out
}

func outputPins(w io.Writer, pins []*rubylens.Pin) error {
	if flagFormat == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(toCLIPins(pins))
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tKIND\tSCOPE\tVISIBILITY\tTYPE")
	for _, p := range toCLIPins(pins) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Path, p.Kind, p.Scope, p.Visibility, p.Type)
	}
	return tw.Flush()
}

func outputStrings(w io.Writer, values []string) error {
	if flagFormat == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(values)
	}
	for _, v := range values {
		fmt.Fprintln(w, v)
	}
	return nil
}
