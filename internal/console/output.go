// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

// Package console writes human status lines to stderr and results to stdout.
package console

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"strings"

	"golang.org/x/term"
)

// OutputState holds output configuration and destinations.
type OutputState struct {
	Verbose bool
	JSON    bool
	Plain   bool

	Out    io.Writer
	ErrOut io.Writer

	getenv func(string) string
}

// New returns an OutputState writing to stdout and stderr.
func New() *OutputState {
	return NewWithWriters(os.Stdout, os.Stderr)
}

// NewWithWriters returns an OutputState writing to out and errOut.
func NewWithWriters(out, errOut io.Writer) *OutputState {
	return &OutputState{Out: out, ErrOut: errOut, getenv: os.Getenv}
}

// SetMode configures output mode.
func (o *OutputState) SetMode(verbose, json, plain bool) {
	o.Verbose = verbose
	o.JSON = json
	o.Plain = plain
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

// Interactive reports whether both stdin and Out are terminals.
func (o *OutputState) Interactive() bool {
	return IsTTY(os.Stdin) && IsTTY(o.Out)
}

// Bold formats text with bold on a terminal and uppercase when piped.
func (o *OutputState) Bold(text string) string {
	if o.JSON || o.Plain {
		return text
	}

	// no-color.org
	if o.getenv("NO_COLOR") != "" || o.getenv("TERM") == "dumb" {
		return text
	}

	if IsTTY(o.Out) {
		return "\033[1m" + text + "\033[0m"
	}

	return strings.ToUpper(text)
}

// Progressf writes progress messages to stderr when verbose.
func (o *OutputState) Progressf(format string, args ...any) {
	if o.Verbose && !o.JSON && !o.Plain {
		_, _ = fmt.Fprintf(o.ErrOut, format+"\n", args...)
	}
}

// Successf writes success messages to stderr.
func (o *OutputState) Successf(format string, args ...any) {
	if !o.JSON && !o.Plain {
		_, _ = fmt.Fprintf(o.ErrOut, "✓ "+format+"\n", args...)
	}
}

// Warningf writes warning messages to stderr.
func (o *OutputState) Warningf(format string, args ...any) {
	if o.Plain {
		_, _ = fmt.Fprintf(o.ErrOut, "warning: "+format+"\n", args...)
		return
	}

	_, _ = fmt.Fprintf(o.ErrOut, "⚠ "+format+"\n", args...)
}

// Errorf writes error messages to stderr.
func (o *OutputState) Errorf(format string, args ...any) {
	if o.Plain {
		_, _ = fmt.Fprintf(o.ErrOut, "error: "+format+"\n", args...)
		return
	}

	_, _ = fmt.Fprintf(o.ErrOut, "✗ "+format+"\n", args...)
}

// JSONResult writes structured JSON results to stdout.
func (o *OutputState) JSONResult(status string, data map[string]any) {
	result := map[string]any{"status": status}
	maps.Copy(result, data)

	if err := json.NewEncoder(o.Out).Encode(result); err != nil {
		_, _ = fmt.Fprintf(o.ErrOut, "error encoding JSON: %v\n", err)
	}
}

// ErrorResult reports a failed command. The message always goes to stderr;
// JSON mode also writes a result object to stdout.
func (o *OutputState) ErrorResult(message string, code int) {
	if o.JSON {
		o.JSONResult("error", map[string]any{
			"error": message,
			"code":  code,
		})

		return
	}

	if o.Plain {
		_, _ = fmt.Fprintf(o.ErrOut, "error: %s\n", strings.TrimPrefix(message, "✗ "))
		return
	}

	_, _ = fmt.Fprintln(o.ErrOut, message)
}

// PlainKeyValue outputs key:value pairs for machine parsing.
func (o *OutputState) PlainKeyValue(key, value string) {
	_, _ = fmt.Fprintf(o.Out, "%s:%s\n", key, value)
}
