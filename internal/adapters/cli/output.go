// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

// Package cli provides output adapters for CLI operations.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
)

// OutputFormat represents the output format type.
type OutputFormat int

const (
	// TextFormat outputs human-readable text.
	TextFormat OutputFormat = iota
	// JSONFormat outputs machine-readable JSON.
	JSONFormat
)

// ParseOutputFormat converts a --format value into an OutputFormat.
func ParseOutputFormat(format string) (OutputFormat, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return TextFormat, nil
	case "json":
		return JSONFormat, nil
	default:
		return TextFormat, fmt.Errorf("%w: unsupported output format %q", domain.ErrInvalidArgument, format)
	}
}

// OutputAdapter implements domain.OutputPort for CLI output.
type OutputAdapter struct {
	writer   io.Writer
	format   OutputFormat
	quiet    bool
	progress bool // a \r progress line is pending
}

// NewOutputAdapter writes to stdout.
func NewOutputAdapter(format OutputFormat, quiet bool) *OutputAdapter {
	return NewOutputAdapterWithWriter(os.Stdout, format, quiet)
}

// NewOutputAdapterWithWriter writes to writer.
func NewOutputAdapterWithWriter(writer io.Writer, format OutputFormat, quiet bool) *OutputAdapter {
	return &OutputAdapter{
		writer: writer,
		format: format,
		quiet:  quiet,
	}
}

// Success outputs a success message, or data as JSON in JSON mode.
func (o *OutputAdapter) Success(message string, data interface{}) error {
	if o.format == JSONFormat && data != nil {
		return o.outputJSON(data)
	}

	if message != "" && !o.quiet {
		o.println(message)
	}

	return nil
}

// Error outputs an error message.
func (o *OutputAdapter) Error(message string) error {
	if o.quiet {
		return nil
	}

	if o.format == JSONFormat {
		return o.outputJSON(map[string]string{"error": message})
	}

	o.println("Error: " + message)

	return nil
}

// Info outputs an informational message.
func (o *OutputAdapter) Info(message string) error {
	if o.quiet {
		return nil
	}

	if o.format == JSONFormat {
		return o.outputJSON(map[string]string{"info": message})
	}

	o.println(message)

	return nil
}

// Progress rewrites the current line. The next regular message starts on
// a fresh line.
func (o *OutputAdapter) Progress(message string) error {
	if o.quiet || o.format == JSONFormat {
		return nil
	}

	_, _ = fmt.Fprintf(o.writer, "\r%s", message)
	o.progress = true

	return nil
}

// Table outputs tabular data. Columns are padded by display width so
// wide and combining characters stay aligned.
func (o *OutputAdapter) Table(headers []string, rows [][]string) error {
	if o.quiet {
		return nil
	}

	if o.format == JSONFormat {
		return o.outputJSON(map[string]interface{}{
			"headers": headers,
			"rows":    rows,
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}

	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
		}
	}

	separators := make([]string, len(headers))
	for i := range headers {
		separators[i] = strings.Repeat("-", widths[i])
	}

	o.println(formatRow(headers, widths))
	o.println(formatRow(separators, widths))

	for _, row := range rows {
		o.println(formatRow(row, widths))
	}

	return nil
}

// IsQuiet returns true if output should be suppressed.
func (o *OutputAdapter) IsQuiet() bool {
	return o.quiet
}

// IsJSON reports whether output is machine-readable.
func (o *OutputAdapter) IsJSON() bool {
	return o.format == JSONFormat
}

func (o *OutputAdapter) println(message string) {
	if o.progress {
		_, _ = fmt.Fprintln(o.writer)
		o.progress = false
	}

	_, _ = fmt.Fprintln(o.writer, message)
}

func (o *OutputAdapter) outputJSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")

	return encoder.Encode(data)
}

func formatRow(cells []string, widths []int) string {
	padded := make([]string, 0, len(widths))

	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}

		if i == len(widths)-1 {
			padded = append(padded, cell)
			continue
		}

		padded = append(padded, runewidth.FillRight(cell, width))
	}

	return strings.TrimRight(strings.Join(padded, "  "), " ")
}

// DownloadLine renders a one-line download progress readout.
func DownloadLine(name string, percent int, received, total int64) string {
	line := fmt.Sprintf("↓ %s %3d%% %s", name, percent, humanize.Bytes(uint64(max(received, 0))))
	if total > 0 {
		line += " / " + humanize.Bytes(uint64(total))
	}

	return line
}

// OutputFromContext creates an OutputAdapter from CLI flags.
func OutputFromContext(jsonFlag, quietFlag bool) *OutputAdapter {
	format := TextFormat
	if jsonFlag {
		format = JSONFormat
	}

	return NewOutputAdapter(format, quietFlag)
}

var _ domain.OutputPort = (*OutputAdapter)(nil)
