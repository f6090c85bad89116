// Package emitter writes the lines a polling status bar reads from stdout.
package emitter

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"

	"github.com/goccy/go-json"

	"github.com/vietddude/buswatch/internal/core/apperr"
	"github.com/vietddude/buswatch/internal/core/domain"
	"github.com/vietddude/buswatch/internal/metrics"
)

// Format selects how values are rendered.
type Format string

const (
	// FormatText prints the mapped text only.
	FormatText Format = "text"
	// FormatJSON prints a waybar custom-module object with text and tooltip.
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

type jsonLine struct {
	Text    string `json:"text"`
	Tooltip string `json:"tooltip"`
}

// Emitter writes exactly one flushed line per call.
type Emitter struct {
	w      *bufio.Writer
	format Format
}

// New creates an Emitter writing to w.
func New(w io.Writer, format Format) *Emitter {
	return &Emitter{w: bufio.NewWriter(w), format: format}
}

// EmitValue prints the mapped text for v.
func (e *Emitter) EmitValue(v bool, mapping domain.OutputMapping) error {
	text := mapping.Text(v)

	line := text
	if e.format == FormatJSON {
		data, err := json.Marshal(jsonLine{Text: text, Tooltip: domain.Tooltip(v)})
		if err != nil {
			return fmt.Errorf("failed to encode output line: %w", err)
		}
		line = string(data)
	}

	if err := e.writeLine(line); err != nil {
		return err
	}
	metrics.LinesEmitted.WithLabelValues("value").Inc()
	return nil
}

// EmitFatal prints E<code> for err and returns the code to exit with.
func (e *Emitter) EmitFatal(err error) int {
	kind := apperr.KindOf(err)
	if werr := e.writeLine(kind.Marker()); werr != nil {
		slog.Error("Failed to write error code", "error", werr)
	}
	metrics.LinesEmitted.WithLabelValues("fatal").Inc()
	return kind.Code()
}

func (e *Emitter) writeLine(line string) error {
	if _, err := e.w.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := e.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}
