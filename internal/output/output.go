// Package output provides consistent CLI output formatting with colors and
// progress indicators.
package output

import (
	"fmt"
	"io"
	"strings"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out    io.Writer
	styles Styles
	color  bool
}

// Option configures a Writer.
type Option func(*Writer)

// WithColor enables or disables lipgloss styling.
func WithColor(enabled bool) Option {
	return func(w *Writer) {
		w.color = enabled
		w.styles = GetStyles(!enabled)
	}
}

// New creates a new output Writer. Color is off unless WithColor is given.
func New(out io.Writer, opts ...Option) *Writer {
	w := &Writer{
		out:    out,
		styles: NoColorStyles(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NewAuto creates a Writer with color enabled when out is an interactive
// terminal and NO_COLOR is unset.
func NewAuto(out io.Writer) *Writer {
	return New(out, WithColor(IsTTY(out) && !DetectNoColor()))
}

// Out returns the underlying writer.
func (w *Writer) Out() io.Writer {
	return w.out
}

// Interactive reports whether the writer targets a terminal outside CI.
func (w *Writer) Interactive() bool {
	return IsTTY(w.out) && !DetectCI()
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Header prints a bold section header.
func (w *Writer) Header(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Header.Render(msg))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", w.styles.Success.Render(msg))
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", w.styles.Warning.Render(msg))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", w.styles.Error.Render(msg))
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// KeyValue prints an aligned label and value.
func (w *Writer) KeyValue(label, value string) {
	_, _ = fmt.Fprintf(w.out, "   %s %s\n", w.styles.Label.Render(fmt.Sprintf("%-18s", label+":")), value)
}

// Code prints a code block with indentation.
func (w *Writer) Code(content string) {
	_, _ = fmt.Fprintln(w.out)
	for _, line := range strings.Split(content, "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", w.styles.Dim.Render(line))
	}
	_, _ = fmt.Fprintln(w.out)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}
