package errors

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// FormatForCLI formats an error for CLI output.
// Uses a concise format suitable for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	ae, ok := err.(*AmanError)
	if !ok {
		ae = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", ae.Message))
	if ae.Cause != nil && ae.Cause.Error() != ae.Message {
		sb.WriteString(fmt.Sprintf("  Cause: %v\n", ae.Cause))
	}
	if ae.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", ae.Suggestion))
	}
	sb.WriteString(fmt.Sprintf("  Code: %s\n", ae.Code))

	return sb.String()
}

// LogAttrs returns slog attributes describing err, suitable for
// logger.Warn("...", errors.LogAttrs(err)...). Details are emitted in
// key order so log lines are stable.
func LogAttrs(err error) []any {
	if err == nil {
		return nil
	}

	ae, ok := err.(*AmanError)
	if !ok {
		return []any{slog.String("error", err.Error())}
	}

	attrs := []any{
		slog.String("error_code", ae.Code),
		slog.String("error", ae.Message),
		slog.String("severity", string(ae.Severity)),
	}
	if ae.Cause != nil {
		attrs = append(attrs, slog.String("cause", ae.Cause.Error()))
	}

	keys := make([]string, 0, len(ae.Details))
	for k := range ae.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, ae.Details[k]))
	}

	return attrs
}
