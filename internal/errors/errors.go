package errors

import (
	stderrors "errors"
	"fmt"
)

// AmanError is the structured error type for amanpack.
// It carries the code used for matching plus the context needed for
// logging and for deciding whether a per-file failure may be retried.
type AmanError struct {
	// Code is the unique error code (e.g., "ERR_507_LANGUAGE_PREPARE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *AmanError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *AmanError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work against the sentinel values below.
func (e *AmanError) Is(target error) bool {
	if t, ok := target.(*AmanError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *AmanError) WithDetail(key, value string) *AmanError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *AmanError) WithSuggestion(suggestion string) *AmanError {
	e.Suggestion = suggestion
	return e
}

// New creates a new AmanError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *AmanError {
	return &AmanError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates an AmanError from an existing error.
// The error's message becomes the AmanError message.
func Wrap(code string, err error) *AmanError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Sentinels for errors.Is comparisons. Only the code is significant.
var (
	ErrUninitialized   = &AmanError{Code: ErrCodeUninitialized}
	ErrLanguagePrepare = &AmanError{Code: ErrCodeLanguagePrepare}
	ErrParseFailure    = &AmanError{Code: ErrCodeParseFailure}
	ErrTruncationAbort = &AmanError{Code: ErrCodeTruncationAbort}
	ErrGrammarNotFound = &AmanError{Code: ErrCodeGrammarNotFound}
	ErrOutputLocked    = &AmanError{Code: ErrCodeOutputLocked}
)

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *AmanError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *AmanError {
	return New(ErrCodeFileNotFound, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *AmanError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *AmanError {
	return New(ErrCodeInternal, message, cause)
}

// Uninitialized reports use of the language resource manager before Init.
func Uninitialized() *AmanError {
	return New(ErrCodeUninitialized, "language resources requested before Init", nil).
		WithSuggestion("call Manager.Init once at startup before compressing files")
}

// LanguagePrepare reports a failure to build the parser, query or strategy
// for one language. Other languages are unaffected.
func LanguagePrepare(language string, cause error) *AmanError {
	return New(ErrCodeLanguagePrepare, fmt.Sprintf("failed to prepare language %q", language), cause).
		WithDetail("language", language)
}

// ParseFailure reports input that the parser could not turn into a tree.
func ParseFailure(path string, cause error) *AmanError {
	return New(ErrCodeParseFailure, fmt.Sprintf("failed to parse %s", path), cause).
		WithDetail("path", path)
}

// TruncationAbort reports an internal failure while limiting a file's lines.
func TruncationAbort(path string, cause error) *AmanError {
	return New(ErrCodeTruncationAbort, fmt.Sprintf("line limit skipped for %s", path), cause).
		WithDetail("path", path)
}

// GrammarNotFound reports an unknown grammar name.
func GrammarNotFound(name string) *AmanError {
	return New(ErrCodeGrammarNotFound, fmt.Sprintf("grammar not found: %s", name), nil).
		WithDetail("grammar", name)
}

// OutputLocked reports that another amanpack process is writing the same
// output file.
func OutputLocked(path string) *AmanError {
	return New(ErrCodeOutputLocked, fmt.Sprintf("output file is locked: %s", path), nil).
		WithDetail("path", path).
		WithSuggestion("wait for the other amanpack run to finish or choose a different --output")
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var ae *AmanError
	if stderrors.As(err, &ae) {
		return ae.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	var ae *AmanError
	if stderrors.As(err, &ae) {
		return ae.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from an AmanError.
// Returns empty string if not an AmanError.
func GetCode(err error) string {
	var ae *AmanError
	if stderrors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// GetCategory extracts the category from an AmanError.
// Returns empty string if not an AmanError.
func GetCategory(err error) Category {
	var ae *AmanError
	if stderrors.As(err, &ae) {
		return ae.Category
	}
	return ""
}
