// Package errors provides structured error handling for amanpack.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, disk)
//   - 4XX: Validation errors
//   - 5XX: Parsing and internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates parser and unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates a programmer error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but the run can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileNotFound   = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission = "ERR_202_FILE_PERMISSION"
	ErrCodeFileTooLarge   = "ERR_204_FILE_TOO_LARGE"
	ErrCodeOutputLocked   = "ERR_207_OUTPUT_LOCKED"

	// Validation errors (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidPath  = "ERR_406_INVALID_PATH"

	// Parsing and internal errors (500-599)
	ErrCodeInternal        = "ERR_501_INTERNAL"
	ErrCodeUninitialized   = "ERR_506_UNINITIALIZED"
	ErrCodeLanguagePrepare = "ERR_507_LANGUAGE_PREPARE"
	ErrCodeParseFailure    = "ERR_508_PARSE_FAILURE"
	ErrCodeTruncationAbort = "ERR_509_TRUNCATION_ABORT"
	ErrCodeGrammarNotFound = "ERR_510_GRAMMAR_NOT_FOUND"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeUninitialized:
		return SeverityFatal
	case ErrCodeTruncationAbort, ErrCodeOutputLocked:
		return SeverityWarning
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
// A failed language construction is not cached, so the next request tries again.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeLanguagePrepare, ErrCodeOutputLocked:
		return true
	default:
		return false
	}
}
