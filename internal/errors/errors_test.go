package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmanError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := stderrors.New("query compile failed")

	// When: wrapping with AmanError
	amanErr := LanguagePrepare("python", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, amanErr)
	assert.Equal(t, originalErr, stderrors.Unwrap(amanErr))
	assert.True(t, stderrors.Is(amanErr, originalErr))
}

func TestAmanError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *AmanError
		expected string
	}{
		{
			name:     "config error",
			err:      New(ErrCodeConfigNotFound, "config file not found", nil),
			expected: "[ERR_101_CONFIG_NOT_FOUND] config file not found",
		},
		{
			name:     "uninitialized",
			err:      Uninitialized(),
			expected: "[ERR_506_UNINITIALIZED] language resources requested before Init",
		},
		{
			name:     "with cause",
			err:      ParseFailure("main.go", stderrors.New("nil tree")),
			expected: "[ERR_508_PARSE_FAILURE] failed to parse main.go: nil tree",
		},
		{
			name:     "wrapped message not repeated",
			err:      Wrap(ErrCodeInternal, stderrors.New("boom")),
			expected: "[ERR_501_INTERNAL] boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAmanError_Is_MatchesSentinelByCode(t *testing.T) {
	// Given: a prepare error wrapped by a caller
	err := fmt.Errorf("resources: %w", LanguagePrepare("rust", stderrors.New("bad query")))

	// Then: it matches the sentinel but no other code
	assert.True(t, stderrors.Is(err, ErrLanguagePrepare))
	assert.False(t, stderrors.Is(err, ErrParseFailure))
}

func TestDerivedFields(t *testing.T) {
	tests := []struct {
		name      string
		err       *AmanError
		category  Category
		severity  Severity
		retryable bool
	}{
		{"uninitialized is fatal", Uninitialized(), CategoryInternal, SeverityFatal, false},
		{"prepare is retryable", LanguagePrepare("go", nil), CategoryInternal, SeverityWarning, true},
		{"parse failure", ParseFailure("a.py", nil), CategoryInternal, SeverityError, false},
		{"truncation abort", TruncationAbort("a.py", nil), CategoryInternal, SeverityWarning, false},
		{"config", ConfigError("bad", nil), CategoryConfig, SeverityError, false},
		{"io", IOError("missing", nil), CategoryIO, SeverityError, false},
		{"validation", ValidationError("bad", nil), CategoryValidation, SeverityError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.severity, tt.err.Severity)
			assert.Equal(t, tt.retryable, tt.err.Retryable)
		})
	}
}

func TestHelpers_SeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", LanguagePrepare("css", nil))

	assert.True(t, IsRetryable(wrapped))
	assert.False(t, IsFatal(wrapped))
	assert.Equal(t, ErrCodeLanguagePrepare, GetCode(wrapped))
	assert.Equal(t, CategoryInternal, GetCategory(wrapped))

	assert.True(t, IsFatal(Uninitialized()))
	assert.Equal(t, "", GetCode(stderrors.New("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestWithDetail_AddsContext(t *testing.T) {
	err := New(ErrCodeFileNotFound, "file not found", nil).
		WithDetail("path", "/src/main.go").
		WithDetail("operation", "read")

	assert.Equal(t, "/src/main.go", err.Details["path"])
	assert.Equal(t, "read", err.Details["operation"])
}

func TestOutputLocked(t *testing.T) {
	// Given: a locked output file
	err := OutputLocked("/tmp/pack.xml")

	// Then: it matches the sentinel and carries the path and a suggestion
	assert.ErrorIs(t, fmt.Errorf("write: %w", err), ErrOutputLocked)
	assert.Equal(t, CategoryIO, err.Category)
	assert.True(t, err.Retryable)
	assert.False(t, IsFatal(err))
	assert.Equal(t, "/tmp/pack.xml", err.Details["path"])
	assert.NotEmpty(t, err.Suggestion)
	assert.Contains(t, err.Error(), "ERR_207_OUTPUT_LOCKED")
}
