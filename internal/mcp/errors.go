// Package mcp implements the Model Context Protocol (MCP) server for amanpack.
package mcp

import (
	"context"
	"errors"
	"fmt"

	amerrors "github.com/Aman-CERP/amanpack/internal/errors"
)

// Custom MCP error codes for amanpack.
const (
	// ErrCodeOutputLocked indicates another process holds the output file.
	ErrCodeOutputLocked = -32001

	// ErrCodeLanguageUnavailable indicates a grammar could not be prepared.
	ErrCodeLanguageUnavailable = -32002

	// ErrCodeTimeout indicates the request timed out or was cancelled.
	ErrCodeTimeout = -32003

	// ErrCodeFileNotFound indicates a file does not exist under the root.
	ErrCodeFileNotFound = -32004

	// ErrCodeFileTooLarge indicates a file exceeds the configured size limit.
	ErrCodeFileTooLarge = -32005

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}
	var amanErr *amerrors.AmanError
	if errors.As(err, &amanErr) {
		return mapAmanError(amanErr)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: err.Error()}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("Tool '%s' not found.", name)}
}

// NewResourceNotFoundError creates an error for unknown resources.
func NewResourceNotFoundError(uri string) *MCPError {
	return &MCPError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("Resource '%s' not found.", uri)}
}

// mapAmanError converts an AmanError to an MCPError, appending the
// suggestion to the message.
func mapAmanError(ae *amerrors.AmanError) *MCPError {
	message := ae.Message
	if ae.Suggestion != "" {
		message = fmt.Sprintf("%s %s", ae.Message, ae.Suggestion)
	}

	code := ErrCodeInternalError
	switch ae.Code {
	case amerrors.ErrCodeFileNotFound:
		code = ErrCodeFileNotFound
	case amerrors.ErrCodeFileTooLarge:
		code = ErrCodeFileTooLarge
	case amerrors.ErrCodeOutputLocked:
		code = ErrCodeOutputLocked
	case amerrors.ErrCodeLanguagePrepare, amerrors.ErrCodeGrammarNotFound:
		code = ErrCodeLanguageUnavailable
	default:
		if ae.Category == amerrors.CategoryValidation {
			code = ErrCodeInvalidParams
		}
	}
	return &MCPError{Code: code, Message: message}
}
