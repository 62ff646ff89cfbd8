// Package logging provides structured slog logging for amanpack with
// optional size-rotated file output under ~/.amanpack/logs/.
//
// The CLI logs to stderr only unless --debug is set. The MCP server never
// writes to stdout or stderr since stdout carries the protocol stream.
package logging
