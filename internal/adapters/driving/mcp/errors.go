// Package mcp provides an MCP (Model Context Protocol) server adapter for docchat.
// It lets AI assistants search the document index and ask grounded questions.
package mcp

import "errors"

// ErrMissingSearcher is returned when the search port is not provided.
var ErrMissingSearcher = errors.New("mcp: searcher is required")
