// Package mcp provides an MCP (Model Context Protocol) server adapter for llmli.
// It lets AI assistants ask questions of the local library and list its silos.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")

// ErrMissingSiloService is returned when the silo service is not provided.
var ErrMissingSiloService = errors.New("mcp: silo service is required")
