// Package mcp provides an MCP (Model Context Protocol) server adapter for sheetrag.
// It lets AI assistants retrieve context from uploads, ingest files and ask questions.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
