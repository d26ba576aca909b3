package mcp

import (
	"github.com/custodia-labs/sheetrag/internal/core/ports/driving"
)

// Ports holds the sheetrag services the MCP server calls. Only Retrieval
// is required; each optional service adds its tools.
type Ports struct {
	// Retrieval answers retrieve calls.
	Retrieval driving.RetrievalService

	// Ingest enables the ingest_file and delete_upload tools.
	Ingest driving.IngestService

	// Chat enables the ask tool. Leave nil when no LLM is configured.
	Chat driving.ChatService

	// History backs the session history resource.
	History driving.HistoryService

	// Summarize enables the summarize_file tool. Leave nil when no LLM is configured.
	Summarize driving.SummarizeService
}

// Validate reports ErrMissingRetrievalService when Retrieval is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
