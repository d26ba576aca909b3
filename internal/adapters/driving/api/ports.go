package api

import (
	"errors"

	"github.com/custodia-labs/sheetrag/internal/core/ports/driving"
)

// ErrMissingPorts is returned when a required service is not provided.
var ErrMissingPorts = errors.New("api: ingest, retrieval and history services are required")

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	Ingest    driving.IngestService
	Retrieval driving.RetrievalService
	History   driving.HistoryService

	// Chat is optional. Without it /ask answers 503.
	Chat driving.ChatService

	// Summarize is optional. Without it /summaries answers 503.
	Summarize driving.SummarizeService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ingest == nil || p.Retrieval == nil || p.History == nil {
		return ErrMissingPorts
	}
	return nil
}
