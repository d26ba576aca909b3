// Package tui provides an interactive terminal chat over an upload.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/sheetrag/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the chat screen.
type Ports struct {
	// Chat answers questions and resets sessions.
	Chat driving.ChatService

	// History loads an existing session on start.
	History driving.HistoryService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if p.History == nil {
		return ErrMissingHistoryService
	}
	return nil
}
