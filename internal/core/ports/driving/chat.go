package driving

import (
	"context"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
)

// ChatService answers questions about an upload within a session.
type ChatService interface {
	// Ask retrieves context from the upload, asks the LLM and records
	// the exchange in the session history.
	Ask(ctx context.Context, sessionID, uploadID, question string) (*domain.Answer, error)

	// Reset clears the session history.
	Reset(ctx context.Context, sessionID string) error

	// Greeting returns the message shown for an empty session.
	Greeting() string
}
