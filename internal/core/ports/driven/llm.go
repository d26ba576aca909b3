package driven

import (
	"context"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
)

// LLMService answers grounded questions.
// It is used only by chat orchestration, never by ingestion or retrieval.
type LLMService interface {
	// Complete returns the assistant reply for req.
	Complete(ctx context.Context, req Completion) (string, error)

	// ModelName returns the model identifier.
	ModelName() string

	// Ping validates connectivity and credentials without generating.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Completion is a single request to the language model.
type Completion struct {
	// System holds the instructions. It may be empty.
	System string

	// History is the prior conversation, oldest first.
	History []domain.Turn

	// Prompt is the new user message, already carrying the retrieved context.
	Prompt string

	// MaxTokens limits the reply length. Zero leaves it to the provider.
	MaxTokens int

	// Temperature controls randomness. Zero leaves it to the provider.
	Temperature float64
}

// Turns flattens the completion into one ordered conversation: the
// system turn when present, the history, then the prompt as a user turn.
func (c Completion) Turns() []domain.Turn {
	turns := make([]domain.Turn, 0, len(c.History)+2)
	if c.System != "" {
		turns = append(turns, domain.Turn{Role: domain.RoleSystem, Content: c.System})
	}
	turns = append(turns, c.History...)
	return append(turns, domain.Turn{Role: domain.RoleUser, Content: c.Prompt})
}
