package driven

import (
	"context"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
)

// Splitter turns extracted documents into chunks.
type Splitter interface {
	// Name returns the splitter name for logging.
	Name() string

	// Process splits docs, in input order. The configuration is checked
	// before any document is read and fails with domain.ErrConfig.
	Process(ctx context.Context, docs []domain.RawDocument) ([]domain.Chunk, error)
}
