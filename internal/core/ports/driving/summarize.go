package driving

import (
	"context"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
)

// SummarizeRequest names the file to summarise. Exactly one of Data or
// Path is used; Data takes precedence.
type SummarizeRequest struct {
	// Filename selects the format loader by extension.
	Filename string

	// Data holds the uploaded bytes.
	Data []byte

	// Path points at a file already on disk.
	Path string
}

// SummarizeService produces an LLM summary of a file without indexing it.
type SummarizeService interface {
	// Summarize loads and splits the file, summarises every chunk and
	// merges the partial summaries. Failures are *domain.StageError.
	Summarize(ctx context.Context, req SummarizeRequest) (*domain.Summary, error)
}
