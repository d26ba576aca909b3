package driven

import (
	"context"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
)

// Loader extracts RawDocuments from a file of one format.
// Implementations read from a path on disk and never call the network.
type Loader interface {
	// Format returns the format this loader handles.
	Format() domain.Format

	// Load reads the file at path. name is the original file name,
	// recorded as the source in document metadata.
	Load(ctx context.Context, path, name string) ([]domain.RawDocument, error)
}

// LoaderRegistry dispatches files to the loader for their format.
type LoaderRegistry interface {
	// Register adds or replaces the loader for its format.
	Register(loader Loader)

	// Get returns the loader for format, or ErrUnsupportedFormat.
	Get(format domain.Format) (Loader, error)

	// Load stages data in a temporary file, loads it and removes the file
	// on every exit path.
	Load(ctx context.Context, data []byte, filename string) ([]domain.RawDocument, error)

	// LoadFile loads a file already on disk.
	LoadFile(ctx context.Context, path string) ([]domain.RawDocument, error)
}
