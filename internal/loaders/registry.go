package loaders

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
	"github.com/custodia-labs/sheetrag/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.LoaderRegistry = (*Registry)(nil)

// Registry maps formats to loaders.
type Registry struct {
	mu      sync.RWMutex
	loaders map[domain.Format]driven.Loader
	tempDir string
}

// Option configures a Registry.
type Option func(*Registry)

// WithTempDir sets the parent directory for staged uploads.
// Empty means os.TempDir().
func WithTempDir(dir string) Option {
	return func(r *Registry) {
		r.tempDir = dir
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		loaders: make(map[domain.Format]driven.Loader),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds or replaces the loader for its format.
func (r *Registry) Register(loader driven.Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[loader.Format()] = loader
}

// Get returns the loader for format.
func (r *Registry) Get(format domain.Format) (driven.Loader, error) {
	if !format.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	loader, ok := r.loaders[format]
	if !ok {
		return nil, fmt.Errorf("%w: no loader registered for %s", domain.ErrUnsupportedFormat, format)
	}
	return loader, nil
}

// Formats returns the registered formats in sorted order.
func (r *Registry) Formats() []domain.Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]domain.Format, 0, len(r.loaders))
	for f := range r.loaders {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// Load validates the extension of filename, stages data in a temporary
// file and runs the format's loader over it. The temporary file is removed
// before Load returns, whatever the outcome.
func (r *Registry) Load(ctx context.Context, data []byte, filename string) ([]domain.RawDocument, error) {
	format, err := domain.ParseFormat(filename)
	if err != nil {
		return nil, err
	}
	loader, err := r.Get(format)
	if err != nil {
		return nil, err
	}

	path, cleanup, err := stageTempFile(r.tempDir, filename, data)
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	defer cleanup()

	logger.Debug("loading %s (%d bytes) as %s", filename, len(data), format)
	return loader.Load(ctx, path, filepath.Base(filename))
}

// LoadFile runs the format's loader over a file already on disk.
func (r *Registry) LoadFile(ctx context.Context, path string) ([]domain.RawDocument, error) {
	format, err := domain.ParseFormat(path)
	if err != nil {
		return nil, err
	}
	loader, err := r.Get(format)
	if err != nil {
		return nil, err
	}

	logger.Debug("loading %s as %s", path, format)
	return loader.Load(ctx, path, filepath.Base(path))
}
