// Package chunker splits extracted documents into fixed-size, overlapping
// character windows.
package chunker

import (
	"context"

	"github.com/google/uuid"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Splitter = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Processor splits document content into fixed-size chunks.
type Processor struct {
	chunkSize int
	overlap   int
	newID     func() string
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
// Invalid values are rejected by Validate, not corrected.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithIDFunc overrides chunk ID generation.
func WithIDFunc(fn func() string) Option {
	return func(p *Processor) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		newID:     uuid.NewString,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int { return p.overlap }

// Validate reports domain.ErrConfig for an unusable size/overlap pair.
func (p *Processor) Validate() error {
	return domain.ChunkingSettings{Size: p.chunkSize, Overlap: p.overlap}.Validate()
}

// Process splits every document, in input order, into chunks.
// The configuration is validated before any document is looked at.
func (p *Processor) Process(ctx context.Context, docs []domain.RawDocument) ([]domain.Chunk, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var chunks []domain.Chunk
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunks = p.splitOne(chunks, &docs[i])
	}
	return chunks, nil
}

// splitOne appends the chunks of doc to dst. Offsets are rune indices.
func (p *Processor) splitOne(dst []domain.Chunk, doc *domain.RawDocument) []domain.Chunk {
	if doc.Content == "" {
		// Empty content produces no chunks
		return dst
	}

	content := []rune(doc.Content)
	step := p.chunkSize - p.overlap

	start := 0
	for {
		end := start + p.chunkSize
		last := end >= len(content)
		if last {
			end = len(content)
		}

		dst = append(dst, domain.Chunk{
			ID:          p.newID(),
			Text:        string(content[start:end]),
			StartOffset: start,
			Metadata:    domain.CloneMetadata(doc.Metadata),
		})

		if last {
			return dst
		}
		start += step
	}
}

// Split is a convenience wrapper around New(...).Process.
func Split(docs []domain.RawDocument, chunkSize, overlap int) ([]domain.Chunk, error) {
	return New(WithChunkSize(chunkSize), WithOverlap(overlap)).Process(context.Background(), docs)
}
