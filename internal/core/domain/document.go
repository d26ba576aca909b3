package domain

import "time"

// Chunk is a bounded slice of a RawDocument's content, the unit of
// indexing and retrieval. Chunks are immutable once created and are
// removed only by deleting their upload.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// UploadID is the isolation tag of the upload the chunk came from.
	UploadID string

	// Text is the chunk content, at most chunk_size characters.
	Text string

	// StartOffset is the character (rune) index of Text within the parent content.
	StartOffset int

	// Metadata is inherited from the parent RawDocument.
	Metadata map[string]string
}

// IndexedVector is the stored form of a Chunk inside a vector store.
type IndexedVector struct {
	Chunk Chunk

	// Embedding is the vector representation of Chunk.Text.
	Embedding []float32

	// Seq is the insertion sequence, assigned by the store. Ties in
	// similarity are broken by ascending Seq.
	Seq int64
}

// Upload summarises one ingested file.
type Upload struct {
	ID        string
	Filename  string
	Format    Format
	Documents int
	Chunks    int
	CreatedAt time.Time
}
