package driving

import (
	"context"

	"github.com/custodia-labs/sheetrag/internal/core/async"
	"github.com/custodia-labs/sheetrag/internal/core/domain"
)

// IngestRequest describes one upload to ingest. Exactly one of Data or
// Path is used; Data takes precedence.
type IngestRequest struct {
	// UploadID is the isolation tag, minted by the caller. It must pass
	// domain.ValidateUploadID.
	UploadID string

	// Filename selects the format loader by extension and is recorded as
	// the source of every chunk.
	Filename string

	// Data holds the uploaded bytes.
	Data []byte

	// Path points at a file already on disk.
	Path string

	// Replace allows UploadID to name an upload that already has chunks.
	// Its chunks are deleted before the new ones are stored. Without it,
	// such a request fails with domain.ErrUploadExists.
	Replace bool
}

// IngestService runs the load, split and store pipeline for uploads.
type IngestService interface {
	// Ingest runs the pipeline synchronously. Failures are *domain.StageError.
	Ingest(ctx context.Context, req IngestRequest) (*domain.IngestReport, error)

	// IngestAsync runs the pipeline in the background.
	IngestAsync(ctx context.Context, req IngestRequest) *async.Task[*domain.IngestReport]

	// DeleteUpload removes every chunk of the upload. It is idempotent.
	DeleteUpload(ctx context.Context, uploadID string) error

	// Status reports whether an ingest for uploadID is running.
	Status(uploadID string) IngestStatus
}

// IngestStatus represents the current state of an upload's ingestion.
type IngestStatus struct {
	// UploadID identifies the upload.
	UploadID string

	// Running indicates if ingestion is currently in progress.
	Running bool
}
