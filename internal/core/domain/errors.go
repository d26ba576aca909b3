package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// Read paths translate it into an empty result rather than surfacing it.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates the file extension is not one of the loadable formats.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrDecode indicates file content could not be decoded under any attempted encoding,
	// or the file is corrupt for its declared format.
	ErrDecode = errors.New("decode failed")

	// ErrConfig indicates an invalid configuration, such as chunk overlap >= chunk size.
	ErrConfig = errors.New("invalid configuration")

	// ErrStore indicates an embedding or vector store operation failed.
	// The core never retries; callers decide.
	ErrStore = errors.New("store operation failed")

	// ErrNoUpload indicates a question was asked without an indexed upload.
	ErrNoUpload = errors.New("no upload: upload and process a file first")

	// ErrUploadExists indicates chunks are already stored under the upload id
	// and the request did not ask to replace them.
	ErrUploadExists = errors.New("upload already exists")

	// ErrIngestInProgress indicates an ingest is already running for the upload id.
	ErrIngestInProgress = errors.New("ingest in progress")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Chat orchestration is disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// Stage names the pipeline step an ingestion failure belongs to.
type Stage string

// Pipeline stages.
const (
	StageLoad  Stage = "load"
	StageSplit Stage = "split"
	StageStore Stage = "store"

	// StageSummarize is the LLM step of file summarisation.
	StageSummarize Stage = "summarize"
)

// StageError attributes a pipeline failure to the stage that produced it,
// so callers can tell a bad file apart from an unavailable index.
type StageError struct {
	Stage    Stage
	UploadID string
	Err      error
}

// NewStageError wraps err for the given stage. A nil err yields nil.
func NewStageError(stage Stage, uploadID string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, UploadID: uploadID, Err: err}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage recorded in err's chain, or "" if none.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
