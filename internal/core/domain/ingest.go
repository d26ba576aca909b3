package domain

import (
	"fmt"
	"time"
)

// MaxUploadIDLength bounds caller-chosen upload ids.
const MaxUploadIDLength = 128

// ValidateUploadID checks id is usable as an isolation tag. Ids are
// non-empty and limited to ASCII letters, digits and "-_.:", which keeps
// them free of the separators backends build record ids with.
func ValidateUploadID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: upload id is required", ErrInvalidInput)
	}
	if len(id) > MaxUploadIDLength {
		return fmt.Errorf("%w: upload id longer than %d characters", ErrInvalidInput, MaxUploadIDLength)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return fmt.Errorf("%w: upload id %q contains %q", ErrInvalidInput, id, r)
		}
	}
	return nil
}

// IngestReport describes a completed ingestion.
type IngestReport struct {
	UploadID  string        `json:"upload_id"`
	Filename  string        `json:"filename"`
	Format    Format        `json:"format"`
	Documents int           `json:"documents"`
	Chunks    int           `json:"chunks"`
	Duration  time.Duration `json:"duration_ns"`
}

// EventType names an upload lifecycle event.
type EventType string

// Upload lifecycle events.
const (
	EventUploadIndexed EventType = "upload.indexed"
	EventUploadFailed  EventType = "upload.failed"
	EventUploadDeleted EventType = "upload.deleted"
)

// UploadEvent is published when an upload changes state.
type UploadEvent struct {
	Type      EventType `json:"type"`
	UploadID  string    `json:"upload_id"`
	Filename  string    `json:"filename,omitempty"`
	Chunks    int       `json:"chunks,omitempty"`
	Stage     Stage     `json:"stage,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
