package driven

import (
	"context"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
)

// EventPublisher announces upload lifecycle changes to other systems.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.UploadEvent) error
	Close() error
}
