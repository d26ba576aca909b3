// Package events provides upload lifecycle event publishers.
package events

import (
	"context"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

// Ensure NopPublisher implements the interface.
var _ driven.EventPublisher = NopPublisher{}

// NopPublisher discards events. It is used when no broker is configured.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, domain.UploadEvent) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }
