// Package nats publishes upload lifecycle events to NATS subjects of the
// form <prefix>.<event type>, e.g. sheetrag.upload.indexed.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
	"github.com/custodia-labs/sheetrag/internal/logger"
)

// Ensure Publisher implements the interface.
var _ driven.EventPublisher = (*Publisher)(nil)

// DefaultPrefix is used when no subject prefix is configured.
const DefaultPrefix = "sheetrag"

// Publisher sends UploadEvents as JSON messages.
type Publisher struct {
	conn   *nats.Conn
	prefix string
}

// NewPublisher connects to url. The connection retries in the background
// so a broker that starts later is picked up.
func NewPublisher(url, prefix string) (*Publisher, error) {
	if url == "" {
		return nil, fmt.Errorf("nats: URL is required")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}

	opts := []nats.Option{
		nats.Name("sheetrag"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Publisher{conn: nc, prefix: strings.TrimSuffix(prefix, ".")}, nil
}

// Subject returns the subject an event type is published on.
func (p *Publisher) Subject(t domain.EventType) string {
	return Subject(p.prefix, t)
}

// Subject joins prefix and event type.
func Subject(prefix string, t domain.EventType) string {
	return prefix + "." + string(t)
}

// Publish encodes event and publishes it.
func (p *Publisher) Publish(ctx context.Context, event domain.UploadEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(p.Subject(event.Type), payload); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

// Subscribe delivers every upload event under the prefix to handler until
// ctx is cancelled. Messages that fail to decode are logged and skipped.
func (p *Publisher) Subscribe(ctx context.Context, handler func(domain.UploadEvent)) error {
	sub, err := p.conn.Subscribe(p.prefix+".>", func(msg *nats.Msg) {
		var event domain.UploadEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.Warn("skipping undecodable event on %s: %v", msg.Subject, err)
			return
		}
		handler(event)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	<-ctx.Done()
	_ = sub.Unsubscribe()
	return nil
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return fmt.Errorf("nats drain: %w", err)
	}
	return nil
}
