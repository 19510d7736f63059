package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// NATSPublisher publishes events as JSON messages on a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewNATSPublisher connects to url.
func NewNATSPublisher(url, subject string, logger *slog.Logger) (*NATSPublisher, error) {
	if subject == "" {
		return nil, fmt.Errorf("nats subject is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url,
		nats.Name("sitebuilder"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("NATS publisher connected", "url", url, "subject", subject)
	return &NATSPublisher{conn: conn, subject: subject, logger: logger}, nil
}

// PublishBuildCompleted publishes ev and waits for the server to acknowledge
// the flush or ctx to expire.
func (p *NATSPublisher) PublishBuildCompleted(ctx context.Context, ev *BuildCompleted) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	p.logger.Debug("Published build event", logfields.BuildID(ev.BuildID), logfields.Outcome(ev.Outcome))
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
