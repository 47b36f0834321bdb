package nats

import (
	"context"
	"fmt"

	"ai-notecopilot/internal/pkg/logger"
	"ai-notecopilot/pkg/events"
	"ai-notecopilot/pkg/rag/command"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher sends triggers to other copilot processes through JetStream.
type Publisher struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewPublisher(url string, log logger.ILogger) (*Publisher, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}

	if err := ensureStream(js); err != nil {
		// It may already exist with a different config; publishing still works
		log.Warn("NatsPublisher", "Failed to ensure trigger stream", map[string]interface{}{
			"stream": StreamName,
			"error":  err.Error(),
		})
	}

	return &Publisher{nc: nc, js: js}, nil
}

// Publish sends any event to subject with its type and timestamp embedded.
func (p *Publisher) Publish(ctx context.Context, subject string, event events.Event) error {
	data, err := events.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event to subject %s: %w", subject, err)
	}
	return nil
}

func (p *Publisher) PublishTrigger(ctx context.Context, sessionID string, t command.Trigger) error {
	return p.Publish(ctx, Subject(sessionID), events.NewTriggerFired(sessionID, t))
}

func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
