// Package trigger carries selection commands from the editor to a session's
// dispatcher loop over watermill's in-process pub/sub.
package trigger

import (
	"context"
	"fmt"

	"ai-notecopilot/internal/pkg/logger"
	"ai-notecopilot/pkg/events"
	"ai-notecopilot/pkg/rag/command"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const topicPrefix = "triggers."

func Topic(sessionID string) string {
	return topicPrefix + sessionID
}

type Bus struct {
	pubSub *gochannel.GoChannel
	logger logger.ILogger
}

func NewBus(pubSub *gochannel.GoChannel, log logger.ILogger) *Bus {
	return &Bus{pubSub: pubSub, logger: log}
}

// NewGoChannel builds the pub/sub the host wires. Publish returns once the
// session loop has taken the trigger, so sequential publishes stay ordered.
func NewGoChannel() *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		BlockPublishUntilSubscriberAck: true,
	}, watermill.NewStdLogger(false, false))
}

func (b *Bus) Publish(sessionID string, t command.Trigger) error {
	payload, err := events.Marshal(events.NewTriggerFired(sessionID, t))
	if err != nil {
		return fmt.Errorf("failed to encode trigger: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubSub.Publish(Topic(sessionID), msg); err != nil {
		return fmt.Errorf("failed to publish trigger %s: %w", t.Name, err)
	}
	return nil
}

// Close ends every open session subscription.
func (b *Bus) Close() error {
	return b.pubSub.Close()
}

// Source returns the command.Source reading the session's topic.
func (b *Bus) Source(sessionID string) command.Source {
	return &busSource{bus: b, sessionID: sessionID}
}

type busSource struct {
	bus       *Bus
	sessionID string
}

func (s *busSource) Subscribe(ctx context.Context) (<-chan command.Trigger, error) {
	messages, err := s.bus.pubSub.Subscribe(ctx, Topic(s.sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", Topic(s.sessionID), err)
	}

	out := make(chan command.Trigger)
	go func() {
		defer close(out)
		for msg := range messages {
			t, ok := s.decode(msg)
			if !ok {
				continue
			}
			select {
			case out <- t:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
				return
			}
		}
	}()
	return out, nil
}

func (s *busSource) decode(msg *message.Message) (command.Trigger, bool) {
	ev, err := events.Unmarshal(msg.Payload)
	if err == nil {
		var sessionID string
		var t command.Trigger
		sessionID, t, err = events.TriggerFrom(ev)
		if err == nil && sessionID == s.sessionID {
			return t, true
		}
	}

	s.bus.logger.Warn("TriggerBus", "Dropping malformed trigger", map[string]interface{}{
		"session_id": s.sessionID,
		"message_id": msg.UUID,
		"error":      fmt.Sprint(err),
	})
	// Ack invalid messages to prevent redelivery
	msg.Ack()
	return command.Trigger{}, false
}
