package nats

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ai-notecopilot/internal/pkg/logger"
	"ai-notecopilot/pkg/events"
	"ai-notecopilot/pkg/rag/command"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// consumerIdle lets the server reap a session consumer whose process died
// before it could delete it.
const consumerIdle = 15 * time.Minute

// EventHandler is a function that processes an event.
type EventHandler func(ctx context.Context, event events.Event) error

type Subscriber struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger logger.ILogger
}

func NewSubscriber(url string, log logger.ILogger) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	if err := ensureStream(js); err != nil {
		log.Warn("NatsSubscriber", "Failed to ensure trigger stream", map[string]interface{}{
			"stream": StreamName,
			"error":  err.Error(),
		})
	}
	return &Subscriber{nc: nc, js: js, logger: log}, nil
}

// Subscribe registers a handler on a durable consumer filtered to subject.
// JetStream calls the handler for one message at a time, so delivery order is
// publish order. The caller stops consumption through the returned context.
func (s *Subscriber) Subscribe(ctx context.Context, subject, durableName string, handler EventHandler) (jetstream.ConsumeContext, error) {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:         jetstream.AckExplicitPolicy,
		MaxAckPending:     1,
		InactiveThreshold: consumerIdle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		event, err := events.Unmarshal(msg.Data())
		if err != nil {
			s.logger.Error("NatsSubscriber", "Dropping undecodable event", map[string]interface{}{
				"subject": msg.Subject(),
				"error":   err.Error(),
			})
			// Ack invalid messages to prevent infinite retry
			_ = msg.Ack()
			return
		}

		if err := handler(ctx, event); err != nil {
			s.logger.Warn("NatsSubscriber", "Handler failed", map[string]interface{}{
				"subject": msg.Subject(),
				"error":   err.Error(),
			})
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	s.logger.Info("NatsSubscriber", "Subscribed", map[string]interface{}{
		"subject": subject,
		"durable": durableName,
	})
	return cc, nil
}

// Unsubscribe stops consumption and removes the durable consumer so the
// server does not keep one per finished session.
func (s *Subscriber) Unsubscribe(cc jetstream.ConsumeContext, durableName string) {
	cc.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.js.DeleteConsumer(ctx, StreamName, durableName); err != nil && !errors.Is(err, jetstream.ErrConsumerNotFound) {
		s.logger.Warn("NatsSubscriber", "Failed to delete consumer", map[string]interface{}{
			"durable": durableName,
			"error":   err.Error(),
		})
	}
}

// Source exposes a session's trigger subject as a command.Source.
func (s *Subscriber) Source(sessionID string) command.Source {
	return &triggerSource{sub: s, sessionID: sessionID}
}

func (s *Subscriber) Close() {
	if s.nc != nil {
		s.nc.Close()
	}
}

func durableFor(sessionID string) string {
	return "copilot-" + sessionID
}

type triggerSource struct {
	sub       *Subscriber
	sessionID string
}

func (t *triggerSource) Subscribe(ctx context.Context) (<-chan command.Trigger, error) {
	fwd := newForwarder(t.sessionID, t.sub.logger)
	durable := durableFor(t.sessionID)

	cc, err := t.sub.Subscribe(ctx, Subject(t.sessionID), durable, fwd.handle)
	if err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		t.sub.Unsubscribe(cc, durable)
		fwd.close()
	}()
	return fwd.out, nil
}

// forwarder hands decoded triggers to the session's channel. Once closed it
// refuses new ones so JetStream redelivers them to whoever subscribes next.
type forwarder struct {
	sessionID string
	logger    logger.ILogger
	out       chan command.Trigger

	mu     sync.Mutex
	closed bool
}

func newForwarder(sessionID string, log logger.ILogger) *forwarder {
	return &forwarder{sessionID: sessionID, logger: log, out: make(chan command.Trigger)}
}

func (f *forwarder) handle(ctx context.Context, ev events.Event) error {
	_, trig, err := events.TriggerFrom(ev)
	if err != nil {
		// Not retriable
		f.logger.Warn("NatsSubscriber", "Skipping non-trigger event", map[string]interface{}{
			"session_id": f.sessionID,
			"error":      err.Error(),
		})
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return context.Canceled
	}
	select {
	case f.out <- trig:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *forwarder) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	close(f.out)
}
