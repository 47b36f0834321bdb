package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"

	"ai-notecopilot/pkg/chat"

	"github.com/google/uuid"
)

var ErrCancelled = errors.New("generation cancelled")

type State string

const (
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// GenerationHandle is one in-flight model response. Every state change and
// every write to the streaming slot happens under mu, so once Cancel returns
// no further delta or commit can reach the log for this handle.
type GenerationHandle struct {
	id       uuid.UUID
	ctx      context.Context
	cancelFn context.CancelFunc
	log      *chat.Log
	done     chan struct{}

	mu      sync.Mutex
	state   State
	partial strings.Builder
	result  chat.Message
	err     error
}

func newHandle(parent context.Context, log *chat.Log) *GenerationHandle {
	ctx, cancel := context.WithCancel(parent)
	return &GenerationHandle{
		id:       uuid.New(),
		ctx:      ctx,
		cancelFn: cancel,
		log:      log,
		done:     make(chan struct{}),
		state:    StateRunning,
	}
}

func (h *GenerationHandle) ID() uuid.UUID { return h.id }

// Done is closed once the handle reaches a terminal state.
func (h *GenerationHandle) Done() <-chan struct{} { return h.done }

func (h *GenerationHandle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Partial is the text streamed so far. It is kept after cancellation even
// though it never reaches the log.
func (h *GenerationHandle) Partial() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.partial.String()
}

func (h *GenerationHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Wait blocks until the handle finishes or ctx ends.
func (h *GenerationHandle) Wait(ctx context.Context) (chat.Message, error) {
	select {
	case <-ctx.Done():
		return chat.Message{}, ctx.Err()
	case <-h.done:
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	switch h.state {
	case StateCompleted:
		return h.result, nil
	case StateFailed:
		return chat.Message{}, h.err
	default:
		return chat.Message{}, ErrCancelled
	}
}

// Cancel stops the generation and discards its streaming slot. It reports
// false when the handle had already finished.
func (h *GenerationHandle) Cancel() bool {
	return h.finish(StateCancelled, ErrCancelled)
}

func (h *GenerationHandle) cancelled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state != StateRunning
}

// appendDelta reports false once the handle may no longer write.
func (h *GenerationHandle) appendDelta(delta string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StateRunning {
		return false
	}
	h.partial.WriteString(delta)
	if !h.log.AppendStream(h.id, delta) {
		// Slot taken by someone else, e.g. the log was cleared
		h.terminate(StateCancelled, ErrCancelled)
		return false
	}
	return true
}

// commit turns the slot into a message.
func (h *GenerationHandle) commit() (chat.Message, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StateRunning {
		return chat.Message{}, false
	}
	msg, ok := h.log.CommitStream(h.id)
	if !ok {
		h.terminate(StateCancelled, ErrCancelled)
		return chat.Message{}, false
	}
	h.result = msg
	h.terminate(StateCompleted, nil)
	return msg, true
}

func (h *GenerationHandle) finish(state State, err error) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StateRunning {
		return false
	}
	h.log.DiscardStream(h.id)
	h.terminate(state, err)
	return true
}

// terminate must be called with mu held and state running.
func (h *GenerationHandle) terminate(state State, err error) {
	h.state = state
	h.err = err
	h.cancelFn()
	close(h.done)
}
