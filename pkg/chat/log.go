// Package chat holds the ordered conversation log rendered to the user and replayed
// into grounding context, plus the single streaming slot for the in-flight reply.
package chat

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is immutable once appended.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	Visible   bool      `json:"visible"`
	CreatedAt time.Time `json:"created_at"`
}

func NewMessage(sender Sender, content string, visible bool) Message {
	return Message{
		ID:        uuid.New(),
		Sender:    sender,
		Content:   content,
		Visible:   visible,
		CreatedAt: time.Now(),
	}
}

type EventType string

const (
	EventAppended        EventType = "appended"
	EventStreamStarted   EventType = "stream_started"
	EventStreamDelta     EventType = "stream_delta"
	EventStreamDiscarded EventType = "stream_discarded"
	EventStreamCommitted EventType = "stream_committed"
	EventCleared         EventType = "cleared"
)

// Event is delivered to observers in the order the log changed.
type Event struct {
	Type    EventType `json:"type"`
	Message *Message  `json:"message,omitempty"`
	Owner   uuid.UUID `json:"owner,omitempty"`
	Delta   string    `json:"delta,omitempty"`
	// Streaming is the whole slot content after a delta
	Streaming string `json:"streaming,omitempty"`
}

type Observer func(Event)

type streamSlot struct {
	owner   uuid.UUID
	content strings.Builder
}

// Log is safe for concurrent use. Observers run while the log's lock is held so
// they see events in order; they must not call back into the log.
type Log struct {
	mu        sync.Mutex
	messages  []Message
	slot      *streamSlot
	observers map[int]Observer
	nextObsID int
}

func NewLog() *Log {
	return &Log{observers: make(map[int]Observer)}
}

// Subscribe registers a read-only observer and returns its unsubscribe function.
func (l *Log) Subscribe(fn Observer) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextObsID
	l.nextObsID++
	l.observers[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.observers, id)
	}
}

func (l *Log) emit(ev Event) {
	for _, fn := range l.observers {
		fn(ev)
	}
}

func (l *Log) Append(msg Message) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, msg)
	m := msg
	l.emit(Event{Type: EventAppended, Message: &m})
}

// Messages returns a copy of the full history, invisible messages included.
func (l *Log) Messages() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *Log) Visible() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Message, 0, len(l.messages))
	for _, m := range l.messages {
		if m.Visible {
			out = append(out, m)
		}
	}
	return out
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

// Last returns up to n of the most recent messages in log order.
func (l *Log) Last(n int) []Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 {
		return nil
	}
	start := len(l.messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]Message, len(l.messages)-start)
	copy(out, l.messages[start:])
	return out
}

// Streaming reports the current slot, if any.
func (l *Log) Streaming() (uuid.UUID, string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.slot == nil {
		return uuid.Nil, "", false
	}
	return l.slot.owner, l.slot.content.String(), true
}

// BeginStream opens the slot for owner. A previous slot is dropped and its owner
// loses write access.
func (l *Log) BeginStream(owner uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.slot != nil {
		prev := l.slot.owner
		l.slot = nil
		l.emit(Event{Type: EventStreamDiscarded, Owner: prev})
	}
	l.slot = &streamSlot{owner: owner}
	l.emit(Event{Type: EventStreamStarted, Owner: owner})
}

func (l *Log) AppendStream(owner uuid.UUID, delta string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.slot == nil || l.slot.owner != owner {
		return false
	}
	l.slot.content.WriteString(delta)
	l.emit(Event{Type: EventStreamDelta, Owner: owner, Delta: delta, Streaming: l.slot.content.String()})
	return true
}

// CommitStream turns owner's slot into a visible assistant message.
func (l *Log) CommitStream(owner uuid.UUID) (Message, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.slot == nil || l.slot.owner != owner {
		return Message{}, false
	}
	msg := NewMessage(SenderAssistant, l.slot.content.String(), true)
	l.slot = nil
	l.messages = append(l.messages, msg)
	m := msg
	l.emit(Event{Type: EventStreamCommitted, Owner: owner, Message: &m})
	return msg, true
}

func (l *Log) DiscardStream(owner uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.slot == nil || l.slot.owner != owner {
		return false
	}
	l.slot = nil
	l.emit(Event{Type: EventStreamDiscarded, Owner: owner})
	return true
}

// Clear drops every message and the streaming slot in one step.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = nil
	l.slot = nil
	l.emit(Event{Type: EventCleared})
}
