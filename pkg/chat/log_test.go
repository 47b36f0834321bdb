package chat

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendKeepsInsertionOrder(t *testing.T) {
	log := NewLog()
	log.Append(NewMessage(SenderUser, "first", true))
	log.Append(NewMessage(SenderAssistant, "second", true))
	log.Append(NewMessage(SenderUser, "hidden", false))

	msgs := log.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
	assert.Equal(t, "hidden", msgs[2].Content)

	visible := log.Visible()
	require.Len(t, visible, 2)
	assert.Equal(t, "second", visible[1].Content)
}

func TestLast(t *testing.T) {
	log := NewLog()
	for _, c := range []string{"a", "b", "c", "d"} {
		log.Append(NewMessage(SenderUser, c, true))
	}

	tests := []struct {
		n    int
		want []string
	}{
		{0, nil},
		{2, []string{"c", "d"}},
		{10, []string{"a", "b", "c", "d"}},
	}
	for _, tt := range tests {
		got := log.Last(tt.n)
		var contents []string
		for _, m := range got {
			contents = append(contents, m.Content)
		}
		assert.Equal(t, tt.want, contents, "Last(%d)", tt.n)
	}
}

func TestStreamCommit(t *testing.T) {
	log := NewLog()
	owner := uuid.New()

	log.BeginStream(owner)
	assert.True(t, log.AppendStream(owner, "Hel"))
	assert.True(t, log.AppendStream(owner, "lo"))

	gotOwner, content, ok := log.Streaming()
	require.True(t, ok)
	assert.Equal(t, owner, gotOwner)
	assert.Equal(t, "Hello", content)

	msg, ok := log.CommitStream(owner)
	require.True(t, ok)
	assert.Equal(t, SenderAssistant, msg.Sender)
	assert.Equal(t, "Hello", msg.Content)
	assert.True(t, msg.Visible)

	_, _, ok = log.Streaming()
	assert.False(t, ok)
	assert.Equal(t, 1, log.Len())
}

func TestSupersededOwnerCannotWrite(t *testing.T) {
	log := NewLog()
	first, second := uuid.New(), uuid.New()

	log.BeginStream(first)
	log.AppendStream(first, "stale")
	log.BeginStream(second)

	assert.False(t, log.AppendStream(first, "more"))
	_, ok := log.CommitStream(first)
	assert.False(t, ok)
	assert.False(t, log.DiscardStream(first))

	owner, content, ok := log.Streaming()
	require.True(t, ok)
	assert.Equal(t, second, owner)
	assert.Empty(t, content)
	assert.Equal(t, 0, log.Len())
}

func TestDiscardLeavesLogUnchanged(t *testing.T) {
	log := NewLog()
	log.Append(NewMessage(SenderUser, "question", true))
	owner := uuid.New()

	log.BeginStream(owner)
	log.AppendStream(owner, "partial")
	assert.True(t, log.DiscardStream(owner))

	assert.Equal(t, 1, log.Len())
	_, _, ok := log.Streaming()
	assert.False(t, ok)
}

func TestClearResetsMessagesAndSlot(t *testing.T) {
	log := NewLog()
	log.Append(NewMessage(SenderUser, "x", true))
	owner := uuid.New()
	log.BeginStream(owner)

	log.Clear()

	assert.Equal(t, 0, log.Len())
	_, _, ok := log.Streaming()
	assert.False(t, ok)
	assert.False(t, log.AppendStream(owner, "late"))
}

func TestObserversSeeOrderedEvents(t *testing.T) {
	log := NewLog()

	var mu sync.Mutex
	var types []EventType
	unsubscribe := log.Subscribe(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		types = append(types, ev.Type)
	})

	owner := uuid.New()
	log.Append(NewMessage(SenderUser, "q", true))
	log.BeginStream(owner)
	log.AppendStream(owner, "a")
	log.CommitStream(owner)
	unsubscribe()
	log.Clear()

	assert.Equal(t, []EventType{
		EventAppended,
		EventStreamStarted,
		EventStreamDelta,
		EventStreamCommitted,
	}, types)
}
