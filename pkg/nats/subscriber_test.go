package nats

import (
	"context"
	"testing"
	"time"

	"ai-notecopilot/internal/pkg/logger"
	"ai-notecopilot/pkg/events"
	"ai-notecopilot/pkg/rag/command"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectAndDurableAreScopedToSession(t *testing.T) {
	assert.Equal(t, "triggers.abc", Subject("abc"))
	assert.Equal(t, "copilot-abc", durableFor("abc"))
	assert.NotEqual(t, durableFor("a"), durableFor("b"))
}

func TestForwarderDeliversTriggers(t *testing.T) {
	f := newForwarder("s1", logger.NewNopLogger())
	want := command.Trigger{Name: command.Translate, Selection: "hola", Param: "English"}

	done := make(chan error, 1)
	go func() { done <- f.handle(context.Background(), events.NewTriggerFired("s1", want)) }()

	select {
	case got := <-f.out:
		assert.Equal(t, want, got)
	case <-time.After(time.Second):
		t.Fatal("trigger was not forwarded")
	}
	require.NoError(t, <-done)
}

func TestForwarderAcksEventsItCannotUse(t *testing.T) {
	f := newForwarder("s1", logger.NewNopLogger())

	err := f.handle(context.Background(), events.BaseEvent{Type: "USER_LOGIN"})
	assert.NoError(t, err)
	assert.Len(t, f.out, 0)
}

func TestForwarderRefusesAfterClose(t *testing.T) {
	f := newForwarder("s1", logger.NewNopLogger())
	f.close()
	f.close()

	_, open := <-f.out
	assert.False(t, open)

	err := f.handle(context.Background(), events.NewTriggerFired("s1", command.Trigger{Name: command.Translate}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForwarderGivesUpWhenNobodyReads(t *testing.T) {
	f := newForwarder("s1", logger.NewNopLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := f.handle(ctx, events.NewTriggerFired("s1", command.Trigger{Name: command.Translate}))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
