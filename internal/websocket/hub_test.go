package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ai-notecopilot/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestSendToSessionReachesOnlyThatSession(t *testing.T) {
	hub := runHub(t)
	mine := &Client{Hub: hub, SessionID: "a", Send: make(chan []byte, 4)}
	other := &Client{Hub: hub, SessionID: "b", Send: make(chan []byte, 4)}
	hub.register <- mine
	hub.register <- other

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 2
	}, time.Second, 5*time.Millisecond)

	hub.SendToSession("a", "log", map[string]string{"type": "appended"})

	select {
	case data := <-mine.Send:
		var env Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		assert.Equal(t, "log", env.Type)
		assert.Equal(t, "a", env.SessionID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
	assert.Empty(t, other.Send)
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := runHub(t)
	slow := &Client{Hub: hub, SessionID: "a", Send: make(chan []byte, 1)}
	hub.register <- slow

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients["a"]) == 1
	}, time.Second, 5*time.Millisecond)

	hub.SendToSession("a", "log", "one")
	hub.SendToSession("a", "log", "two")

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients["a"]) == 0
	}, time.Second, 5*time.Millisecond)

	<-slow.Send
	_, open := <-slow.Send
	assert.False(t, open)
}
