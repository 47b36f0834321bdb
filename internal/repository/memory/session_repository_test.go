package memory

import (
	"context"
	"testing"
	"time"

	"ai-notecopilot/internal/entity"
	"ai-notecopilot/internal/pkg/logger"
	"ai-notecopilot/pkg/chat"
	"ai-notecopilot/pkg/rag/conversation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(id string) (*entity.CopilotSession, context.Context) {
	log := chat.NewLog()
	s := &entity.CopilotSession{
		ID:         id,
		Log:        log,
		Controller: conversation.New(log, nil, nil, nil, conversation.DefaultConfig(), logger.NewNopLogger()),
		CreatedAt:  time.Now(),
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.SetStop(cancel)
	return s, ctx
}

func TestSessionRepositoryDeleteClosesSession(t *testing.T) {
	repo := NewSessionRepository(time.Minute)
	s, loops := newSession("a")
	repo.Save(s)

	got, ok := repo.Get("a")
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.NoError(t, loops.Err())

	repo.Delete("a")
	_, ok = repo.Get("a")
	assert.False(t, ok)
	assert.ErrorIs(t, loops.Err(), context.Canceled)
}

func TestSessionRepositoryFlushClosesAll(t *testing.T) {
	repo := NewSessionRepository(time.Minute)
	a, aLoops := newSession("a")
	b, bLoops := newSession("b")
	repo.Save(a)
	repo.Save(b)
	assert.Len(t, repo.All(), 2)

	repo.Flush()

	assert.Empty(t, repo.All())
	assert.Error(t, aLoops.Err())
	assert.Error(t, bLoops.Err())
}
