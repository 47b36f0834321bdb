package memory

import (
	"time"

	"ai-notecopilot/internal/entity"

	"github.com/patrickmn/go-cache"
)

// SessionRepository holds open copilot sessions. A session idle for longer
// than the TTL is closed and dropped.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(idleTTL time.Duration) *SessionRepository {
	if idleTTL <= 0 {
		idleTTL = time.Hour
	}
	c := cache.New(idleTTL, idleTTL/6)
	c.OnEvicted(func(_ string, v interface{}) {
		if s, ok := v.(*entity.CopilotSession); ok {
			s.Close()
		}
	})
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *entity.CopilotSession) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

// Get also pushes the session's expiry forward.
func (r *SessionRepository) Get(sessionID string) (*entity.CopilotSession, bool) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	s := x.(*entity.CopilotSession)
	r.cache.Set(sessionID, s, cache.DefaultExpiration)
	return s, true
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

func (r *SessionRepository) All() []*entity.CopilotSession {
	items := r.cache.Items()
	out := make([]*entity.CopilotSession, 0, len(items))
	for _, item := range items {
		if s, ok := item.Object.(*entity.CopilotSession); ok {
			out = append(out, s)
		}
	}
	return out
}

// Flush closes every session.
func (r *SessionRepository) Flush() {
	for _, s := range r.All() {
		r.cache.Delete(s.ID)
	}
}
