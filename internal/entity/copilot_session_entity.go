package entity

import (
	"context"
	"sync"
	"time"

	"ai-notecopilot/pkg/chat"
	"ai-notecopilot/pkg/rag/command"
	"ai-notecopilot/pkg/rag/conversation"
)

// CopilotSession is one open copilot pane: its log, controller and the
// dispatcher loop fed by trigger sources.
type CopilotSession struct {
	ID         string
	Log        *chat.Log
	Controller *conversation.Controller
	Dispatcher *command.Dispatcher
	CreatedAt  time.Time

	stopOnce sync.Once
	stop     context.CancelFunc
}

func (s *CopilotSession) SetStop(stop context.CancelFunc) {
	s.stop = stop
}

// Close stops the trigger loops and cancels any running generation.
func (s *CopilotSession) Close() {
	s.stopOnce.Do(func() {
		if s.stop != nil {
			s.stop()
		}
		s.Controller.CancelActiveGeneration()
	})
}
