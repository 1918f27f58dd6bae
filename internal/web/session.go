package web

import (
	"sync"

	"github.com/petasbytes/go-chat/memory"
)

// Session is the single live conversation shown by the UI. Every action
// holds mu for its whole duration, so actions never interleave.
type Session struct {
	mu             sync.Mutex
	history        memory.History
	contextEnabled bool
	status         string
}

func NewSession(history memory.History, contextEnabled bool) *Session {
	if history == nil {
		history = memory.History{}
	}
	return &Session{history: history, contextEnabled: contextEnabled}
}

// SessionView is a point-in-time copy of a Session.
type SessionView struct {
	History        memory.History
	ContextEnabled bool
	Status         string
}

func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionView{
		History:        append(memory.History{}, s.history...),
		ContextEnabled: s.contextEnabled,
		Status:         s.status,
	}
}
