package display

import (
	"sync"
	"time"
)

// ConnectionStatus is the display's view of upstream availability.
type ConnectionStatus string

const (
	StatusConnecting ConnectionStatus = "connecting"
	StatusConnected  ConnectionStatus = "connected"
	StatusError      ConnectionStatus = "error"
)

// Session is the explicit per-display-session context: connection state
// and the last surfaced failure. The poller owns its transitions; the
// HTTP handler only reads it.
type Session struct {
	mu         sync.RWMutex
	status     ConnectionStatus
	lastError  string
	lastSyncAt time.Time
}

func NewSession() *Session {
	return &Session{status: StatusConnecting}
}

func (s *Session) SetConnecting() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusConnecting
	s.lastError = ""
}

func (s *Session) SetConnected(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusConnected
	s.lastError = ""
	s.lastSyncAt = at
}

func (s *Session) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusError
	s.lastError = msg
}

// SessionState is the read-side value handed to clients.
type SessionState struct {
	Status     ConnectionStatus `json:"status"`
	LastError  string           `json:"last_error,omitempty"`
	LastSyncAt *time.Time       `json:"last_sync_at,omitempty"`
}

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := SessionState{
		Status:    s.status,
		LastError: s.lastError,
	}
	if !s.lastSyncAt.IsZero() {
		at := s.lastSyncAt
		state.LastSyncAt = &at
	}
	return state
}
