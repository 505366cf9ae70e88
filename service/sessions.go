package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sessions tracks which documents currently have an open diagram view, so
// recomputation triggered by file changes only runs for visible diagrams.
// A session is opened (or refreshed) by a model request and expires after
// the idle window.
type Sessions struct {
	mu   sync.RWMutex
	idle time.Duration
	byID map[string]*session
}

type session struct {
	uri      string
	lastSeen time.Time
}

// NewSessions creates a session registry with the given idle expiry.
func NewSessions(idle time.Duration) *Sessions {
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	return &Sessions{idle: idle, byID: make(map[string]*session)}
}

// Touch opens or refreshes the session for a document and returns its id.
func (s *Sessions) Touch(uri string) string {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.byID {
		if sess.uri == uri {
			sess.lastSeen = now
			return id
		}
	}
	id := uuid.New().String()
	s.byID[id] = &session{uri: uri, lastSeen: now}
	return id
}

// Close removes a session.
func (s *Sessions) Close(id string) {
	s.mu.Lock()
	delete(s.byID, id)
	s.mu.Unlock()
}

// Active reports whether any live session shows the document.
func (s *Sessions) Active(uri string) bool {
	cutoff := time.Now().Add(-s.idle)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.byID {
		if sess.uri == uri && sess.lastSeen.After(cutoff) {
			return true
		}
	}
	return false
}
