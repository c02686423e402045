// Package listener accepts connections, runs the server side of the
// greeting and LOGIN handshake, and owns the username -> session registry
// that the queue processor consults for local delivery.
package listener

import (
	"sync"

	"github.com/foxmoor/relaymail/lib/worker"
)

// SessionRegistry maps logged-in usernames to their active session. Setting
// a username that already has a session evicts and disconnects the old one,
// so a user can only ever be connected once at a time.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*worker.Session
}

// NewSessionRegistry builds an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*worker.Session)}
}

// Get looks up the session for username.
func (r *SessionRegistry) Get(username string) (*worker.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[username]
	return s, ok
}

// Set installs session as the active session for username, disconnecting
// and discarding whatever session previously held that username.
func (r *SessionRegistry) Set(username string, session *worker.Session) {
	r.mu.Lock()
	old := r.sessions[username]
	r.sessions[username] = session
	r.mu.Unlock()

	if old != nil {
		old.Disconnect()
	}
}

// Delete removes username from the registry if session is still the
// current holder (avoids deleting a newer session that replaced it).
func (r *SessionRegistry) Delete(username string, session *worker.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[username] == session {
		delete(r.sessions, username)
	}
}

// Range calls fn for every currently registered session.
func (r *SessionRegistry) Range(fn func(username string, session *worker.Session)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for u, s := range r.sessions {
		fn(u, s)
	}
}
