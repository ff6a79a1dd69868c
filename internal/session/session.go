// Package session holds the identity gate: an opaque credential that unlocks
// the authenticated surface. Operations are total and make no network calls.
package session

import "sync"

// Store persists the credential across process restarts. Implementations must
// tolerate a missing credential (LoadToken returns "" without error).
type Store interface {
	LoadToken() (string, error)
	SaveToken(token string) error
	ClearToken() error
}

// Session gates access to protected data. It is safe for concurrent use and
// is passed explicitly to the components that need it.
type Session struct {
	mu    sync.Mutex
	store Store
	token string
}

// New creates a session backed by store, loading any persisted credential.
// A nil store yields an in-memory session.
func New(store Store) (*Session, error) {
	s := &Session{store: store}
	if store != nil {
		token, err := store.LoadToken()
		if err != nil {
			return nil, err
		}
		s.token = token
	}
	return s, nil
}

// Authenticated reports whether a credential is present.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

// Token returns the stored credential, or "" when unauthenticated.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetCredential stores and persists the credential.
func (s *Session) SetCredential(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	if s.store != nil {
		return s.store.SaveToken(token)
	}
	return nil
}

// ClearCredential removes the credential from memory and durable storage.
func (s *Session) ClearCredential() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	if s.store != nil {
		return s.store.ClearToken()
	}
	return nil
}
