package formset

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
)

// Session is the per-client state of a live handler: its own copy of the
// page and the events recorded since the last response
type Session struct {
	ID string

	mu     sync.Mutex
	page   *Page
	events []EventRecord
	errors map[string]string
}

// EventRecord is the serializable form of an Event
type EventRecord struct {
	Name    string `json:"name"`
	Formset string `json:"formset"`
	Form    string `json:"form"`
}

// Page returns the session page. Callers must hold the session lock
// through Do when mutating it.
func (s *Session) Page() *Page { return s.page }

// Do runs fn with exclusive access to the session
func (s *Session) Do(fn func(p *Page) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.page)
}

func (s *Session) record(ev Event) {
	s.events = append(s.events, EventRecord{
		Name:    ev.Kind.String(),
		Formset: ev.Formset.Prefix(),
		Form:    ev.Form.Prefix(),
	})
}

// drainEvents returns and clears the recorded events; caller holds s.mu
func (s *Session) drainEvents() []EventRecord {
	events := s.events
	s.events = nil
	return events
}

func (s *Session) setError(field, message string) {
	s.errors[field] = message
}

func (s *Session) clearErrors() {
	s.errors = make(map[string]string)
}

func (s *Session) getErrors() map[string]string {
	result := make(map[string]string, len(s.errors))
	for k, v := range s.errors {
		result[k] = v
	}
	return result
}

// SessionStore manages live sessions for HTTP clients
type SessionStore interface {
	Get(sessionID string) *Session
	Set(sessionID string, session *Session)
	Delete(sessionID string)
}

// MemorySessionStore is a simple in-memory session store
type MemorySessionStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewMemorySessionStore creates a new in-memory session store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*Session),
	}
}

// Get retrieves a session
func (s *MemorySessionStore) Get(sessionID string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sessionID]
}

// Set stores a session
func (s *MemorySessionStore) Set(sessionID string, session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = session
}

// Delete removes a session
func (s *MemorySessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Len returns the number of stored sessions
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func generateSessionID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return "fs-" + hex.EncodeToString(b)
}
