// Package session holds the server-side login state keyed by the
// session id carried in the client cookie.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// Session is the per-client login state. Guards read it; the login and
// logout handlers are the only writers.
type Session struct {
	Authenticated bool
	IsAdmin       bool
}

// Store is the session state capability handlers depend on.
type Store interface {
	// Resolve returns the session for the given id, creating a fresh
	// one (under a new id) when the id is empty, unknown, or expired.
	Resolve(id string) (Session, string)
	// Put replaces the session stored under the id.
	Put(id string, s Session)
	// Destroy removes the session.
	Destroy(id string) error
}

type entry struct {
	session   Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]entry
}

// NewMemoryStore constructs a store whose sessions expire after ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]entry),
	}
}

func (m *MemoryStore) Resolve(id string) (Session, string) {
	if id != "" {
		m.mu.RLock()
		e, ok := m.sessions[id]
		m.mu.RUnlock()
		if ok && time.Now().Before(e.expiresAt) {
			return e.session, id
		}
		if ok {
			// Expired entries behave as absent.
			m.mu.Lock()
			delete(m.sessions, id)
			m.mu.Unlock()
		}
	}

	newID := newSessionID()
	fresh := Session{}
	m.mu.Lock()
	m.sessions[newID] = entry{session: fresh, expiresAt: time.Now().Add(m.ttl)}
	m.mu.Unlock()
	return fresh, newID
}

func (m *MemoryStore) Put(id string, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		e = entry{expiresAt: time.Now().Add(m.ttl)}
	}
	e.session = s
	m.sessions[id] = e
}

func (m *MemoryStore) Destroy(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports the number of live entries. Used by tests.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func newSessionID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(buf[:])
}
