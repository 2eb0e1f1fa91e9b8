package labourlaw

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/schema"
)

// Session holds the chat turns of one conversation.
type Session struct {
	ID        string        `json:"session_id"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Turns     []schema.Turn `json:"turns"`
}

// SessionStore is an abstraction for session persistence.
// Sessions handed out are snapshots; later turns do not show up in them.
type SessionStore interface {
	Create() *Session
	// GetOrCreate returns the session with id, creating an empty one under that id if absent.
	GetOrCreate(id string) *Session
	Get(id string) (*Session, bool)
	Delete(id string) bool
	// List returns every session, most recently updated first.
	List() []*Session
	// History returns a copy of the session's turns.
	History(id string) []schema.Turn
	AddTurns(id string, turns ...schema.Turn) bool
	// Clean keeps at most max sessions, most recently updated first.
	Clean(max int) error
}

// MemSessionStore manages sessions in memory.
type MemSessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewMemSessionStore() *MemSessionStore {
	return &MemSessionStore{sessions: make(map[string]*Session), now: time.Now}
}

func (m *MemSessionStore) Create() *Session {
	return m.GetOrCreate(newID())
}

func (m *MemSessionStore) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s.snapshot()
	}
	t := m.now()
	s := &Session{ID: id, CreatedAt: t, UpdatedAt: t, Turns: []schema.Turn{}}
	m.sessions[id] = s
	return s.snapshot()
}

func (m *MemSessionStore) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return s.snapshot(), true
}

func (m *MemSessionStore) Delete(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	return ok
}

func (m *MemSessionStore) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.snapshot())
	}
	m.mu.RUnlock()
	sortByRecency(out)
	return out
}

func (m *MemSessionStore) History(id string) []schema.Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	return append([]schema.Turn(nil), s.Turns...)
}

func (m *MemSessionStore) AddTurns(id string, turns ...schema.Turn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if ok {
		s.Turns = append(s.Turns, turns...)
		s.UpdatedAt = m.now()
	}
	return ok
}

func (m *MemSessionStore) Clean(max int) error {
	if max <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	if len(out) <= max {
		return nil
	}
	sortByRecency(out)
	for _, s := range out[max:] {
		delete(m.sessions, s.ID)
	}
	return nil
}

// snapshot copies s. Callers must hold the store lock.
func (s *Session) snapshot() *Session {
	c := *s
	c.Turns = append([]schema.Turn{}, s.Turns...)
	return &c
}

func sortByRecency(list []*Session) {
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
}

func newID() string { return uuid.New().String() }
