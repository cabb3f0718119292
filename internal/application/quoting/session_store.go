package quoting

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/quote-builder/internal/domain"
	"github.com/jhoicas/quote-builder/internal/domain/entity"
	"github.com/jhoicas/quote-builder/internal/domain/quote"
)

type storeEntry struct {
	session *quote.Session
	busy    bool
}

// SessionStore keeps the quote sessions being edited. Every access goes through the store's
// mutex, so a session is only ever touched by one caller at a time. While an extraction
// pass holds a session busy, edits are rejected with domain.ErrExtractionInProgress and only
// the pass itself may append rows.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*storeEntry
}

// NewSessionStore builds an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*storeEntry)}
}

// Put registers s, replacing any session with the same id that is not busy.
func (st *SessionStore) Put(s *quote.Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if e, ok := st.sessions[s.ID]; ok && e.busy {
		return domain.ErrExtractionInProgress
	}
	st.sessions[s.ID] = &storeEntry{session: s}
	return nil
}

// View runs fn with read access to the session. Views are allowed during extraction.
func (st *SessionStore) View(id string, fn func(s *quote.Session, busy bool) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	return fn(e.session, e.busy)
}

// Update runs fn with write access to the session.
func (st *SessionStore) Update(id string, fn func(s *quote.Session) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	if e.busy {
		return domain.ErrExtractionInProgress
	}
	return fn(e.session)
}

// begin marks the session busy and returns the global margin extracted rows are stamped
// with. The margin cannot change until end is called.
func (st *SessionStore) begin(id string) (decimal.Decimal, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.sessions[id]
	if !ok {
		return decimal.Zero, domain.ErrNotFound
	}
	if e.busy {
		return decimal.Zero, domain.ErrExtractionInProgress
	}
	e.busy = true
	return e.session.Margin, nil
}

func (st *SessionStore) end(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if e, ok := st.sessions[id]; ok {
		e.busy = false
	}
}

// appendRows adds the rows of one fully normalized source in a single step.
func (st *SessionStore) appendRows(id string, rows []entity.LineItem) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.session.Items.Append(rows...)
	e.session.Touch()
	return nil
}
