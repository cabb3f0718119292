package quote

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/quote-builder/internal/domain/entity"
	"github.com/jhoicas/quote-builder/internal/domain/pricing"
)

// Session is one quote being edited. It carries the global margin default explicitly:
// every row it creates and every bulk margin update reads it from here.
type Session struct {
	ID         string
	Margin     decimal.Decimal
	Items      *Collection
	Details    entity.QuoteDetails
	PreparedBy entity.PreparedBy
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewSession starts an empty quote with the given default margin.
func NewSession(defaultMargin decimal.Decimal) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New().String(),
		Margin:    entity.ClampMargin(defaultMargin),
		Items:     NewCollection(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewRow returns a blank row stamped with the session's current margin.
func (s *Session) NewRow() entity.LineItem {
	return entity.NewLineItem(s.Margin)
}

// AppendBlank adds a blank row at the end and returns it.
func (s *Session) AppendBlank() entity.LineItem {
	row := s.NewRow()
	s.Items.Append(row)
	s.touch()
	return row
}

// InsertAbove adds a blank row above the displayed row at index.
func (s *Session) InsertAbove(index int) (entity.LineItem, bool) {
	row := s.NewRow()
	if !s.Items.InsertAbove(index, row) {
		return entity.LineItem{}, false
	}
	s.touch()
	return row, true
}

// InsertBelow adds a blank row below the displayed row at index.
func (s *Session) InsertBelow(index int) (entity.LineItem, bool) {
	row := s.NewRow()
	if !s.Items.InsertBelow(index, row) {
		return entity.LineItem{}, false
	}
	s.touch()
	return row, true
}

// SetGlobalMargin changes the default for new rows and applies it to every existing row.
func (s *Session) SetGlobalMargin(margin decimal.Decimal) {
	s.Margin = entity.ClampMargin(margin)
	s.Items.ApplyGlobalMargin(s.Margin)
	s.touch()
}

// Totals recomputes the quote totals from the current rows.
func (s *Session) Totals() pricing.Totals {
	return pricing.Sum(s.Items.Items())
}

// Touch records a modification time.
func (s *Session) Touch() { s.touch() }

func (s *Session) touch() { s.UpdatedAt = time.Now() }

// Snapshot returns the persistable form of the session.
func (s *Session) Snapshot() entity.SavedQuote {
	return entity.SavedQuote{
		ID:           s.ID,
		Details:      s.Details,
		PreparedBy:   s.PreparedBy,
		GlobalMargin: s.Margin,
		SortKey:      string(s.Items.SortKey()),
		Items:        s.Items.Items(),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// Restore rebuilds a session from its persisted form.
func Restore(saved entity.SavedQuote) *Session {
	s := &Session{
		ID:         saved.ID,
		Margin:     entity.ClampMargin(saved.GlobalMargin),
		Items:      NewCollection(saved.Items...),
		Details:    saved.Details,
		PreparedBy: saved.PreparedBy,
		CreatedAt:  saved.CreatedAt,
		UpdatedAt:  saved.UpdatedAt,
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	key, _ := ParseSortKey(saved.SortKey)
	s.Items.ApplySort(key)
	return s
}
