// Package quote holds the ordered, mutable list of line items of a quotation and the
// session that owns it.
//
// The canonical order of a Collection is the manual order chosen by the operator. A sort
// key only changes the displayed projection; selecting SortNone again shows the last manual
// order. Index arguments always refer to the displayed order and are resolved to row
// identities before touching the canonical slice. Invalid indexes and unknown ids are
// no-ops.
package quote

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jhoicas/quote-builder/internal/domain/entity"
)

// SortKey selects the displayed ordering. It doubles as the ordering-mode state:
// SortNone is Manual, SortType is SortedByType, SortSupplier is SortedBySupplier.
type SortKey string

const (
	SortNone     SortKey = "none"
	SortType     SortKey = "type"
	SortSupplier SortKey = "supplier"
)

// ParseSortKey accepts "none", "manual", "" (all Manual), "type" and "supplier",
// case-insensitively.
func ParseSortKey(s string) (SortKey, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "manual":
		return SortNone, true
	case "type":
		return SortType, true
	case "supplier":
		return SortSupplier, true
	}
	return SortNone, false
}

// Collection is the ordered list of line items of one quote.
type Collection struct {
	items   []entity.LineItem
	sortKey SortKey
}

// NewCollection builds a collection in the given manual order.
func NewCollection(items ...entity.LineItem) *Collection {
	c := &Collection{sortKey: SortNone}
	c.Append(items...)
	return c
}

// Len returns the number of rows.
func (c *Collection) Len() int { return len(c.items) }

// SortKey returns the active display ordering.
func (c *Collection) SortKey() SortKey { return c.sortKey }

// Manual reports whether the displayed order is the canonical order.
func (c *Collection) Manual() bool { return c.sortKey == SortNone }

// Items returns a copy of the rows in canonical (manual) order.
func (c *Collection) Items() []entity.LineItem {
	return slices.Clone(c.items)
}

// Displayed returns a copy of the rows in the currently displayed order.
func (c *Collection) Displayed() []entity.LineItem {
	order := c.displayOrder()
	out := make([]entity.LineItem, len(order))
	for i, pos := range order {
		out[i] = c.items[pos]
	}
	return out
}

// Get returns the row with the given id.
func (c *Collection) Get(id string) (entity.LineItem, bool) {
	pos := c.position(id)
	if pos < 0 {
		return entity.LineItem{}, false
	}
	return c.items[pos], true
}

// IDAt resolves a displayed index to a row id.
func (c *Collection) IDAt(displayIndex int) (string, bool) {
	order := c.displayOrder()
	if displayIndex < 0 || displayIndex >= len(order) {
		return "", false
	}
	return c.items[order[displayIndex]].ID, true
}

// Append adds rows at the end of the manual order.
func (c *Collection) Append(rows ...entity.LineItem) {
	for _, r := range rows {
		c.items = append(c.items, r.Normalized())
	}
}

// InsertAbove inserts row directly before the row shown at displayIndex.
func (c *Collection) InsertAbove(displayIndex int, row entity.LineItem) bool {
	id, ok := c.IDAt(displayIndex)
	if !ok {
		return false
	}
	return c.InsertAboveID(id, row)
}

// InsertBelow inserts row directly after the row shown at displayIndex.
func (c *Collection) InsertBelow(displayIndex int, row entity.LineItem) bool {
	id, ok := c.IDAt(displayIndex)
	if !ok {
		return false
	}
	return c.InsertBelowID(id, row)
}

// InsertAboveID inserts row before the row identified by id in the manual order.
func (c *Collection) InsertAboveID(id string, row entity.LineItem) bool {
	pos := c.position(id)
	if pos < 0 {
		return false
	}
	c.items = slices.Insert(c.items, pos, row.Normalized())
	return true
}

// InsertBelowID inserts row after the row identified by id in the manual order.
func (c *Collection) InsertBelowID(id string, row entity.LineItem) bool {
	pos := c.position(id)
	if pos < 0 {
		return false
	}
	c.items = slices.Insert(c.items, pos+1, row.Normalized())
	return true
}

// Delete removes the row shown at displayIndex.
func (c *Collection) Delete(displayIndex int) bool {
	id, ok := c.IDAt(displayIndex)
	if !ok {
		return false
	}
	return c.DeleteID(id)
}

// DeleteID removes the row identified by id.
func (c *Collection) DeleteID(id string) bool {
	pos := c.position(id)
	if pos < 0 {
		return false
	}
	c.items = slices.Delete(c.items, pos, pos+1)
	return true
}

// MoveUp swaps the row shown at displayIndex with the row displayed above it.
func (c *Collection) MoveUp(displayIndex int) bool {
	return c.swapDisplayed(displayIndex, displayIndex-1)
}

// MoveDown swaps the row shown at displayIndex with the row displayed below it.
func (c *Collection) MoveDown(displayIndex int) bool {
	return c.swapDisplayed(displayIndex, displayIndex+1)
}

// MoveUpID moves the identified row one displayed position up.
func (c *Collection) MoveUpID(id string) bool {
	i := c.displayIndex(id)
	if i < 0 {
		return false
	}
	return c.MoveUp(i)
}

// MoveDownID moves the identified row one displayed position down.
func (c *Collection) MoveDownID(id string) bool {
	i := c.displayIndex(id)
	if i < 0 {
		return false
	}
	return c.MoveDown(i)
}

// Replace overwrites every field of the identified row with row. The stored id is kept;
// id only selects the row and is never retained.
func (c *Collection) Replace(id string, row entity.LineItem) bool {
	pos := c.position(id)
	if pos < 0 {
		return false
	}
	row.ID = c.items[pos].ID
	c.items[pos] = row.Normalized()
	return true
}

// ApplySort switches the displayed ordering. The manual order is left untouched.
func (c *Collection) ApplySort(key SortKey) {
	switch key {
	case SortType, SortSupplier:
		c.sortKey = key
	default:
		c.sortKey = SortNone
	}
}

// ApplyGlobalMargin sets marginPercent on every row.
func (c *Collection) ApplyGlobalMargin(margin decimal.Decimal) {
	m := entity.ClampMargin(margin)
	for i := range c.items {
		c.items[i].MarginPercent = m
	}
}

func (c *Collection) swapDisplayed(from, to int) bool {
	order := c.displayOrder()
	if from < 0 || from >= len(order) || to < 0 || to >= len(order) {
		return false
	}
	a, b := order[from], order[to]
	c.items[a], c.items[b] = c.items[b], c.items[a]
	return true
}

// displayOrder returns canonical positions in displayed order. Keys compare as English text
// ignoring case and accents. The sort is stable, so rows with equal keys keep their manual
// order and re-applying a key is idempotent.
func (c *Collection) displayOrder() []int {
	order := make([]int, len(c.items))
	for i := range order {
		order[i] = i
	}
	if c.sortKey == SortNone {
		return order
	}
	key := func(li entity.LineItem) string {
		if c.sortKey == SortSupplier {
			return strings.TrimSpace(li.Supplier)
		}
		return strings.TrimSpace(li.Type)
	}
	// A Collator is not safe for concurrent use; each projection builds its own.
	col := collate.New(language.English, collate.IgnoreCase, collate.IgnoreDiacritics)
	slices.SortStableFunc(order, func(a, b int) int {
		return col.CompareString(key(c.items[a]), key(c.items[b]))
	})
	return order
}

func (c *Collection) position(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(c.items, func(li entity.LineItem) bool { return li.ID == id })
}

func (c *Collection) displayIndex(id string) int {
	pos := c.position(id)
	if pos < 0 {
		return -1
	}
	return slices.Index(c.displayOrder(), pos)
}
