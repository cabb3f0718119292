package repository

import (
	"context"

	"github.com/jhoicas/quote-builder/internal/domain/entity"
)

// QuoteRepository is the persistence port for saved quotes. Line items are stored as flat
// records in canonical order.
type QuoteRepository interface {
	// Save inserts or replaces the quote and all of its line items atomically.
	Save(ctx context.Context, q *entity.SavedQuote) error
	// GetByID returns nil, nil when the quote does not exist.
	GetByID(ctx context.Context, id string) (*entity.SavedQuote, error)
	List(ctx context.Context, limit, offset int) ([]*entity.SavedQuoteHeader, error)
}
