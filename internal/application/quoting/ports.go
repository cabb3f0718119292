package quoting

import (
	"context"

	"github.com/jhoicas/quote-builder/internal/application/dto"
)

// QuoteExporter renders the customer-facing quote into a downloadable document.
// It only ever receives a FinalQuote, so cost and margin data cannot leak into it.
type QuoteExporter interface {
	ExportQuote(ctx context.Context, q *dto.FinalQuote) ([]byte, error)
	// ContentType is the MIME type of the produced document.
	ContentType() string
	// Extension is the file extension without the dot.
	Extension() string
}
