package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteDetails is the customer-facing header of a quotation.
type QuoteDetails struct {
	CustomerName   string `json:"customerName"`
	Attention      string `json:"attention"`
	ProjectName    string `json:"projectName"`
	QuoteNumber    string `json:"quoteNumber"`
	Date           string `json:"date"` // YYYY-MM-DD
	ProjectSummary string `json:"projectSummary"`
}

// PreparedBy identifies the sales operator signing the quotation.
type PreparedBy struct {
	Name     string `json:"name"`
	JobTitle string `json:"jobTitle"`
	Branch   string `json:"branch"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// SavedQuote is the persisted form of a quote session: header fields plus the line items
// in canonical (manual) order.
type SavedQuote struct {
	ID           string
	Details      QuoteDetails
	PreparedBy   PreparedBy
	GlobalMargin decimal.Decimal
	SortKey      string
	Items        []LineItem
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SavedQuoteHeader is a lightweight listing entry.
type SavedQuoteHeader struct {
	ID           string
	QuoteNumber  string
	CustomerName string
	ProjectName  string
	ItemCount    int
	UpdatedAt    time.Time
}
