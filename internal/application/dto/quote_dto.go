package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/quote-builder/internal/domain/entity"
	"github.com/jhoicas/quote-builder/internal/domain/pricing"
)

// CreateQuoteRequest body for POST /api/quotes. GlobalMargin accepts a number or a numeric
// string; when absent the configured default applies.
type CreateQuoteRequest struct {
	Details      entity.QuoteDetails `json:"details"`
	PreparedBy   entity.PreparedBy   `json:"preparedBy"`
	GlobalMargin any                 `json:"globalMargin,omitempty"`
}

// UpdateDetailsRequest body for PUT /api/quotes/:id/details.
type UpdateDetailsRequest struct {
	Details    entity.QuoteDetails `json:"details"`
	PreparedBy *entity.PreparedBy  `json:"preparedBy,omitempty"`
}

// MarginRequest body for PUT /api/quotes/:id/margin.
type MarginRequest struct {
	Value any `json:"value"`
}

// SortRequest body for PUT /api/quotes/:id/sort. Key is none|manual|type|supplier.
type SortRequest struct {
	Key string `json:"key"`
}

// RowInput is a full-row edit coming from the editable grid. Numeric fields accept numbers
// or numeric strings; anything else becomes 0 (qty becomes 1).
type RowInput struct {
	Type            string `json:"type"`
	Qty             any    `json:"qty"`
	Supplier        string `json:"supplier"`
	CatalogNumber   string `json:"catalogNumber"`
	Description     string `json:"description"`
	CostPerUnit     any    `json:"costPerUnit"`
	DiscountPercent any    `json:"discountPercent"`
	MarginPercent   any    `json:"marginPercent"`
}

// RowView is a line item in displayed order with its derived pricing columns.
type RowView struct {
	Item int `json:"item"` // 1-based displayed position
	entity.LineItem
	Pricing          pricing.Line `json:"pricing"`
	UnitSellDisplay  string       `json:"unitSellDisplay"`
	LineSellDisplay  string       `json:"lineSellDisplay"`
	LineTotalDisplay string       `json:"lineTotalDisplay"`
}

// TotalsView customer-facing totals.
type TotalsView struct {
	SubtotalExTax     decimal.Decimal `json:"subtotalExTax"`
	GST               decimal.Decimal `json:"gst"`
	GrandTotal        decimal.Decimal `json:"grandTotal"`
	SubtotalDisplay   string          `json:"subtotalDisplay"`
	GSTDisplay        string          `json:"gstDisplay"`
	GrandTotalDisplay string          `json:"grandTotalDisplay"`
}

// CostSummary is the operator's cost basis. It never reaches the customer document.
type CostSummary struct {
	TotalCostPreMargin     decimal.Decimal `json:"totalCostPreMargin"`
	GrossProfit            decimal.Decimal `json:"grossProfit"`
	EffectiveMarginPercent decimal.Decimal `json:"effectiveMarginPercent"`
}

// QuoteView is the editing view of a quote session.
type QuoteView struct {
	ID           string              `json:"id"`
	Details      entity.QuoteDetails `json:"details"`
	PreparedBy   entity.PreparedBy   `json:"preparedBy"`
	GlobalMargin decimal.Decimal     `json:"globalMargin"`
	SortKey      string              `json:"sortKey"`
	Manual       bool                `json:"manual"`
	Busy         bool                `json:"busy"`
	Rows         []RowView           `json:"rows"`
	Totals       TotalsView          `json:"totals"`
	Cost         CostSummary         `json:"cost"`
}

// FinalRow is one row of the customer document.
type FinalRow struct {
	Item          int             `json:"item"`
	Type          string          `json:"type"`
	Qty           decimal.Decimal `json:"qty"`
	Brand         string          `json:"brand"`
	CatalogNumber string          `json:"catalogNumber"`
	Description   string          `json:"description"`
	UnitExGST     decimal.Decimal `json:"unitExGst"`
	TotalExGST    decimal.Decimal `json:"totalExGst"`
	UnitDisplay   string          `json:"unitDisplay"`
	TotalDisplay  string          `json:"totalDisplay"`
}

// FinalQuote is everything the document renderer receives. It carries no cost, discount,
// margin or cost-basis field.
type FinalQuote struct {
	Details    entity.QuoteDetails `json:"details"`
	PreparedBy entity.PreparedBy   `json:"preparedBy"`
	Rows       []FinalRow          `json:"rows"`
	GSTRate    decimal.Decimal     `json:"gstRate"`
	Totals     TotalsView          `json:"totals"`
	Conditions string              `json:"conditions"`
}

// SourceOutcome reports what happened to one source of an extraction pass. Coerced counts
// rows that needed repair to fit the row shape.
type SourceOutcome struct {
	Source  string `json:"source"`
	Rows    int    `json:"rows"`
	Coerced int    `json:"coerced,omitempty"`
	Stage   string `json:"stage,omitempty"`
	Failed  bool   `json:"failed"`
	Error   string `json:"error,omitempty"`
}

// ExtractionReport is the result of one extraction pass.
type ExtractionReport struct {
	ItemsAdded    int             `json:"itemsAdded"`
	FailedSources []string        `json:"failedSources"`
	Sources       []SourceOutcome `json:"sources"`
	Cancelled     bool            `json:"cancelled,omitempty"`
}

// SavedQuoteResponse listing entry for GET /api/saved-quotes.
type SavedQuoteResponse struct {
	ID           string `json:"id"`
	QuoteNumber  string `json:"quoteNumber"`
	CustomerName string `json:"customerName"`
	ProjectName  string `json:"projectName"`
	ItemCount    int    `json:"itemCount"`
	UpdatedAt    string `json:"updatedAt"`
}

// SavedQuoteListResponse paginated list of saved quotes.
type SavedQuoteListResponse struct {
	Items []SavedQuoteResponse `json:"items"`
	Page  PageResponse         `json:"page"`
}
