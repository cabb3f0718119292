package quoting

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/quote-builder/internal/application/dto"
	"github.com/jhoicas/quote-builder/internal/domain/pricing"
	"github.com/jhoicas/quote-builder/internal/domain/quote"
	"github.com/jhoicas/quote-builder/pkg/money"
)

var hundred = decimal.NewFromInt(100)

// buildView renders the editing view of s: rows in displayed order with their derived
// pricing, the customer totals and the internal cost summary.
func buildView(s *quote.Session, busy bool) *dto.QuoteView {
	displayed := s.Items.Displayed()
	rows := make([]dto.RowView, len(displayed))
	for i, it := range displayed {
		line := pricing.Calculate(it)
		rows[i] = dto.RowView{
			Item:             i + 1,
			LineItem:         it,
			Pricing:          line,
			UnitSellDisplay:  money.Format(line.UnitSellExTax),
			LineSellDisplay:  money.Format(line.LineSellExTax),
			LineTotalDisplay: money.Format(line.LineTotalIncTax),
		}
	}
	totals := s.Totals()
	return &dto.QuoteView{
		ID:           s.ID,
		Details:      s.Details,
		PreparedBy:   s.PreparedBy,
		GlobalMargin: s.Margin,
		SortKey:      string(s.Items.SortKey()),
		Manual:       s.Items.Manual(),
		Busy:         busy,
		Rows:         rows,
		Totals:       totalsView(totals),
		Cost:         costSummary(totals),
	}
}

func totalsView(t pricing.Totals) dto.TotalsView {
	return dto.TotalsView{
		SubtotalExTax:     t.SubtotalExTax,
		GST:               t.TaxTotal,
		GrandTotal:        t.GrandTotal,
		SubtotalDisplay:   money.Format(t.SubtotalExTax),
		GSTDisplay:        money.Format(t.TaxTotal),
		GrandTotalDisplay: money.Format(t.GrandTotal),
	}
}

// costSummary derives gross profit and the effective margin (profit over ex-tax sell).
func costSummary(t pricing.Totals) dto.CostSummary {
	profit := t.SubtotalExTax.Sub(t.TotalCostPreMargin)
	effective := decimal.Zero
	if t.SubtotalExTax.IsPositive() {
		effective = profit.Div(t.SubtotalExTax).Mul(hundred).Round(2)
	}
	return dto.CostSummary{
		TotalCostPreMargin:     t.TotalCostPreMargin,
		GrossProfit:            profit,
		EffectiveMarginPercent: effective,
	}
}

// buildFinal renders the customer document input. Only customer-facing fields are copied.
func buildFinal(s *quote.Session, validityDays int) *dto.FinalQuote {
	displayed := s.Items.Displayed()
	rows := make([]dto.FinalRow, len(displayed))
	for i, it := range displayed {
		line := pricing.Calculate(it)
		rows[i] = dto.FinalRow{
			Item:          i + 1,
			Type:          it.Type,
			Qty:           it.Qty,
			Brand:         it.Supplier,
			CatalogNumber: it.CatalogNumber,
			Description:   it.Description,
			UnitExGST:     line.UnitSellExTax.Round(2),
			TotalExGST:    line.LineSellExTax.Round(2),
			UnitDisplay:   money.Format(line.UnitSellExTax),
			TotalDisplay:  money.Format(line.LineSellExTax),
		}
	}
	return &dto.FinalQuote{
		Details:    s.Details,
		PreparedBy: s.PreparedBy,
		Rows:       rows,
		GSTRate:    pricing.GSTRate,
		Totals:     totalsView(s.Totals()),
		Conditions: conditions(validityDays),
	}
}

func conditions(validityDays int) string {
	if validityDays <= 0 {
		return "Prices exclude GST unless stated otherwise."
	}
	return fmt.Sprintf("This quotation is valid for %d days from the date of issue. Prices exclude GST unless stated otherwise.", validityDays)
}
