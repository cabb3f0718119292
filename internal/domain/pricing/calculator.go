// Package pricing derives sell prices, GST and totals from a line item's cost, discount,
// margin and quantity.
//
// Margin is applied as a divisor on the discounted cost:
//
//	unitSellExTax = costPerUnit * (1 - discount/100) / (1 - margin/100)
//
// and a divisor at or below zero is replaced by 0.01, so a margin of 100% or more yields a
// large but finite, non-negative price. No other pricing formula exists in this module.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/quote-builder/internal/domain/entity"
)

var (
	// GSTRate is the fixed sales tax percentage applied to every line.
	GSTRate = decimal.NewFromInt(10)

	hundred          = decimal.NewFromInt(100)
	minMarginDivisor = decimal.RequireFromString("0.01")
)

// Line holds the derived pricing columns of a single line item.
type Line struct {
	CostAfterDiscount decimal.Decimal `json:"costAfterDiscount"`
	UnitSellExTax     decimal.Decimal `json:"unitSellExTax"`
	LineSellExTax     decimal.Decimal `json:"lineSellExTax"`
	TaxAmount         decimal.Decimal `json:"taxAmount"`
	LineTotalIncTax   decimal.Decimal `json:"lineTotalIncTax"`
	// LineCostPreMargin is costAfterDiscount * qty. Internal cost basis only.
	LineCostPreMargin decimal.Decimal `json:"lineCostPreMargin"`
}

// Totals aggregates every line of a quote.
type Totals struct {
	SubtotalExTax decimal.Decimal `json:"subtotalExTax"`
	TaxTotal      decimal.Decimal `json:"taxTotal"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
	// TotalCostPreMargin is never shown to the customer.
	TotalCostPreMargin decimal.Decimal `json:"totalCostPreMargin"`
}

// Calculate derives the pricing columns for one line item. It is a pure function of the
// snapshot it receives.
func Calculate(item entity.LineItem) Line {
	return CalculateRaw(item.CostPerUnit, item.DiscountPercent, item.MarginPercent, item.Qty)
}

// CalculateRaw is Calculate over loose values. Negative inputs count as zero and the
// discount is capped at 100%.
func CalculateRaw(costPerUnit, discountPercent, marginPercent, qty decimal.Decimal) Line {
	cost := nonNegative(costPerUnit)
	discount := decimal.Min(nonNegative(discountPercent), hundred)
	margin := nonNegative(marginPercent)
	quantity := nonNegative(qty)

	costAfterDiscount := cost.Mul(decimal.NewFromInt(1).Sub(discount.Div(hundred)))

	divisor := decimal.NewFromInt(1).Sub(margin.Div(hundred))
	if divisor.LessThanOrEqual(decimal.Zero) {
		divisor = minMarginDivisor
	}

	unitSell := costAfterDiscount.Div(divisor)
	lineSell := unitSell.Mul(quantity)
	tax := lineSell.Mul(GSTRate).Div(hundred)

	return Line{
		CostAfterDiscount: costAfterDiscount,
		UnitSellExTax:     unitSell,
		LineSellExTax:     lineSell,
		TaxAmount:         tax,
		LineTotalIncTax:   lineSell.Add(tax),
		LineCostPreMargin: costAfterDiscount.Mul(quantity),
	}
}

// Sum recomputes the quote totals from the current line items.
func Sum(items []entity.LineItem) Totals {
	var t Totals
	for _, item := range items {
		l := Calculate(item)
		t.SubtotalExTax = t.SubtotalExTax.Add(l.LineSellExTax)
		t.TaxTotal = t.TaxTotal.Add(l.TaxAmount)
		t.TotalCostPreMargin = t.TotalCostPreMargin.Add(l.LineCostPreMargin)
	}
	t.GrandTotal = t.SubtotalExTax.Add(t.TaxTotal)
	return t
}

func nonNegative(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
