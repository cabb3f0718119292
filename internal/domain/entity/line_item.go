package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bounds applied to the editable percentages of a LineItem.
var (
	MaxDiscountPercent = decimal.RequireFromString("99.99")
	MaxMarginPercent   = decimal.RequireFromString("99.9")
)

// LineItem is one quoted product row. It is a flat record: every field maps to a
// single column of the persistence store.
// Derived prices (unit sell, line sell, GST, line total) are never stored; see pricing.Calculate.
type LineItem struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Qty             decimal.Decimal `json:"qty"`
	Supplier        string          `json:"supplier"`
	CatalogNumber   string          `json:"catalogNumber"`
	Description     string          `json:"description"`
	CostPerUnit     decimal.Decimal `json:"costPerUnit"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	MarginPercent   decimal.Decimal `json:"marginPercent"`
}

// NewLineItem returns a blank row: qty 1, zero cost and discount, margin set to the
// supplied default.
func NewLineItem(defaultMargin decimal.Decimal) LineItem {
	return LineItem{
		ID:              uuid.New().String(),
		Qty:             decimal.NewFromInt(1),
		CostPerUnit:     decimal.Zero,
		DiscountPercent: decimal.Zero,
		MarginPercent:   ClampMargin(defaultMargin),
	}
}

// Normalized returns a copy with every numeric field inside its allowed range and an
// identifier assigned.
func (li LineItem) Normalized() LineItem {
	if li.ID == "" {
		li.ID = uuid.New().String()
	}
	li.Qty = floorZero(li.Qty)
	li.CostPerUnit = floorZero(li.CostPerUnit)
	li.DiscountPercent = ClampDiscount(li.DiscountPercent)
	li.MarginPercent = ClampMargin(li.MarginPercent)
	return li
}

// ClampDiscount restricts a discount percentage to [0, 99.99].
func ClampDiscount(d decimal.Decimal) decimal.Decimal {
	return clamp(d, MaxDiscountPercent)
}

// ClampMargin restricts a margin percentage to [0, 99.9].
func ClampMargin(m decimal.Decimal) decimal.Decimal {
	return clamp(m, MaxMarginPercent)
}

func clamp(v, max decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	if v.GreaterThan(max) {
		return max
	}
	return v
}

func floorZero(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
