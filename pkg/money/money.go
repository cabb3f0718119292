// Package money formats and parses currency amounts for display and for loosely typed
// input (spreadsheet cells, extraction output, form fields).
package money

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders an amount as "$1,234.50". Negative amounts render as "-$1,234.50".
// Amounts of any magnitude are grouped exactly; nothing is narrowed to a machine integer.
func Format(d decimal.Decimal) string {
	rounded := d.Round(2)
	prefix := "$"
	if rounded.IsNegative() {
		prefix = "-$"
		rounded = rounded.Neg()
	}
	whole, cents, _ := strings.Cut(rounded.StringFixed(2), ".")
	return prefix + groupThousands(whole) + "." + cents
}

// groupThousands inserts a comma every three digits from the right.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	b.Grow(len(digits) + len(digits)/3)
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatAny renders v as currency. nil and non-numeric values render as "$0.00".
func FormatAny(v any) string {
	d, ok := Parse(v)
	if !ok {
		return "$0.00"
	}
	return Format(d)
}

// Parse coerces a loosely typed value into a decimal. It accepts numbers, json.Number and
// strings such as "1,234.50", "$99", " 12 % ". ok is false for nil, empty, NaN/Inf and
// anything that does not read as a number.
func Parse(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return t, true
	case float64:
		return fromFloat(t)
	case float32:
		return fromFloat(float64(t))
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case int32:
		return decimal.NewFromInt(int64(t)), true
	case json.Number:
		return parseString(t.String())
	case string:
		return parseString(t)
	default:
		return decimal.Zero, false
	}
}

// Or returns the parsed value of v, or def when v does not parse.
func Or(v any, def decimal.Decimal) decimal.Decimal {
	if d, ok := Parse(v); ok {
		return d
	}
	return def
}

func fromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

func parseString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', ' ', '%', '\u00a0':
			return -1
		}
		return r
	}, s)
	s = strings.TrimPrefix(strings.ToUpper(s), "AUD")
	if s == "" {
		return decimal.Zero, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		d = decimal.NewFromFloat(f)
	}
	if neg {
		d = d.Neg()
	}
	return d, true
}
