// Package extraction turns the untrusted text returned by the extraction service into
// validated line items.
//
// The text is expected to be a JSON array of candidate rows but frequently arrives wrapped
// in prose or markdown. Recovery is layered: direct parse, then the interior of a ```json
// fence, then the outermost [...] (or {...}) span. A source whose text survives none of the
// stages is reported as failed and contributes no rows.
package extraction

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/quote-builder/internal/domain/entity"
	"github.com/jhoicas/quote-builder/pkg/money"
)

// Result is the outcome of normalizing one source.
type Result struct {
	SourceID string
	Rows     []entity.LineItem
	Failed   bool
	// Stage names the recovery stage that produced the rows; empty when Failed.
	Stage string
	// Skipped counts array elements that were not objects or named no row field.
	Skipped int
	// Coerced counts rows that did not match RowSchema and were repaired by CoerceRow.
	Coerced int
}

// Normalize parses raw and coerces every candidate into a LineItem stamped with a zero
// discount and the given margin. It never panics and never returns an error: an
// unrecoverable response yields Result{Failed: true} with no rows.
func Normalize(raw, sourceID string, margin decimal.Decimal) Result {
	res := Result{SourceID: sourceID}

	var parsed any
	for _, st := range Stages {
		if v, ok := st.Parse(raw); ok {
			parsed, res.Stage = v, st.Name
			break
		}
	}
	if parsed == nil {
		res.Failed = true
		res.Stage = ""
		return res
	}

	elems, ok := candidates(parsed)
	if !ok {
		res.Failed = true
		res.Stage = ""
		return res
	}
	res.Rows = make([]entity.LineItem, 0, len(elems))
	for _, e := range elems {
		obj, ok := e.(map[string]any)
		if !ok || !hasRowField(obj) {
			res.Skipped++
			continue
		}
		if !Conforms(obj) {
			res.Coerced++
		}
		row := CoerceRow(obj)
		row.DiscountPercent = decimal.Zero
		row.MarginPercent = entity.ClampMargin(margin)
		res.Rows = append(res.Rows, row)
	}
	return res
}

// containerKeys are the wrapper keys a model sometimes uses around the row array, in the
// order they are tried.
var containerKeys = []string{"items", "lineitems", "rows", "products", "data", "quote", "results"}

// candidates flattens the parsed value into the list of row candidates. A bare object is
// either a wrapper around the row array or a single row; an object that is neither (for
// instance {"error": "..."}) yields false.
func candidates(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case map[string]any:
		byKey := make(map[string]any, len(t))
		for _, k := range sortedKeys(t) {
			ck := canonicalKey(k)
			if _, seen := byKey[ck]; !seen {
				byKey[ck] = t[k]
			}
		}
		for _, ck := range containerKeys {
			if arr, ok := byKey[ck].([]any); ok {
				return arr, true
			}
		}
		if len(t) == 1 {
			for _, val := range t {
				if arr, ok := val.([]any); ok {
					return arr, true
				}
			}
		}
		if hasRowField(t) {
			return []any{t}, true
		}
	}
	return nil, false
}

// hasRowField reports whether obj names at least one known row field.
func hasRowField(obj map[string]any) bool {
	for k := range obj {
		if _, ok := fieldAliases[canonicalKey(k)]; ok {
			return true
		}
	}
	return false
}

// Field aliases, keyed by canonicalKey of the incoming name.
var fieldAliases = map[string]string{
	"type":            "type",
	"itemtype":        "type",
	"category":        "type",
	"qty":             "qty",
	"quantity":        "qty",
	"supplier":        "supplier",
	"brand":           "supplier",
	"manufacturer":    "supplier",
	"vendor":          "supplier",
	"catalognumber":   "catalogNumber",
	"cataloguenumber": "catalogNumber",
	"catno":           "catalogNumber",
	"catalogno":       "catalogNumber",
	"partnumber":      "catalogNumber",
	"productcode":     "catalogNumber",
	"sku":             "catalogNumber",
	"description":     "description",
	"desc":            "description",
	"costperunit":     "costPerUnit",
	"unitcost":        "costPerUnit",
	"cost":            "costPerUnit",
	"unitprice":       "costPerUnit",
	"price":           "costPerUnit",
}

// CoerceRow maps one decoded object onto the canonical row shape. Missing or non-numeric
// qty becomes 1, missing or non-numeric cost becomes 0, missing strings become "", and
// unknown fields are dropped.
func CoerceRow(obj map[string]any) entity.LineItem {
	fields := make(map[string]any, len(obj))
	for _, k := range sortedKeys(obj) {
		v := obj[k]
		name, ok := fieldAliases[canonicalKey(k)]
		if !ok {
			continue
		}
		// Exact canonical names win over aliases.
		if _, seen := fields[name]; seen && k != name {
			continue
		}
		fields[name] = v
	}

	row := entity.LineItem{
		ID:            uuid.New().String(),
		Type:          text(fields["type"]),
		Qty:           money.Or(fields["qty"], decimal.NewFromInt(1)),
		Supplier:      text(fields["supplier"]),
		CatalogNumber: text(fields["catalogNumber"]),
		Description:   text(fields["description"]),
		CostPerUnit:   money.Or(fields["costPerUnit"], decimal.Zero),
	}
	if looksLikeSentence(row.CatalogNumber) {
		if row.Description == "" {
			row.Description = row.CatalogNumber
		}
		row.CatalogNumber = ""
	}
	return row.Normalized()
}

func canonicalKey(k string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ', '.':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(k)))
}

func text(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	}
	return ""
}

// looksLikeSentence reports whether a catalogue number is really prose: more than four
// words, or a trailing full stop after several words.
func looksLikeSentence(s string) bool {
	words := strings.Fields(s)
	if len(words) > 4 {
		return true
	}
	return len(words) > 1 && strings.HasSuffix(s, ".")
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
