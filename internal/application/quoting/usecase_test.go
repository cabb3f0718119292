package quoting_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/quote-builder/internal/application/dto"
	"github.com/jhoicas/quote-builder/internal/application/quoting"
	"github.com/jhoicas/quote-builder/internal/domain"
	"github.com/jhoicas/quote-builder/internal/domain/entity"
	"github.com/jhoicas/quote-builder/pkg/logger"
)

func newQuotes(t *testing.T) (*quoting.QuoteUseCase, *memRepo, *stubExporter) {
	t.Helper()
	repo := newMemRepo()
	exp := &stubExporter{}
	uc := quoting.NewQuoteUseCase(quoting.NewSessionStore(), repo, exp, quoting.QuoteConfig{
		DefaultMargin: decimal.NewFromInt(20),
		ValidityDays:  30,
		Branch:        "Brisbane",
	}, logger.Nop())
	return uc, repo, exp
}

func editRow(t *testing.T, uc *quoting.QuoteUseCase, quoteID, rowID string, in dto.RowInput) *dto.QuoteView {
	t.Helper()
	v, err := uc.UpdateRow(quoteID, rowID, in)
	require.NoError(t, err)
	return v
}

func TestCreate_AppliesDefaults(t *testing.T) {
	uc, _, _ := newQuotes(t)

	v, err := uc.Create(dto.CreateQuoteRequest{Details: entity.QuoteDetails{CustomerName: "Acme"}})
	require.NoError(t, err)
	assert.NotEmpty(t, v.ID)
	assert.True(t, v.GlobalMargin.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, "Brisbane", v.PreparedBy.Branch)
	assert.NotEmpty(t, v.Details.Date)
	assert.Equal(t, "none", v.SortKey)
	assert.True(t, v.Manual)
	assert.Empty(t, v.Rows)
	assert.Equal(t, "$0.00", v.Totals.GrandTotalDisplay)

	v, err = uc.Create(dto.CreateQuoteRequest{GlobalMargin: "12.5"})
	require.NoError(t, err)
	assert.True(t, v.GlobalMargin.Equal(decimal.RequireFromString("12.5")))
}

func TestUpdateRow_ReferenceScenario(t *testing.T) {
	uc, _, _ := newQuotes(t)
	v, err := uc.Create(dto.CreateQuoteRequest{})
	require.NoError(t, err)
	v, err = uc.AppendRow(v.ID)
	require.NoError(t, err)
	require.Len(t, v.Rows, 1)

	v = editRow(t, uc, v.ID, v.Rows[0].ID, dto.RowInput{
		Type: "Switch", Qty: 3, CostPerUnit: "$100.00", DiscountPercent: "10", MarginPercent: 20.0,
	})
	row := v.Rows[0]
	assert.Equal(t, 1, row.Item)
	assert.Equal(t, "$112.50", row.UnitSellDisplay)
	assert.Equal(t, "$337.50", row.LineSellDisplay)
	assert.Equal(t, "$371.25", row.LineTotalDisplay)
	assert.Equal(t, "$337.50", v.Totals.SubtotalDisplay)
	assert.Equal(t, "$33.75", v.Totals.GSTDisplay)
	assert.Equal(t, "$371.25", v.Totals.GrandTotalDisplay)
	assert.True(t, v.Cost.TotalCostPreMargin.Equal(decimal.NewFromInt(270)))
	assert.True(t, v.Cost.GrossProfit.Equal(decimal.RequireFromString("67.5")))
	assert.True(t, v.Cost.EffectiveMarginPercent.Equal(decimal.NewFromInt(20)))
}

func TestUpdateRow_InvalidNumbersCoerce(t *testing.T) {
	uc, _, _ := newQuotes(t)
	v, _ := uc.Create(dto.CreateQuoteRequest{})
	v, _ = uc.AppendRow(v.ID)

	v = editRow(t, uc, v.ID, v.Rows[0].ID, dto.RowInput{Qty: "lots", CostPerUnit: nil, DiscountPercent: "abc", MarginPercent: -5})
	row := v.Rows[0]
	assert.True(t, row.Qty.Equal(decimal.NewFromInt(1)))
	assert.True(t, row.CostPerUnit.IsZero())
	assert.True(t, row.DiscountPercent.IsZero())
	assert.True(t, row.MarginPercent.IsZero())
}

func TestUpdateRow_UnknownRowIsNoOp(t *testing.T) {
	uc, _, _ := newQuotes(t)
	v, _ := uc.Create(dto.CreateQuoteRequest{})
	v, _ = uc.AppendRow(v.ID)

	after := editRow(t, uc, v.ID, "no-such-row", dto.RowInput{Type: "X", Qty: 9})
	assert.Equal(t, v.Rows, after.Rows)
}

func TestRowOperations_OutOfRangeAreNoOps(t *testing.T) {
	uc, _, _ := newQuotes(t)
	v, _ := uc.Create(dto.CreateQuoteRequest{})
	v, _ = uc.AppendRow(v.ID)
	v, _ = uc.AppendRow(v.ID)
	before := v.Rows

	for name, op := range map[string]func() (*dto.QuoteView, error){
		"insert above": func() (*dto.QuoteView, error) { return uc.InsertAbove(v.ID, 5) },
		"insert below": func() (*dto.QuoteView, error) { return uc.InsertBelow(v.ID, -1) },
		"delete":       func() (*dto.QuoteView, error) { return uc.DeleteRow(v.ID, 2) },
		"move up":      func() (*dto.QuoteView, error) { return uc.MoveUp(v.ID, 0) },
		"move down":    func() (*dto.QuoteView, error) { return uc.MoveDown(v.ID, 1) },
	} {
		got, err := op()
		require.NoError(t, err, name)
		assert.Equal(t, before, got.Rows, name)
	}
}

func TestRowOperations_InsertMoveDelete(t *testing.T) {
	uc, _, _ := newQuotes(t)
	v, _ := uc.Create(dto.CreateQuoteRequest{})
	v, _ = uc.AppendRow(v.ID)
	first := v.Rows[0].ID

	v, err := uc.InsertAbove(v.ID, 0)
	require.NoError(t, err)
	require.Len(t, v.Rows, 2)
	assert.Equal(t, first, v.Rows[1].ID)
	assert.True(t, v.Rows[0].MarginPercent.Equal(decimal.NewFromInt(20)), "new rows take the global margin")

	v, err = uc.InsertBelow(v.ID, 1)
	require.NoError(t, err)
	require.Len(t, v.Rows, 3)
	assert.Equal(t, first, v.Rows[1].ID)

	v, err = uc.MoveUp(v.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, first, v.Rows[0].ID)

	v, err = uc.MoveDown(v.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, first, v.Rows[1].ID)

	v, err = uc.DeleteRow(v.ID, 1)
	require.NoError(t, err)
	require.Len(t, v.Rows, 2)
	for _, r := range v.Rows {
		assert.NotEqual(t, first, r.ID)
	}
}

func TestSetGlobalMargin_AppliesToEveryRow(t *testing.T) {
	uc, _, _ := newQuotes(t)
	v, _ := uc.Create(dto.CreateQuoteRequest{})
	for i := 0; i < 5; i++ {
		v, _ = uc.AppendRow(v.ID)
	}
	for i, r := range v.Rows {
		v = editRow(t, uc, v.ID, r.ID, dto.RowInput{Qty: 1, CostPerUnit: 91, MarginPercent: 10 * i})
	}

	v, err := uc.SetGlobalMargin(v.ID, dto.MarginRequest{Value: "9"})
	require.NoError(t, err)
	assert.True(t, v.GlobalMargin.Equal(decimal.NewFromInt(9)))
	for _, r := range v.Rows {
		assert.True(t, r.MarginPercent.Equal(decimal.NewFromInt(9)))
		assert.True(t, r.Pricing.UnitSellExTax.Equal(decimal.NewFromInt(100)), "91 / 0.91")
	}
	assert.Equal(t, "$500.00", v.Totals.SubtotalDisplay)

	v, err = uc.AppendRow(v.ID)
	require.NoError(t, err)
	assert.True(t, v.Rows[5].MarginPercent.Equal(decimal.NewFromInt(9)))
}

func TestSetSort(t *testing.T) {
	uc, _, _ := newQuotes(t)
	v, _ := uc.Create(dto.CreateQuoteRequest{})
	for _, typ := range []string{"Switch", "Board", "Cable"} {
		v, _ = uc.AppendRow(v.ID)
		v = editRow(t, uc, v.ID, v.Rows[len(v.Rows)-1].ID, dto.RowInput{Type: typ, Qty: 1})
	}

	v, err := uc.SetSort(v.ID, dto.SortRequest{Key: "type"})
	require.NoError(t, err)
	assert.False(t, v.Manual)
	assert.Equal(t, []string{"Board", "Cable", "Switch"}, types(v.Rows))

	v, err = uc.SetSort(v.ID, dto.SortRequest{Key: "manual"})
	require.NoError(t, err)
	assert.True(t, v.Manual)
	assert.Equal(t, []string{"Switch", "Board", "Cable"}, types(v.Rows))

	_, err = uc.SetSort(v.ID, dto.SortRequest{Key: "price"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func types(rows []dto.RowView) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Type
	}
	return out
}

func TestFinal_CarriesOnlyCustomerFields(t *testing.T) {
	uc, _, exp := newQuotes(t)
	v, _ := uc.Create(dto.CreateQuoteRequest{Details: entity.QuoteDetails{QuoteNumber: "Q-17", CustomerName: "Acme Pty Ltd"}})
	v, _ = uc.AppendRow(v.ID)
	v = editRow(t, uc, v.ID, v.Rows[0].ID, dto.RowInput{Type: "Switch", Supplier: "Clipsal", Qty: 3, CostPerUnit: 100, DiscountPercent: 10, MarginPercent: 20})

	final, err := uc.Final(v.ID)
	require.NoError(t, err)
	require.Len(t, final.Rows, 1)
	assert.Equal(t, "Clipsal", final.Rows[0].Brand)
	assert.True(t, final.Rows[0].UnitExGST.Equal(decimal.RequireFromString("112.5")))
	assert.Equal(t, "$371.25", final.Totals.GrandTotalDisplay)
	assert.Contains(t, final.Conditions, "30 days")
	assert.True(t, final.GSTRate.Equal(decimal.NewFromInt(10)))

	data, filename, ctype, err := uc.Export(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("doc"), data)
	assert.Equal(t, "Quote_Q-17_Acme_Pty_Ltd.bin", filename)
	assert.Equal(t, "application/octet-stream", ctype)
	assert.Equal(t, final, exp.got)
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "Quote_draft_customer.xlsx", quoting.ExportFilename(entity.QuoteDetails{}, "xlsx"))
	assert.Equal(t, "Quote_2024_001_O_Brien_Electrical.xlsx",
		quoting.ExportFilename(entity.QuoteDetails{QuoteNumber: "2024/001", CustomerName: "O'Brien Electrical"}, "xlsx"))
}

func TestSaveListLoad_RoundTrip(t *testing.T) {
	uc, repo, _ := newQuotes(t)
	v, _ := uc.Create(dto.CreateQuoteRequest{Details: entity.QuoteDetails{QuoteNumber: "Q-1", CustomerName: "Acme"}})
	v, _ = uc.AppendRow(v.ID)
	v, _ = uc.AppendRow(v.ID)
	v = editRow(t, uc, v.ID, v.Rows[0].ID, dto.RowInput{Type: "Switch", Qty: 2, CostPerUnit: 10})
	v = editRow(t, uc, v.ID, v.Rows[1].ID, dto.RowInput{Type: "Board", Qty: 1, CostPerUnit: 200})
	v, _ = uc.SetSort(v.ID, dto.SortRequest{Key: "type"})

	saved, err := uc.Save(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.ItemCount)
	assert.Equal(t, "type", repo.saved[v.ID].SortKey)
	assert.Equal(t, "Switch", repo.saved[v.ID].Items[0].Type, "manual order is persisted")

	list, err := uc.ListSaved(context.Background(), dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 20, list.Page.Limit)
	assert.Equal(t, "Q-1", list.Items[0].QuoteNumber)

	loaded, err := uc.Load(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, loaded.ID)
	assert.Equal(t, v.Rows, loaded.Rows)
	assert.Equal(t, v.Totals, loaded.Totals)

	_, err = uc.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPersistence_Unavailable(t *testing.T) {
	uc := quoting.NewQuoteUseCase(quoting.NewSessionStore(), nil, nil, quoting.QuoteConfig{}, nil)
	v, err := uc.Create(dto.CreateQuoteRequest{})
	require.NoError(t, err)

	_, err = uc.Save(context.Background(), v.ID)
	assert.ErrorIs(t, err, domain.ErrPersistenceUnavailable)
	_, err = uc.ListSaved(context.Background(), dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrPersistenceUnavailable)
	_, err = uc.Load(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrPersistenceUnavailable)
	_, _, _, err = uc.Export(context.Background(), v.ID)
	assert.ErrorIs(t, err, domain.ErrExportUnavailable)
}

func TestUnknownQuote(t *testing.T) {
	uc, _, _ := newQuotes(t)
	_, err := uc.Get("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.AppendRow("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.Final("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
