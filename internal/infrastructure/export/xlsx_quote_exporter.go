// Package export renders the customer-facing quote into downloadable documents.
package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/quote-builder/internal/application/dto"
	"github.com/jhoicas/quote-builder/internal/application/quoting"
)

// Compile-time check that XLSXQuoteExporter implements QuoteExporter.
var _ quoting.QuoteExporter = (*XLSXQuoteExporter)(nil)

const (
	sheetName    = "Quote"
	currencyFmt  = `"$"#,##0.00`
	tableHeadRow = 10
)

var (
	columns = []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	headers = []string{"Item", "Type", "Qty", "Brand", "Cat. No.", "Description", "Unit ex GST", "Total ex GST"}
	widths  = []float64{6, 14, 8, 16, 18, 48, 14, 16}
)

// XLSXQuoteExporter builds a single-sheet customer quote with excelize.
type XLSXQuoteExporter struct {
	// Company is printed as the document title when set.
	Company string
}

// NewXLSXQuoteExporter builds the exporter.
func NewXLSXQuoteExporter(company string) *XLSXQuoteExporter {
	return &XLSXQuoteExporter{Company: company}
}

// ContentType of an .xlsx workbook.
func (e *XLSXQuoteExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension of the produced file.
func (e *XLSXQuoteExporter) Extension() string { return "xlsx" }

// ExportQuote renders q and returns the workbook bytes.
func (e *XLSXQuoteExporter) ExportQuote(ctx context.Context, q *dto.FinalQuote) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	for i, col := range columns {
		if err := f.SetColWidth(sheetName, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}
	lastCol := columns[len(columns)-1]

	// ── Header block ────────────────────────────────────────────────────

	title := "QUOTATION"
	if e.Company != "" {
		title = e.Company + " QUOTATION"
	}
	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheetName, "A1", sanitizeExcelCell(title))
	f.SetCellStyle(sheetName, "A1", lastCol+"1", st.title)

	d := q.Details
	header := [][2]string{
		{"Quote No:", d.QuoteNumber},
		{"Date:", d.Date},
		{"Customer:", d.CustomerName},
		{"Attention:", d.Attention},
		{"Project:", d.ProjectName},
		{"Summary:", d.ProjectSummary},
	}
	for i, kv := range header {
		r := i + 3
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", r), kv[0])
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", r), fmt.Sprintf("B%d", r), st.label)
		if err := f.MergeCell(sheetName, fmt.Sprintf("A%d", r), fmt.Sprintf("B%d", r)); err != nil {
			return nil, fmt.Errorf("merge header label: %w", err)
		}
		if err := f.MergeCell(sheetName, fmt.Sprintf("C%d", r), fmt.Sprintf("%s%d", lastCol, r)); err != nil {
			return nil, fmt.Errorf("merge header value: %w", err)
		}
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", r), sanitizeExcelCell(kv[1]))
	}

	// ── Item table ──────────────────────────────────────────────────────

	for i, h := range headers {
		f.SetCellValue(sheetName, fmt.Sprintf("%s%d", columns[i], tableHeadRow), h)
	}
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", tableHeadRow), fmt.Sprintf("%s%d", lastCol, tableHeadRow), st.header)

	row := tableHeadRow + 1
	for _, r := range q.Rows {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r.Item)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), sanitizeExcelCell(r.Type))
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), r.Qty.InexactFloat64())
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), sanitizeExcelCell(r.Brand))
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), sanitizeExcelCell(r.CatalogNumber))
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), sanitizeExcelCell(r.Description))
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), r.UnitExGST.InexactFloat64())
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), r.TotalExGST.InexactFloat64())
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), st.cell)
		f.SetCellStyle(sheetName, fmt.Sprintf("G%d", row), fmt.Sprintf("H%d", row), st.money)
		row++
	}

	// ── Totals ──────────────────────────────────────────────────────────

	row++
	totals := []struct {
		label string
		value float64
	}{
		{"Subtotal ex GST:", q.Totals.SubtotalExTax.InexactFloat64()},
		{fmt.Sprintf("GST (%s%%):", q.GSTRate.String()), q.Totals.GST.InexactFloat64()},
		{"Total inc GST:", q.Totals.GrandTotal.InexactFloat64()},
	}
	for _, t := range totals {
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), t.label)
		f.SetCellStyle(sheetName, fmt.Sprintf("G%d", row), fmt.Sprintf("G%d", row), st.summaryLabel)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), t.value)
		f.SetCellStyle(sheetName, fmt.Sprintf("H%d", row), fmt.Sprintf("H%d", row), st.summaryValue)
		row++
	}

	// ── Conditions and signature ────────────────────────────────────────

	row++
	if q.Conditions != "" {
		if err := f.MergeCell(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row)); err != nil {
			return nil, fmt.Errorf("merge conditions: %w", err)
		}
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), sanitizeExcelCell(q.Conditions))
		row += 2
	}
	p := q.PreparedBy
	for _, line := range []string{"Prepared by:", p.Name, p.JobTitle, p.Branch, p.Email, p.Phone} {
		if line == "" {
			continue
		}
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), sanitizeExcelCell(line))
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

type styles struct {
	title, label, header, cell, money, summaryLabel, summaryValue int
}

func newStyles(f *excelize.File) (*styles, error) {
	numFmt := currencyFmt
	defs := []struct {
		style *excelize.Style
		name  string
	}{
		{&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}, "title"},
		{&excelize.Style{Font: &excelize.Font{Bold: true, Size: 10}}, "label"},
		{&excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 10},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    thinBorders(),
		}, "header"},
		{&excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders(), Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}}, "cell"},
		{&excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders(), CustomNumFmt: &numFmt}, "money"},
		{&excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}, Alignment: &excelize.Alignment{Horizontal: "right"}}, "summary label"},
		{&excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}, CustomNumFmt: &numFmt}, "summary value"},
	}
	st := &styles{}
	targets := []*int{&st.title, &st.label, &st.header, &st.cell, &st.money, &st.summaryLabel, &st.summaryValue}
	for i, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return nil, fmt.Errorf("create %s style: %w", d.name, err)
		}
		*targets[i] = id
	}
	return st, nil
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading characters
// with a single quote.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
