package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/quote-builder/internal/application/dto"
	"github.com/jhoicas/quote-builder/internal/application/ports"
	"github.com/jhoicas/quote-builder/internal/application/quoting"
	"github.com/jhoicas/quote-builder/internal/infrastructure/export"
	apphttp "github.com/jhoicas/quote-builder/internal/interfaces/http"
	"github.com/jhoicas/quote-builder/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Test helpers
// ──────────────────────────────────────────────────────────────────────────────

// scriptedExtractor answers by source name and records what it received.
type scriptedExtractor struct {
	answers map[string]string
	got     []ports.Source
}

func (s *scriptedExtractor) Extract(_ context.Context, src ports.Source) (string, error) {
	s.got = append(s.got, src)
	return s.answers[src.Name], nil
}

func buildTestApp(t *testing.T, ext ports.Extractor) *fiber.App {
	t.Helper()
	store := quoting.NewSessionStore()
	quoteUC := quoting.NewQuoteUseCase(store, nil, export.NewXLSXQuoteExporter("Test Co"), quoting.QuoteConfig{
		DefaultMargin: decimal.NewFromInt(20),
		ValidityDays:  30,
	}, logger.Nop())
	assemblyUC := quoting.NewAssemblyUseCase(store, ext, quoting.AssemblyConfig{Pause: time.Millisecond}, logger.Nop())

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{QuoteUC: quoteUC, AssemblyUC: assemblyUC, Log: logger.Nop(), AppName: "test"})
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createQuote(t *testing.T, app *fiber.App) dto.QuoteView {
	t.Helper()
	resp := do(t, app, http.MethodPost, "/api/quotes", map[string]any{
		"details": map[string]any{"customerName": "Acme", "quoteNumber": "Q-9"},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return decode[dto.QuoteView](t, resp)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	app := buildTestApp(t, nil)
	resp := do(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestQuoteLifecycle(t *testing.T) {
	app := buildTestApp(t, nil)
	q := createQuote(t, app)
	assert.True(t, q.GlobalMargin.Equal(decimal.NewFromInt(20)))

	resp := do(t, app, http.MethodPost, "/api/quotes/"+q.ID+"/rows", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	v := decode[dto.QuoteView](t, resp)
	require.Len(t, v.Rows, 1)

	resp = do(t, app, http.MethodPut, "/api/quotes/"+q.ID+"/rows/by-id/"+v.Rows[0].ID, map[string]any{
		"type": "Switch", "qty": "3", "supplier": "Clipsal", "costPerUnit": 100, "discountPercent": 10, "marginPercent": "20",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	v = decode[dto.QuoteView](t, resp)
	assert.Equal(t, "$371.25", v.Totals.GrandTotalDisplay)

	resp = do(t, app, http.MethodPost, "/api/quotes/"+q.ID+"/rows/0/insert-below", nil)
	v = decode[dto.QuoteView](t, resp)
	require.Len(t, v.Rows, 2)

	resp = do(t, app, http.MethodPost, "/api/quotes/"+q.ID+"/rows/7/move-up", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "out-of-range index is a no-op")
	after := decode[dto.QuoteView](t, resp)
	assert.Equal(t, v.Rows[0].ID, after.Rows[0].ID)

	resp = do(t, app, http.MethodPost, "/api/quotes/"+q.ID+"/rows/abc/move-up", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = do(t, app, http.MethodDelete, "/api/quotes/"+q.ID+"/rows/1", nil)
	v = decode[dto.QuoteView](t, resp)
	require.Len(t, v.Rows, 1)

	resp = do(t, app, http.MethodPut, "/api/quotes/"+q.ID+"/margin", map[string]any{"value": 9})
	v = decode[dto.QuoteView](t, resp)
	assert.True(t, v.Rows[0].MarginPercent.Equal(decimal.NewFromInt(9)))

	resp = do(t, app, http.MethodPut, "/api/quotes/"+q.ID+"/sort", map[string]any{"key": "colour"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUpdateRow_IdentitySurvivesLaterRequests(t *testing.T) {
	app := buildTestApp(t, nil)
	q := createQuote(t, app)
	v := decode[dto.QuoteView](t, do(t, app, http.MethodPost, "/api/quotes/"+q.ID+"/rows", nil))
	rowID := v.Rows[0].ID

	resp := do(t, app, http.MethodPut, "/api/quotes/"+q.ID+"/rows/by-id/"+rowID, map[string]any{"type": "Switch", "qty": 1})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	for i := 0; i < 3; i++ {
		resp = do(t, app, http.MethodPost, "/api/quotes/"+q.ID+"/rows/0/insert-below", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	v = decode[dto.QuoteView](t, do(t, app, http.MethodGet, "/api/quotes/"+q.ID, nil))
	require.Len(t, v.Rows, 4)
	assert.Equal(t, rowID, v.Rows[0].ID)

	v = decode[dto.QuoteView](t, do(t, app, http.MethodPut, "/api/quotes/"+q.ID+"/rows/by-id/"+rowID, map[string]any{"type": "Board", "qty": 2}))
	assert.Equal(t, rowID, v.Rows[0].ID)
	assert.Equal(t, "Board", v.Rows[0].Type, "second edit by the same id still finds the row")
}

func TestFinalHidesInternalFields(t *testing.T) {
	app := buildTestApp(t, nil)
	q := createQuote(t, app)
	v := decode[dto.QuoteView](t, do(t, app, http.MethodPost, "/api/quotes/"+q.ID+"/rows", nil))
	do(t, app, http.MethodPut, "/api/quotes/"+q.ID+"/rows/by-id/"+v.Rows[0].ID, map[string]any{"qty": 1, "costPerUnit": 80, "marginPercent": 20})

	resp := do(t, app, http.MethodGet, "/api/quotes/"+q.ID+"/final", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)
	for _, field := range []string{"costPerUnit", "discountPercent", "marginPercent", "totalCostPreMargin", "lineCostPreMargin"} {
		assert.NotContains(t, body, field)
	}
	assert.Contains(t, body, `"grandTotalDisplay":"$110.00"`)
}

func TestExportXLSX(t *testing.T) {
	app := buildTestApp(t, nil)
	q := createQuote(t, app)

	resp := do(t, app, http.MethodGet, "/api/quotes/"+q.ID+"/export.xlsx", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Quote_Q-9_Acme.xlsx")
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")
}

func TestPersistenceUnavailable(t *testing.T) {
	app := buildTestApp(t, nil)
	q := createQuote(t, app)
	resp := do(t, app, http.MethodPost, "/api/quotes/"+q.ID+"/save", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	resp = do(t, app, http.MethodGet, "/api/saved-quotes", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestUnknownQuote(t *testing.T) {
	app := buildTestApp(t, nil)
	resp := do(t, app, http.MethodGet, "/api/quotes/nope", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	errBody := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "NOT_FOUND", errBody.Code)
}

func multipartBody(t *testing.T, files map[string][]byte, text string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="files"; filename="`+name+`"`)
		h.Set("Content-Type", "application/octet-stream")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if text != "" {
		require.NoError(t, w.WriteField("text", text))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestExtract_MergesAndReportsFailures(t *testing.T) {
	ext := &scriptedExtractor{answers: map[string]string{
		"supplier.pdf":           `[{"type":"Switch","qty":2,"costPerUnit":10},{"type":"Board","qty":1,"costPerUnit":200}]`,
		apphttp.PastedTextSource: "I could not find any products, sorry!",
	}}
	app := buildTestApp(t, ext)
	q := createQuote(t, app)

	body, ctype := multipartBody(t, map[string][]byte{"supplier.pdf": []byte("%PDF-1.4")}, "3x RCBO")
	req := httptest.NewRequest(http.MethodPost, "/api/quotes/"+q.ID+"/extract", body)
	req.Header.Set("Content-Type", ctype)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	report := decode[dto.ExtractionReport](t, resp)
	assert.Equal(t, 2, report.ItemsAdded)
	assert.Equal(t, []string{apphttp.PastedTextSource}, report.FailedSources)

	require.Len(t, ext.got, 2)
	assert.Equal(t, "application/pdf", ext.got[0].MIMEType, "octet-stream upload typed by extension")
	assert.Equal(t, "3x RCBO", ext.got[1].Text)

	v := decode[dto.QuoteView](t, do(t, app, http.MethodGet, "/api/quotes/"+q.ID, nil))
	require.Len(t, v.Rows, 2)
	assert.True(t, v.Rows[0].MarginPercent.Equal(decimal.NewFromInt(20)))
}

func TestExtract_NoSourcesAndNoProvider(t *testing.T) {
	app := buildTestApp(t, &scriptedExtractor{})
	q := createQuote(t, app)

	req := httptest.NewRequest(http.MethodPost, "/api/quotes/"+q.ID+"/extract", strings.NewReader("text=+++"))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	noProvider := buildTestApp(t, nil)
	q = createQuote(t, noProvider)
	req = httptest.NewRequest(http.MethodPost, "/api/quotes/"+q.ID+"/extract", strings.NewReader("text=cable"))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	resp, err = noProvider.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
