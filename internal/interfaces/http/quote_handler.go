package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/jhoicas/quote-builder/internal/application/dto"
	"github.com/jhoicas/quote-builder/internal/application/quoting"
)

// QuoteHandler serves quote sessions: header, margin, ordering and row edits.
type QuoteHandler struct {
	uc *quoting.QuoteUseCase
}

// NewQuoteHandler builds the handler.
func NewQuoteHandler(uc *quoting.QuoteUseCase) *QuoteHandler {
	return &QuoteHandler{uc: uc}
}

// Create godoc
// @Summary      Start a quote session
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateQuoteRequest  false  "Header and optional global margin"
// @Success      201   {object}  dto.QuoteView
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/quotes [post]
func (h *QuoteHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateQuoteRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "INVALID_BODY", "invalid request body")
		}
	}
	out, err := h.uc.Create(in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get godoc
// @Summary      Quote view: rows in displayed order with pricing and totals
// @Tags         quotes
// @Produce      json
// @Param        id   path  string  true  "Quote ID"
// @Success      200  {object}  dto.QuoteView
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/quotes/{id} [get]
func (h *QuoteHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateDetails replaces the quote header.
func (h *QuoteHandler) UpdateDetails(c *fiber.Ctx) error {
	var in dto.UpdateDetailsRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "invalid request body")
	}
	return h.reply(c)(h.uc.UpdateDetails(c.Params("id"), in))
}

// SetMargin godoc
// @Summary      Set the global margin and apply it to every row
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "Quote ID"
// @Param        body  body  dto.MarginRequest  true  "Margin percent; non-numeric values become 0"
// @Success      200   {object}  dto.QuoteView
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/quotes/{id}/margin [put]
func (h *QuoteHandler) SetMargin(c *fiber.Ctx) error {
	var in dto.MarginRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "invalid request body")
	}
	return h.reply(c)(h.uc.SetGlobalMargin(c.Params("id"), in))
}

// SetSort switches the displayed ordering (none, type, supplier).
func (h *QuoteHandler) SetSort(c *fiber.Ctx) error {
	var in dto.SortRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "invalid request body")
	}
	return h.reply(c)(h.uc.SetSort(c.Params("id"), in))
}

// ── Rows ──────────────────────────────────────────────────────────────────────
// :index is the 0-based position in the displayed order. An index that does not name a
// row leaves the quote unchanged.

// AppendRow adds a blank row at the end.
func (h *QuoteHandler) AppendRow(c *fiber.Ctx) error {
	return h.reply(c)(h.uc.AppendRow(c.Params("id")))
}

// InsertAbove adds a blank row above :index.
func (h *QuoteHandler) InsertAbove(c *fiber.Ctx) error {
	return h.indexed(c, h.uc.InsertAbove)
}

// InsertBelow adds a blank row below :index.
func (h *QuoteHandler) InsertBelow(c *fiber.Ctx) error {
	return h.indexed(c, h.uc.InsertBelow)
}

// DeleteRow removes the row at :index.
func (h *QuoteHandler) DeleteRow(c *fiber.Ctx) error {
	return h.indexed(c, h.uc.DeleteRow)
}

// MoveUp swaps the row at :index with the one above.
func (h *QuoteHandler) MoveUp(c *fiber.Ctx) error {
	return h.indexed(c, h.uc.MoveUp)
}

// MoveDown swaps the row at :index with the one below.
func (h *QuoteHandler) MoveDown(c *fiber.Ctx) error {
	return h.indexed(c, h.uc.MoveDown)
}

// UpdateRow godoc
// @Summary      Replace every editable field of a row
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Param        id     path  string        true  "Quote ID"
// @Param        rowID  path  string        true  "Row ID"
// @Param        body   body  dto.RowInput  true  "Full row; numbers may be strings"
// @Success      200    {object}  dto.QuoteView
// @Router       /api/quotes/{id}/rows/by-id/{rowID} [put]
func (h *QuoteHandler) UpdateRow(c *fiber.Ctx) error {
	var in dto.RowInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "invalid request body")
	}
	// Path params alias fiber's request buffer; copy before they reach the session.
	rowID := utils.CopyString(c.Params("rowID"))
	return h.reply(c)(h.uc.UpdateRow(c.Params("id"), rowID, in))
}

// ── Customer document ─────────────────────────────────────────────────────────

// Final returns the customer-facing quote (no cost or margin data).
func (h *QuoteHandler) Final(c *fiber.Ctx) error {
	out, err := h.uc.Final(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Export godoc
// @Summary      Download the customer quote as a spreadsheet
// @Tags         quotes
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id   path  string  true  "Quote ID"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/quotes/{id}/export.xlsx [get]
func (h *QuoteHandler) Export(c *fiber.Ctx) error {
	data, filename, contentType, err := h.uc.Export(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}

// ── Persistence ───────────────────────────────────────────────────────────────

// Save persists the session.
func (h *QuoteHandler) Save(c *fiber.Ctx) error {
	out, err := h.uc.Save(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListSaved lists saved quotes (?limit=&offset=).
func (h *QuoteHandler) ListSaved(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badRequest(c, "INVALID_QUERY", "limit and offset must be integers")
	}
	out, err := h.uc.ListSaved(c.UserContext(), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Load reopens a saved quote as an editing session.
func (h *QuoteHandler) Load(c *fiber.Ctx) error {
	out, err := h.uc.Load(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// reply adapts a (view, error) use case result into a response.
func (h *QuoteHandler) reply(c *fiber.Ctx) func(*dto.QuoteView, error) error {
	return func(v *dto.QuoteView, err error) error {
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(v)
	}
}

func (h *QuoteHandler) indexed(c *fiber.Ctx, op func(id string, index int) (*dto.QuoteView, error)) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return badRequest(c, "INVALID_INDEX", "index must be an integer")
	}
	return h.reply(c)(op(c.Params("id"), index))
}
