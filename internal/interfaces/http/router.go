package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/quote-builder/internal/application/quoting"
	"github.com/jhoicas/quote-builder/pkg/logger"
)

// RouterDeps dependencies for the router.
type RouterDeps struct {
	QuoteUC    *quoting.QuoteUseCase
	AssemblyUC *quoting.AssemblyUseCase
	Log        *logger.Logger
	AppName    string
}

// Router registers the API routes.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})

	api := app.Group("/api")
	quoteHandler := NewQuoteHandler(deps.QuoteUC)
	extractionHandler := NewExtractionHandler(deps.AssemblyUC, deps.Log)

	// Quote sessions
	quotes := api.Group("/quotes")
	quotes.Post("/", quoteHandler.Create)
	quotes.Get("/:id", quoteHandler.Get)
	quotes.Put("/:id/details", quoteHandler.UpdateDetails)
	quotes.Put("/:id/margin", quoteHandler.SetMargin)
	quotes.Put("/:id/sort", quoteHandler.SetSort)

	// Rows
	quotes.Post("/:id/rows", quoteHandler.AppendRow)
	quotes.Put("/:id/rows/by-id/:rowID", quoteHandler.UpdateRow)
	quotes.Post("/:id/rows/:index/insert-above", quoteHandler.InsertAbove)
	quotes.Post("/:id/rows/:index/insert-below", quoteHandler.InsertBelow)
	quotes.Post("/:id/rows/:index/move-up", quoteHandler.MoveUp)
	quotes.Post("/:id/rows/:index/move-down", quoteHandler.MoveDown)
	quotes.Delete("/:id/rows/:index", quoteHandler.DeleteRow)

	// Extraction and customer document
	quotes.Post("/:id/extract", extractionHandler.Extract)
	quotes.Get("/:id/final", quoteHandler.Final)
	quotes.Get("/:id/export.xlsx", quoteHandler.Export)

	// Persistence
	quotes.Post("/:id/save", quoteHandler.Save)
	saved := api.Group("/saved-quotes")
	saved.Get("/", quoteHandler.ListSaved)
	saved.Post("/:id/load", quoteHandler.Load)
}
