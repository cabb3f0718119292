package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/quote-builder/internal/application/dto"
	"github.com/jhoicas/quote-builder/internal/domain"
)

// errorStatus maps domain sentinels to an HTTP status and an error code.
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrNoSources, fiber.StatusBadRequest, "NO_SOURCES"},
	{domain.ErrExtractionInProgress, fiber.StatusConflict, "EXTRACTION_IN_PROGRESS"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrProviderNotConfigured, fiber.StatusServiceUnavailable, "AI_UNAVAILABLE"},
	{domain.ErrPersistenceUnavailable, fiber.StatusServiceUnavailable, "PERSISTENCE_UNAVAILABLE"},
	{domain.ErrExportUnavailable, fiber.StatusServiceUnavailable, "EXPORT_UNAVAILABLE"},
	{context.DeadlineExceeded, fiber.StatusRequestTimeout, "TIMEOUT"},
}

// writeError answers with dto.ErrorResponse for err.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}
