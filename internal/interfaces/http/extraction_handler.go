package http

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/quote-builder/internal/application/ports"
	"github.com/jhoicas/quote-builder/internal/application/quoting"
	"github.com/jhoicas/quote-builder/pkg/logger"
)

// PastedTextSource is the source name reported for the pasted text field.
const PastedTextSource = "Pasted text"

// ExtractionHandler runs extraction passes over uploaded documents and pasted text.
type ExtractionHandler struct {
	uc  *quoting.AssemblyUseCase
	log *logger.Logger
}

// NewExtractionHandler builds the handler.
func NewExtractionHandler(uc *quoting.AssemblyUseCase, log *logger.Logger) *ExtractionHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ExtractionHandler{uc: uc, log: log}
}

// Extract godoc
// @Summary      Extract line items from documents and pasted text
// @Description  Sources are sent to the extraction service one at a time. Sources whose
// @Description  response cannot be read are listed in failedSources; the others are merged.
// @Tags         quotes
// @Accept       multipart/form-data
// @Produce      json
// @Param        id     path      string  true   "Quote ID"
// @Param        files  formData  file    false  "Documents (PDF or image), repeatable"
// @Param        text   formData  string  false  "Pasted text"
// @Success      200    {object}  dto.ExtractionReport
// @Failure      400    {object}  dto.ErrorResponse
// @Failure      409    {object}  dto.ErrorResponse
// @Failure      503    {object}  dto.ErrorResponse
// @Router       /api/quotes/{id}/extract [post]
func (h *ExtractionHandler) Extract(c *fiber.Ctx) error {
	sources, err := readSources(c)
	if err != nil {
		return badRequest(c, "INVALID_UPLOAD", err.Error())
	}

	report, err := h.uc.Run(c.UserContext(), c.Params("id"), sources)
	if err != nil {
		if report != nil && report.Cancelled {
			h.log.Warn().Err(err).Str("quote_id", c.Params("id")).Msg("extraction pass interrupted")
			return c.JSON(report)
		}
		return writeError(c, err)
	}
	return c.JSON(report)
}

// readSources collects the uploaded files (field "files") followed by the pasted text.
func readSources(c *fiber.Ctx) ([]ports.Source, error) {
	var sources []ports.Source

	form, err := c.MultipartForm()
	if err == nil {
		for _, fh := range form.File["files"] {
			src, err := fileSource(fh)
			if err != nil {
				return nil, err
			}
			sources = append(sources, src)
		}
	} else if isMultipart(c) {
		return nil, fmt.Errorf("read multipart form: %w", err)
	}

	if text := strings.TrimSpace(c.FormValue("text")); text != "" {
		sources = append(sources, ports.Source{Name: PastedTextSource, MIMEType: "text/plain", Text: text})
	}
	return sources, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

func fileSource(fh *multipart.FileHeader) (ports.Source, error) {
	f, err := fh.Open()
	if err != nil {
		return ports.Source{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return ports.Source{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return ports.Source{
		Name:     filepath.Base(fh.Filename),
		MIMEType: detectMIME(fh.Filename, fh.Header.Get(fiber.HeaderContentType), content),
		Content:  content,
	}, nil
}

// detectMIME trusts a specific declared type, then the extension, then the content.
func detectMIME(name, declared string, content []byte) string {
	if declared != "" && declared != fiber.MIMEOctetStream {
		return declared
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		return byExt
	}
	return http.DetectContentType(content)
}
