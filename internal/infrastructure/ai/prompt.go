package ai

import (
	"fmt"
	"strings"

	"github.com/jhoicas/quote-builder/internal/application/ports"
	"github.com/jhoicas/quote-builder/internal/domain/extraction"
)

// extractionPrompt is the instruction sent with every source. The embedded schema is the
// row shape the normalizer reads; anything else the model adds is dropped there.
var extractionPrompt = `You extract product line items from supplier quotes, price lists, bills of materials and emails for an electrical wholesaler.

Return ONLY a JSON array matching this JSON Schema:
` + extraction.ResponseSchemaJSON() + `

Rules:
- Extract every product line. Skip subtotals, freight, taxes and notes.
- type is a short product category such as Switch, Downlight, Cable or RCBO.
- qty is the quantity quoted; use 1 when it is not stated.
- supplier is the brand or manufacturer.
- catalogNumber is a product code such as "C2031VA" or "BS8006/20"; it is never a sentence. Leave it "" when there is none.
- description is written for the end customer; do not include prices in it.
- costPerUnit is the supplier's unit cost excluding GST, as a plain number. When only a line total is given, divide it by qty.
- Use "" for unknown text fields and 0 for an unknown cost.
- Return [] when the document contains no product lines. No prose, no markdown.`

type sourceKind int

const (
	kindText sourceKind = iota
	kindPDF
	kindImage
)

var imageMIMETypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// classify decides how a source is sent to the model.
func classify(src ports.Source) (sourceKind, string, error) {
	mime := strings.ToLower(strings.TrimSpace(src.MIMEType))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	switch {
	case src.IsText() || strings.HasPrefix(mime, "text/") || mime == "application/json":
		return kindText, "text/plain", nil
	case mime == "application/pdf":
		return kindPDF, mime, nil
	case imageMIMETypes[mime]:
		return kindImage, mime, nil
	}
	return 0, "", fmt.Errorf("AI: unsupported document type %q for %s", src.MIMEType, src.Name)
}

// userText is the text part sent alongside (or instead of) the document.
func userText(src ports.Source, kind sourceKind) string {
	if kind == kindText {
		return fmt.Sprintf("Source: %s\n\n%s", src.Name, src.PlainText())
	}
	return fmt.Sprintf("Extract the product line items from the attached document %q.", src.Name)
}
