package ports

import (
	"context"
	"strings"
)

// Source is one input handed to the extraction service: an uploaded document or a block
// of pasted text.
type Source struct {
	// Name identifies the source in reports (file name, or "Pasted text").
	Name     string
	MIMEType string
	Content  []byte
	// Text is set for pasted text; Content is empty in that case.
	Text string
}

// IsText reports whether the source is plain text rather than a binary document.
func (s Source) IsText() bool {
	return s.Text != "" || s.MIMEType == "text/plain"
}

// Empty reports whether the source carries nothing to extract from.
func (s Source) Empty() bool {
	return len(s.Content) == 0 && strings.TrimSpace(s.Text) == ""
}

// PlainText returns the text of a text source.
func (s Source) PlainText() string {
	if s.Text != "" {
		return s.Text
	}
	return string(s.Content)
}

// Extractor is the outbound port to the extraction service. The returned text is
// untrusted: it is usually, not always, a JSON array of candidate rows. Implementations
// must not parse it.
type Extractor interface {
	Extract(ctx context.Context, src Source) (string, error)
}
