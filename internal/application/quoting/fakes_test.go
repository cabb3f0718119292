package quoting_test

import (
	"context"
	"errors"
	"sync"

	"github.com/jhoicas/quote-builder/internal/application/dto"
	"github.com/jhoicas/quote-builder/internal/application/ports"
	"github.com/jhoicas/quote-builder/internal/domain/entity"
)

// fakeExtractor answers from a table keyed by source name.
type fakeExtractor struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     []string
	onCall    func(src ports.Source)
}

func (f *fakeExtractor) Extract(ctx context.Context, src ports.Source) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, src.Name)
	hook := f.onCall
	f.mu.Unlock()
	if hook != nil {
		hook(src)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err, ok := f.errs[src.Name]; ok {
		return "", err
	}
	return f.responses[src.Name], nil
}

func (f *fakeExtractor) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// memRepo is an in-memory QuoteRepository.
type memRepo struct {
	mu    sync.Mutex
	saved map[string]entity.SavedQuote
	err   error
}

func newMemRepo() *memRepo { return &memRepo{saved: map[string]entity.SavedQuote{}} }

func (r *memRepo) Save(_ context.Context, q *entity.SavedQuote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	cp := *q
	cp.Items = append([]entity.LineItem(nil), q.Items...)
	r.saved[q.ID] = cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*entity.SavedQuote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	q, ok := r.saved[id]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

func (r *memRepo) List(_ context.Context, limit, offset int) ([]*entity.SavedQuoteHeader, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.SavedQuoteHeader, 0, len(r.saved))
	for _, q := range r.saved {
		out = append(out, &entity.SavedQuoteHeader{
			ID:           q.ID,
			QuoteNumber:  q.Details.QuoteNumber,
			CustomerName: q.Details.CustomerName,
			ItemCount:    len(q.Items),
			UpdatedAt:    q.UpdatedAt,
		})
	}
	return out, nil
}

// stubExporter records the FinalQuote it was handed.
type stubExporter struct {
	got *dto.FinalQuote
	err error
}

func (e *stubExporter) ExportQuote(_ context.Context, q *dto.FinalQuote) ([]byte, error) {
	e.got = q
	if e.err != nil {
		return nil, e.err
	}
	return []byte("doc"), nil
}

func (e *stubExporter) ContentType() string { return "application/octet-stream" }
func (e *stubExporter) Extension() string   { return "bin" }

var errUpstream = errors.New("upstream 529 overloaded")
