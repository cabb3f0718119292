// Package quoting holds the use cases that drive a quote session: editing the line-item
// collection, running extraction passes, producing the customer document and persisting
// quotes.
package quoting

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/quote-builder/internal/application/dto"
	"github.com/jhoicas/quote-builder/internal/domain"
	"github.com/jhoicas/quote-builder/internal/domain/entity"
	"github.com/jhoicas/quote-builder/internal/domain/quote"
	"github.com/jhoicas/quote-builder/internal/domain/repository"
	"github.com/jhoicas/quote-builder/pkg/logger"
	"github.com/jhoicas/quote-builder/pkg/money"
)

// QuoteConfig defaults applied to new sessions and to the customer document.
type QuoteConfig struct {
	DefaultMargin decimal.Decimal
	ValidityDays  int
	// Branch fills PreparedBy.Branch when a new quote does not name one.
	Branch string
}

// QuoteUseCase edits quote sessions. Index arguments are 0-based positions in the
// displayed order; stale or out-of-range indexes and unknown row ids leave the quote
// unchanged and still return its current view.
type QuoteUseCase struct {
	store    *SessionStore
	repo     repository.QuoteRepository
	exporter QuoteExporter
	cfg      QuoteConfig
	log      *logger.Logger
}

// NewQuoteUseCase builds the use case. repo may be nil, in which case the persistence
// operations fail with domain.ErrPersistenceUnavailable.
func NewQuoteUseCase(store *SessionStore, repo repository.QuoteRepository, exporter QuoteExporter, cfg QuoteConfig, log *logger.Logger) *QuoteUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &QuoteUseCase{store: store, repo: repo, exporter: exporter, cfg: cfg, log: log}
}

// ── Session lifecycle ─────────────────────────────────────────────────────────

// Create starts a new empty quote session.
func (uc *QuoteUseCase) Create(req dto.CreateQuoteRequest) (*dto.QuoteView, error) {
	margin := money.Or(req.GlobalMargin, uc.cfg.DefaultMargin)
	s := quote.NewSession(margin)
	s.Details = req.Details
	s.PreparedBy = req.PreparedBy
	if s.PreparedBy.Branch == "" {
		s.PreparedBy.Branch = uc.cfg.Branch
	}
	if s.Details.Date == "" {
		s.Details.Date = time.Now().Format(time.DateOnly)
	}
	if err := uc.store.Put(s); err != nil {
		return nil, err
	}
	uc.log.Info().Str("quote_id", s.ID).Str("margin", s.Margin.String()).Msg("quote session created")
	return buildView(s, false), nil
}

// Get returns the current view of a session.
func (uc *QuoteUseCase) Get(id string) (*dto.QuoteView, error) {
	var view *dto.QuoteView
	err := uc.store.View(id, func(s *quote.Session, busy bool) error {
		view = buildView(s, busy)
		return nil
	})
	return view, err
}

// UpdateDetails replaces the quote header. PreparedBy is kept when the request omits it.
func (uc *QuoteUseCase) UpdateDetails(id string, req dto.UpdateDetailsRequest) (*dto.QuoteView, error) {
	return uc.mutate(id, func(s *quote.Session) {
		s.Details = req.Details
		if req.PreparedBy != nil {
			s.PreparedBy = *req.PreparedBy
		}
		s.Touch()
	})
}

// ── Collection edits ──────────────────────────────────────────────────────────

// SetGlobalMargin sets the default margin and applies it to every row. A value that does
// not read as a number is taken as 0.
func (uc *QuoteUseCase) SetGlobalMargin(id string, req dto.MarginRequest) (*dto.QuoteView, error) {
	margin := money.Or(req.Value, decimal.Zero)
	return uc.mutate(id, func(s *quote.Session) {
		s.SetGlobalMargin(margin)
	})
}

// SetSort switches the displayed ordering.
func (uc *QuoteUseCase) SetSort(id string, req dto.SortRequest) (*dto.QuoteView, error) {
	key, ok := quote.ParseSortKey(req.Key)
	if !ok {
		return nil, fmt.Errorf("%w: unknown sort key %q", domain.ErrInvalidInput, req.Key)
	}
	return uc.mutate(id, func(s *quote.Session) {
		s.Items.ApplySort(key)
		s.Touch()
	})
}

// AppendRow adds a blank row at the end of the manual order.
func (uc *QuoteUseCase) AppendRow(id string) (*dto.QuoteView, error) {
	return uc.mutate(id, func(s *quote.Session) { s.AppendBlank() })
}

// InsertAbove adds a blank row above the displayed row at index.
func (uc *QuoteUseCase) InsertAbove(id string, index int) (*dto.QuoteView, error) {
	return uc.mutate(id, func(s *quote.Session) { s.InsertAbove(index) })
}

// InsertBelow adds a blank row below the displayed row at index.
func (uc *QuoteUseCase) InsertBelow(id string, index int) (*dto.QuoteView, error) {
	return uc.mutate(id, func(s *quote.Session) { s.InsertBelow(index) })
}

// DeleteRow removes the displayed row at index.
func (uc *QuoteUseCase) DeleteRow(id string, index int) (*dto.QuoteView, error) {
	return uc.mutate(id, func(s *quote.Session) {
		if s.Items.Delete(index) {
			s.Touch()
		}
	})
}

// MoveUp swaps the displayed row at index with the one above it.
func (uc *QuoteUseCase) MoveUp(id string, index int) (*dto.QuoteView, error) {
	return uc.mutate(id, func(s *quote.Session) {
		if s.Items.MoveUp(index) {
			s.Touch()
		}
	})
}

// MoveDown swaps the displayed row at index with the one below it.
func (uc *QuoteUseCase) MoveDown(id string, index int) (*dto.QuoteView, error) {
	return uc.mutate(id, func(s *quote.Session) {
		if s.Items.MoveDown(index) {
			s.Touch()
		}
	})
}

// UpdateRow replaces every editable field of the row rowID with the grid's values.
func (uc *QuoteUseCase) UpdateRow(id, rowID string, in dto.RowInput) (*dto.QuoteView, error) {
	row := RowFromInput(in)
	return uc.mutate(id, func(s *quote.Session) {
		if s.Items.Replace(rowID, row) {
			s.Touch()
		}
	})
}

// RowFromInput coerces a grid edit into a line item. Missing or non-numeric quantities
// become 1, every other non-numeric field 0.
func RowFromInput(in dto.RowInput) entity.LineItem {
	return entity.LineItem{
		Type:            strings.TrimSpace(in.Type),
		Qty:             money.Or(in.Qty, decimal.NewFromInt(1)),
		Supplier:        strings.TrimSpace(in.Supplier),
		CatalogNumber:   strings.TrimSpace(in.CatalogNumber),
		Description:     strings.TrimSpace(in.Description),
		CostPerUnit:     money.Or(in.CostPerUnit, decimal.Zero),
		DiscountPercent: money.Or(in.DiscountPercent, decimal.Zero),
		MarginPercent:   money.Or(in.MarginPercent, decimal.Zero),
	}
}

func (uc *QuoteUseCase) mutate(id string, fn func(s *quote.Session)) (*dto.QuoteView, error) {
	var view *dto.QuoteView
	err := uc.store.Update(id, func(s *quote.Session) error {
		fn(s)
		view = buildView(s, false)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ── Customer document ─────────────────────────────────────────────────────────

// Final returns the renderer input: customer-facing rows in displayed order and totals.
func (uc *QuoteUseCase) Final(id string) (*dto.FinalQuote, error) {
	var final *dto.FinalQuote
	err := uc.store.View(id, func(s *quote.Session, _ bool) error {
		final = buildFinal(s, uc.cfg.ValidityDays)
		return nil
	})
	return final, err
}

// Export renders the customer document with the configured exporter.
func (uc *QuoteUseCase) Export(ctx context.Context, id string) (data []byte, filename, contentType string, err error) {
	if uc.exporter == nil {
		return nil, "", "", domain.ErrExportUnavailable
	}
	final, err := uc.Final(id)
	if err != nil {
		return nil, "", "", err
	}
	data, err = uc.exporter.ExportQuote(ctx, final)
	if err != nil {
		return nil, "", "", fmt.Errorf("export quote: %w", err)
	}
	return data, ExportFilename(final.Details, uc.exporter.Extension()), uc.exporter.ContentType(), nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// ExportFilename builds "Quote_<number>_<customer>.<ext>" with unsafe characters replaced.
func ExportFilename(d entity.QuoteDetails, ext string) string {
	number := sanitize(d.QuoteNumber, "draft")
	customer := sanitize(d.CustomerName, "customer")
	return fmt.Sprintf("Quote_%s_%s.%s", number, customer, ext)
}

func sanitize(s, def string) string {
	s = strings.Trim(unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(s), "_"), "_")
	if s == "" {
		return def
	}
	return s
}

// ── Persistence ───────────────────────────────────────────────────────────────

// Save persists the session under its id, replacing any earlier save.
func (uc *QuoteUseCase) Save(ctx context.Context, id string) (*dto.SavedQuoteResponse, error) {
	if uc.repo == nil {
		return nil, domain.ErrPersistenceUnavailable
	}
	var snap entity.SavedQuote
	if err := uc.store.View(id, func(s *quote.Session, _ bool) error {
		snap = s.Snapshot()
		return nil
	}); err != nil {
		return nil, err
	}
	if err := uc.repo.Save(ctx, &snap); err != nil {
		return nil, fmt.Errorf("save quote: %w", err)
	}
	uc.log.Info().Str("quote_id", snap.ID).Int("items", len(snap.Items)).Msg("quote saved")
	return &dto.SavedQuoteResponse{
		ID:           snap.ID,
		QuoteNumber:  snap.Details.QuoteNumber,
		CustomerName: snap.Details.CustomerName,
		ProjectName:  snap.Details.ProjectName,
		ItemCount:    len(snap.Items),
		UpdatedAt:    snap.UpdatedAt.Format(time.RFC3339),
	}, nil
}

// ListSaved lists saved quotes, most recently updated first.
func (uc *QuoteUseCase) ListSaved(ctx context.Context, page dto.PageRequest) (*dto.SavedQuoteListResponse, error) {
	if uc.repo == nil {
		return nil, domain.ErrPersistenceUnavailable
	}
	page.DefaultPage()
	headers, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list saved quotes: %w", err)
	}
	items := make([]dto.SavedQuoteResponse, len(headers))
	for i, h := range headers {
		items[i] = dto.SavedQuoteResponse{
			ID:           h.ID,
			QuoteNumber:  h.QuoteNumber,
			CustomerName: h.CustomerName,
			ProjectName:  h.ProjectName,
			ItemCount:    h.ItemCount,
			UpdatedAt:    h.UpdatedAt.Format(time.RFC3339),
		}
	}
	return &dto.SavedQuoteListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// Load reopens a saved quote as an editing session with the same id.
func (uc *QuoteUseCase) Load(ctx context.Context, savedID string) (*dto.QuoteView, error) {
	if uc.repo == nil {
		return nil, domain.ErrPersistenceUnavailable
	}
	saved, err := uc.repo.GetByID(ctx, savedID)
	if err != nil {
		return nil, fmt.Errorf("load quote: %w", err)
	}
	if saved == nil {
		return nil, domain.ErrNotFound
	}
	s := quote.Restore(*saved)
	if err := uc.store.Put(s); err != nil {
		return nil, err
	}
	uc.log.Info().Str("quote_id", s.ID).Int("items", s.Items.Len()).Msg("quote loaded")
	return buildView(s, false), nil
}
