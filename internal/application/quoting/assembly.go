package quoting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/quote-builder/internal/application/dto"
	"github.com/jhoicas/quote-builder/internal/application/ports"
	"github.com/jhoicas/quote-builder/internal/domain"
	"github.com/jhoicas/quote-builder/internal/domain/extraction"
	"github.com/jhoicas/quote-builder/pkg/logger"
)

// AssemblyConfig tunes an extraction pass.
type AssemblyConfig struct {
	// Pause is the delay inserted between two successive calls to the extraction service.
	Pause time.Duration
	// CallTimeout bounds a single extraction call. Zero means no per-call bound.
	CallTimeout time.Duration
}

// AssemblyUseCase runs extraction passes: every source is sent to the extraction service
// one at a time, normalized, and its rows appended to the quote in a single step.
type AssemblyUseCase struct {
	store     *SessionStore
	extractor ports.Extractor
	cfg       AssemblyConfig
	log       *logger.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewAssemblyUseCase builds the use case. extractor may be nil when no provider is
// configured; every pass then fails with domain.ErrProviderNotConfigured.
func NewAssemblyUseCase(store *SessionStore, extractor ports.Extractor, cfg AssemblyConfig, log *logger.Logger) *AssemblyUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &AssemblyUseCase{store: store, extractor: extractor, cfg: cfg, log: log, sleep: sleepCtx}
}

// Run performs one extraction pass over sources for the quote quoteID.
//
// A source that is empty, errors or returns unrecoverable text is reported in FailedSources
// and the pass moves on; there is no retry. If ctx is cancelled the rows already appended stay in
// the quote and the partial report is returned together with ctx.Err().
func (uc *AssemblyUseCase) Run(ctx context.Context, quoteID string, sources []ports.Source) (*dto.ExtractionReport, error) {
	if len(sources) == 0 {
		return nil, domain.ErrNoSources
	}
	if uc.extractor == nil {
		return nil, domain.ErrProviderNotConfigured
	}

	margin, err := uc.store.begin(quoteID)
	if err != nil {
		return nil, err
	}
	defer uc.store.end(quoteID)

	report := &dto.ExtractionReport{FailedSources: []string{}, Sources: make([]dto.SourceOutcome, 0, len(sources))}
	log := uc.log.With().Str("quote_id", quoteID).Int("sources", len(sources)).Logger()
	log.Info().Msg("extraction pass started")

	calls := 0
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return uc.cancelled(report, err)
		}
		if src.Empty() {
			log.Warn().Str("source", src.Name).Msg("empty source")
			report.FailedSources = append(report.FailedSources, src.Name)
			report.Sources = append(report.Sources, dto.SourceOutcome{Source: src.Name, Failed: true, Error: "empty source"})
			continue
		}

		// ── Backpressure between calls ──────────────────────────────────────
		if calls > 0 {
			if err := uc.sleep(ctx, uc.cfg.Pause); err != nil {
				return uc.cancelled(report, err)
			}
		}
		calls++

		// ── Extraction call ─────────────────────────────────────────────────
		start := time.Now()
		log.Debug().Str("source", src.Name).Str("mime", src.MIMEType).Msg("extracting source")
		raw, err := uc.extract(ctx, src)
		elapsed := time.Since(start).Milliseconds()
		if err != nil {
			if ctx.Err() != nil {
				return uc.cancelled(report, ctx.Err())
			}
			log.Warn().Err(err).Str("source", src.Name).Int64("elapsed_ms", elapsed).Msg("extraction call failed")
			report.FailedSources = append(report.FailedSources, src.Name)
			report.Sources = append(report.Sources, dto.SourceOutcome{Source: src.Name, Failed: true, Error: err.Error()})
			continue
		}

		// ── Normalization and per-source append ─────────────────────────────
		res := extraction.Normalize(raw, src.Name, margin)
		if res.Failed {
			log.Warn().Str("source", src.Name).Int("response_len", len(raw)).Int64("elapsed_ms", elapsed).Msg("extraction response not recoverable")
			report.FailedSources = append(report.FailedSources, src.Name)
			report.Sources = append(report.Sources, dto.SourceOutcome{Source: src.Name, Failed: true, Error: "response could not be parsed"})
			continue
		}
		if err := uc.store.appendRows(quoteID, res.Rows); err != nil {
			return report, fmt.Errorf("assembly: append rows: %w", err)
		}
		report.ItemsAdded += len(res.Rows)
		report.Sources = append(report.Sources, dto.SourceOutcome{Source: src.Name, Rows: len(res.Rows), Coerced: res.Coerced, Stage: res.Stage})
		log.Debug().Str("source", src.Name).Str("stage", res.Stage).Int("rows", len(res.Rows)).Int("skipped", res.Skipped).Int("coerced", res.Coerced).Int64("elapsed_ms", elapsed).Msg("source merged")
	}

	log.Info().Int("items_added", report.ItemsAdded).Strs("failed_sources", report.FailedSources).Msg("extraction pass finished")
	return report, nil
}

func (uc *AssemblyUseCase) extract(ctx context.Context, src ports.Source) (string, error) {
	if uc.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.cfg.CallTimeout)
		defer cancel()
	}
	return uc.extractor.Extract(ctx, src)
}

func (uc *AssemblyUseCase) cancelled(report *dto.ExtractionReport, err error) (*dto.ExtractionReport, error) {
	report.Cancelled = true
	uc.log.Warn().Int("items_added", report.ItemsAdded).Msg("extraction pass cancelled")
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return report, err
	}
	return report, fmt.Errorf("assembly: %w", err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
