package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/quote-builder/internal/domain"
	"github.com/jhoicas/quote-builder/internal/domain/entity"
	"github.com/jhoicas/quote-builder/internal/domain/repository"
)

var _ repository.QuoteRepository = (*QuoteRepo)(nil)

//go:embed schema.sql
var schemaSQL string

// Migrate creates the quote tables when they do not exist.
func Migrate(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate quote schema: %w", err)
	}
	return nil
}

type txRunner interface {
	Run(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// QuoteRepo implements QuoteRepository on PostgreSQL. Reads go through q; Save runs in a
// transaction from tx so a quote and its rows are replaced together.
type QuoteRepo struct {
	q  Querier
	tx txRunner
}

// NewQuoteRepository builds the adapter. Pass the pool as q and a TxRunner on the same pool.
func NewQuoteRepository(q Querier, tx txRunner) *QuoteRepo {
	return &QuoteRepo{q: q, tx: tx}
}

// Save upserts the quote header and replaces all of its line items.
func (r *QuoteRepo) Save(ctx context.Context, quote *entity.SavedQuote) error {
	err := r.tx.Run(ctx, func(tx pgx.Tx) error {
		d, p := quote.Details, quote.PreparedBy
		_, err := tx.Exec(ctx, `
			INSERT INTO quotes (id, quote_number, customer_name, attention, project_name, quote_date, project_summary,
				prepared_name, prepared_job_title, prepared_branch, prepared_email, prepared_phone,
				global_margin, sort_key, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			ON CONFLICT (id) DO UPDATE SET
				quote_number = EXCLUDED.quote_number, customer_name = EXCLUDED.customer_name,
				attention = EXCLUDED.attention, project_name = EXCLUDED.project_name,
				quote_date = EXCLUDED.quote_date, project_summary = EXCLUDED.project_summary,
				prepared_name = EXCLUDED.prepared_name, prepared_job_title = EXCLUDED.prepared_job_title,
				prepared_branch = EXCLUDED.prepared_branch, prepared_email = EXCLUDED.prepared_email,
				prepared_phone = EXCLUDED.prepared_phone, global_margin = EXCLUDED.global_margin,
				sort_key = EXCLUDED.sort_key, updated_at = EXCLUDED.updated_at`,
			quote.ID, d.QuoteNumber, d.CustomerName, d.Attention, d.ProjectName, d.Date, d.ProjectSummary,
			p.Name, p.JobTitle, p.Branch, p.Email, p.Phone,
			quote.GlobalMargin, quote.SortKey, quote.CreatedAt, quote.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert quote: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM quote_line_items WHERE quote_id = $1`, quote.ID); err != nil {
			return fmt.Errorf("delete line items: %w", err)
		}
		if len(quote.Items) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for i, it := range quote.Items {
			batch.Queue(`
				INSERT INTO quote_line_items (quote_id, position, id, type, qty, supplier, catalog_number, description,
					cost_per_unit, discount_percent, margin_percent)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				quote.ID, i, it.ID, it.Type, it.Qty, it.Supplier, it.CatalogNumber, it.Description,
				it.CostPerUnit, it.DiscountPercent, it.MarginPercent,
			)
		}
		br := tx.SendBatch(ctx, batch)
		for range quote.Items {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("insert line item: %w", err)
			}
		}
		return br.Close()
	})
	return wrapSchemaErr(err)
}

// GetByID loads a quote with its rows in manual order. Returns nil, nil when it does not exist.
func (r *QuoteRepo) GetByID(ctx context.Context, id string) (*entity.SavedQuote, error) {
	var q entity.SavedQuote
	d, p := &q.Details, &q.PreparedBy
	err := r.q.QueryRow(ctx, `
		SELECT id, quote_number, customer_name, attention, project_name, quote_date, project_summary,
			prepared_name, prepared_job_title, prepared_branch, prepared_email, prepared_phone,
			global_margin, sort_key, created_at, updated_at
		FROM quotes WHERE id = $1`, id).Scan(
		&q.ID, &d.QuoteNumber, &d.CustomerName, &d.Attention, &d.ProjectName, &d.Date, &d.ProjectSummary,
		&p.Name, &p.JobTitle, &p.Branch, &p.Email, &p.Phone,
		&q.GlobalMargin, &q.SortKey, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapSchemaErr(fmt.Errorf("get quote: %w", err))
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, type, qty, supplier, catalog_number, description, cost_per_unit, discount_percent, margin_percent
		FROM quote_line_items WHERE quote_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.LineItem
		if err := rows.Scan(&it.ID, &it.Type, &it.Qty, &it.Supplier, &it.CatalogNumber, &it.Description,
			&it.CostPerUnit, &it.DiscountPercent, &it.MarginPercent); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		q.Items = append(q.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate line items: %w", err)
	}
	return &q, nil
}

// List returns quote headers, most recently updated first.
func (r *QuoteRepo) List(ctx context.Context, limit, offset int) ([]*entity.SavedQuoteHeader, error) {
	rows, err := r.q.Query(ctx, `
		SELECT q.id, q.quote_number, q.customer_name, q.project_name, q.updated_at,
			(SELECT count(*) FROM quote_line_items i WHERE i.quote_id = q.id)
		FROM quotes q
		ORDER BY q.updated_at DESC, q.id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, wrapSchemaErr(fmt.Errorf("list quotes: %w", err))
	}
	defer rows.Close()

	var list []*entity.SavedQuoteHeader
	for rows.Next() {
		var h entity.SavedQuoteHeader
		if err := rows.Scan(&h.ID, &h.QuoteNumber, &h.CustomerName, &h.ProjectName, &h.UpdatedAt, &h.ItemCount); err != nil {
			return nil, fmt.Errorf("scan quote header: %w", err)
		}
		list = append(list, &h)
	}
	return list, rows.Err()
}

// wrapSchemaErr marks a missing table as a persistence outage rather than a bug.
func wrapSchemaErr(err error) error {
	if err != nil && isUndefinedTable(err) {
		return fmt.Errorf("%w: %w", domain.ErrPersistenceUnavailable, err)
	}
	return err
}
