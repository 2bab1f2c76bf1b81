package repository

import (
	"context"
	"errors"
	"fmt"

	"paintquote_backend/internal/quotes/domain"
	"paintquote_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opGetRates    = "quotes.repository.GetChargeRates"
	opGetSettings = "quotes.repository.GetSettings"
	opCounter     = "quotes.repository.NextQuoteCounter"
	opCreate      = "quotes.repository.CreateQuote"

	errRepoNotConfigured = "quotes repository not configured"
	uniqueViolation      = "23505"
)

// Repository provides database operations for quotes and the company
// pricing data they are computed from.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new quotes repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type rateRow struct {
	SurfaceType string
	Rate        float64
}

// GetChargeRates returns the company's per-surface rates. Rows for surface
// types this build does not know are skipped.
func (r *Repository) GetChargeRates(ctx context.Context, companyID uuid.UUID) (domain.ChargeRates, error) {
	if r == nil || r.pool == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opGetRates)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT surface_type, rate::float8
		FROM company_charge_rates
		WHERE company_id = $1`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query charge rates: %w", err)
	}
	defer rows.Close()

	var list []rateRow
	for rows.Next() {
		var row rateRow
		if err := rows.Scan(&row.SurfaceType, &row.Rate); err != nil {
			return nil, fmt.Errorf("failed to scan charge rate: %w", err)
		}
		list = append(list, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate charge rates: %w", err)
	}
	return chargeRatesFromRows(list), nil
}

func chargeRatesFromRows(rows []rateRow) domain.ChargeRates {
	rates := make(domain.ChargeRates, len(rows))
	for _, row := range rows {
		t := domain.SurfaceType(row.SurfaceType)
		if !t.Valid() || row.Rate < 0 {
			continue
		}
		rates[t] = row.Rate
	}
	return rates
}

// GetSettings returns the company's quote settings. A company without a
// settings row gets zero percentages.
func (r *Repository) GetSettings(ctx context.Context, companyID uuid.UUID) (domain.QuoteSettings, error) {
	if r == nil || r.pool == nil {
		return domain.QuoteSettings{}, apperr.Internal(errRepoNotConfigured).WithOp(opGetSettings)
	}

	var s domain.QuoteSettings
	err := r.pool.QueryRow(ctx, `
		SELECT tax_rate_percent::float8, overhead_percent::float8,
			profit_margin_percent::float8, labor_percent_of_cost::float8
		FROM company_quote_settings
		WHERE company_id = $1`, companyID).Scan(
		&s.TaxRatePercent, &s.OverheadPercent, &s.ProfitMarginPercent, &s.LaborPercentOfCost,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.QuoteSettings{}, nil
		}
		return domain.QuoteSettings{}, fmt.Errorf("failed to get quote settings: %w", err)
	}
	return s, nil
}

// NextQuoteCounter atomically increments and returns the company's counter.
// The upsert takes the row lock, so concurrent callers serialize on this
// company's row only.
func (r *Repository) NextQuoteCounter(ctx context.Context, companyID uuid.UUID) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, apperr.Internal(errRepoNotConfigured).WithOp(opCounter)
	}

	var next int64
	query := `
		INSERT INTO quote_counters (company_id, last_number)
		VALUES ($1, 1)
		ON CONFLICT (company_id) DO UPDATE SET last_number = quote_counters.last_number + 1
		RETURNING last_number`

	if err := r.pool.QueryRow(ctx, query, companyID).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to increment quote counter: %w", err)
	}
	return next, nil
}

// CreateQuote inserts a priced quote. A duplicate quote number for the same
// company is reported as a conflict.
func (r *Repository) CreateQuote(ctx context.Context, q domain.Quote) error {
	if r == nil || r.pool == nil {
		return apperr.Internal(errRepoNotConfigured).WithOp(opCreate)
	}

	query := `
		INSERT INTO quotes (
			id, company_id, created_by, quote_number, status, project_type,
			customer, surfaces, settings, breakdown, analysis,
			total, forced, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	surfaces := q.Surfaces
	if surfaces == nil {
		surfaces = []domain.Surface{}
	}

	_, err := r.pool.Exec(ctx, query,
		q.ID, q.CompanyID, q.CreatedBy, q.QuoteNumber, string(q.Status), string(q.ProjectType),
		q.Customer, surfaces, q.Settings, q.Breakdown, q.Analysis,
		q.Breakdown.Total, q.Forced, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperr.Conflict("quote number already issued").WithOp(opCreate)
		}
		return fmt.Errorf("failed to insert quote: %w", err)
	}
	return nil
}
