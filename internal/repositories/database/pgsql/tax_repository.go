package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/corefin/accounting_core_app/internal/apperrors"
	"github.com/corefin/accounting_core_app/internal/core/domain"
	portsrepo "github.com/corefin/accounting_core_app/internal/core/ports/repositories"
	"github.com/corefin/accounting_core_app/internal/models"
	"github.com/corefin/accounting_core_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxTaxRepository struct {
	BaseRepository
}

// newPgxTaxRepository creates a new repository for tax reference data and
// corporate tax filings.
func newPgxTaxRepository(pool *pgxpool.Pool) portsrepo.TaxRepositoryFacade {
	return &PgxTaxRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.TaxRepositoryFacade = (*PgxTaxRepository)(nil)

// FindTaxRate returns the rate active for (country, category) on the date.
// Half-open validity: effective_from <= date < effective_to, open-ended when
// effective_to is NULL. The latest effective_from wins on overlap.
func (r *PgxTaxRepository) FindTaxRate(ctx context.Context, country, category string, date time.Time) (*domain.TaxRate, error) {
	query := `
		SELECT tax_rate_id, country, category, rate, effective_from, effective_to, created_at, created_by, last_updated_at, last_updated_by
		FROM tax_rates
		WHERE country = $1 AND category = $2 AND effective_from <= $3 AND (effective_to IS NULL OR effective_to > $3)
		ORDER BY effective_from DESC
		LIMIT 1;
	`
	var m models.TaxRate
	err := r.Pool.QueryRow(ctx, query, country, category, date).Scan(
		&m.TaxRateID,
		&m.Country,
		&m.Category,
		&m.Rate,
		&m.EffectiveFrom,
		&m.EffectiveTo,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find tax rate for %s/%s: %w", country, category, err)
	}

	domainRate := mapping.ToDomainTaxRate(m)
	return &domainRate, nil
}

// SaveTaxRate inserts a tax rate (primarily for initial setup).
func (r *PgxTaxRepository) SaveTaxRate(ctx context.Context, rate domain.TaxRate) error {
	m := mapping.ToModelTaxRate(rate)

	query := `
		INSERT INTO tax_rates (tax_rate_id, country, category, rate, effective_from, effective_to, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.TaxRateID,
		m.Country,
		m.Category,
		m.Rate,
		m.EffectiveFrom,
		m.EffectiveTo,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save tax rate %s: %w", m.TaxRateID, err)
	}
	return nil
}

// FindCorporateTaxRule returns the corporate rule active for a country on the
// date, using the same half-open validity as document tax rates.
func (r *PgxTaxRepository) FindCorporateTaxRule(ctx context.Context, country string, date time.Time) (*domain.CorporateTaxRule, error) {
	query := `
		SELECT rule_id, country, rate, threshold, effective_from, effective_to, created_at, created_by, last_updated_at, last_updated_by
		FROM corporate_tax_rules
		WHERE country = $1 AND effective_from <= $2 AND (effective_to IS NULL OR effective_to > $2)
		ORDER BY effective_from DESC
		LIMIT 1;
	`
	var m models.CorporateTaxRule
	err := r.Pool.QueryRow(ctx, query, country, date).Scan(
		&m.RuleID,
		&m.Country,
		&m.Rate,
		&m.Threshold,
		&m.EffectiveFrom,
		&m.EffectiveTo,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find corporate tax rule for %s: %w", country, err)
	}

	domainRule := mapping.ToDomainCorporateTaxRule(m)
	return &domainRule, nil
}

// SaveCorporateTaxRule inserts a corporate tax rule (primarily for initial setup).
func (r *PgxTaxRepository) SaveCorporateTaxRule(ctx context.Context, rule domain.CorporateTaxRule) error {
	m := mapping.ToModelCorporateTaxRule(rule)

	query := `
		INSERT INTO corporate_tax_rules (rule_id, country, rate, threshold, effective_from, effective_to, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.RuleID,
		m.Country,
		m.Rate,
		m.Threshold,
		m.EffectiveFrom,
		m.EffectiveTo,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save corporate tax rule %s: %w", m.RuleID, err)
	}
	return nil
}

const filingColumns = `filing_id, country, period_start, period_end, status, tax_base, tax_amount, accrual_entry_id, reversal_entry_id, created_at, created_by, last_updated_at, last_updated_by`

func scanFilingRow(row pgx.Row) (models.CorporateTaxFiling, error) {
	var m models.CorporateTaxFiling
	err := row.Scan(
		&m.FilingID,
		&m.Country,
		&m.PeriodStart,
		&m.PeriodEnd,
		&m.Status,
		&m.TaxBase,
		&m.TaxAmount,
		&m.AccrualEntryID,
		&m.ReversalEntryID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// FindFilingByID retrieves a corporate tax filing by its ID.
func (r *PgxTaxRepository) FindFilingByID(ctx context.Context, filingID string) (*domain.CorporateTaxFiling, error) {
	query := `
		SELECT ` + filingColumns + `
		FROM corporate_tax_filings
		WHERE filing_id = $1;
	`
	m, err := scanFilingRow(r.Pool.QueryRow(ctx, query, filingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find filing by ID %s: %w", filingID, err)
	}

	domainFiling := mapping.ToDomainCorporateTaxFiling(m)
	return &domainFiling, nil
}

// FindFilingByPeriod returns the latest filing for (country, period). More
// than one row exists only when earlier filings were reversed and re-accrued.
func (r *PgxTaxRepository) FindFilingByPeriod(ctx context.Context, country string, periodStart, periodEnd time.Time) (*domain.CorporateTaxFiling, error) {
	query := `
		SELECT ` + filingColumns + `
		FROM corporate_tax_filings
		WHERE country = $1 AND period_start = $2 AND period_end = $3
		ORDER BY created_at DESC
		LIMIT 1;
	`
	m, err := scanFilingRow(r.Pool.QueryRow(ctx, query, country, periodStart, periodEnd))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find filing for %s %s..%s: %w", country, periodStart.Format("2006-01-02"), periodEnd.Format("2006-01-02"), err)
	}

	domainFiling := mapping.ToDomainCorporateTaxFiling(m)
	return &domainFiling, nil
}

// SaveFilingInTx inserts a filing inside the caller's transaction, atomically
// with its accrual entry.
func (r *PgxTaxRepository) SaveFilingInTx(ctx context.Context, tx pgx.Tx, filing domain.CorporateTaxFiling) error {
	m := mapping.ToModelCorporateTaxFiling(filing)

	query := `
		INSERT INTO corporate_tax_filings (filing_id, country, period_start, period_end, status, tax_base, tax_amount, accrual_entry_id, reversal_entry_id, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := tx.Exec(ctx, query,
		m.FilingID,
		m.Country,
		m.PeriodStart,
		m.PeriodEnd,
		m.Status,
		m.TaxBase,
		m.TaxAmount,
		m.AccrualEntryID,
		m.ReversalEntryID,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: filing for %s %s..%s", apperrors.ErrDuplicate, m.Country, m.PeriodStart.Format("2006-01-02"), m.PeriodEnd.Format("2006-01-02"))
		}
		return fmt.Errorf("failed to insert filing %s: %w", m.FilingID, err)
	}
	return nil
}

// UpdateFilingStatusInTx records a filing lifecycle transition and, for
// reversals, the reversal entry back-link.
func (r *PgxTaxRepository) UpdateFilingStatusInTx(ctx context.Context, tx pgx.Tx, filingID string, status domain.FilingStatus, reversalEntryID *string, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE corporate_tax_filings
		SET status = $2, reversal_entry_id = COALESCE($3, reversal_entry_id), last_updated_at = $4, last_updated_by = $5
		WHERE filing_id = $1;
	`
	ct, err := tx.Exec(ctx, query, filingID, string(status), reversalEntryID, updatedAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to update status for filing %s: %w", filingID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("filing " + filingID + " not found for status update")
	}
	return nil
}
