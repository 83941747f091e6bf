package repositories

import (
	"context"
	"time"

	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// TaxRateReader defines read operations for document tax reference data.
type TaxRateReader interface {
	// FindTaxRate returns the rate active for (country, category) on the date.
	FindTaxRate(ctx context.Context, country, category string, date time.Time) (*domain.TaxRate, error)
	SaveTaxRate(ctx context.Context, rate domain.TaxRate) error // Primarily for initial setup
}

// CorporateTaxRuleReader defines read operations for corporate tax rules.
type CorporateTaxRuleReader interface {
	FindCorporateTaxRule(ctx context.Context, country string, date time.Time) (*domain.CorporateTaxRule, error)
	SaveCorporateTaxRule(ctx context.Context, rule domain.CorporateTaxRule) error // Primarily for initial setup
}

// FilingRepository defines persistence operations for corporate tax filings.
type FilingRepository interface {
	FindFilingByID(ctx context.Context, filingID string) (*domain.CorporateTaxFiling, error)

	// FindFilingByPeriod returns the filing for (country, periodStart,
	// periodEnd), or apperrors.ErrNotFound. One filing exists per period.
	FindFilingByPeriod(ctx context.Context, country string, periodStart, periodEnd time.Time) (*domain.CorporateTaxFiling, error)

	SaveFilingInTx(ctx context.Context, tx pgx.Tx, filing domain.CorporateTaxFiling) error

	UpdateFilingStatusInTx(ctx context.Context, tx pgx.Tx, filingID string, status domain.FilingStatus, reversalEntryID *string, updatedBy string, updatedAt time.Time) error
}

// TaxRepositoryFacade combines tax reference data and filing persistence.
type TaxRepositoryFacade interface {
	TaxRateReader
	CorporateTaxRuleReader
	FilingRepository
	TransactionManager
}
