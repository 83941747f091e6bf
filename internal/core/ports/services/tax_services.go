package services

import (
	"context"
	"time"

	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/corefin/accounting_core_app/internal/dto"
	"github.com/shopspring/decimal"
)

// TaxRateReaderSvc defines read operations for document tax rates
type TaxRateReaderSvc interface {
	// GetTaxRate retrieves the rate for a country and category effective on
	// the given date. A missing rate is not an error; the caller treats it
	// as zero tax.
	GetTaxRate(ctx context.Context, country, category string, date time.Time) (*domain.TaxRate, error)

	// CalculateLineTax applies the effective rate to a line amount, rounded
	// to the currency's precision.
	CalculateLineTax(ctx context.Context, amount decimal.Decimal, country string, category *string, date time.Time, precision int32) (decimal.Decimal, error)
}

// TaxRateWriterSvc defines write operations for document tax rates
type TaxRateWriterSvc interface {
	// CreateTaxRate persists a new document tax rate.
	CreateTaxRate(ctx context.Context, req dto.CreateTaxRateRequest, creatorUserID string) (*domain.TaxRate, error)

	// CreateCorporateTaxRule persists a new corporate tax rule.
	CreateCorporateTaxRule(ctx context.Context, req dto.CreateCorporateTaxRuleRequest, creatorUserID string) (*domain.CorporateTaxRule, error)
}

// TaxRateSvcFacade combines all document tax rate service interfaces
type TaxRateSvcFacade interface {
	TaxRateReaderSvc
	TaxRateWriterSvc
}

// CorporateTaxReaderSvc defines read operations for corporate tax filings
type CorporateTaxReaderSvc interface {
	// GetFilingByID retrieves a filing by its ID.
	GetFilingByID(ctx context.Context, filingID string) (*domain.CorporateTaxFiling, error)
}

// CorporateTaxWriterSvc drives the corporate tax accrual lifecycle
type CorporateTaxWriterSvc interface {
	// AccrueTax computes profit before tax over the period from posted
	// entries, applies the country's corporate tax rule, and books the
	// accrual entry. Accruing twice for the same (country, period) returns
	// the existing filing unchanged.
	AccrueTax(ctx context.Context, req dto.AccrueTaxRequest, userID string) (*domain.CorporateTaxFiling, error)

	// MarkFiled transitions an Accrued filing to Filed.
	MarkFiled(ctx context.Context, filingID string, userID string) (*domain.CorporateTaxFiling, error)

	// ReverseFiling reverses the accrual entry and marks the filing Reversed,
	// reopening the period for a corrected accrual.
	ReverseFiling(ctx context.Context, filingID string, userID string) (*domain.CorporateTaxFiling, error)
}

// CorporateTaxSvcFacade combines all corporate tax service interfaces
type CorporateTaxSvcFacade interface {
	CorporateTaxReaderSvc
	CorporateTaxWriterSvc
}
