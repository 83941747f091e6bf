package services

import (
	"context"
	"time"

	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/corefin/accounting_core_app/internal/dto"
	"github.com/shopspring/decimal"
)

// CurrencyReaderSvc defines read operations for currency data
type CurrencyReaderSvc interface {
	// GetCurrencyByCode retrieves a specific currency by its code.
	GetCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error)

	// ListCurrencies retrieves all available currencies.
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
}

// CurrencyWriterSvc defines write operations for currency data
type CurrencyWriterSvc interface {
	// CreateCurrency persists a new currency.
	CreateCurrency(ctx context.Context, req dto.CreateCurrencyRequest, creatorUserID string) (*domain.Currency, error)
}

// CurrencySvcFacade combines all currency-related service interfaces
type CurrencySvcFacade interface {
	CurrencyReaderSvc
	CurrencyWriterSvc
}

// ExchangeRateReaderSvc defines read operations for exchange rate data
type ExchangeRateReaderSvc interface {
	// GetExchangeRate retrieves the stored rate from one currency to another
	// effective on or before the given date. It does not invert or bridge;
	// use FXConversionSvc for resolution.
	GetExchangeRate(ctx context.Context, fromCode, toCode string, rateType domain.RateType, onOrBefore time.Time) (*domain.ExchangeRate, error)
}

// ExchangeRateWriterSvc defines write operations for exchange rate data
type ExchangeRateWriterSvc interface {
	// CreateExchangeRate persists a new exchange rate.
	CreateExchangeRate(ctx context.Context, req dto.CreateExchangeRateRequest, creatorUserID string) (*domain.ExchangeRate, error)
}

// ExchangeRateSvcFacade combines all exchange rate-related service interfaces
type ExchangeRateSvcFacade interface {
	ExchangeRateReaderSvc
	ExchangeRateWriterSvc
}

// FXConversionSvc resolves exchange rates and converts amounts into the
// functional (base) currency of the ledger.
type FXConversionSvc interface {
	// BaseCurrencyCode returns the functional currency all journal amounts
	// are recorded in.
	BaseCurrencyCode() string

	// ResolveRate finds the rate from one currency to another effective on or
	// before the given date. Resolution order: direct rate, inverse of the
	// opposite rate, then bridging both legs through the base currency.
	// Returns apperrors.RateNotFoundError when no path exists.
	ResolveRate(ctx context.Context, fromCode, toCode string, rateType domain.RateType, onOrBefore time.Time) (decimal.Decimal, error)

	// Convert converts an amount between currencies at the resolved rate and
	// rounds the result to the target currency's precision.
	Convert(ctx context.Context, amount decimal.Decimal, fromCode, toCode string, rateType domain.RateType, onOrBefore time.Time) (decimal.Decimal, decimal.Decimal, error)
}
