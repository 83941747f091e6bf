package repositories

import (
	"context"
	"time"

	"github.com/corefin/accounting_core_app/internal/core/domain"
)

// ExchangeRateRepositoryFacade defines persistence operations for exchange rates.
// The rate table is append-only reference data.
type ExchangeRateRepositoryFacade interface {
	SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error

	// FindRate returns the latest directly-stored rate for the pair effective
	// on or before the given date, or apperrors.ErrNotFound. Inverse and
	// base-currency-bridged resolution is the FX converter's job, not the
	// repository's.
	FindRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string, rateType domain.RateType, onOrBefore time.Time) (*domain.ExchangeRate, error)
}
