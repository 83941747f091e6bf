package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/corefin/accounting_core_app/internal/apperrors"
	"github.com/corefin/accounting_core_app/internal/core/domain"
	portsrepo "github.com/corefin/accounting_core_app/internal/core/ports/repositories"
	portssvc "github.com/corefin/accounting_core_app/internal/core/ports/services"
	"github.com/corefin/accounting_core_app/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// rateDivisionPrecision is the scale kept when deriving a rate by inversion or
// bridging. Division must not silently truncate a rate that feeds monetary
// conversion.
const rateDivisionPrecision int32 = 12

// fxService resolves exchange rates against the stored rate table and converts
// amounts between currencies. All ledger postings run through Convert so the
// rounding policy is applied in exactly one place.
type fxService struct {
	rateRepo     portsrepo.ExchangeRateRepositoryFacade
	currencyRepo portsrepo.CurrencyRepositoryFacade
	baseCurrency string
}

// NewFXService creates a new FX conversion service. baseCurrency is the
// functional currency journal amounts are recorded in.
func NewFXService(rateRepo portsrepo.ExchangeRateRepositoryFacade, currencyRepo portsrepo.CurrencyRepositoryFacade, baseCurrency string) portssvc.FXConversionSvc {
	return &fxService{
		rateRepo:     rateRepo,
		currencyRepo: currencyRepo,
		baseCurrency: baseCurrency,
	}
}

var _ portssvc.FXConversionSvc = (*fxService)(nil)

func (s *fxService) BaseCurrencyCode() string {
	return s.baseCurrency
}

// ResolveRate finds the rate from fromCode to toCode effective on or before the
// given date. Resolution order:
//  1. direct stored rate from->to
//  2. inverse of a stored rate to->from
//  3. bridge both legs through the base currency
func (s *fxService) ResolveRate(ctx context.Context, fromCode, toCode string, rateType domain.RateType, onOrBefore time.Time) (decimal.Decimal, error) {
	if fromCode == toCode {
		return decimal.NewFromInt(1), nil
	}

	rate, err := s.resolvePairRate(ctx, fromCode, toCode, rateType, onOrBefore)
	if err == nil {
		return rate, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return decimal.Zero, err
	}

	// Bridge through the base currency: rate(from->to) = rate(from->base) / rate(to->base).
	if fromCode != s.baseCurrency && toCode != s.baseCurrency {
		fromLeg, errFrom := s.resolvePairRate(ctx, fromCode, s.baseCurrency, rateType, onOrBefore)
		toLeg, errTo := s.resolvePairRate(ctx, toCode, s.baseCurrency, rateType, onOrBefore)
		if errFrom == nil && errTo == nil && !toLeg.IsZero() {
			return fromLeg.DivRound(toLeg, rateDivisionPrecision), nil
		}
		for _, legErr := range []error{errFrom, errTo} {
			if legErr != nil && !errors.Is(legErr, apperrors.ErrNotFound) {
				return decimal.Zero, legErr
			}
		}
	}

	return decimal.Zero, &apperrors.RateNotFoundError{
		FromCurrency: fromCode,
		ToCurrency:   toCode,
		Date:         onOrBefore,
		RateType:     string(rateType),
	}
}

// resolvePairRate tries the direct rate and then the inverse of the opposite
// stored rate. Returns apperrors.ErrNotFound (wrapped) when neither exists.
func (s *fxService) resolvePairRate(ctx context.Context, fromCode, toCode string, rateType domain.RateType, onOrBefore time.Time) (decimal.Decimal, error) {
	direct, err := s.rateRepo.FindRate(ctx, fromCode, toCode, rateType, onOrBefore)
	if err == nil {
		return direct.Rate, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return decimal.Zero, fmt.Errorf("failed to look up rate %s->%s: %w", fromCode, toCode, err)
	}

	inverse, err := s.rateRepo.FindRate(ctx, toCode, fromCode, rateType, onOrBefore)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return decimal.Zero, err
		}
		return decimal.Zero, fmt.Errorf("failed to look up inverse rate %s->%s: %w", toCode, fromCode, err)
	}
	if inverse.Rate.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: stored rate %s->%s is zero", apperrors.ErrInternal, toCode, fromCode)
	}
	return decimal.NewFromInt(1).DivRound(inverse.Rate, rateDivisionPrecision), nil
}

// Convert converts an amount between currencies at the resolved rate. The
// result is rounded half-up to the target currency's minor units; the returned
// rate is the unrounded resolution result.
func (s *fxService) Convert(ctx context.Context, amount decimal.Decimal, fromCode, toCode string, rateType domain.RateType, onOrBefore time.Time) (decimal.Decimal, decimal.Decimal, error) {
	rate, err := s.ResolveRate(ctx, fromCode, toCode, rateType, onOrBefore)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	precision := accounting.DefaultMoneyPrecision
	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, toCode)
	if err == nil {
		precision = currency.Precision
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to look up currency %s: %w", toCode, err)
	}

	converted := accounting.RoundMoney(amount.Mul(rate), precision)
	return converted, rate, nil
}
