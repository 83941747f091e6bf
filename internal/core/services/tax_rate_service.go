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
	"github.com/corefin/accounting_core_app/internal/dto"
	"github.com/corefin/accounting_core_app/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// taxRateService provides document tax rate lookup and per-line tax
// calculation against the temporal rate table.
type taxRateService struct {
	taxRepo portsrepo.TaxRepositoryFacade
}

// NewTaxRateService creates a new tax rate service.
func NewTaxRateService(taxRepo portsrepo.TaxRepositoryFacade) portssvc.TaxRateSvcFacade {
	return &taxRateService{taxRepo: taxRepo}
}

var _ portssvc.TaxRateSvcFacade = (*taxRateService)(nil)

// GetTaxRate retrieves the rate active for (country, category) on the date.
func (s *taxRateService) GetTaxRate(ctx context.Context, country, category string, date time.Time) (*domain.TaxRate, error) {
	rate, err := s.taxRepo.FindTaxRate(ctx, country, category, date)
	if err != nil {
		return nil, fmt.Errorf("failed to find tax rate for %s/%s: %w", country, category, err)
	}
	return rate, nil
}

// CalculateLineTax applies the effective rate to a line amount. A nil category
// or an absent rate both mean zero tax; rates are reference data and lines
// without a match are simply untaxed.
func (s *taxRateService) CalculateLineTax(ctx context.Context, amount decimal.Decimal, country string, category *string, date time.Time, precision int32) (decimal.Decimal, error) {
	if category == nil {
		return decimal.Zero, nil
	}

	rate, err := s.taxRepo.FindTaxRate(ctx, country, *category, date)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("failed to find tax rate for %s/%s: %w", country, *category, err)
	}

	return accounting.RoundMoney(amount.Mul(rate.Rate), precision), nil
}

// CreateTaxRate persists a new document tax rate.
func (s *taxRateService) CreateTaxRate(ctx context.Context, req dto.CreateTaxRateRequest, creatorUserID string) (*domain.TaxRate, error) {
	if req.Rate.IsNegative() {
		return nil, fmt.Errorf("%w: tax rate must not be negative", apperrors.ErrValidation)
	}
	if req.EffectiveTo != nil && !req.EffectiveTo.After(req.EffectiveFrom) {
		return nil, fmt.Errorf("%w: effectiveTo must be after effectiveFrom", apperrors.ErrValidation)
	}

	now := time.Now()
	rate := domain.TaxRate{
		TaxRateID:     uuid.NewString(),
		Country:       req.Country,
		Category:      req.Category,
		Rate:          req.Rate,
		EffectiveFrom: req.EffectiveFrom,
		EffectiveTo:   req.EffectiveTo,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.taxRepo.SaveTaxRate(ctx, rate); err != nil {
		return nil, fmt.Errorf("failed to create tax rate: %w", err)
	}
	return &rate, nil
}

// CreateCorporateTaxRule persists a new corporate tax rule.
func (s *taxRateService) CreateCorporateTaxRule(ctx context.Context, req dto.CreateCorporateTaxRuleRequest, creatorUserID string) (*domain.CorporateTaxRule, error) {
	if req.Rate.IsNegative() {
		return nil, fmt.Errorf("%w: corporate tax rate must not be negative", apperrors.ErrValidation)
	}
	if req.Threshold != nil && req.Threshold.IsNegative() {
		return nil, fmt.Errorf("%w: threshold must not be negative", apperrors.ErrValidation)
	}
	if req.EffectiveTo != nil && !req.EffectiveTo.After(req.EffectiveFrom) {
		return nil, fmt.Errorf("%w: effectiveTo must be after effectiveFrom", apperrors.ErrValidation)
	}

	now := time.Now()
	rule := domain.CorporateTaxRule{
		RuleID:        uuid.NewString(),
		Country:       req.Country,
		Rate:          req.Rate,
		Threshold:     req.Threshold,
		EffectiveFrom: req.EffectiveFrom,
		EffectiveTo:   req.EffectiveTo,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.taxRepo.SaveCorporateTaxRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to create corporate tax rule: %w", err)
	}
	return &rule, nil
}
