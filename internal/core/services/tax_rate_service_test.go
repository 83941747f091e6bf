package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/corefin/accounting_core_app/internal/apperrors"
	"github.com/corefin/accounting_core_app/internal/core/domain"
	portssvc "github.com/corefin/accounting_core_app/internal/core/ports/services"
	"github.com/corefin/accounting_core_app/internal/core/services"
	"github.com/corefin/accounting_core_app/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type TaxRateServiceTestSuite struct {
	suite.Suite
	mockTaxRepo *MockTaxRepository
	service     portssvc.TaxRateSvcFacade

	asOf   time.Time
	userID string
}

func (suite *TaxRateServiceTestSuite) SetupTest() {
	suite.mockTaxRepo = new(MockTaxRepository)
	suite.service = services.NewTaxRateService(suite.mockTaxRepo)
	suite.asOf = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	suite.userID = uuid.NewString()
}

func (suite *TaxRateServiceTestSuite) standardRate() *domain.TaxRate {
	return &domain.TaxRate{
		TaxRateID:     uuid.NewString(),
		Country:       "AE",
		Category:      "STANDARD",
		Rate:          decimal.RequireFromString("0.05"),
		EffectiveFrom: time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (suite *TaxRateServiceTestSuite) TestCalculateLineTax_NilCategory() {
	ctx := context.Background()

	tax, err := suite.service.CalculateLineTax(ctx, decimal.NewFromInt(1000), "AE", nil, suite.asOf, 2)

	suite.Require().NoError(err)
	suite.True(tax.IsZero())
	suite.mockTaxRepo.AssertNotCalled(suite.T(), "FindTaxRate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TaxRateServiceTestSuite) TestCalculateLineTax_NoEffectiveRate() {
	ctx := context.Background()
	category := "EXEMPT"

	suite.mockTaxRepo.On("FindTaxRate", ctx, "AE", "EXEMPT", suite.asOf).Return(nil, apperrors.ErrNotFound).Once()

	tax, err := suite.service.CalculateLineTax(ctx, decimal.NewFromInt(1000), "AE", &category, suite.asOf, 2)

	suite.Require().NoError(err)
	suite.True(tax.IsZero())
}

func (suite *TaxRateServiceTestSuite) TestCalculateLineTax_AppliesRate() {
	ctx := context.Background()
	category := "STANDARD"

	suite.mockTaxRepo.On("FindTaxRate", ctx, "AE", "STANDARD", suite.asOf).Return(suite.standardRate(), nil).Once()

	tax, err := suite.service.CalculateLineTax(ctx, decimal.NewFromInt(1000), "AE", &category, suite.asOf, 2)

	suite.Require().NoError(err)
	suite.True(tax.Equal(decimal.NewFromInt(50)), "got %s", tax)
}

func (suite *TaxRateServiceTestSuite) TestCalculateLineTax_RoundsHalfUp() {
	ctx := context.Background()
	category := "STANDARD"

	suite.mockTaxRepo.On("FindTaxRate", ctx, "AE", "STANDARD", suite.asOf).Return(suite.standardRate(), nil).Once()

	// 100.10 * 0.05 = 5.005, rounds half-up to 5.01.
	tax, err := suite.service.CalculateLineTax(ctx, decimal.RequireFromString("100.10"), "AE", &category, suite.asOf, 2)

	suite.Require().NoError(err)
	suite.True(tax.Equal(decimal.RequireFromString("5.01")), "got %s", tax)
}

func (suite *TaxRateServiceTestSuite) TestCalculateLineTax_RepositoryError() {
	ctx := context.Background()
	category := "STANDARD"

	suite.mockTaxRepo.On("FindTaxRate", ctx, "AE", "STANDARD", suite.asOf).Return(nil, assert.AnError).Once()

	_, err := suite.service.CalculateLineTax(ctx, decimal.NewFromInt(1000), "AE", &category, suite.asOf, 2)

	suite.Require().Error(err)
	suite.ErrorIs(err, assert.AnError)
}

func (suite *TaxRateServiceTestSuite) TestCreateTaxRate_Success() {
	ctx := context.Background()
	req := dto.CreateTaxRateRequest{
		Country:       "AE",
		Category:      "STANDARD",
		Rate:          decimal.RequireFromString("0.05"),
		EffectiveFrom: suite.asOf,
	}

	suite.mockTaxRepo.On("SaveTaxRate", ctx, mock.MatchedBy(func(rate domain.TaxRate) bool {
		return rate.Country == "AE" && rate.Category == "STANDARD" &&
			rate.Rate.Equal(req.Rate) && rate.EffectiveTo == nil
	})).Return(nil).Once()

	rate, err := suite.service.CreateTaxRate(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.NotEmpty(rate.TaxRateID)
	suite.Equal(suite.userID, rate.CreatedBy)
	suite.mockTaxRepo.AssertExpectations(suite.T())
}

func (suite *TaxRateServiceTestSuite) TestCreateTaxRate_NegativeRate() {
	ctx := context.Background()
	req := dto.CreateTaxRateRequest{
		Country: "AE", Category: "STANDARD",
		Rate:          decimal.RequireFromString("-0.05"),
		EffectiveFrom: suite.asOf,
	}

	rate, err := suite.service.CreateTaxRate(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(rate)
	suite.mockTaxRepo.AssertNotCalled(suite.T(), "SaveTaxRate", mock.Anything, mock.Anything)
}

func (suite *TaxRateServiceTestSuite) TestCreateTaxRate_InvertedEffectiveWindow() {
	ctx := context.Background()
	effectiveTo := suite.asOf.AddDate(0, -1, 0)
	req := dto.CreateTaxRateRequest{
		Country: "AE", Category: "STANDARD",
		Rate:          decimal.RequireFromString("0.05"),
		EffectiveFrom: suite.asOf,
		EffectiveTo:   &effectiveTo,
	}

	_, err := suite.service.CreateTaxRate(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *TaxRateServiceTestSuite) TestCreateCorporateTaxRule_Success() {
	ctx := context.Background()
	threshold := decimal.NewFromInt(375000)
	req := dto.CreateCorporateTaxRuleRequest{
		Country:       "AE",
		Rate:          decimal.RequireFromString("0.09"),
		Threshold:     &threshold,
		EffectiveFrom: suite.asOf,
	}

	suite.mockTaxRepo.On("SaveCorporateTaxRule", ctx, mock.MatchedBy(func(rule domain.CorporateTaxRule) bool {
		return rule.Country == "AE" && rule.Rate.Equal(req.Rate) &&
			rule.Threshold != nil && rule.Threshold.Equal(threshold)
	})).Return(nil).Once()

	rule, err := suite.service.CreateCorporateTaxRule(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.NotEmpty(rule.RuleID)
	suite.mockTaxRepo.AssertExpectations(suite.T())
}

func (suite *TaxRateServiceTestSuite) TestCreateCorporateTaxRule_NegativeThreshold() {
	ctx := context.Background()
	threshold := decimal.NewFromInt(-1)
	req := dto.CreateCorporateTaxRuleRequest{
		Country:       "AE",
		Rate:          decimal.RequireFromString("0.09"),
		Threshold:     &threshold,
		EffectiveFrom: suite.asOf,
	}

	rule, err := suite.service.CreateCorporateTaxRule(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(rule)
	suite.mockTaxRepo.AssertNotCalled(suite.T(), "SaveCorporateTaxRule", mock.Anything, mock.Anything)
}

func (suite *TaxRateServiceTestSuite) TestGetTaxRate_PassesThrough() {
	ctx := context.Background()
	stored := suite.standardRate()

	suite.mockTaxRepo.On("FindTaxRate", ctx, "AE", "STANDARD", suite.asOf).Return(stored, nil).Once()

	rate, err := suite.service.GetTaxRate(ctx, "AE", "STANDARD", suite.asOf)

	suite.Require().NoError(err)
	suite.Equal(stored.TaxRateID, rate.TaxRateID)
}

func TestTaxRateService(t *testing.T) {
	suite.Run(t, new(TaxRateServiceTestSuite))
}
