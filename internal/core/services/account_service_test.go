package services_test

import (
	"context"
	"testing"

	"github.com/corefin/accounting_core_app/internal/apperrors"
	"github.com/corefin/accounting_core_app/internal/core/domain"
	portssvc "github.com/corefin/accounting_core_app/internal/core/ports/services"
	"github.com/corefin/accounting_core_app/internal/core/services"
	"github.com/corefin/accounting_core_app/internal/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AccountServiceTestSuite struct {
	suite.Suite
	mockAccountRepo  *MockAccountRepository
	mockCurrencyRepo *MockCurrencyRepository
	service          portssvc.AccountSvcFacade

	userID string
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockCurrencyRepo = new(MockCurrencyRepository)
	suite.service = services.NewAccountService(suite.mockAccountRepo, suite.mockCurrencyRepo)
	suite.userID = uuid.NewString()
}

func (suite *AccountServiceTestSuite) createRequest() dto.CreateAccountRequest {
	return dto.CreateAccountRequest{
		Name:         "Main Operating Bank",
		AccountType:  domain.Asset,
		CurrencyCode: "AED",
		Description:  "Primary settlement account",
	}
}

func (suite *AccountServiceTestSuite) TestCreateAccount_Success() {
	ctx := context.Background()
	req := suite.createRequest()

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "AED").
		Return(&domain.Currency{CurrencyCode: "AED", Precision: 2}, nil).Once()
	suite.mockAccountRepo.On("SaveAccount", ctx, mock.MatchedBy(func(a domain.Account) bool {
		return a.Name == req.Name && a.AccountType == domain.Asset &&
			a.IsActive && a.Balance.IsZero() && a.Purpose == nil
	})).Return(nil).Once()

	account, err := suite.service.CreateAccount(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.NotEmpty(account.AccountID)
	suite.Equal(suite.userID, account.CreatedBy)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "FindAccountByPurpose", mock.Anything, mock.Anything)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestCreateAccount_UnknownCurrency() {
	ctx := context.Background()
	req := suite.createRequest()
	req.CurrencyCode = "ZZZ"

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "ZZZ").Return(nil, apperrors.ErrNotFound).Once()

	account, err := suite.service.CreateAccount(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(account)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_PurposeAlreadyMapped() {
	ctx := context.Background()
	purpose := domain.PurposeBank
	req := suite.createRequest()
	req.Purpose = &purpose
	existing := &domain.Account{AccountID: uuid.NewString(), Purpose: &purpose}

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "AED").
		Return(&domain.Currency{CurrencyCode: "AED", Precision: 2}, nil).Once()
	suite.mockAccountRepo.On("FindAccountByPurpose", ctx, domain.PurposeBank).Return(existing, nil).Once()

	account, err := suite.service.CreateAccount(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.Nil(account)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_UnmappedPurposeSucceeds() {
	ctx := context.Background()
	purpose := domain.PurposeFXGain
	req := suite.createRequest()
	req.Name = "Realized FX Gains"
	req.AccountType = domain.Income
	req.Purpose = &purpose

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "AED").
		Return(&domain.Currency{CurrencyCode: "AED", Precision: 2}, nil).Once()
	suite.mockAccountRepo.On("FindAccountByPurpose", ctx, domain.PurposeFXGain).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockAccountRepo.On("SaveAccount", ctx, mock.MatchedBy(func(a domain.Account) bool {
		return a.Purpose != nil && *a.Purpose == domain.PurposeFXGain
	})).Return(nil).Once()

	account, err := suite.service.CreateAccount(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(account.Purpose)
	suite.Equal(domain.PurposeFXGain, *account.Purpose)
}

func (suite *AccountServiceTestSuite) TestDeactivateAccount_Success() {
	ctx := context.Background()
	account := &domain.Account{
		AccountID: uuid.NewString(), Name: "Old Bank",
		AccountType: domain.Asset, CurrencyCode: "AED", IsActive: true,
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, account.AccountID).Return(account, nil).Once()
	suite.mockAccountRepo.On("SaveAccount", ctx, mock.MatchedBy(func(a domain.Account) bool {
		return a.AccountID == account.AccountID && !a.IsActive && a.LastUpdatedBy == suite.userID
	})).Return(nil).Once()

	err := suite.service.DeactivateAccount(ctx, account.AccountID, suite.userID)

	suite.Require().NoError(err)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestDeactivateAccount_AlreadyInactive() {
	ctx := context.Background()
	account := &domain.Account{AccountID: uuid.NewString(), IsActive: false}

	suite.mockAccountRepo.On("FindAccountByID", ctx, account.AccountID).Return(account, nil).Once()

	err := suite.service.DeactivateAccount(ctx, account.AccountID, suite.userID)

	suite.Require().NoError(err)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestListAccounts_NilBecomesEmptySlice() {
	ctx := context.Background()

	suite.mockAccountRepo.On("ListAccounts", ctx, 0, 0).Return(nil, nil).Once()

	accounts, err := suite.service.ListAccounts(ctx)

	suite.Require().NoError(err)
	suite.NotNil(accounts)
	suite.Empty(accounts)
}

func TestAccountService(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
