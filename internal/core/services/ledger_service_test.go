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

type LedgerServiceTestSuite struct {
	suite.Suite
	mockJournalRepo *MockJournalRepository
	mockAccountSvc  *MockAccountService
	service         portssvc.LedgerSvcFacade

	cashAccount    domain.Account
	revenueAccount domain.Account
	payableAccount domain.Account
	userID         string
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockJournalRepo = new(MockJournalRepository)
	suite.mockAccountSvc = new(MockAccountService)
	suite.service = services.NewLedgerService(suite.mockJournalRepo, suite.mockAccountSvc)

	suite.userID = uuid.NewString()
	suite.cashAccount = domain.Account{
		AccountID:    uuid.NewString(),
		Name:         "Cash",
		AccountType:  domain.Asset,
		CurrencyCode: "AED",
		IsActive:     true,
	}
	suite.revenueAccount = domain.Account{
		AccountID:    uuid.NewString(),
		Name:         "Sales Revenue",
		AccountType:  domain.Income,
		CurrencyCode: "AED",
		IsActive:     true,
	}
	suite.payableAccount = domain.Account{
		AccountID:    uuid.NewString(),
		Name:         "Trade Payables",
		AccountType:  domain.Liability,
		CurrencyCode: "AED",
		IsActive:     true,
	}
}

func (suite *LedgerServiceTestSuite) balancedRequest(amount decimal.Decimal) dto.CreateEntryRequest {
	return dto.CreateEntryRequest{
		Date:         time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Memo:         "Cash sale",
		CurrencyCode: "AED",
		Lines: []dto.CreateEntryLineRequest{
			{AccountID: suite.cashAccount.AccountID, Amount: amount, LineType: domain.Debit},
			{AccountID: suite.revenueAccount.AccountID, Amount: amount, LineType: domain.Credit},
		},
	}
}

func (suite *LedgerServiceTestSuite) TestPostEntry_Success() {
	ctx := context.Background()
	amount := decimal.NewFromInt(100)
	req := suite.balancedRequest(amount)

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.cashAccount.AccountID).Return(&suite.cashAccount, nil).Once()
	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.revenueAccount.AccountID).Return(&suite.revenueAccount, nil).Once()
	suite.mockJournalRepo.On("SaveEntry", ctx,
		mock.MatchedBy(func(entry domain.JournalEntry) bool {
			return entry.Memo == "Cash sale" &&
				entry.Status == domain.Posted &&
				entry.CurrencyCode == "AED" &&
				entry.Amount.Equal(amount)
		}),
		mock.AnythingOfType("[]domain.JournalLine"),
		mock.MatchedBy(func(changes map[string]decimal.Decimal) bool {
			// Debit on an asset and credit on income both increase the balance.
			return changes[suite.cashAccount.AccountID].Equal(amount) &&
				changes[suite.revenueAccount.AccountID].Equal(amount)
		}),
	).Return(nil).Once()

	entry, err := suite.service.PostEntry(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(entry)
	suite.Equal(domain.Posted, entry.Status)
	suite.True(entry.Amount.Equal(amount))
	suite.Nil(entry.Lines)
	suite.mockJournalRepo.AssertExpectations(suite.T())
	suite.mockAccountSvc.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestPostEntry_MissingMemo() {
	ctx := context.Background()
	req := suite.balancedRequest(decimal.NewFromInt(50))
	req.Memo = ""

	entry, err := suite.service.PostEntry(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrMemoMissing)
	suite.Nil(entry)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestPostEntry_TooFewLines() {
	ctx := context.Background()
	req := suite.balancedRequest(decimal.NewFromInt(50))
	req.Lines = req.Lines[:1]

	entry, err := suite.service.PostEntry(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrEntryMinLines)
	suite.Nil(entry)
}

func (suite *LedgerServiceTestSuite) TestPostEntry_Unbalanced() {
	ctx := context.Background()
	req := suite.balancedRequest(decimal.NewFromInt(100))
	req.Lines[1].Amount = decimal.NewFromInt(90)

	entry, err := suite.service.PostEntry(ctx, req, suite.userID)

	suite.Require().Error(err)
	var unbalancedErr *apperrors.UnbalancedEntryError
	suite.Require().ErrorAs(err, &unbalancedErr)
	suite.True(unbalancedErr.Debits.Equal(decimal.NewFromInt(100)))
	suite.True(unbalancedErr.Credits.Equal(decimal.NewFromInt(90)))
	suite.True(unbalancedErr.Difference.Equal(decimal.NewFromInt(10)))
	suite.Nil(entry)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestPostEntry_NonPositiveLineAmount() {
	ctx := context.Background()
	req := suite.balancedRequest(decimal.Zero)

	entry, err := suite.service.PostEntry(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(entry)
}

func (suite *LedgerServiceTestSuite) TestPostEntry_SingleAccount() {
	ctx := context.Background()
	amount := decimal.NewFromInt(75)
	req := suite.balancedRequest(amount)
	req.Lines[1].AccountID = suite.cashAccount.AccountID

	entry, err := suite.service.PostEntry(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrEntryMinAccounts)
	suite.Nil(entry)
}

func (suite *LedgerServiceTestSuite) TestPostEntry_AccountNotFound() {
	ctx := context.Background()
	req := suite.balancedRequest(decimal.NewFromInt(100))

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.cashAccount.AccountID).Return(nil, apperrors.ErrNotFound).Once()

	entry, err := suite.service.PostEntry(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrAccountNotFound)
	suite.Nil(entry)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestPostEntry_InactiveAccount() {
	ctx := context.Background()
	req := suite.balancedRequest(decimal.NewFromInt(100))

	inactive := suite.cashAccount
	inactive.IsActive = false
	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.cashAccount.AccountID).Return(&inactive, nil).Once()
	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.revenueAccount.AccountID).Return(&suite.revenueAccount, nil).Maybe()

	entry, err := suite.service.PostEntry(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(entry)
}

func (suite *LedgerServiceTestSuite) TestPostEntry_CurrencyMismatch() {
	ctx := context.Background()
	req := suite.balancedRequest(decimal.NewFromInt(100))

	usdCash := suite.cashAccount
	usdCash.CurrencyCode = "USD"
	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.cashAccount.AccountID).Return(&usdCash, nil).Once()
	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.revenueAccount.AccountID).Return(&suite.revenueAccount, nil).Maybe()

	entry, err := suite.service.PostEntry(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrCurrencyMismatch)
	suite.Nil(entry)
}

func (suite *LedgerServiceTestSuite) TestPostEntry_RepositoryError() {
	ctx := context.Background()
	req := suite.balancedRequest(decimal.NewFromInt(100))
	repoErr := assert.AnError

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.cashAccount.AccountID).Return(&suite.cashAccount, nil).Once()
	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.revenueAccount.AccountID).Return(&suite.revenueAccount, nil).Once()
	suite.mockJournalRepo.On("SaveEntry", ctx, mock.AnythingOfType("domain.JournalEntry"), mock.AnythingOfType("[]domain.JournalLine"), mock.AnythingOfType("map[string]decimal.Decimal")).Return(repoErr).Once()

	entry, err := suite.service.PostEntry(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, repoErr)
	suite.Nil(entry)
}

func (suite *LedgerServiceTestSuite) postedEntryFixture() (*domain.JournalEntry, []domain.JournalLine) {
	entryID := uuid.NewString()
	amount := decimal.NewFromInt(250)
	entry := &domain.JournalEntry{
		EntryID:      entryID,
		EntryDate:    time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		Memo:         "Consulting revenue",
		CurrencyCode: "AED",
		Status:       domain.Posted,
		Amount:       amount,
	}
	lines := []domain.JournalLine{
		{LineID: uuid.NewString(), EntryID: entryID, AccountID: suite.cashAccount.AccountID, Amount: amount, LineType: domain.Debit, CurrencyCode: "AED"},
		{LineID: uuid.NewString(), EntryID: entryID, AccountID: suite.revenueAccount.AccountID, Amount: amount, LineType: domain.Credit, CurrencyCode: "AED"},
	}
	return entry, lines
}

func (suite *LedgerServiceTestSuite) TestReverseEntry_Success() {
	ctx := context.Background()
	original, originalLines := suite.postedEntryFixture()

	suite.mockJournalRepo.On("FindEntryByID", ctx, original.EntryID).Return(original, nil).Once()
	suite.mockJournalRepo.On("FindLinesByEntryID", ctx, original.EntryID).Return(originalLines, nil).Once()
	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.cashAccount.AccountID).Return(&suite.cashAccount, nil).Once()
	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.revenueAccount.AccountID).Return(&suite.revenueAccount, nil).Once()

	suite.mockJournalRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockJournalRepo.On("SaveEntryInTx", ctx, mock.Anything,
		mock.MatchedBy(func(entry domain.JournalEntry) bool {
			return entry.OriginalEntryID != nil &&
				*entry.OriginalEntryID == original.EntryID &&
				entry.Memo == "Reversal of: Consulting revenue" &&
				entry.Amount.Equal(original.Amount)
		}),
		mock.MatchedBy(func(lines []domain.JournalLine) bool {
			// Debit and credit must swap sides, amounts unchanged.
			return len(lines) == 2 &&
				lines[0].AccountID == suite.cashAccount.AccountID && lines[0].LineType == domain.Credit &&
				lines[1].AccountID == suite.revenueAccount.AccountID && lines[1].LineType == domain.Debit &&
				lines[0].Amount.Equal(original.Amount)
		}),
		mock.AnythingOfType("map[string]decimal.Decimal"),
	).Return(nil).Once()
	suite.mockJournalRepo.On("UpdateEntryStatusAndLinksInTx", ctx, mock.Anything, original.EntryID, domain.Reversed, mock.AnythingOfType("*string"), suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockJournalRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()
	suite.mockJournalRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()

	reversal, err := suite.service.ReverseEntry(ctx, original.EntryID, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(reversal)
	suite.Equal(domain.Posted, reversal.Status)
	suite.Require().NotNil(reversal.OriginalEntryID)
	suite.Equal(original.EntryID, *reversal.OriginalEntryID)
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestReverseEntry_NotFound() {
	ctx := context.Background()
	entryID := uuid.NewString()

	suite.mockJournalRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockJournalRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
	suite.mockJournalRepo.On("FindEntryByID", ctx, entryID).Return(nil, apperrors.ErrNotFound).Once()

	reversal, err := suite.service.ReverseEntry(ctx, entryID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.Nil(reversal)
}

func (suite *LedgerServiceTestSuite) TestReverseEntry_AlreadyReversed() {
	ctx := context.Background()
	original, _ := suite.postedEntryFixture()
	original.Status = domain.Reversed

	suite.mockJournalRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockJournalRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
	suite.mockJournalRepo.On("FindEntryByID", ctx, original.EntryID).Return(original, nil).Once()

	reversal, err := suite.service.ReverseEntry(ctx, original.EntryID, suite.userID)

	suite.Require().Error(err)
	var stateErr *apperrors.InvalidStateTransitionError
	suite.Require().ErrorAs(err, &stateErr)
	suite.Equal("journal entry", stateErr.Entity)
	suite.Equal("reverse", stateErr.Action)
	suite.Equal(string(domain.Posted), stateErr.Required)
	suite.Nil(reversal)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveEntryInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestReverseEntry_ReversalOfReversal() {
	ctx := context.Background()
	original, _ := suite.postedEntryFixture()
	sourceID := uuid.NewString()
	original.OriginalEntryID = &sourceID

	suite.mockJournalRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockJournalRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
	suite.mockJournalRepo.On("FindEntryByID", ctx, original.EntryID).Return(original, nil).Once()

	reversal, err := suite.service.ReverseEntry(ctx, original.EntryID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrReversalOfReversal)
	suite.Nil(reversal)
}

func (suite *LedgerServiceTestSuite) TestGetEntryByID_BackfillsLineContext() {
	ctx := context.Background()
	original, originalLines := suite.postedEntryFixture()

	suite.mockJournalRepo.On("FindEntryByID", ctx, original.EntryID).Return(original, nil).Once()
	suite.mockJournalRepo.On("FindLinesByEntryID", ctx, original.EntryID).Return(originalLines, nil).Once()

	entry, err := suite.service.GetEntryByID(ctx, original.EntryID)

	suite.Require().NoError(err)
	suite.Require().Len(entry.Lines, 2)
	for _, line := range entry.Lines {
		suite.Equal(original.EntryID, line.EntryID)
		suite.Equal(original.EntryDate, line.EntryDate)
		suite.Equal(original.Memo, line.EntryMemo)
	}
}

func (suite *LedgerServiceTestSuite) TestListEntries_DefaultLimit() {
	ctx := context.Background()
	fixture, _ := suite.postedEntryFixture()
	entries := []domain.JournalEntry{*fixture}

	suite.mockJournalRepo.On("ListEntries", ctx, 20, (*string)(nil), false).Return(entries, nil, nil).Once()

	resp, err := suite.service.ListEntries(ctx, dto.ListEntriesParams{})

	suite.Require().NoError(err)
	suite.Len(resp.Entries, 1)
	suite.Nil(resp.NextToken)
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestAggregateByAccountType_InvertedPeriod() {
	ctx := context.Background()
	from := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	totals, err := suite.service.AggregateByAccountType(ctx, from, to)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(totals)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "AggregateByAccountType", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestAggregateByAccountType_PassesThrough() {
	ctx := context.Background()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	expected := map[domain.AccountType]domain.TypeTotals{
		domain.Income: {Credits: decimal.NewFromInt(900), Debits: decimal.Zero},
	}

	suite.mockJournalRepo.On("AggregateByAccountType", ctx, from, to).Return(expected, nil).Once()

	totals, err := suite.service.AggregateByAccountType(ctx, from, to)

	suite.Require().NoError(err)
	suite.True(totals[domain.Income].Credits.Equal(decimal.NewFromInt(900)))
}

func TestLedgerService(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
