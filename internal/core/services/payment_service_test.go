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
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type PaymentServiceTestSuite struct {
	suite.Suite
	mockPaymentRepo  *MockPaymentRepository
	mockInvoiceRepo  *MockInvoiceRepository
	mockJournalRepo  *MockJournalRepository
	mockAccountSvc   *MockAccountService
	mockTaxRepo      *MockTaxRepository
	mockRateRepo     *MockExchangeRateRepository
	mockCurrencyRepo *MockCurrencyRepository
	service          portssvc.PaymentSvcFacade

	bankAccount   domain.Account
	arAccount     domain.Account
	fxGainAccount domain.Account
	fxLossAccount domain.Account
	paymentDate   time.Time
	userID        string
}

func (suite *PaymentServiceTestSuite) SetupTest() {
	suite.mockPaymentRepo = new(MockPaymentRepository)
	suite.mockInvoiceRepo = new(MockInvoiceRepository)
	suite.mockJournalRepo = new(MockJournalRepository)
	suite.mockAccountSvc = new(MockAccountService)
	suite.mockTaxRepo = new(MockTaxRepository)
	suite.mockRateRepo = new(MockExchangeRateRepository)
	suite.mockCurrencyRepo = new(MockCurrencyRepository)

	taxRateSvc := services.NewTaxRateService(suite.mockTaxRepo)
	fxSvc := services.NewFXService(suite.mockRateRepo, suite.mockCurrencyRepo, "AED")

	suite.service = services.NewPaymentService(
		suite.mockPaymentRepo,
		suite.mockInvoiceRepo,
		suite.mockJournalRepo,
		suite.mockAccountSvc,
		fxSvc,
		suite.mockCurrencyRepo,
		taxRateSvc,
	)

	suite.bankAccount = domain.Account{
		AccountID: uuid.NewString(), Name: "Bank",
		AccountType: domain.Asset, CurrencyCode: "AED", IsActive: true,
	}
	suite.arAccount = domain.Account{
		AccountID: uuid.NewString(), Name: "Trade Receivables",
		AccountType: domain.Asset, CurrencyCode: "AED", IsActive: true,
	}
	suite.fxGainAccount = domain.Account{
		AccountID: uuid.NewString(), Name: "Realized FX Gains",
		AccountType: domain.Income, CurrencyCode: "AED", IsActive: true,
	}
	suite.fxLossAccount = domain.Account{
		AccountID: uuid.NewString(), Name: "Realized FX Losses",
		AccountType: domain.Expense, CurrencyCode: "AED", IsActive: true,
	}
	suite.paymentDate = time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	suite.userID = uuid.NewString()
}

// postedInvoice returns a posted EUR invoice with one 1000 EUR line, no tax.
func (suite *PaymentServiceTestSuite) postedInvoice() (*domain.Invoice, domain.InvoiceLine) {
	invoiceID := uuid.NewString()
	invoice := &domain.Invoice{
		InvoiceID:      invoiceID,
		Kind:           domain.Receivable,
		PartyRef:       "CUST-001",
		Country:        "AE",
		CurrencyCode:   "EUR",
		IssueDate:      time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		DueDate:        time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		ApprovalStatus: domain.ApprovalApproved,
		PostingStatus:  domain.PostingPosted,
		PaymentStatus:  domain.PaymentUnpaid,
		CancelStatus:   domain.CancelActive,
	}
	line := domain.InvoiceLine{
		LineID:      uuid.NewString(),
		InvoiceID:   invoiceID,
		Description: "Goods",
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   decimal.NewFromInt(1000),
	}
	return invoice, line
}

func (suite *PaymentServiceTestSuite) createRequest(amount decimal.Decimal, allocations ...dto.CreateAllocationRequest) dto.CreatePaymentRequest {
	return dto.CreatePaymentRequest{
		Kind:         domain.Receivable,
		PartyRef:     "CUST-001",
		CurrencyCode: "EUR",
		Amount:       amount,
		PaymentDate:  suite.paymentDate,
		Memo:         "Wire transfer",
		Allocations:  allocations,
	}
}

func (suite *PaymentServiceTestSuite) stubCurrency(code string) {
	suite.mockCurrencyRepo.On("FindCurrencyByCode", mock.Anything, code).
		Return(&domain.Currency{CurrencyCode: code, Precision: 2}, nil).Maybe()
}

func (suite *PaymentServiceTestSuite) TestCreatePayment_NonPositiveAmount() {
	ctx := context.Background()
	req := suite.createRequest(decimal.Zero)

	payment, err := suite.service.CreatePayment(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrPaymentAmountNotPositive)
	suite.Nil(payment)
}

func (suite *PaymentServiceTestSuite) TestCreatePayment_UnknownCurrency() {
	ctx := context.Background()
	req := suite.createRequest(decimal.NewFromInt(100))
	req.CurrencyCode = "ZZZ"

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "ZZZ").Return(nil, apperrors.ErrNotFound).Once()

	payment, err := suite.service.CreatePayment(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(payment)
}

func (suite *PaymentServiceTestSuite) TestCreatePayment_DuplicateAllocation() {
	ctx := context.Background()
	invoiceID := uuid.NewString()
	req := suite.createRequest(decimal.NewFromInt(500),
		dto.CreateAllocationRequest{InvoiceID: invoiceID, Amount: decimal.NewFromInt(200)},
		dto.CreateAllocationRequest{InvoiceID: invoiceID, Amount: decimal.NewFromInt(300)},
	)
	suite.stubCurrency("EUR")

	payment, err := suite.service.CreatePayment(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrDuplicateAllocation)
	suite.Nil(payment)
	suite.mockInvoiceRepo.AssertNotCalled(suite.T(), "Begin", mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestCreatePayment_NonPositiveAllocation() {
	ctx := context.Background()
	req := suite.createRequest(decimal.NewFromInt(500),
		dto.CreateAllocationRequest{InvoiceID: uuid.NewString(), Amount: decimal.Zero},
	)
	suite.stubCurrency("EUR")

	payment, err := suite.service.CreatePayment(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(payment)
}

func (suite *PaymentServiceTestSuite) TestCreatePayment_OverAllocation() {
	ctx := context.Background()
	invoice, line := suite.postedInvoice()
	req := suite.createRequest(decimal.NewFromInt(700),
		dto.CreateAllocationRequest{InvoiceID: invoice.InvoiceID, Amount: decimal.NewFromInt(700)},
	)
	suite.stubCurrency("EUR")

	suite.mockInvoiceRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockInvoiceRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()
	suite.mockInvoiceRepo.On("FindInvoiceForUpdate", ctx, mock.Anything, invoice.InvoiceID).Return(invoice, nil).Once()
	suite.mockInvoiceRepo.On("FindLinesByInvoiceID", ctx, invoice.InvoiceID).Return([]domain.InvoiceLine{line}, nil).Once()
	// 400 of the 1000 total is already allocated; only 600 is left.
	suite.mockInvoiceRepo.On("SumAllocationsInTx", ctx, mock.Anything, invoice.InvoiceID).Return(decimal.NewFromInt(400), nil).Once()

	payment, err := suite.service.CreatePayment(ctx, req, suite.userID)

	suite.Require().Error(err)
	var overErr *apperrors.OverAllocationError
	suite.Require().ErrorAs(err, &overErr)
	suite.Equal(invoice.InvoiceID, overErr.InvoiceID)
	suite.True(overErr.Outstanding.Equal(decimal.NewFromInt(600)))
	suite.True(overErr.Requested.Equal(decimal.NewFromInt(700)))
	suite.Nil(payment)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "SavePaymentInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestCreatePayment_KindMismatch() {
	ctx := context.Background()
	invoice, _ := suite.postedInvoice()
	invoice.Kind = domain.Payable
	req := suite.createRequest(decimal.NewFromInt(100),
		dto.CreateAllocationRequest{InvoiceID: invoice.InvoiceID, Amount: decimal.NewFromInt(100)},
	)
	suite.stubCurrency("EUR")

	suite.mockInvoiceRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockInvoiceRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()
	suite.mockInvoiceRepo.On("FindInvoiceForUpdate", ctx, mock.Anything, invoice.InvoiceID).Return(invoice, nil).Once()

	payment, err := suite.service.CreatePayment(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrInvoiceKindMismatch)
	suite.Nil(payment)
}

func (suite *PaymentServiceTestSuite) TestCreatePayment_InvoiceNotPosted() {
	ctx := context.Background()
	invoice, _ := suite.postedInvoice()
	invoice.PostingStatus = domain.PostingDraft
	req := suite.createRequest(decimal.NewFromInt(100),
		dto.CreateAllocationRequest{InvoiceID: invoice.InvoiceID, Amount: decimal.NewFromInt(100)},
	)
	suite.stubCurrency("EUR")

	suite.mockInvoiceRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockInvoiceRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()
	suite.mockInvoiceRepo.On("FindInvoiceForUpdate", ctx, mock.Anything, invoice.InvoiceID).Return(invoice, nil).Once()

	payment, err := suite.service.CreatePayment(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrInvoiceNotPosted)
	suite.Nil(payment)
}

func (suite *PaymentServiceTestSuite) TestCreatePayment_PartialAllocation() {
	ctx := context.Background()
	invoice, line := suite.postedInvoice()
	req := suite.createRequest(decimal.NewFromInt(400),
		dto.CreateAllocationRequest{InvoiceID: invoice.InvoiceID, Amount: decimal.NewFromInt(400)},
	)
	suite.stubCurrency("EUR")

	suite.mockInvoiceRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockInvoiceRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()
	suite.mockInvoiceRepo.On("FindInvoiceForUpdate", ctx, mock.Anything, invoice.InvoiceID).Return(invoice, nil).Once()
	suite.mockInvoiceRepo.On("FindLinesByInvoiceID", ctx, invoice.InvoiceID).Return([]domain.InvoiceLine{line}, nil).Once()
	suite.mockInvoiceRepo.On("SumAllocationsInTx", ctx, mock.Anything, invoice.InvoiceID).Return(decimal.Zero, nil).Once()
	suite.mockInvoiceRepo.On("UpdatePaymentStatusInTx", ctx, mock.Anything, invoice.InvoiceID, domain.PaymentPartiallyPaid, (*time.Time)(nil), suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockPaymentRepo.On("SavePaymentInTx", ctx, mock.Anything,
		mock.MatchedBy(func(p domain.Payment) bool {
			return p.Status == domain.PaymentDraft && p.Amount.Equal(decimal.NewFromInt(400))
		}),
		mock.AnythingOfType("[]domain.PaymentAllocation"),
	).Return(nil).Once()
	suite.mockInvoiceRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()

	payment, err := suite.service.CreatePayment(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(payment)
	suite.Equal(domain.PaymentDraft, payment.Status)
	suite.Require().Len(payment.Allocations, 1)
	suite.True(payment.Allocations[0].Amount.Equal(decimal.NewFromInt(400)))
	suite.mockInvoiceRepo.AssertExpectations(suite.T())
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestCreatePayment_FullAllocationMarksPaid() {
	ctx := context.Background()
	invoice, line := suite.postedInvoice()
	req := suite.createRequest(decimal.NewFromInt(1000),
		dto.CreateAllocationRequest{InvoiceID: invoice.InvoiceID, Amount: decimal.NewFromInt(1000)},
	)
	suite.stubCurrency("EUR")

	suite.mockInvoiceRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockInvoiceRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()
	suite.mockInvoiceRepo.On("FindInvoiceForUpdate", ctx, mock.Anything, invoice.InvoiceID).Return(invoice, nil).Once()
	suite.mockInvoiceRepo.On("FindLinesByInvoiceID", ctx, invoice.InvoiceID).Return([]domain.InvoiceLine{line}, nil).Once()
	suite.mockInvoiceRepo.On("SumAllocationsInTx", ctx, mock.Anything, invoice.InvoiceID).Return(decimal.Zero, nil).Once()
	suite.mockInvoiceRepo.On("UpdatePaymentStatusInTx", ctx, mock.Anything, invoice.InvoiceID, domain.PaymentPaid, mock.AnythingOfType("*time.Time"), suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockPaymentRepo.On("SavePaymentInTx", ctx, mock.Anything, mock.AnythingOfType("domain.Payment"), mock.AnythingOfType("[]domain.PaymentAllocation")).Return(nil).Once()
	suite.mockInvoiceRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()

	payment, err := suite.service.CreatePayment(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(payment)
	suite.mockInvoiceRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestCreatePayment_AllocationsExceedPayment() {
	ctx := context.Background()
	invoice, line := suite.postedInvoice()
	req := suite.createRequest(decimal.NewFromInt(300),
		dto.CreateAllocationRequest{InvoiceID: invoice.InvoiceID, Amount: decimal.NewFromInt(400)},
	)
	suite.stubCurrency("EUR")

	suite.mockInvoiceRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockInvoiceRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()
	suite.mockInvoiceRepo.On("FindInvoiceForUpdate", ctx, mock.Anything, invoice.InvoiceID).Return(invoice, nil).Once()
	suite.mockInvoiceRepo.On("FindLinesByInvoiceID", ctx, invoice.InvoiceID).Return([]domain.InvoiceLine{line}, nil).Once()
	suite.mockInvoiceRepo.On("SumAllocationsInTx", ctx, mock.Anything, invoice.InvoiceID).Return(decimal.Zero, nil).Once()
	suite.mockInvoiceRepo.On("UpdatePaymentStatusInTx", ctx, mock.Anything, invoice.InvoiceID, mock.Anything, mock.Anything, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Maybe()

	payment, err := suite.service.CreatePayment(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrAllocationsExceedPayment)
	suite.Nil(payment)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "SavePaymentInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockInvoiceRepo.AssertNotCalled(suite.T(), "Commit", mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestCreatePayment_InvoiceLockedByAnotherPayment() {
	ctx := context.Background()
	invoice, _ := suite.postedInvoice()
	req := suite.createRequest(decimal.NewFromInt(400),
		dto.CreateAllocationRequest{InvoiceID: invoice.InvoiceID, Amount: decimal.NewFromInt(400)},
	)
	suite.stubCurrency("EUR")

	suite.mockInvoiceRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockInvoiceRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()
	// Another payment holds the row lock; the conflict surfaces to the caller
	// instead of blocking.
	suite.mockInvoiceRepo.On("FindInvoiceForUpdate", ctx, mock.Anything, invoice.InvoiceID).
		Return(nil, &apperrors.ConcurrentAllocationConflictError{InvoiceID: invoice.InvoiceID}).Once()

	payment, err := suite.service.CreatePayment(ctx, req, suite.userID)

	suite.Require().Error(err)
	var conflictErr *apperrors.ConcurrentAllocationConflictError
	suite.Require().ErrorAs(err, &conflictErr)
	suite.Equal(invoice.InvoiceID, conflictErr.InvoiceID)
	suite.Nil(payment)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "SavePaymentInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockInvoiceRepo.AssertNotCalled(suite.T(), "Commit", mock.Anything, mock.Anything)
}

// draftPayment returns a draft EUR 10000 receivable payment fully allocated to
// one invoice posted at the historical rate 4.00.
func (suite *PaymentServiceTestSuite) draftPaymentWithAllocation() (*domain.Payment, []domain.PaymentAllocation, *domain.Invoice) {
	invoice, _ := suite.postedInvoice()
	historicalRate := decimal.RequireFromString("4.00")
	invoice.ExchangeRate = &historicalRate
	invoice.PaymentStatus = domain.PaymentPaid

	paymentID := uuid.NewString()
	payment := &domain.Payment{
		PaymentID:    paymentID,
		Kind:         domain.Receivable,
		PartyRef:     "CUST-001",
		CurrencyCode: "EUR",
		PaymentDate:  suite.paymentDate,
		Amount:       decimal.NewFromInt(10000),
		Memo:         "Settlement",
		Status:       domain.PaymentDraft,
	}
	allocations := []domain.PaymentAllocation{{
		AllocationID: uuid.NewString(),
		PaymentID:    paymentID,
		InvoiceID:    invoice.InvoiceID,
		Amount:       decimal.NewFromInt(10000),
	}}
	return payment, allocations, invoice
}

func (suite *PaymentServiceTestSuite) stubSettlementRate(rate string) {
	suite.mockRateRepo.On("FindRate", mock.Anything, "EUR", "AED", domain.RateSpot, suite.paymentDate).
		Return(&domain.ExchangeRate{Rate: decimal.RequireFromString(rate), RateType: domain.RateSpot}, nil)
}

func (suite *PaymentServiceTestSuite) TestPostPayment_RealizedFXGain() {
	ctx := context.Background()
	payment, allocations, invoice := suite.draftPaymentWithAllocation()
	suite.stubCurrency("AED")
	// Invoice was posted at 4.00; the EUR strengthened to 4.20 by settlement.
	suite.stubSettlementRate("4.20")

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, payment.PaymentID).Return(payment, nil).Once()
	suite.mockPaymentRepo.On("FindAllocationsByPaymentID", ctx, payment.PaymentID).Return(allocations, nil).Once()
	suite.mockAccountSvc.On("GetAccountByPurpose", ctx, domain.PurposeBank).Return(&suite.bankAccount, nil).Once()
	suite.mockAccountSvc.On("GetAccountByPurpose", ctx, domain.PurposeAccountsReceivable).Return(&suite.arAccount, nil).Once()
	suite.mockAccountSvc.On("GetAccountByPurpose", ctx, domain.PurposeFXGain).Return(&suite.fxGainAccount, nil).Once()
	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, invoice.InvoiceID).Return(invoice, nil).Once()

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.bankAccount.AccountID).Return(&suite.bankAccount, nil).Once()
	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.arAccount.AccountID).Return(&suite.arAccount, nil).Once()
	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.fxGainAccount.AccountID).Return(&suite.fxGainAccount, nil).Once()

	// Bank receives 10000 EUR at 4.20 = 42000; the receivable is relieved at
	// the locked 4.00 = 40000; the 2000 difference is realized gain.
	bankAmount := decimal.NewFromInt(42000)
	relief := decimal.NewFromInt(40000)
	gain := decimal.NewFromInt(2000)

	suite.mockPaymentRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockPaymentRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()
	suite.mockJournalRepo.On("SaveEntryInTx", ctx, mock.Anything,
		mock.MatchedBy(func(entry domain.JournalEntry) bool {
			return entry.SourceType != nil && *entry.SourceType == domain.SourcePayment &&
				entry.Amount.Equal(bankAmount)
		}),
		mock.MatchedBy(func(lines []domain.JournalLine) bool {
			if len(lines) != 3 {
				return false
			}
			bank, control, fx := lines[0], lines[1], lines[2]
			return bank.AccountID == suite.bankAccount.AccountID && bank.LineType == domain.Debit && bank.Amount.Equal(bankAmount) &&
				control.AccountID == suite.arAccount.AccountID && control.LineType == domain.Credit && control.Amount.Equal(relief) &&
				fx.AccountID == suite.fxGainAccount.AccountID && fx.LineType == domain.Credit && fx.Amount.Equal(gain)
		}),
		mock.AnythingOfType("map[string]decimal.Decimal"),
	).Return(nil).Once()
	// Allocated invoice currency matches the payment currency, so no uniform
	// invoice currency is recorded.
	suite.mockPaymentRepo.On("MarkPostedInTx", ctx, mock.Anything, payment.PaymentID, mock.AnythingOfType("string"), (*string)(nil),
		mock.MatchedBy(func(rate *decimal.Decimal) bool { return rate != nil && rate.Equal(decimal.RequireFromString("4.20")) }),
		suite.userID, mock.AnythingOfType("time.Time"),
	).Return(nil).Once()
	suite.mockPaymentRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()

	result, err := suite.service.PostPayment(ctx, payment.PaymentID, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(result)
	suite.True(result.FXGainLoss.Equal(gain), "got %s", result.FXGainLoss)
	suite.Equal([]string{invoice.InvoiceID}, result.ClosedInvoiceIDs)
	suite.mockPaymentRepo.AssertExpectations(suite.T())
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestPostPayment_RealizedFXLoss() {
	ctx := context.Background()
	payment, allocations, invoice := suite.draftPaymentWithAllocation()
	suite.stubCurrency("AED")
	// The EUR weakened from 4.00 to 3.80: bank receives 38000 against a
	// 40000 relief, a 2000 realized loss.
	suite.stubSettlementRate("3.80")

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, payment.PaymentID).Return(payment, nil).Once()
	suite.mockPaymentRepo.On("FindAllocationsByPaymentID", ctx, payment.PaymentID).Return(allocations, nil).Once()
	suite.mockAccountSvc.On("GetAccountByPurpose", ctx, domain.PurposeBank).Return(&suite.bankAccount, nil).Once()
	suite.mockAccountSvc.On("GetAccountByPurpose", ctx, domain.PurposeAccountsReceivable).Return(&suite.arAccount, nil).Once()
	suite.mockAccountSvc.On("GetAccountByPurpose", ctx, domain.PurposeFXLoss).Return(&suite.fxLossAccount, nil).Once()
	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, invoice.InvoiceID).Return(invoice, nil).Once()
	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.bankAccount.AccountID).Return(&suite.bankAccount, nil).Once()
	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.arAccount.AccountID).Return(&suite.arAccount, nil).Once()
	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.fxLossAccount.AccountID).Return(&suite.fxLossAccount, nil).Once()

	suite.mockPaymentRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockPaymentRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()
	suite.mockJournalRepo.On("SaveEntryInTx", ctx, mock.Anything, mock.AnythingOfType("domain.JournalEntry"),
		mock.MatchedBy(func(lines []domain.JournalLine) bool {
			if len(lines) != 3 {
				return false
			}
			fx := lines[2]
			// The loss sits on the same side as the bank line so the entry balances.
			return fx.AccountID == suite.fxLossAccount.AccountID && fx.LineType == domain.Debit && fx.Amount.Equal(decimal.NewFromInt(2000))
		}),
		mock.AnythingOfType("map[string]decimal.Decimal"),
	).Return(nil).Once()
	suite.mockPaymentRepo.On("MarkPostedInTx", ctx, mock.Anything, payment.PaymentID, mock.AnythingOfType("string"), (*string)(nil), mock.AnythingOfType("*decimal.Decimal"), suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockPaymentRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()

	result, err := suite.service.PostPayment(ctx, payment.PaymentID, suite.userID)

	suite.Require().NoError(err)
	suite.True(result.FXGainLoss.Equal(decimal.NewFromInt(-2000)), "got %s", result.FXGainLoss)
}

func (suite *PaymentServiceTestSuite) TestPostPayment_EqualRatesNoFX() {
	ctx := context.Background()
	payment, allocations, invoice := suite.draftPaymentWithAllocation()
	suite.stubCurrency("AED")
	// Settlement at the same 4.00 the invoice was posted at: no realized
	// difference, so the entry carries only the bank and control lines.
	suite.stubSettlementRate("4.00")

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, payment.PaymentID).Return(payment, nil).Once()
	suite.mockPaymentRepo.On("FindAllocationsByPaymentID", ctx, payment.PaymentID).Return(allocations, nil).Once()
	suite.mockAccountSvc.On("GetAccountByPurpose", ctx, domain.PurposeBank).Return(&suite.bankAccount, nil).Once()
	suite.mockAccountSvc.On("GetAccountByPurpose", ctx, domain.PurposeAccountsReceivable).Return(&suite.arAccount, nil).Once()
	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, invoice.InvoiceID).Return(invoice, nil).Once()
	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.bankAccount.AccountID).Return(&suite.bankAccount, nil).Once()
	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.arAccount.AccountID).Return(&suite.arAccount, nil).Once()

	amount := decimal.NewFromInt(40000)

	suite.mockPaymentRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockPaymentRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()
	suite.mockJournalRepo.On("SaveEntryInTx", ctx, mock.Anything, mock.AnythingOfType("domain.JournalEntry"),
		mock.MatchedBy(func(lines []domain.JournalLine) bool {
			if len(lines) != 2 {
				return false
			}
			bank, control := lines[0], lines[1]
			return bank.AccountID == suite.bankAccount.AccountID && bank.LineType == domain.Debit && bank.Amount.Equal(amount) &&
				control.AccountID == suite.arAccount.AccountID && control.LineType == domain.Credit && control.Amount.Equal(amount)
		}),
		mock.AnythingOfType("map[string]decimal.Decimal"),
	).Return(nil).Once()
	suite.mockPaymentRepo.On("MarkPostedInTx", ctx, mock.Anything, payment.PaymentID, mock.AnythingOfType("string"), (*string)(nil), mock.AnythingOfType("*decimal.Decimal"), suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockPaymentRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()

	result, err := suite.service.PostPayment(ctx, payment.PaymentID, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(result)
	suite.True(result.FXGainLoss.IsZero(), "got %s", result.FXGainLoss)
	suite.mockAccountSvc.AssertNotCalled(suite.T(), "GetAccountByPurpose", mock.Anything, domain.PurposeFXGain)
	suite.mockAccountSvc.AssertNotCalled(suite.T(), "GetAccountByPurpose", mock.Anything, domain.PurposeFXLoss)
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestPostPayment_MissingFXAccount() {
	ctx := context.Background()
	payment, allocations, invoice := suite.draftPaymentWithAllocation()
	suite.stubCurrency("AED")
	suite.stubSettlementRate("4.20")

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, payment.PaymentID).Return(payment, nil).Once()
	suite.mockPaymentRepo.On("FindAllocationsByPaymentID", ctx, payment.PaymentID).Return(allocations, nil).Once()
	suite.mockAccountSvc.On("GetAccountByPurpose", ctx, domain.PurposeBank).Return(&suite.bankAccount, nil).Once()
	suite.mockAccountSvc.On("GetAccountByPurpose", ctx, domain.PurposeAccountsReceivable).Return(&suite.arAccount, nil).Once()
	suite.mockAccountSvc.On("GetAccountByPurpose", ctx, domain.PurposeFXGain).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, invoice.InvoiceID).Return(invoice, nil).Once()

	result, err := suite.service.PostPayment(ctx, payment.PaymentID, suite.userID)

	suite.Require().Error(err)
	var fxErr *apperrors.MissingFXAccountError
	suite.Require().ErrorAs(err, &fxErr)
	suite.Equal(string(domain.PurposeFXGain), fxErr.Kind)
	suite.Nil(result)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "Begin", mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestPostPayment_NotDraft() {
	ctx := context.Background()
	payment, _, _ := suite.draftPaymentWithAllocation()
	payment.Status = domain.PaymentPosted

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, payment.PaymentID).Return(payment, nil).Once()

	result, err := suite.service.PostPayment(ctx, payment.PaymentID, suite.userID)

	suite.Require().Error(err)
	var stateErr *apperrors.InvalidStateTransitionError
	suite.Require().ErrorAs(err, &stateErr)
	suite.Equal("payment", stateErr.Entity)
	suite.Equal(string(domain.PaymentDraft), stateErr.Required)
	suite.Nil(result)
}

func (suite *PaymentServiceTestSuite) TestPostPayment_InvoiceWithoutLockedRate() {
	ctx := context.Background()
	payment, allocations, invoice := suite.draftPaymentWithAllocation()
	invoice.ExchangeRate = nil
	suite.stubCurrency("AED")
	suite.stubSettlementRate("4.20")

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, payment.PaymentID).Return(payment, nil).Once()
	suite.mockPaymentRepo.On("FindAllocationsByPaymentID", ctx, payment.PaymentID).Return(allocations, nil).Once()
	suite.mockAccountSvc.On("GetAccountByPurpose", ctx, domain.PurposeBank).Return(&suite.bankAccount, nil).Once()
	suite.mockAccountSvc.On("GetAccountByPurpose", ctx, domain.PurposeAccountsReceivable).Return(&suite.arAccount, nil).Once()
	suite.mockInvoiceRepo.On("FindInvoiceByID", ctx, invoice.InvoiceID).Return(invoice, nil).Once()

	result, err := suite.service.PostPayment(ctx, payment.PaymentID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInternal)
	suite.Nil(result)
}

func TestPaymentService(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}
