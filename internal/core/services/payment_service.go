package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/corefin/accounting_core_app/internal/apperrors"
	"github.com/corefin/accounting_core_app/internal/core/domain"
	portsrepo "github.com/corefin/accounting_core_app/internal/core/ports/repositories"
	portssvc "github.com/corefin/accounting_core_app/internal/core/ports/services"
	"github.com/corefin/accounting_core_app/internal/dto"
	"github.com/corefin/accounting_core_app/internal/middleware"
	"github.com/corefin/accounting_core_app/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

var (
	ErrPaymentAmountNotPositive = errors.New("payment amount must be positive")
	ErrDuplicateAllocation      = errors.New("payment allocates the same invoice more than once")
	ErrAllocationsExceedPayment = errors.New("allocations exceed the payment amount")
	ErrInvoiceKindMismatch      = errors.New("allocated invoice kind does not match payment kind")
	ErrInvoiceNotPosted         = errors.New("allocations require a posted invoice")
)

// paymentService records payments and their allocations against invoices, and
// books the settlement entry with realized FX gain or loss. Allocation
// validation runs under per-invoice row locks so two payments cannot both
// consume the same outstanding balance.
type paymentService struct {
	paymentRepo  portsrepo.PaymentRepositoryFacade
	invoiceRepo  portsrepo.InvoiceRepositoryFacade
	journalRepo  portsrepo.JournalRepositoryFacade
	accountSvc   portssvc.AccountSvcFacade
	fxSvc        portssvc.FXConversionSvc
	currencyRepo portsrepo.CurrencyRepositoryFacade
	taxRateSvc   portssvc.TaxRateSvcFacade
}

// NewPaymentService creates a new payment service.
func NewPaymentService(
	paymentRepo portsrepo.PaymentRepositoryFacade,
	invoiceRepo portsrepo.InvoiceRepositoryFacade,
	journalRepo portsrepo.JournalRepositoryFacade,
	accountSvc portssvc.AccountSvcFacade,
	fxSvc portssvc.FXConversionSvc,
	currencyRepo portsrepo.CurrencyRepositoryFacade,
	taxRateSvc portssvc.TaxRateSvcFacade,
) portssvc.PaymentSvcFacade {
	return &paymentService{
		paymentRepo:  paymentRepo,
		invoiceRepo:  invoiceRepo,
		journalRepo:  journalRepo,
		accountSvc:   accountSvc,
		fxSvc:        fxSvc,
		currencyRepo: currencyRepo,
		taxRateSvc:   taxRateSvc,
	}
}

var _ portssvc.PaymentSvcFacade = (*paymentService)(nil)

// invoiceNativeTotal derives the invoice's total (subtotal plus tax) in its
// own currency, the same derivation invoice reads use.
func (s *paymentService) invoiceNativeTotal(ctx context.Context, invoice *domain.Invoice) (decimal.Decimal, error) {
	lines, err := s.invoiceRepo.FindLinesByInvoiceID(ctx, invoice.InvoiceID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to retrieve lines for invoice %s: %w", invoice.InvoiceID, err)
	}

	precision := accounting.DefaultMoneyPrecision
	if currency, err := s.currencyRepo.FindCurrencyByCode(ctx, invoice.CurrencyCode); err == nil {
		precision = currency.Precision
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return decimal.Zero, fmt.Errorf("failed to look up currency %s: %w", invoice.CurrencyCode, err)
	}

	total := decimal.Zero
	for _, line := range lines {
		lineAmount := accounting.RoundMoney(line.Amount(), precision)
		lineTax, err := s.taxRateSvc.CalculateLineTax(ctx, lineAmount, invoice.Country, line.TaxCategory, invoice.IssueDate, precision)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(lineAmount).Add(lineTax)
	}
	return total, nil
}

// CreatePayment validates the allocations against invoice outstanding balances
// under row locks, persists the payment, and advances the payment status of
// each allocated invoice. The whole operation is one transaction: either the
// payment with all its allocations and status changes lands, or nothing does.
func (s *paymentService) CreatePayment(ctx context.Context, req dto.CreatePaymentRequest, creatorUserID string) (*domain.Payment, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrPaymentAmountNotPositive
	}
	if _, err := s.currencyRepo.FindCurrencyByCode(ctx, req.CurrencyCode); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: currency code '%s' not found", apperrors.ErrValidation, req.CurrencyCode)
		}
		return nil, fmt.Errorf("failed to validate currency '%s': %w", req.CurrencyCode, err)
	}

	seen := make(map[string]struct{}, len(req.Allocations))
	for _, alloc := range req.Allocations {
		if alloc.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: allocation amount must be positive for invoice %s", apperrors.ErrValidation, alloc.InvoiceID)
		}
		if _, dup := seen[alloc.InvoiceID]; dup {
			return nil, fmt.Errorf("%w: invoice %s", ErrDuplicateAllocation, alloc.InvoiceID)
		}
		seen[alloc.InvoiceID] = struct{}{}
	}

	// Lock invoices in a stable order to avoid deadlocks between concurrent
	// payments touching overlapping invoice sets.
	sortedAllocs := make([]dto.CreateAllocationRequest, len(req.Allocations))
	copy(sortedAllocs, req.Allocations)
	sort.Slice(sortedAllocs, func(i, j int) bool { return sortedAllocs[i].InvoiceID < sortedAllocs[j].InvoiceID })

	now := time.Now().UTC()
	paymentID := uuid.NewString()
	audit := domain.AuditFields{CreatedAt: now, CreatedBy: creatorUserID, LastUpdatedAt: now, LastUpdatedBy: creatorUserID}

	tx, err := s.invoiceRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin allocation transaction: %w", err)
	}
	defer func() { _ = s.invoiceRepo.Rollback(ctx, tx) }()

	allocations := make([]domain.PaymentAllocation, 0, len(sortedAllocs))
	convertedTotal := decimal.Zero
	for _, allocReq := range sortedAllocs {
		invoice, err := s.invoiceRepo.FindInvoiceForUpdate(ctx, tx, allocReq.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("failed to lock invoice %s for allocation: %w", allocReq.InvoiceID, err)
		}
		if invoice.Kind != req.Kind {
			return nil, fmt.Errorf("%w: invoice %s is %s, payment is %s", ErrInvoiceKindMismatch, invoice.InvoiceID, invoice.Kind, req.Kind)
		}
		if invoice.PostingStatus != domain.PostingPosted || invoice.CancelStatus != domain.CancelActive {
			return nil, fmt.Errorf("%w: invoice %s", ErrInvoiceNotPosted, invoice.InvoiceID)
		}

		total, err := s.invoiceNativeTotal(ctx, invoice)
		if err != nil {
			return nil, err
		}
		allocated, err := s.invoiceRepo.SumAllocationsInTx(ctx, tx, invoice.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("failed to sum allocations for invoice %s: %w", invoice.InvoiceID, err)
		}
		outstanding := total.Sub(allocated)
		if allocReq.Amount.GreaterThan(outstanding) {
			return nil, &apperrors.OverAllocationError{
				InvoiceID:   invoice.InvoiceID,
				Outstanding: outstanding,
				Requested:   allocReq.Amount,
			}
		}

		// Allocation amounts live in the invoice's currency; the payment-level
		// cap below compares them in the payment's currency.
		converted := allocReq.Amount
		if invoice.CurrencyCode != req.CurrencyCode {
			converted, _, err = s.fxSvc.Convert(ctx, allocReq.Amount, invoice.CurrencyCode, req.CurrencyCode, domain.RateSpot, req.PaymentDate)
			if err != nil {
				return nil, err
			}
		}
		convertedTotal = convertedTotal.Add(converted)

		newStatus := domain.PaymentPartiallyPaid
		var paidAt *time.Time
		if allocReq.Amount.Equal(outstanding) {
			newStatus = domain.PaymentPaid
			paidAt = &now
		}
		if err := s.invoiceRepo.UpdatePaymentStatusInTx(ctx, tx, invoice.InvoiceID, newStatus, paidAt, creatorUserID, now); err != nil {
			return nil, fmt.Errorf("failed to update payment status for invoice %s: %w", invoice.InvoiceID, err)
		}

		allocations = append(allocations, domain.PaymentAllocation{
			AllocationID: uuid.NewString(),
			PaymentID:    paymentID,
			InvoiceID:    invoice.InvoiceID,
			Amount:       allocReq.Amount,
			AuditFields:  audit,
		})
	}

	if convertedTotal.GreaterThan(req.Amount) {
		return nil, fmt.Errorf("%w: allocations total %s, payment amount %s %s",
			ErrAllocationsExceedPayment, convertedTotal.String(), req.Amount.String(), req.CurrencyCode)
	}

	payment := domain.Payment{
		PaymentID:    paymentID,
		Kind:         req.Kind,
		PartyRef:     req.PartyRef,
		CurrencyCode: req.CurrencyCode,
		PaymentDate:  req.PaymentDate,
		Amount:       req.Amount,
		Memo:         req.Memo,
		Status:       domain.PaymentDraft,
		AuditFields:  audit,
	}

	if err := s.paymentRepo.SavePaymentInTx(ctx, tx, payment, allocations); err != nil {
		logger.Error("Failed to save payment", slog.String("payment_id", paymentID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	if err := s.invoiceRepo.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit allocation transaction: %w", err)
	}

	logger.Info("Payment created",
		slog.String("payment_id", paymentID),
		slog.Int("allocations", len(allocations)),
		slog.String("amount", req.Amount.String()),
	)
	payment.Allocations = allocations
	return &payment, nil
}

// GetPaymentByID retrieves a payment with its allocations.
func (s *paymentService) GetPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find payment %s: %w", paymentID, err)
	}
	allocations, err := s.paymentRepo.FindAllocationsByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve allocations for payment %s: %w", paymentID, err)
	}
	payment.Allocations = allocations
	return payment, nil
}

// ListPayments retrieves a token-paginated page of payments, newest first.
func (s *paymentService) ListPayments(ctx context.Context, params dto.ListPaymentsParams) (*dto.ListPaymentsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	payments, nextToken, err := s.paymentRepo.ListPayments(ctx, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	responses := make([]dto.PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = dto.ToPaymentResponse(&payments[i])
	}
	return &dto.ListPaymentsResponse{Payments: responses, NextToken: nextToken}, nil
}

// PostPayment books the payment to the ledger. The bank side moves at the
// payment-date rate while each allocated invoice is relieved at its locked
// posting-date rate; the difference is realized FX gain or loss, booked as the
// balancing line so the entry balances exactly.
func (s *paymentService) PostPayment(ctx context.Context, paymentID string, userID string) (*dto.PostPaymentResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find payment %s for posting: %w", paymentID, err)
	}
	if payment.Status != domain.PaymentDraft {
		return nil, &apperrors.InvalidStateTransitionError{
			Entity: "payment", EntityID: paymentID, Action: "post",
			Current: string(payment.Status), Required: string(domain.PaymentDraft),
		}
	}

	allocations, err := s.paymentRepo.FindAllocationsByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve allocations for payment %s: %w", paymentID, err)
	}

	baseCode := s.fxSvc.BaseCurrencyCode()

	bankAccount, err := s.accountSvc.GetAccountByPurpose(ctx, domain.PurposeBank)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s account: %w", domain.PurposeBank, err)
	}
	controlPurpose := domain.PurposeAccountsReceivable
	if payment.Kind == domain.Payable {
		controlPurpose = domain.PurposeAccountsPayable
	}
	controlAccount, err := s.accountSvc.GetAccountByPurpose(ctx, controlPurpose)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s account: %w", controlPurpose, err)
	}

	// Cash side at the settlement-date rate.
	bankAmount, payRate, err := s.fxSvc.Convert(ctx, payment.Amount, payment.CurrencyCode, baseCode, domain.RateSpot, payment.PaymentDate)
	if err != nil {
		return nil, err
	}

	// Relieve each invoice at its historical (posting-date) rate, and value the
	// same allocation at the settlement-date rate to find the realized
	// difference.
	historicalRelief := decimal.Zero
	settlementValue := decimal.Zero
	closedInvoiceIDs := make([]string, 0)
	var uniformInvoiceCurrency *string
	uniform := len(allocations) > 0
	for i, alloc := range allocations {
		invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, alloc.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("failed to find allocated invoice %s: %w", alloc.InvoiceID, err)
		}
		if invoice.ExchangeRate == nil {
			return nil, fmt.Errorf("%w: posted invoice %s has no locked exchange rate", apperrors.ErrInternal, invoice.InvoiceID)
		}

		precision := accounting.DefaultMoneyPrecision
		if currency, err := s.currencyRepo.FindCurrencyByCode(ctx, baseCode); err == nil {
			precision = currency.Precision
		}

		histValue := accounting.RoundMoney(alloc.Amount.Mul(*invoice.ExchangeRate), precision)
		settledValue, _, err := s.fxSvc.Convert(ctx, alloc.Amount, invoice.CurrencyCode, baseCode, domain.RateSpot, payment.PaymentDate)
		if err != nil {
			return nil, err
		}
		historicalRelief = historicalRelief.Add(histValue)
		settlementValue = settlementValue.Add(settledValue)

		if invoice.PaymentStatus == domain.PaymentPaid {
			closedInvoiceIDs = append(closedInvoiceIDs, invoice.InvoiceID)
		}

		if i == 0 {
			code := invoice.CurrencyCode
			uniformInvoiceCurrency = &code
		} else if uniformInvoiceCurrency != nil && *uniformInvoiceCurrency != invoice.CurrencyCode {
			uniform = false
		}
	}
	if !uniform || (uniformInvoiceCurrency != nil && *uniformInvoiceCurrency == payment.CurrencyCode) {
		uniformInvoiceCurrency = nil
	}

	// The portion of the payment not consumed by allocations stays on the
	// control account as money on account.
	onAccount := bankAmount.Sub(settlementValue)
	if onAccount.IsNegative() {
		// Rate triangulation can wobble by a minor unit; fold it into FX.
		onAccount = decimal.Zero
	}

	now := time.Now().UTC()
	entryID := uuid.NewString()
	sourceType := domain.SourcePayment
	audit := domain.AuditFields{CreatedAt: now, CreatedBy: userID, LastUpdatedAt: now, LastUpdatedBy: userID}

	bankLineType, controlLineType := domain.Debit, domain.Credit
	if payment.Kind == domain.Payable {
		bankLineType, controlLineType = domain.Credit, domain.Debit
	}

	entryLines := []domain.JournalLine{{
		LineID: uuid.NewString(), EntryID: entryID, AccountID: bankAccount.AccountID,
		Amount: bankAmount, LineType: bankLineType, CurrencyCode: baseCode,
		Memo: payment.Memo, AuditFields: audit,
	}}
	controlTotal := historicalRelief.Add(onAccount)
	if controlTotal.IsPositive() {
		entryLines = append(entryLines, domain.JournalLine{
			LineID: uuid.NewString(), EntryID: entryID, AccountID: controlAccount.AccountID,
			Amount: controlTotal, LineType: controlLineType, CurrencyCode: baseCode,
			Memo: payment.Memo, AuditFields: audit,
		})
	}

	// FX is the balancing figure between the cash side and the control side.
	// Positive means gain regardless of payment direction.
	var fxGainLoss decimal.Decimal
	if payment.Kind == domain.Receivable {
		fxGainLoss = bankAmount.Sub(controlTotal)
	} else {
		fxGainLoss = controlTotal.Sub(bankAmount)
	}
	if !fxGainLoss.IsZero() {
		purpose := domain.PurposeFXGain
		fxLineType := controlLineType // gain sits opposite the bank side
		if fxGainLoss.IsNegative() {
			purpose = domain.PurposeFXLoss
			fxLineType = bankLineType
		}
		fxAccount, err := s.accountSvc.GetAccountByPurpose(ctx, purpose)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, &apperrors.MissingFXAccountError{Kind: string(purpose)}
			}
			return nil, fmt.Errorf("failed to resolve %s account: %w", purpose, err)
		}
		entryLines = append(entryLines, domain.JournalLine{
			LineID: uuid.NewString(), EntryID: entryID, AccountID: fxAccount.AccountID,
			Amount: fxGainLoss.Abs(), LineType: fxLineType, CurrencyCode: baseCode,
			Memo: fmt.Sprintf("Realized FX on payment %s", paymentID), AuditFields: audit,
		})
	}

	if err := validateEntryBalance(entryID, entryLines); err != nil {
		return nil, err
	}

	balanceChanges := make(map[string]decimal.Decimal)
	for _, line := range entryLines {
		account, err := s.accountSvc.GetAccountByID(ctx, line.AccountID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch account %s: %w", line.AccountID, err)
		}
		signed, err := accounting.CalculateSignedAmount(line, account.AccountType)
		if err != nil {
			return nil, fmt.Errorf("internal error calculating balance changes: %w", err)
		}
		balanceChanges[line.AccountID] = balanceChanges[line.AccountID].Add(signed)
	}

	entry := domain.JournalEntry{
		EntryID:      entryID,
		EntryDate:    payment.PaymentDate,
		Memo:         fmt.Sprintf("Payment %s (%s)", paymentID, payment.PartyRef),
		CurrencyCode: baseCode,
		Status:       domain.Posted,
		SourceType:   &sourceType,
		SourceID:     &payment.PaymentID,
		Amount:       calculateEntryAmount(entryLines),
		AuditFields:  audit,
	}

	tx, err := s.paymentRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin payment posting transaction: %w", err)
	}
	defer func() { _ = s.paymentRepo.Rollback(ctx, tx) }()

	if err := s.journalRepo.SaveEntryInTx(ctx, tx, entry, entryLines, balanceChanges); err != nil {
		logger.Error("Failed to save payment journal entry", slog.String("payment_id", paymentID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save journal entry for payment %s: %w", paymentID, err)
	}
	if err := s.paymentRepo.MarkPostedInTx(ctx, tx, paymentID, entryID, uniformInvoiceCurrency, &payRate, userID, now); err != nil {
		logger.Error("Failed to mark payment posted", slog.String("payment_id", paymentID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to mark payment %s posted: %w", paymentID, err)
	}
	if err := s.paymentRepo.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit payment posting transaction: %w", err)
	}

	logger.Info("Payment posted to ledger",
		slog.String("payment_id", paymentID),
		slog.String("entry_id", entryID),
		slog.String("fx_gain_loss", fxGainLoss.String()),
		slog.Int("closed_invoices", len(closedInvoiceIDs)),
	)

	return &dto.PostPaymentResult{
		JournalEntryID:   entryID,
		FXGainLoss:       fxGainLoss,
		ClosedInvoiceIDs: closedInvoiceIDs,
	}, nil
}
