package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
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
	ErrInvalidPeriod   = errors.New("period end must be after period start")
	ErrNoCorporateRule = errors.New("no corporate tax rule effective for country and period")
)

// corporateTaxService accrues corporate income tax per (country, period) from
// posted ledger activity. Accrual is idempotent: repeating the request for an
// already-accrued period returns the existing filing unchanged.
type corporateTaxService struct {
	taxRepo     portsrepo.TaxRepositoryFacade
	journalRepo portsrepo.JournalRepositoryFacade
	accountSvc  portssvc.AccountSvcFacade
	ledgerSvc   portssvc.LedgerSvcFacade
	fxSvc       portssvc.FXConversionSvc
}

// NewCorporateTaxService creates a new corporate tax service.
func NewCorporateTaxService(
	taxRepo portsrepo.TaxRepositoryFacade,
	journalRepo portsrepo.JournalRepositoryFacade,
	accountSvc portssvc.AccountSvcFacade,
	ledgerSvc portssvc.LedgerSvcFacade,
	fxSvc portssvc.FXConversionSvc,
) portssvc.CorporateTaxSvcFacade {
	return &corporateTaxService{
		taxRepo:     taxRepo,
		journalRepo: journalRepo,
		accountSvc:  accountSvc,
		ledgerSvc:   ledgerSvc,
		fxSvc:       fxSvc,
	}
}

var _ portssvc.CorporateTaxSvcFacade = (*corporateTaxService)(nil)

// GetFilingByID retrieves a filing by its ID.
func (s *corporateTaxService) GetFilingByID(ctx context.Context, filingID string) (*domain.CorporateTaxFiling, error) {
	filing, err := s.taxRepo.FindFilingByID(ctx, filingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find tax filing %s: %w", filingID, err)
	}
	return filing, nil
}

// profitBeforeTax derives the period's pre-tax profit from the posted ledger:
// net income (credits minus debits on income accounts) less net expenses
// (debits minus credits on expense accounts).
func (s *corporateTaxService) profitBeforeTax(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	totals, err := s.ledgerSvc.AggregateByAccountType(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	incomeNet := totals[domain.Income].Credits.Sub(totals[domain.Income].Debits)
	expenseNet := totals[domain.Expense].Debits.Sub(totals[domain.Expense].Credits)
	return incomeNet.Sub(expenseNet), nil
}

// AccrueTax computes profit before tax over the period, applies the country's
// corporate tax rule, and books the accrual entry. A period with no taxable
// profit still produces a filing (with zero amounts and no entry) so the
// accrual run is recorded.
func (s *corporateTaxService) AccrueTax(ctx context.Context, req dto.AccrueTaxRequest, userID string) (*domain.CorporateTaxFiling, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.PeriodEnd.After(req.PeriodStart) {
		return nil, fmt.Errorf("%w: %s .. %s", ErrInvalidPeriod, req.PeriodStart.Format("2006-01-02"), req.PeriodEnd.Format("2006-01-02"))
	}

	// Idempotency: a live filing for the period wins over re-running the
	// accrual. Only a reversed filing reopens the period.
	existing, err := s.taxRepo.FindFilingByPeriod(ctx, req.Country, req.PeriodStart, req.PeriodEnd)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing filing: %w", err)
	}
	if existing != nil && existing.Status != domain.FilingReversed {
		logger.Info("Tax accrual already recorded for period, returning existing filing",
			slog.String("filing_id", existing.FilingID), slog.String("country", req.Country))
		return existing, nil
	}

	rule, err := s.taxRepo.FindCorporateTaxRule(ctx, req.Country, req.PeriodEnd)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNoCorporateRule, req.Country)
		}
		return nil, fmt.Errorf("failed to find corporate tax rule for %s: %w", req.Country, err)
	}

	profit, err := s.profitBeforeTax(ctx, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return nil, err
	}

	// Only profit above the threshold is taxed; the taxable base is clamped
	// at zero for loss-making or below-threshold periods.
	taxBase := profit
	if rule.Threshold != nil {
		taxBase = profit.Sub(*rule.Threshold)
	}
	if taxBase.IsNegative() {
		taxBase = decimal.Zero
	}
	taxAmount := decimal.Zero
	if taxBase.IsPositive() {
		taxAmount = accounting.RoundMoney(taxBase.Mul(rule.Rate), accounting.DefaultMoneyPrecision)
	}

	now := time.Now().UTC()
	filingID := uuid.NewString()
	audit := domain.AuditFields{CreatedAt: now, CreatedBy: userID, LastUpdatedAt: now, LastUpdatedBy: userID}

	filing := domain.CorporateTaxFiling{
		FilingID:    filingID,
		Country:     req.Country,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		Status:      domain.FilingAccrued,
		TaxBase:     taxBase,
		TaxAmount:   taxAmount,
		AuditFields: audit,
	}

	tx, err := s.taxRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin accrual transaction: %w", err)
	}
	defer func() { _ = s.taxRepo.Rollback(ctx, tx) }()

	if taxAmount.IsPositive() {
		expenseAccount, err := s.accountSvc.GetAccountByPurpose(ctx, domain.PurposeCorporateTaxExpense)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s account: %w", domain.PurposeCorporateTaxExpense, err)
		}
		payableAccount, err := s.accountSvc.GetAccountByPurpose(ctx, domain.PurposeCorporateTaxPayable)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s account: %w", domain.PurposeCorporateTaxPayable, err)
		}

		baseCode := s.fxSvc.BaseCurrencyCode()
		entryID := uuid.NewString()
		sourceType := domain.SourceTaxAccrual
		memo := fmt.Sprintf("Corporate tax accrual %s %s..%s", req.Country,
			req.PeriodStart.Format("2006-01-02"), req.PeriodEnd.Format("2006-01-02"))

		entryLines := []domain.JournalLine{
			{
				LineID: uuid.NewString(), EntryID: entryID, AccountID: expenseAccount.AccountID,
				Amount: taxAmount, LineType: domain.Debit, CurrencyCode: baseCode,
				Memo: memo, AuditFields: audit,
			},
			{
				LineID: uuid.NewString(), EntryID: entryID, AccountID: payableAccount.AccountID,
				Amount: taxAmount, LineType: domain.Credit, CurrencyCode: baseCode,
				Memo: memo, AuditFields: audit,
			},
		}

		balanceChanges := map[string]decimal.Decimal{}
		for _, line := range entryLines {
			accountType := expenseAccount.AccountType
			if line.AccountID == payableAccount.AccountID {
				accountType = payableAccount.AccountType
			}
			signed, err := accounting.CalculateSignedAmount(line, accountType)
			if err != nil {
				return nil, fmt.Errorf("internal error calculating balance changes: %w", err)
			}
			balanceChanges[line.AccountID] = balanceChanges[line.AccountID].Add(signed)
		}

		entry := domain.JournalEntry{
			EntryID:      entryID,
			EntryDate:    req.PeriodEnd,
			Memo:         memo,
			CurrencyCode: baseCode,
			Status:       domain.Posted,
			SourceType:   &sourceType,
			SourceID:     &filing.FilingID,
			Amount:       taxAmount,
			AuditFields:  audit,
		}

		if err := s.journalRepo.SaveEntryInTx(ctx, tx, entry, entryLines, balanceChanges); err != nil {
			logger.Error("Failed to save tax accrual entry", slog.String("filing_id", filingID), slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to save accrual entry: %w", err)
		}
		filing.AccrualEntryID = entryID
	}

	if err := s.taxRepo.SaveFilingInTx(ctx, tx, filing); err != nil {
		logger.Error("Failed to save tax filing", slog.String("filing_id", filingID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save tax filing: %w", err)
	}
	if err := s.taxRepo.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit accrual transaction: %w", err)
	}

	logger.Info("Corporate tax accrued",
		slog.String("filing_id", filingID),
		slog.String("country", req.Country),
		slog.String("tax_base", taxBase.String()),
		slog.String("tax_amount", taxAmount.String()),
	)
	return &filing, nil
}

// MarkFiled transitions an Accrued filing to Filed.
func (s *corporateTaxService) MarkFiled(ctx context.Context, filingID string, userID string) (*domain.CorporateTaxFiling, error) {
	filing, err := s.taxRepo.FindFilingByID(ctx, filingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find tax filing %s: %w", filingID, err)
	}
	if filing.Status != domain.FilingAccrued {
		return nil, &apperrors.InvalidStateTransitionError{
			Entity: "tax filing", EntityID: filingID, Action: "file",
			Current: string(filing.Status), Required: string(domain.FilingAccrued),
		}
	}

	now := time.Now().UTC()
	tx, err := s.taxRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin filing transaction: %w", err)
	}
	defer func() { _ = s.taxRepo.Rollback(ctx, tx) }()

	if err := s.taxRepo.UpdateFilingStatusInTx(ctx, tx, filingID, domain.FilingFiled, nil, userID, now); err != nil {
		return nil, fmt.Errorf("failed to mark filing %s filed: %w", filingID, err)
	}
	if err := s.taxRepo.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit filing transaction: %w", err)
	}

	filing.Status = domain.FilingFiled
	filing.LastUpdatedAt = now
	filing.LastUpdatedBy = userID
	return filing, nil
}

// ReverseFiling reverses the accrual entry and marks the filing Reversed,
// reopening the period for a corrected accrual run. Only an Accrued filing
// can be reversed; a Filed return is locked.
func (s *corporateTaxService) ReverseFiling(ctx context.Context, filingID string, userID string) (*domain.CorporateTaxFiling, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	filing, err := s.taxRepo.FindFilingByID(ctx, filingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find tax filing %s: %w", filingID, err)
	}
	// A filed return is locked; only an accrued filing can be reversed.
	if filing.Status != domain.FilingAccrued {
		return nil, &apperrors.InvalidStateTransitionError{
			Entity: "tax filing", EntityID: filingID, Action: "reverse",
			Current: string(filing.Status), Required: string(domain.FilingAccrued),
		}
	}

	now := time.Now().UTC()
	tx, err := s.taxRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin reversal transaction: %w", err)
	}
	defer func() { _ = s.taxRepo.Rollback(ctx, tx) }()

	// The accrual reversal and the filing status flip commit together.
	var reversalEntryID *string
	if filing.AccrualEntryID != "" {
		reversal, err := s.ledgerSvc.ReverseEntryInTx(ctx, tx, filing.AccrualEntryID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to reverse accrual entry for filing %s: %w", filingID, err)
		}
		reversalEntryID = &reversal.EntryID
	}

	if err := s.taxRepo.UpdateFilingStatusInTx(ctx, tx, filingID, domain.FilingReversed, reversalEntryID, userID, now); err != nil {
		return nil, fmt.Errorf("failed to mark filing %s reversed: %w", filingID, err)
	}
	if err := s.taxRepo.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit reversal transaction: %w", err)
	}

	filing.Status = domain.FilingReversed
	filing.ReversalEntryID = reversalEntryID
	filing.LastUpdatedAt = now
	filing.LastUpdatedBy = userID
	logger.Info("Tax filing reversed", slog.String("filing_id", filingID))
	return filing, nil
}
