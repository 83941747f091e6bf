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
	ErrInvoiceMinLines  = errors.New("invoice must have at least one line")
	ErrInvoiceZeroTotal = errors.New("invoice total must be positive to post")
	ErrInvoiceHasPaid   = errors.New("invoice with recorded payments cannot be cancelled")
)

// invoiceService drives the invoice lifecycle: editing, the approval workflow,
// posting to the ledger, and cancellation. Monetary totals are always derived
// from lines; the only stored amounts are the write-once posting snapshot.
type invoiceService struct {
	invoiceRepo  portsrepo.InvoiceRepositoryFacade
	journalRepo  portsrepo.JournalRepositoryFacade
	accountSvc   portssvc.AccountSvcFacade
	taxRateSvc   portssvc.TaxRateSvcFacade
	fxSvc        portssvc.FXConversionSvc
	currencyRepo portsrepo.CurrencyRepositoryFacade
	ledgerSvc    portssvc.LedgerSvcFacade
}

// NewInvoiceService creates a new invoice service.
func NewInvoiceService(
	invoiceRepo portsrepo.InvoiceRepositoryFacade,
	journalRepo portsrepo.JournalRepositoryFacade,
	accountSvc portssvc.AccountSvcFacade,
	taxRateSvc portssvc.TaxRateSvcFacade,
	fxSvc portssvc.FXConversionSvc,
	currencyRepo portsrepo.CurrencyRepositoryFacade,
	ledgerSvc portssvc.LedgerSvcFacade,
) portssvc.InvoiceSvcFacade {
	return &invoiceService{
		invoiceRepo:  invoiceRepo,
		journalRepo:  journalRepo,
		accountSvc:   accountSvc,
		taxRateSvc:   taxRateSvc,
		fxSvc:        fxSvc,
		currencyRepo: currencyRepo,
		ledgerSvc:    ledgerSvc,
	}
}

var _ portssvc.InvoiceSvcFacade = (*invoiceService)(nil)

// currencyPrecision looks up the minor-unit precision for a currency code,
// falling back to the default when the currency is unknown.
func (s *invoiceService) currencyPrecision(ctx context.Context, currencyCode string) (int32, error) {
	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, currencyCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return accounting.DefaultMoneyPrecision, nil
		}
		return 0, fmt.Errorf("failed to look up currency %s: %w", currencyCode, err)
	}
	return currency.Precision, nil
}

// computeNativeTotals derives subtotal, tax and total in the invoice's own
// currency. Each line amount and each line's tax are rounded independently
// before summing, so a printed document agrees with the stored arithmetic.
func (s *invoiceService) computeNativeTotals(ctx context.Context, inv *domain.Invoice, lines []domain.InvoiceLine) (subtotal, tax, total decimal.Decimal, err error) {
	precision, err := s.currencyPrecision(ctx, inv.CurrencyCode)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}

	subtotal, tax = decimal.Zero, decimal.Zero
	for _, line := range lines {
		lineAmount := accounting.RoundMoney(line.Amount(), precision)
		subtotal = subtotal.Add(lineAmount)

		lineTax, taxErr := s.taxRateSvc.CalculateLineTax(ctx, lineAmount, inv.Country, line.TaxCategory, inv.IssueDate, precision)
		if taxErr != nil {
			return decimal.Zero, decimal.Zero, decimal.Zero, taxErr
		}
		tax = tax.Add(lineTax)
	}
	return subtotal, tax, subtotal.Add(tax), nil
}

// deriveTotals assembles the full totals block including paid/outstanding.
func (s *invoiceService) deriveTotals(ctx context.Context, inv *domain.Invoice, lines []domain.InvoiceLine) (dto.InvoiceTotals, error) {
	subtotal, tax, total, err := s.computeNativeTotals(ctx, inv, lines)
	if err != nil {
		return dto.InvoiceTotals{}, err
	}
	paid, err := s.invoiceRepo.SumAllocations(ctx, inv.InvoiceID)
	if err != nil {
		return dto.InvoiceTotals{}, fmt.Errorf("failed to sum allocations for invoice %s: %w", inv.InvoiceID, err)
	}
	return dto.InvoiceTotals{
		Subtotal:    subtotal,
		Tax:         tax,
		Total:       total,
		Paid:        paid,
		Outstanding: total.Sub(paid),
	}, nil
}

func buildInvoiceLines(invoiceID string, reqLines []dto.CreateInvoiceLineRequest, userID string, now time.Time) ([]domain.InvoiceLine, error) {
	lines := make([]domain.InvoiceLine, len(reqLines))
	for i, lineReq := range reqLines {
		if lineReq.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: line quantity must be positive", apperrors.ErrValidation)
		}
		if lineReq.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: line unit price must not be negative", apperrors.ErrValidation)
		}
		lines[i] = domain.InvoiceLine{
			LineID:      uuid.NewString(),
			InvoiceID:   invoiceID,
			Description: lineReq.Description,
			Quantity:    lineReq.Quantity,
			UnitPrice:   lineReq.UnitPrice,
			TaxCategory: lineReq.TaxCategory,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
	}
	return lines, nil
}

// CreateInvoice persists a new draft invoice with its lines.
func (s *invoiceService) CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest, creatorUserID string) (*domain.Invoice, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if len(req.Lines) == 0 {
		return nil, ErrInvoiceMinLines
	}
	if req.DueDate.Before(req.IssueDate) {
		return nil, fmt.Errorf("%w: due date must not precede issue date", apperrors.ErrValidation)
	}
	if _, err := s.currencyRepo.FindCurrencyByCode(ctx, req.CurrencyCode); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: currency code '%s' not found", apperrors.ErrValidation, req.CurrencyCode)
		}
		return nil, fmt.Errorf("failed to validate currency '%s': %w", req.CurrencyCode, err)
	}

	now := time.Now().UTC()
	invoiceID := uuid.NewString()

	lines, err := buildInvoiceLines(invoiceID, req.Lines, creatorUserID, now)
	if err != nil {
		return nil, err
	}

	invoice := domain.Invoice{
		InvoiceID:      invoiceID,
		Kind:           req.Kind,
		PartyRef:       req.PartyRef,
		Country:        req.Country,
		CurrencyCode:   req.CurrencyCode,
		IssueDate:      req.IssueDate,
		DueDate:        req.DueDate,
		Memo:           req.Memo,
		ApprovalStatus: domain.ApprovalDraft,
		PostingStatus:  domain.PostingDraft,
		PaymentStatus:  domain.PaymentUnpaid,
		CancelStatus:   domain.CancelActive,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.invoiceRepo.SaveInvoice(ctx, invoice, lines); err != nil {
		logger.Error("Failed to save invoice", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	logger.Info("Invoice created successfully", slog.String("invoice_id", invoiceID), slog.String("kind", string(req.Kind)))
	invoice.Lines = lines
	return &invoice, nil
}

// GetInvoiceByID retrieves an invoice with its lines and derived totals.
func (s *invoiceService) GetInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, dto.InvoiceTotals, error) {
	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, dto.InvoiceTotals{}, fmt.Errorf("failed to find invoice %s: %w", invoiceID, err)
	}
	lines, err := s.invoiceRepo.FindLinesByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, dto.InvoiceTotals{}, fmt.Errorf("failed to retrieve lines for invoice %s: %w", invoiceID, err)
	}
	invoice.Lines = lines

	totals, err := s.deriveTotals(ctx, invoice, lines)
	if err != nil {
		return nil, dto.InvoiceTotals{}, err
	}
	return invoice, totals, nil
}

// ListInvoices retrieves a paginated list of invoices.
func (s *invoiceService) ListInvoices(ctx context.Context, params dto.ListInvoicesParams) (*dto.ListInvoicesResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	limit := params.Limit
	if limit <= 0 {
		limit = 20 // Default limit
	}

	invoices, nextToken, err := s.invoiceRepo.ListInvoices(ctx, limit, params.NextToken)
	if err != nil {
		logger.Error("Failed to list invoices from repository", "error", err)
		return nil, fmt.Errorf("failed to retrieve invoices: %w", err)
	}

	responses := make([]dto.InvoiceResponse, len(invoices))
	for i := range invoices {
		lines, err := s.invoiceRepo.FindLinesByInvoiceID(ctx, invoices[i].InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve lines for invoice %s: %w", invoices[i].InvoiceID, err)
		}
		totals, err := s.deriveTotals(ctx, &invoices[i], lines)
		if err != nil {
			return nil, err
		}
		responses[i] = dto.ToInvoiceResponse(&invoices[i], totals)
	}

	return &dto.ListInvoicesResponse{
		Invoices:  responses,
		NextToken: nextToken,
	}, nil
}

// UpdateInvoice modifies an editable (Draft or Rejected) invoice.
func (s *invoiceService) UpdateInvoice(ctx context.Context, invoiceID string, req dto.UpdateInvoiceRequest, requestingUserID string) (*domain.Invoice, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice %s for update: %w", invoiceID, err)
	}
	if !invoice.Editable() {
		return nil, &apperrors.InvalidStateTransitionError{
			Entity:   "invoice",
			EntityID: invoiceID,
			Action:   "update",
			Current:  string(invoice.ApprovalStatus),
			Required: fmt.Sprintf("%s or %s", domain.ApprovalDraft, domain.ApprovalRejected),
		}
	}
	if invoice.CancelStatus == domain.CancelCancelled {
		return nil, &apperrors.InvalidStateTransitionError{
			Entity:   "invoice",
			EntityID: invoiceID,
			Action:   "update",
			Current:  string(domain.CancelCancelled),
			Required: string(domain.CancelActive),
		}
	}

	now := time.Now().UTC()
	if req.PartyRef != nil {
		invoice.PartyRef = *req.PartyRef
	}
	if req.Country != nil {
		invoice.Country = *req.Country
	}
	if req.IssueDate != nil {
		invoice.IssueDate = *req.IssueDate
	}
	if req.DueDate != nil {
		invoice.DueDate = *req.DueDate
	}
	if req.Memo != nil {
		invoice.Memo = *req.Memo
	}
	if invoice.DueDate.Before(invoice.IssueDate) {
		return nil, fmt.Errorf("%w: due date must not precede issue date", apperrors.ErrValidation)
	}

	lines, err := s.invoiceRepo.FindLinesByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve lines for invoice %s: %w", invoiceID, err)
	}
	if req.Lines != nil {
		if len(*req.Lines) == 0 {
			return nil, ErrInvoiceMinLines
		}
		lines, err = buildInvoiceLines(invoiceID, *req.Lines, requestingUserID, now)
		if err != nil {
			return nil, err
		}
	}

	// Editing a rejected invoice returns it to Draft for a fresh submission.
	if invoice.ApprovalStatus == domain.ApprovalRejected {
		invoice.ApprovalStatus = domain.ApprovalDraft
	}
	invoice.LastUpdatedAt = now
	invoice.LastUpdatedBy = requestingUserID

	if err := s.invoiceRepo.UpdateInvoice(ctx, *invoice, lines); err != nil {
		logger.Error("Failed to update invoice", slog.String("invoice_id", invoiceID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to update invoice %s: %w", invoiceID, err)
	}

	invoice.Lines = lines
	return invoice, nil
}

// DeleteInvoice removes a Draft or Rejected invoice entirely. Anything further
// along leaves an audit trail and can only be cancelled.
func (s *invoiceService) DeleteInvoice(ctx context.Context, invoiceID string, requestingUserID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to find invoice %s for deletion: %w", invoiceID, err)
	}
	if !invoice.Editable() {
		return &apperrors.InvalidStateTransitionError{
			Entity:   "invoice",
			EntityID: invoiceID,
			Action:   "delete",
			Current:  string(invoice.ApprovalStatus),
			Required: fmt.Sprintf("%s or %s", domain.ApprovalDraft, domain.ApprovalRejected),
		}
	}

	if err := s.invoiceRepo.DeleteInvoice(ctx, invoiceID); err != nil {
		logger.Error("Failed to delete invoice", slog.String("invoice_id", invoiceID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete invoice %s: %w", invoiceID, err)
	}
	logger.Info("Invoice deleted", slog.String("invoice_id", invoiceID), slog.String("deleted_by", requestingUserID))
	return nil
}

// transitionApproval applies one approval-workflow step after checking the
// current state is one of the allowed sources.
func (s *invoiceService) transitionApproval(ctx context.Context, invoiceID, action string, allowed []domain.ApprovalStatus, target domain.ApprovalStatus, userID string) (*domain.Invoice, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice %s: %w", invoiceID, err)
	}
	if invoice.CancelStatus == domain.CancelCancelled {
		return nil, &apperrors.InvalidStateTransitionError{
			Entity:   "invoice",
			EntityID: invoiceID,
			Action:   action,
			Current:  string(domain.CancelCancelled),
			Required: string(domain.CancelActive),
		}
	}

	legal := false
	required := make([]string, len(allowed))
	for i, status := range allowed {
		required[i] = string(status)
		if invoice.ApprovalStatus == status {
			legal = true
		}
	}
	if !legal {
		return nil, &apperrors.InvalidStateTransitionError{
			Entity:   "invoice",
			EntityID: invoiceID,
			Action:   action,
			Current:  string(invoice.ApprovalStatus),
			Required: joinStatuses(required),
		}
	}

	now := time.Now().UTC()
	if err := s.invoiceRepo.UpdateApprovalStatus(ctx, invoiceID, target, userID, now); err != nil {
		logger.Error("Failed to update invoice approval status", slog.String("invoice_id", invoiceID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to %s invoice %s: %w", action, invoiceID, err)
	}

	invoice.ApprovalStatus = target
	invoice.LastUpdatedAt = now
	invoice.LastUpdatedBy = userID
	logger.Info("Invoice approval transition applied", slog.String("invoice_id", invoiceID), slog.String("action", action), slog.String("status", string(target)))
	return invoice, nil
}

func joinStatuses(statuses []string) string {
	out := ""
	for i, s := range statuses {
		if i > 0 {
			out += " or "
		}
		out += s
	}
	return out
}

// SubmitInvoice moves a Draft or Rejected invoice to PendingApproval.
func (s *invoiceService) SubmitInvoice(ctx context.Context, invoiceID string, req dto.ApprovalActionRequest, userID string) (*domain.Invoice, error) {
	return s.transitionApproval(ctx, invoiceID, "submit",
		[]domain.ApprovalStatus{domain.ApprovalDraft, domain.ApprovalRejected},
		domain.ApprovalPending, userID)
}

// ApproveInvoice moves a PendingApproval invoice to Approved.
func (s *invoiceService) ApproveInvoice(ctx context.Context, invoiceID string, req dto.ApprovalActionRequest, approverUserID string) (*domain.Invoice, error) {
	return s.transitionApproval(ctx, invoiceID, "approve",
		[]domain.ApprovalStatus{domain.ApprovalPending},
		domain.ApprovalApproved, approverUserID)
}

// RejectInvoice moves a PendingApproval invoice back to Rejected.
func (s *invoiceService) RejectInvoice(ctx context.Context, invoiceID string, req dto.ApprovalActionRequest, approverUserID string) (*domain.Invoice, error) {
	return s.transitionApproval(ctx, invoiceID, "reject",
		[]domain.ApprovalStatus{domain.ApprovalPending},
		domain.ApprovalRejected, approverUserID)
}

// invoicePostingAccounts are the purpose-mapped accounts an invoice entry
// posts against.
type invoicePostingAccounts struct {
	control *domain.Account // AR or AP
	pnl     *domain.Account // revenue or expense
	tax     *domain.Account // tax payable, used when tax is nonzero
}

func (s *invoiceService) resolvePostingAccounts(ctx context.Context, kind domain.InvoiceKind) (*invoicePostingAccounts, error) {
	controlPurpose, pnlPurpose := domain.PurposeAccountsReceivable, domain.PurposeSalesRevenue
	if kind == domain.Payable {
		controlPurpose, pnlPurpose = domain.PurposeAccountsPayable, domain.PurposePurchaseExpense
	}

	control, err := s.accountSvc.GetAccountByPurpose(ctx, controlPurpose)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s account: %w", controlPurpose, err)
	}
	pnl, err := s.accountSvc.GetAccountByPurpose(ctx, pnlPurpose)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s account: %w", pnlPurpose, err)
	}
	tax, err := s.accountSvc.GetAccountByPurpose(ctx, domain.PurposeTaxPayable)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s account: %w", domain.PurposeTaxPayable, err)
	}
	return &invoicePostingAccounts{control: control, pnl: pnl, tax: tax}, nil
}

// PostInvoice books an approved invoice to the ledger. Native totals are
// converted to the base currency at the issue-date spot rate, and the base
// tax is derived as converted total minus converted subtotal so the entry
// balances exactly despite per-amount rounding.
func (s *invoiceService) PostInvoice(ctx context.Context, invoiceID string, userID string) (*dto.PostInvoiceResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice %s for posting: %w", invoiceID, err)
	}
	if invoice.CancelStatus == domain.CancelCancelled {
		return nil, &apperrors.InvalidStateTransitionError{
			Entity: "invoice", EntityID: invoiceID, Action: "post",
			Current: string(domain.CancelCancelled), Required: string(domain.CancelActive),
		}
	}
	if invoice.ApprovalStatus != domain.ApprovalApproved {
		return nil, &apperrors.InvalidStateTransitionError{
			Entity: "invoice", EntityID: invoiceID, Action: "post",
			Current: string(invoice.ApprovalStatus), Required: string(domain.ApprovalApproved),
		}
	}
	if invoice.PostingStatus != domain.PostingDraft {
		return nil, &apperrors.InvalidStateTransitionError{
			Entity: "invoice", EntityID: invoiceID, Action: "post",
			Current: string(invoice.PostingStatus), Required: string(domain.PostingDraft),
		}
	}

	lines, err := s.invoiceRepo.FindLinesByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve lines for invoice %s: %w", invoiceID, err)
	}

	subtotal, _, total, err := s.computeNativeTotals(ctx, invoice, lines)
	if err != nil {
		return nil, err
	}
	if total.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: invoice %s", ErrInvoiceZeroTotal, invoiceID)
	}

	baseCode := s.fxSvc.BaseCurrencyCode()

	// Convert subtotal and total independently, then derive base tax as the
	// difference. Converting the tax on its own could round the three apart.
	baseSubtotal, rate, err := s.fxSvc.Convert(ctx, subtotal, invoice.CurrencyCode, baseCode, domain.RateSpot, invoice.IssueDate)
	if err != nil {
		return nil, err
	}
	baseTotal := baseSubtotal
	if !total.Equal(subtotal) {
		baseTotal, _, err = s.fxSvc.Convert(ctx, total, invoice.CurrencyCode, baseCode, domain.RateSpot, invoice.IssueDate)
		if err != nil {
			return nil, err
		}
	}
	baseTax := baseTotal.Sub(baseSubtotal)

	accounts, err := s.resolvePostingAccounts(ctx, invoice.Kind)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entryID := uuid.NewString()
	sourceType := domain.SourceInvoice

	controlType, pnlType := domain.Debit, domain.Credit
	if invoice.Kind == domain.Payable {
		controlType, pnlType = domain.Credit, domain.Debit
	}

	audit := domain.AuditFields{CreatedAt: now, CreatedBy: userID, LastUpdatedAt: now, LastUpdatedBy: userID}
	entryLines := []domain.JournalLine{
		{
			LineID: uuid.NewString(), EntryID: entryID, AccountID: accounts.control.AccountID,
			Amount: baseTotal, LineType: controlType, CurrencyCode: baseCode,
			Memo: invoice.Memo, AuditFields: audit,
		},
		{
			LineID: uuid.NewString(), EntryID: entryID, AccountID: accounts.pnl.AccountID,
			Amount: baseSubtotal, LineType: pnlType, CurrencyCode: baseCode,
			Memo: invoice.Memo, AuditFields: audit,
		},
	}
	if !baseTax.IsZero() {
		// Output tax is owed (credit); input tax on purchases is recoverable
		// (debit). Both sides run through the same tax control account.
		entryLines = append(entryLines, domain.JournalLine{
			LineID: uuid.NewString(), EntryID: entryID, AccountID: accounts.tax.AccountID,
			Amount: baseTax, LineType: pnlType, CurrencyCode: baseCode,
			Memo: invoice.Memo, AuditFields: audit,
		})
	}

	if err := validateEntryBalance(entryID, entryLines); err != nil {
		return nil, err
	}

	balanceChanges := make(map[string]decimal.Decimal)
	accountTypes := map[string]domain.AccountType{
		accounts.control.AccountID: accounts.control.AccountType,
		accounts.pnl.AccountID:     accounts.pnl.AccountType,
		accounts.tax.AccountID:     accounts.tax.AccountType,
	}
	for _, line := range entryLines {
		signed, err := accounting.CalculateSignedAmount(line, accountTypes[line.AccountID])
		if err != nil {
			return nil, fmt.Errorf("internal error calculating balance changes: %w", err)
		}
		balanceChanges[line.AccountID] = balanceChanges[line.AccountID].Add(signed)
	}

	entry := domain.JournalEntry{
		EntryID:      entryID,
		EntryDate:    invoice.IssueDate,
		Memo:         fmt.Sprintf("Invoice %s (%s)", invoiceID, invoice.PartyRef),
		CurrencyCode: baseCode,
		Status:       domain.Posted,
		SourceType:   &sourceType,
		SourceID:     &invoice.InvoiceID,
		Amount:       calculateEntryAmount(entryLines),
		AuditFields:  audit,
	}

	// Book the entry and snapshot the invoice atomically.
	tx, err := s.invoiceRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin posting transaction: %w", err)
	}
	defer func() { _ = s.invoiceRepo.Rollback(ctx, tx) }()

	if err := s.journalRepo.SaveEntryInTx(ctx, tx, entry, entryLines, balanceChanges); err != nil {
		logger.Error("Failed to save invoice journal entry", slog.String("invoice_id", invoiceID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save journal entry for invoice %s: %w", invoiceID, err)
	}
	if err := s.invoiceRepo.MarkPostedInTx(ctx, tx, invoiceID, rate, baseTotal, entryID, now, userID); err != nil {
		logger.Error("Failed to mark invoice posted", slog.String("invoice_id", invoiceID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to mark invoice %s posted: %w", invoiceID, err)
	}
	if err := s.invoiceRepo.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit posting transaction: %w", err)
	}

	logger.Info("Invoice posted to ledger",
		slog.String("invoice_id", invoiceID),
		slog.String("entry_id", entryID),
		slog.String("base_total", baseTotal.String()),
	)

	return &dto.PostInvoiceResult{
		JournalEntryID:    entryID,
		ExchangeRate:      rate,
		BaseCurrencyTotal: baseTotal,
	}, nil
}

// CancelInvoice cancels an invoice. A posted invoice gets a reversing journal
// entry and flips to REVERSED; an unposted one is simply marked cancelled.
// Invoices with recorded payments cannot be cancelled.
func (s *invoiceService) CancelInvoice(ctx context.Context, invoiceID string, userID string) (*domain.Invoice, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice %s for cancellation: %w", invoiceID, err)
	}
	if invoice.CancelStatus == domain.CancelCancelled {
		return nil, &apperrors.InvalidStateTransitionError{
			Entity: "invoice", EntityID: invoiceID, Action: "cancel",
			Current: string(domain.CancelCancelled), Required: string(domain.CancelActive),
		}
	}
	if invoice.PaymentStatus != domain.PaymentUnpaid {
		return nil, fmt.Errorf("%w: %s", ErrInvoiceHasPaid, invoiceID)
	}

	now := time.Now().UTC()

	if invoice.PostingStatus == domain.PostingPosted {
		if invoice.JournalEntryID == nil {
			return nil, fmt.Errorf("%w: posted invoice %s has no journal entry link", apperrors.ErrInternal, invoiceID)
		}

		// The reversing entry, the posting-status flip and the cancellation
		// land in one transaction: a failure anywhere leaves the invoice
		// posted with its original entry intact.
		tx, err := s.invoiceRepo.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to begin cancellation transaction: %w", err)
		}
		defer func() { _ = s.invoiceRepo.Rollback(ctx, tx) }()

		reversal, err := s.ledgerSvc.ReverseEntryInTx(ctx, tx, *invoice.JournalEntryID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to reverse journal entry for invoice %s: %w", invoiceID, err)
		}
		if err := s.invoiceRepo.MarkReversedInTx(ctx, tx, invoiceID, userID, now); err != nil {
			return nil, fmt.Errorf("failed to mark invoice %s reversed: %w", invoiceID, err)
		}
		if err := s.invoiceRepo.UpdateCancellationInTx(ctx, tx, invoiceID, now, userID); err != nil {
			logger.Error("Failed to mark invoice cancelled", slog.String("invoice_id", invoiceID), slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to cancel invoice %s: %w", invoiceID, err)
		}
		if err := s.invoiceRepo.Commit(ctx, tx); err != nil {
			return nil, fmt.Errorf("failed to commit cancellation transaction: %w", err)
		}
		logger.Info("Invoice journal entry reversed", slog.String("invoice_id", invoiceID), slog.String("reversing_entry_id", reversal.EntryID))
		invoice.PostingStatus = domain.PostingReversed
	} else if err := s.invoiceRepo.UpdateCancellation(ctx, invoiceID, now, userID); err != nil {
		logger.Error("Failed to mark invoice cancelled", slog.String("invoice_id", invoiceID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to cancel invoice %s: %w", invoiceID, err)
	}

	invoice.CancelStatus = domain.CancelCancelled
	invoice.CancelledAt = &now
	invoice.LastUpdatedAt = now
	invoice.LastUpdatedBy = userID
	logger.Info("Invoice cancelled", slog.String("invoice_id", invoiceID))
	return invoice, nil
}
