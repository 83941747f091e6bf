package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

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
	ErrEntryMinLines      = errors.New("journal entry must have at least two lines")
	ErrEntryMinAccounts   = errors.New("journal entry must affect at least two different accounts")
	ErrAccountNotFound    = errors.New("account not found")
	ErrCurrencyMismatch   = errors.New("account currency does not match entry currency")
	ErrMemoMissing        = errors.New("journal entry memo is required")
	ErrReversalOfReversal = errors.New("cannot reverse an entry that is itself a reversal")
)

// reversalMemoPrefix marks memos of machine-generated reversing entries.
const reversalMemoPrefix = "Reversal of: "

// ledgerService provides the core posting engine: balanced entry creation,
// reversal, and period aggregation. Every document service funnels its ledger
// effects through here (or through buildEntry helpers sharing its validation).
type ledgerService struct {
	accountSvc  portssvc.AccountSvcFacade
	journalRepo portsrepo.JournalRepositoryFacade
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(journalRepo portsrepo.JournalRepositoryFacade, accountSvc portssvc.AccountSvcFacade) portssvc.LedgerSvcFacade {
	return &ledgerService{
		accountSvc:  accountSvc,
		journalRepo: journalRepo,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// validateEntryBalance checks the double-entry invariant for a set of lines.
func validateEntryBalance(entryID string, lines []domain.JournalLine) error {
	if len(lines) < 2 {
		return ErrEntryMinLines
	}

	for _, line := range lines {
		if line.Amount.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: line amount must be positive for line %s", apperrors.ErrValidation, line.LineID)
		}
	}

	debits, credits := accounting.SumDebitsCredits(lines)
	if !debits.Equal(credits) {
		return &apperrors.UnbalancedEntryError{
			EntryID:    entryID,
			Debits:     debits,
			Credits:    credits,
			Difference: debits.Sub(credits),
		}
	}
	return nil
}

// calculateEntryAmount computes the economic value of a balanced entry: the
// total of its debit side.
func calculateEntryAmount(lines []domain.JournalLine) decimal.Decimal {
	totalDebits := decimal.Zero
	for _, line := range lines {
		if line.LineType == domain.Debit {
			totalDebits = totalDebits.Add(line.Amount)
		}
	}
	return totalDebits
}

// resolveBalanceChanges validates line accounts (existence, active, currency)
// and nets the signed balance change per account.
func (s *ledgerService) resolveBalanceChanges(ctx context.Context, lines []domain.JournalLine, currencyCode string) (map[string]decimal.Decimal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	accountIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		accountIDs = append(accountIDs, line.AccountID)
	}
	uniqueAccountIDs := uniqueStrings(accountIDs)
	if len(uniqueAccountIDs) < 2 {
		return nil, ErrEntryMinAccounts
	}

	accountsMap := make(map[string]domain.Account, len(uniqueAccountIDs))
	for _, id := range uniqueAccountIDs {
		acc, err := s.accountSvc.GetAccountByID(ctx, id)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: ID %s", ErrAccountNotFound, id)
			}
			logger.Error("Failed to fetch account for entry validation", slog.String("account_id", id), slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to fetch accounts: %w", err)
		}
		if !acc.IsActive {
			return nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, id)
		}
		if acc.CurrencyCode != currencyCode {
			return nil, fmt.Errorf("%w: account currency %s does not match entry currency %s for account %s", ErrCurrencyMismatch, acc.CurrencyCode, currencyCode, id)
		}
		accountsMap[id] = *acc
	}

	balanceChanges := make(map[string]decimal.Decimal)
	for _, line := range lines {
		signedAmount, err := accounting.CalculateSignedAmount(line, accountsMap[line.AccountID].AccountType)
		if err != nil {
			logger.Error("Error calculating signed amount", slog.String("error", err.Error()), slog.String("line_id", line.LineID))
			return nil, fmt.Errorf("internal error calculating balance changes: %w", err)
		}
		balanceChanges[line.AccountID] = balanceChanges[line.AccountID].Add(signedAmount)
	}
	return balanceChanges, nil
}

// PostEntry validates and persists a balanced manual journal entry.
func (s *ledgerService) PostEntry(ctx context.Context, req dto.CreateEntryRequest, creatorUserID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Memo == "" {
		return nil, ErrMemoMissing
	}

	now := time.Now().UTC()
	entryID := uuid.NewString()

	lines := make([]domain.JournalLine, len(req.Lines))
	for i, lineReq := range req.Lines {
		lines[i] = domain.JournalLine{
			LineID:       uuid.NewString(),
			EntryID:      entryID,
			AccountID:    lineReq.AccountID,
			Amount:       lineReq.Amount,
			LineType:     lineReq.LineType,
			CurrencyCode: req.CurrencyCode,
			Memo:         lineReq.Memo,
			Dimensions:   lineReq.Dimensions,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     creatorUserID,
				LastUpdatedAt: now,
				LastUpdatedBy: creatorUserID,
			},
			// RunningBalance is calculated and set by the repository
		}
	}

	if err := validateEntryBalance(entryID, lines); err != nil {
		return nil, err
	}

	balanceChanges, err := s.resolveBalanceChanges(ctx, lines, req.CurrencyCode)
	if err != nil {
		return nil, err
	}

	entry := domain.JournalEntry{
		EntryID:      entryID,
		EntryDate:    req.Date,
		Memo:         req.Memo,
		CurrencyCode: req.CurrencyCode,
		Status:       domain.Posted,
		Amount:       calculateEntryAmount(lines),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.journalRepo.SaveEntry(ctx, entry, lines, balanceChanges); err != nil {
		logger.Error("Failed to save journal entry", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save journal entry: %w", err)
	}

	logger.Info("Journal entry posted successfully", slog.String("entry_id", entry.EntryID))
	entry.Lines = nil // Caller fetches lines separately if needed
	return &entry, nil
}

// GetEntryByID retrieves a specific journal entry with its lines.
func (s *ledgerService) GetEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find journal entry by ID", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		}
		return nil, fmt.Errorf("failed to find journal entry %s: %w", entryID, err)
	}

	lines, err := s.journalRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		logger.Error("Failed to fetch lines for journal entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to retrieve lines for entry %s: %w", entryID, apperrors.ErrInternal)
	}

	for i := range lines {
		lines[i].EntryID = entryID
		lines[i].EntryDate = entry.EntryDate
		lines[i].EntryMemo = entry.Memo
	}
	entry.Lines = lines

	return entry, nil
}

// ListEntries retrieves a paginated list of journal entries.
func (s *ledgerService) ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	limit := params.Limit
	if limit <= 0 {
		limit = 20 // Default limit
	}

	entries, nextToken, err := s.journalRepo.ListEntries(ctx, limit, params.NextToken, params.IncludeReversals)
	if err != nil {
		logger.Error("Failed to list journal entries from repository", "error", err)
		return nil, fmt.Errorf("failed to retrieve journal entries: %w", err)
	}

	entryResponses := make([]dto.EntryResponse, len(entries))
	for i := range entries {
		if params.IncludeLines {
			lines, err := s.journalRepo.FindLinesByEntryID(ctx, entries[i].EntryID)
			if err != nil {
				logger.Warn("Failed to fetch lines for entry", "entry_id", entries[i].EntryID, "error", err)
				// Continue without lines rather than failing the whole request
			} else {
				entries[i].Lines = lines
			}
		}
		entryResponses[i] = dto.ToEntryResponse(&entries[i])
	}

	return &dto.ListEntriesResponse{
		Entries:   entryResponses,
		NextToken: nextToken,
	}, nil
}

// AggregateByAccountType sums posted debits and credits per account type over
// entries dated within [from, to].
func (s *ledgerService) AggregateByAccountType(ctx context.Context, from, to time.Time) (map[domain.AccountType]domain.TypeTotals, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: period end %s is before period start %s", apperrors.ErrValidation, to.Format("2006-01-02"), from.Format("2006-01-02"))
	}
	totals, err := s.journalRepo.AggregateByAccountType(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate entries by account type: %w", err)
	}
	return totals, nil
}

// validateReversalAndGetOriginal loads and checks the original entry and its
// lines before a reversal.
func (s *ledgerService) validateReversalAndGetOriginal(ctx context.Context, entryID string) (*domain.JournalEntry, []domain.JournalLine, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Original entry not found for reversal", slog.String("entry_id", entryID))
			return nil, nil, apperrors.ErrNotFound
		}
		logger.Error("Failed to fetch original entry for reversal", "error", err)
		return nil, nil, fmt.Errorf("failed to retrieve original entry: %w", err)
	}

	if original.Status != domain.Posted {
		return nil, nil, &apperrors.InvalidStateTransitionError{
			Entity:   "journal entry",
			EntityID: entryID,
			Action:   "reverse",
			Current:  string(original.Status),
			Required: string(domain.Posted),
		}
	}

	// An entry that is itself a reversal cannot be reversed again; correct by
	// re-posting the original instead.
	if original.OriginalEntryID != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrReversalOfReversal, entryID)
	}

	lines, err := s.journalRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		logger.Error("Failed to fetch original lines for reversal", "error", err)
		return nil, nil, fmt.Errorf("failed to retrieve original lines: %w", err)
	}
	return original, lines, nil
}

// buildReversalLines mirrors the original lines with debit and credit swapped.
// Amounts, accounts and dimensions are carried over unchanged.
func buildReversalLines(original []domain.JournalLine, newEntryID, userID string, now time.Time) []domain.JournalLine {
	reversed := make([]domain.JournalLine, len(original))
	for i, origLine := range original {
		newLineType := domain.Credit
		if origLine.LineType == domain.Credit {
			newLineType = domain.Debit
		}
		reversed[i] = domain.JournalLine{
			LineID:       uuid.NewString(),
			EntryID:      newEntryID,
			AccountID:    origLine.AccountID,
			Amount:       origLine.Amount,
			LineType:     newLineType,
			CurrencyCode: origLine.CurrencyCode,
			Memo:         origLine.Memo,
			Dimensions:   origLine.Dimensions,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
	}
	return reversed
}

// ReverseEntryInTx creates a new entry that reverses a previously posted entry
// and links the two, inside the caller's transaction. The original flips to
// REVERSED; account balances return to their prior values through the mirrored
// lines. Callers that reverse as part of a document operation use this so the
// reversal commits together with their own status changes.
func (s *ledgerService) ReverseEntryInTx(ctx context.Context, tx pgx.Tx, entryID string, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, originalLines, err := s.validateReversalAndGetOriginal(ctx, entryID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	newEntryID := uuid.NewString()

	reversingEntry := domain.JournalEntry{
		EntryID:         newEntryID,
		EntryDate:       original.EntryDate,
		Memo:            reversalMemoPrefix + strings.TrimPrefix(original.Memo, reversalMemoPrefix),
		CurrencyCode:    original.CurrencyCode,
		Status:          domain.Posted,
		OriginalEntryID: &original.EntryID,
		SourceType:      original.SourceType,
		SourceID:        original.SourceID,
		Amount:          original.Amount,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	reversingLines := buildReversalLines(originalLines, newEntryID, userID, now)

	balanceChanges, err := s.resolveBalanceChanges(ctx, reversingLines, original.CurrencyCode)
	if err != nil {
		return nil, err
	}

	if err := s.journalRepo.SaveEntryInTx(ctx, tx, reversingEntry, reversingLines, balanceChanges); err != nil {
		logger.Error("Failed to save reversing entry", "error", err)
		return nil, fmt.Errorf("failed to save reversing entry: %w", err)
	}

	if err := s.journalRepo.UpdateEntryStatusAndLinksInTx(ctx, tx, original.EntryID, domain.Reversed, &newEntryID, userID, now); err != nil {
		logger.Error("Failed to update original entry status after reversal", slog.String("original_entry_id", original.EntryID), "error", err)
		return nil, fmt.Errorf("failed to update original entry status: %w", err)
	}

	logger.Info("Journal entry reversed successfully", slog.String("reversing_entry_id", newEntryID), slog.String("original_entry_id", original.EntryID))
	reversingEntry.Lines = nil
	return &reversingEntry, nil
}

// ReverseEntry reverses a posted entry as a standalone operation: the reversing
// entry and the original's status change commit atomically.
func (s *ledgerService) ReverseEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error) {
	tx, err := s.journalRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin reversal transaction: %w", err)
	}
	defer func() { _ = s.journalRepo.Rollback(ctx, tx) }()

	reversingEntry, err := s.ReverseEntryInTx(ctx, tx, entryID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.journalRepo.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit reversal transaction: %w", err)
	}
	return reversingEntry, nil
}

// uniqueStrings returns a slice containing only the unique strings from the input.
func uniqueStrings(input []string) []string {
	seen := make(map[string]struct{}, len(input))
	result := make([]string, 0, len(input))
	for _, str := range input {
		if _, ok := seen[str]; !ok {
			seen[str] = struct{}{}
			result = append(result, str)
		}
	}
	return result
}
