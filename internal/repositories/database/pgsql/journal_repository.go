package pgsql

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/corefin/accounting_core_app/internal/apperrors"
	"github.com/corefin/accounting_core_app/internal/core/domain"
	portsrepo "github.com/corefin/accounting_core_app/internal/core/ports/repositories"
	"github.com/corefin/accounting_core_app/internal/models"
	"github.com/corefin/accounting_core_app/internal/utils/accounting"
	"github.com/corefin/accounting_core_app/internal/utils/mapping"
	"github.com/corefin/accounting_core_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxJournalRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
}

// newPgxJournalRepository creates a new repository for journal entry and line data.
func newPgxJournalRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountRepositoryFacade) portsrepo.JournalRepositoryFacade {
	return &PgxJournalRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

// Ensure implementation matches interface
var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

const entryColumns = `entry_id, entry_date, memo, currency_code, status, original_entry_id, reversing_entry_id, source_type, source_id, amount, created_at, created_by, last_updated_at, last_updated_by`

func scanEntryRow(row pgx.Row) (models.JournalEntry, error) {
	var m models.JournalEntry
	err := row.Scan(
		&m.EntryID,
		&m.EntryDate,
		&m.Memo,
		&m.CurrencyCode,
		&m.Status,
		&m.OriginalEntryID,
		&m.ReversingEntryID,
		&m.SourceType,
		&m.SourceID,
		&m.Amount,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveEntry persists an entry with its lines and applies balance changes in a
// transaction of its own.
func (r *PgxJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine, balanceChanges map[string]decimal.Decimal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := r.SaveEntryInTx(ctx, tx, entry, lines, balanceChanges); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

// SaveEntryInTx inserts the entry header and lines and moves account balances
// inside the caller's transaction. Affected accounts are locked first; running
// balances per line are derived from the locked balances, walking the lines in
// deterministic ID order.
func (r *PgxJournalRepository) SaveEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, lines []domain.JournalLine, balanceChanges map[string]decimal.Decimal) error {
	now := entry.CreatedAt
	userID := entry.CreatedBy

	// 1. Insert the entry header
	modelEntry := mapping.ToModelJournalEntry(entry)
	entryQuery := `
		INSERT INTO journal_entries (
			entry_id, entry_date, memo, currency_code, status,
			original_entry_id, reversing_entry_id, source_type, source_id, amount,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := tx.Exec(ctx, entryQuery,
		modelEntry.EntryID,
		modelEntry.EntryDate,
		modelEntry.Memo,
		modelEntry.CurrencyCode,
		modelEntry.Status,
		modelEntry.OriginalEntryID,
		modelEntry.ReversingEntryID,
		modelEntry.SourceType,
		modelEntry.SourceID,
		modelEntry.Amount,
		modelEntry.CreatedAt,
		modelEntry.CreatedBy,
		modelEntry.LastUpdatedAt,
		modelEntry.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert journal entry "+modelEntry.EntryID, err)
	}

	// 2. Lock affected accounts and read their pre-entry balances
	accountIDs := make([]string, 0, len(balanceChanges))
	for accID := range balanceChanges {
		accountIDs = append(accountIDs, accID)
	}

	lockedAccounts, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs)
	if err != nil {
		return apperrors.NewAppError(500, "failed to lock accounts for update", err)
	}

	// 3. Apply the net balance changes
	if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, balanceChanges, userID, now); err != nil {
		return apperrors.NewAppError(500, "failed to update account balances", err)
	}

	// 4. Insert lines with running balances computed from the locked balances
	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO journal_lines (line_id, entry_id, account_id, amount, line_type, currency_code, memo, dimensions, running_balance, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`

	currentRunningBalances := make(map[string]decimal.Decimal)
	for accID, lockedAcc := range lockedAccounts {
		currentRunningBalances[accID] = lockedAcc.Balance
	}

	// Sort lines by ID for a deterministic running balance walk
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].LineID < lines[j].LineID
	})

	for _, line := range lines {
		modelLine := mapping.ToModelJournalLine(line)
		modelLine.CreatedAt = now
		modelLine.LastUpdatedAt = now
		modelLine.CreatedBy = userID
		modelLine.LastUpdatedBy = userID

		lockedAccount, ok := lockedAccounts[line.AccountID]
		if !ok {
			return apperrors.NewAppError(500, "internal error: locked account "+line.AccountID+" not found during line processing", nil)
		}

		signedAmount, err := accounting.CalculateSignedAmount(line, lockedAccount.AccountType)
		if err != nil {
			return apperrors.NewAppError(500, "failed to calculate signed amount for line "+line.LineID, err)
		}

		newRunningBalance := currentRunningBalances[line.AccountID].Add(signedAmount)
		modelLine.RunningBalance = newRunningBalance
		currentRunningBalances[line.AccountID] = newRunningBalance

		batch.Queue(lineQuery,
			modelLine.LineID,
			modelLine.EntryID,
			modelLine.AccountID,
			modelLine.Amount,
			modelLine.LineType,
			modelLine.CurrencyCode,
			modelLine.Memo,
			modelLine.Dimensions,
			modelLine.RunningBalance,
			modelLine.CreatedAt,
			modelLine.CreatedBy,
			modelLine.LastUpdatedAt,
			modelLine.LastUpdatedBy,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to execute line batch for entry "+modelEntry.EntryID, err)
	}

	return nil
}

// FindEntryByID retrieves a journal entry header by its ID.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE entry_id = $1;
	`
	m, err := scanEntryRow(r.Pool.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find journal entry by ID %s: %w", entryID, err)
	}

	domainEntry := mapping.ToDomainJournalEntry(m)
	return &domainEntry, nil
}

// FindLinesByEntryID retrieves all lines for a journal entry.
func (r *PgxJournalRepository) FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error) {
	query := `
		SELECT line_id, entry_id, account_id, amount, line_type, currency_code, memo, dimensions, running_balance, created_at, created_by, last_updated_at, last_updated_by
		FROM journal_lines
		WHERE entry_id = $1
		ORDER BY line_id;
	`
	rows, err := r.Pool.Query(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for entry %s: %w", entryID, err)
	}
	defer rows.Close()

	modelLines := make([]models.JournalLine, 0)
	for rows.Next() {
		var m models.JournalLine
		scanErr := rows.Scan(
			&m.LineID,
			&m.EntryID,
			&m.AccountID,
			&m.Amount,
			&m.LineType,
			&m.CurrencyCode,
			&m.Memo,
			&m.Dimensions,
			&m.RunningBalance,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan line row for entry %s: %w", entryID, scanErr)
		}
		modelLines = append(modelLines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line rows for entry %s: %w", entryID, err)
	}

	return mapping.ToDomainJournalLineSlice(modelLines), nil
}

// ListEntries retrieves a token-paginated list of journal entries, newest
// first. Keyset pagination on (entry_date, created_at) keeps the cursor stable
// while new entries are posted.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, limit int, nextToken *string, includeReversals bool) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra row to know whether a next page exists.
	fetchLimit := limit + 1

	baseQuery := `
		SELECT ` + entryColumns + `
		FROM journal_entries
	`
	filterClause := `WHERE TRUE`
	if !includeReversals {
		filterClause += ` AND status != 'REVERSED' AND reversing_entry_id IS NULL AND original_entry_id IS NULL`
	}
	orderByClause := `ORDER BY entry_date DESC, created_at DESC`

	args := []interface{}{}
	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		// Tuple comparison keeps the cursor condition index-friendly
		filterClause += ` AND (entry_date, created_at) < ($1, $2)`
		args = append(args, lastDate, lastCreatedAt)
	}

	query := baseQuery + " " + filterClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query journal entries", err)
	}
	defer rows.Close()

	modelEntries := make([]models.JournalEntry, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanEntryRow(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan journal entry row", scanErr)
		}
		modelEntries = append(modelEntries, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating journal entry rows", err)
	}

	var nextTokenVal *string
	results := modelEntries
	if len(modelEntries) > limit {
		// Token points at the last item included in this page.
		lastEntry := modelEntries[limit-1]
		newToken := pagination.EncodeToken(lastEntry.EntryDate, lastEntry.CreatedAt)
		nextTokenVal = &newToken
		results = modelEntries[:limit]
	}

	domainEntries := make([]domain.JournalEntry, len(results))
	for i, m := range results {
		domainEntries[i] = mapping.ToDomainJournalEntry(m)
	}

	return domainEntries, nextTokenVal, nil
}

// AggregateByAccountType sums posted line amounts grouped by account type over
// a date period. Reversed entries and their reversals both participate; they
// cancel arithmetically, so no status filter is applied.
func (r *PgxJournalRepository) AggregateByAccountType(ctx context.Context, from, to time.Time) (map[domain.AccountType]domain.TypeTotals, error) {
	query := `
		SELECT a.account_type,
		       COALESCE(SUM(l.amount) FILTER (WHERE l.line_type = 'DEBIT'), 0) AS debits,
		       COALESCE(SUM(l.amount) FILTER (WHERE l.line_type = 'CREDIT'), 0) AS credits
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		JOIN accounts a ON a.account_id = l.account_id
		WHERE e.entry_date >= $1 AND e.entry_date <= $2
		GROUP BY a.account_type;
	`
	rows, err := r.Pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate journal lines by account type: %w", err)
	}
	defer rows.Close()

	totals := make(map[domain.AccountType]domain.TypeTotals)
	for rows.Next() {
		var accountType string
		var debits, credits decimal.Decimal
		if scanErr := rows.Scan(&accountType, &debits, &credits); scanErr != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", scanErr)
		}
		totals[domain.AccountType(accountType)] = domain.TypeTotals{
			Debits:  debits,
			Credits: credits,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating aggregate rows: %w", err)
	}

	return totals, nil
}

// UpdateEntryStatusAndLinksInTx marks an entry REVERSED and records the
// reversal back-link. This is the only legal mutation of a posted entry.
func (r *PgxJournalRepository) UpdateEntryStatusAndLinksInTx(ctx context.Context, tx pgx.Tx, entryID string, status domain.EntryStatus, reversingEntryID *string, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE journal_entries
		SET status = $2, reversing_entry_id = $3, last_updated_at = $4, last_updated_by = $5
		WHERE entry_id = $1;
	`
	ct, err := tx.Exec(ctx, query, entryID, string(status), reversingEntryID, updatedAt, updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update status for entry "+entryID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("journal entry " + entryID + " not found for status update")
	}
	return nil
}
