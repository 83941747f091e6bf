package repositories

import (
	"context"
	"time"

	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// JournalReader defines read operations for posted journal data.
type JournalReader interface {
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)
	FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error)

	// ListEntries retrieves a token-paginated list of journal entries.
	ListEntries(ctx context.Context, limit int, nextToken *string, includeReversals bool) ([]domain.JournalEntry, *string, error)

	// AggregateByAccountType sums posted line amounts grouped by account type
	// over a date period. Reversed entries and their reversals both stay in the
	// sums; they cancel by construction.
	AggregateByAccountType(ctx context.Context, from, to time.Time) (map[domain.AccountType]domain.TypeTotals, error)
}

// JournalWriter defines write operations for journal data. Entries are
// append-only; the only legal update flips status to REVERSED and records the
// reversal links.
type JournalWriter interface {
	// SaveEntry persists an entry with its lines and applies balance changes
	// in a transaction of its own.
	SaveEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine, balanceChanges map[string]decimal.Decimal) error

	// SaveEntryInTx is SaveEntry running inside a caller-owned transaction, for
	// posting operations that must atomically touch documents too.
	SaveEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, lines []domain.JournalLine, balanceChanges map[string]decimal.Decimal) error

	// UpdateEntryStatusAndLinksInTx marks an entry REVERSED and records the
	// reversal back-links.
	UpdateEntryStatusAndLinksInTx(ctx context.Context, tx pgx.Tx, entryID string, status domain.EntryStatus, reversingEntryID *string, updatedBy string, updatedAt time.Time) error
}

// JournalRepositoryFacade combines journal reads, writes and transaction control.
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
	TransactionManager
}
