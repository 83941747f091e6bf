package services

import (
	"context"
	"time"

	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/corefin/accounting_core_app/internal/dto"
	"github.com/jackc/pgx/v5"
)

// LedgerReaderSvc defines read operations for journal data
type LedgerReaderSvc interface {
	// GetEntryByID retrieves a specific journal entry with its lines.
	GetEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ListEntries retrieves a paginated list of journal entries.
	ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}

// LedgerWriterSvc defines write operations for journal data
type LedgerWriterSvc interface {
	// PostEntry validates and persists a balanced journal entry, updating
	// the cached balances of all touched accounts.
	PostEntry(ctx context.Context, req dto.CreateEntryRequest, creatorUserID string) (*domain.JournalEntry, error)

	// ReverseEntry creates a new entry whose lines mirror the original with
	// debits and credits swapped, and links the two entries.
	ReverseEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error)

	// ReverseEntryInTx performs the same reversal inside a caller-owned
	// transaction, so document services can flip their own status in the
	// same commit.
	ReverseEntryInTx(ctx context.Context, tx pgx.Tx, entryID string, userID string) (*domain.JournalEntry, error)
}

// LedgerAggregatorSvc defines reporting aggregations over posted entries
type LedgerAggregatorSvc interface {
	// AggregateByAccountType sums posted debits and credits per account type
	// over entries dated within [from, to], reversals excluded pairwise.
	AggregateByAccountType(ctx context.Context, from, to time.Time) (map[domain.AccountType]domain.TypeTotals, error)
}

// LedgerSvcFacade combines all ledger-related service interfaces
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
	LedgerAggregatorSvc
}
