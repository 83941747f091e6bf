package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the state of a journal entry.
type EntryStatus string

const (
	Posted   EntryStatus = "POSTED"
	Reversed EntryStatus = "REVERSED"
)

// LineType indicates whether a journal line is a Debit or a Credit.
type LineType string

const (
	Debit  LineType = "DEBIT"
	Credit LineType = "CREDIT"
)

// JournalEntry represents a single, balanced financial event composed of
// multiple journal lines. Entries are append-only: once posted they are never
// mutated, corrections happen through a reversing entry.
type JournalEntry struct {
	EntryID      string      `json:"entryID"`      // Primary Key (UUID)
	EntryDate    time.Time   `json:"entryDate"`    // Date the event occurred
	Memo         string      `json:"memo"`         // Free-text description
	CurrencyCode string      `json:"currencyCode"` // Currency the balance invariant is evaluated in
	Status       EntryStatus `json:"status"`

	// Reversal back-links. A reversing entry carries OriginalEntryID; the
	// reversed original carries ReversingEntryID and status REVERSED.
	OriginalEntryID  *string `json:"originalEntryID,omitempty"`
	ReversingEntryID *string `json:"reversingEntryID,omitempty"`

	// SourceType/SourceID tie the entry back to the document that produced it
	// (invoice, payment, tax filing). Nullable for manual entries.
	SourceType *EntrySourceType `json:"sourceType,omitempty"`
	SourceID   *string          `json:"sourceID,omitempty"`

	Amount decimal.Decimal `json:"amount"` // Total debit side, the economic value of the entry
	Lines  []JournalLine   `json:"lines,omitempty"`
	AuditFields
}

// EntrySourceType names the document kind a journal entry originated from.
type EntrySourceType string

const (
	SourceInvoice    EntrySourceType = "INVOICE"
	SourcePayment    EntrySourceType = "PAYMENT"
	SourceTaxAccrual EntrySourceType = "TAX_ACCRUAL"
)

// JournalLine is a single line within a journal entry, affecting one account.
// Exactly one of debit/credit applies per line (LineType + positive Amount).
type JournalLine struct {
	LineID       string          `json:"lineID"`    // Primary Key (UUID)
	EntryID      string          `json:"entryID"`   // FK -> journal_entries (Not Null)
	AccountID    string          `json:"accountID"` // FK -> accounts (Not Null)
	Amount       decimal.Decimal `json:"amount"`    // Positive value
	LineType     LineType        `json:"lineType"`  // DEBIT or CREDIT
	CurrencyCode string          `json:"currencyCode"`
	Memo         string          `json:"memo"`
	// Dimensions carries caller-supplied analysis tags (department, project,
	// product) opaquely through to storage.
	Dimensions map[string]string `json:"dimensions,omitempty"`
	AuditFields
	RunningBalance decimal.Decimal `json:"runningBalance"` // Account balance after this line
	EntryDate      time.Time       `json:"entryDate,omitempty"`
	EntryMemo      string          `json:"entryMemo,omitempty"`
}
