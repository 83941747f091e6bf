package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is the storage representation of a journal entry row.
type JournalEntry struct {
	EntryID          string          `json:"entryID"`
	EntryDate        time.Time       `json:"entryDate"`
	Memo             string          `json:"memo"`
	CurrencyCode     string          `json:"currencyCode"`
	Status           string          `json:"status"`
	OriginalEntryID  *string         `json:"originalEntryID"`
	ReversingEntryID *string         `json:"reversingEntryID"`
	SourceType       *string         `json:"sourceType"`
	SourceID         *string         `json:"sourceID"`
	Amount           decimal.Decimal `json:"amount"`
	AuditFields
}

// JournalLine is the storage representation of a journal line row.
type JournalLine struct {
	LineID         string            `json:"lineID"`
	EntryID        string            `json:"entryID"`
	AccountID      string            `json:"accountID"`
	Amount         decimal.Decimal   `json:"amount"`
	LineType       string            `json:"lineType"`
	CurrencyCode   string            `json:"currencyCode"`
	Memo           string            `json:"memo"`
	Dimensions     map[string]string `json:"dimensions"` // JSONB column
	RunningBalance decimal.Decimal   `json:"runningBalance"`
	EntryDate      time.Time         `json:"entryDate"`
	EntryMemo      string            `json:"entryMemo"`
	AuditFields
}
