package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is the storage representation of a payment row.
type Payment struct {
	PaymentID       string           `json:"paymentID"`
	Kind            string           `json:"kind"`
	PartyRef        string           `json:"partyRef"`
	CurrencyCode    string           `json:"currencyCode"`
	PaymentDate     time.Time        `json:"paymentDate"`
	Amount          decimal.Decimal  `json:"amount"`
	Memo            string           `json:"memo"`
	Status          string           `json:"status"`
	InvoiceCurrency *string          `json:"invoiceCurrency"`
	ExchangeRate    *decimal.Decimal `json:"exchangeRate"`
	JournalEntryID  *string          `json:"journalEntryID"`
	AuditFields
}

// PaymentAllocation is the storage representation of an allocation row.
type PaymentAllocation struct {
	AllocationID string          `json:"allocationID"`
	PaymentID    string          `json:"paymentID"`
	InvoiceID    string          `json:"invoiceID"`
	Amount       decimal.Decimal `json:"amount"`
	AuditFields
}
