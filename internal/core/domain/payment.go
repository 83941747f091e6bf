package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentDocStatus is the lifecycle state of a payment document.
type PaymentDocStatus string

const (
	PaymentDraft  PaymentDocStatus = "DRAFT"
	PaymentPosted PaymentDocStatus = "POSTED"
)

// Payment is money received (against receivables) or paid out (against
// payables), split across zero or more invoices via allocations. A payment is
// immutable once posted to the ledger.
type Payment struct {
	PaymentID    string           `json:"paymentID"` // Primary Key (UUID)
	Kind         InvoiceKind      `json:"kind"`      // RECEIVABLE: money in, PAYABLE: money out
	PartyRef     string           `json:"partyRef"`  // Payer (receivable) or payee (payable) reference
	CurrencyCode string           `json:"currencyCode"`
	PaymentDate  time.Time        `json:"paymentDate"`
	Amount       decimal.Decimal  `json:"amount"`
	Memo         string           `json:"memo"`
	Status       PaymentDocStatus `json:"status"`

	// Populated from allocations when every allocated invoice shares one
	// currency different from the payment currency; nil otherwise.
	InvoiceCurrency *string          `json:"invoiceCurrency,omitempty"`
	ExchangeRate    *decimal.Decimal `json:"exchangeRate,omitempty"` // payment currency -> base, at payment date

	JournalEntryID *string `json:"journalEntryID,omitempty"`

	Allocations []PaymentAllocation `json:"allocations,omitempty"`
	AuditFields
}

// PaymentAllocation assigns part of a payment to one invoice. The amount is
// expressed in the invoice's currency. An invoice may accumulate allocations
// from many payments over time.
type PaymentAllocation struct {
	AllocationID string          `json:"allocationID"` // Primary Key (UUID)
	PaymentID    string          `json:"paymentID"`    // FK -> payments
	InvoiceID    string          `json:"invoiceID"`    // FK -> invoices
	Amount       decimal.Decimal `json:"amount"`       // Positive, in invoice currency
	AuditFields
}
