package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is the storage representation of an invoice row.
type Invoice struct {
	InvoiceID    string    `json:"invoiceID"`
	Kind         string    `json:"kind"`
	PartyRef     string    `json:"partyRef"`
	Country      string    `json:"country"`
	CurrencyCode string    `json:"currencyCode"`
	IssueDate    time.Time `json:"issueDate"`
	DueDate      time.Time `json:"dueDate"`
	Memo         string    `json:"memo"`

	ApprovalStatus string `json:"approvalStatus"`
	PostingStatus  string `json:"postingStatus"`
	PaymentStatus  string `json:"paymentStatus"`
	CancelStatus   string `json:"cancelStatus"`

	PostedAt    *time.Time `json:"postedAt"`
	PaidAt      *time.Time `json:"paidAt"`
	CancelledAt *time.Time `json:"cancelledAt"`

	ExchangeRate      *decimal.Decimal `json:"exchangeRate"`
	BaseCurrencyTotal *decimal.Decimal `json:"baseCurrencyTotal"`
	JournalEntryID    *string          `json:"journalEntryID"`
	AuditFields
}

// InvoiceLine is the storage representation of an invoice line row.
type InvoiceLine struct {
	LineID      string          `json:"lineID"`
	InvoiceID   string          `json:"invoiceID"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TaxCategory *string         `json:"taxCategory"`
	AuditFields
}
