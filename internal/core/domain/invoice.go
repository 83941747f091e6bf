package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceKind distinguishes receivable (sales) from payable (purchase) documents.
type InvoiceKind string

const (
	Receivable InvoiceKind = "RECEIVABLE"
	Payable    InvoiceKind = "PAYABLE"
)

// ApprovalStatus is the approval workflow state of an invoice.
type ApprovalStatus string

const (
	ApprovalDraft    ApprovalStatus = "DRAFT"
	ApprovalPending  ApprovalStatus = "PENDING_APPROVAL"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// PostingStatus tracks whether the invoice's financial effect has been committed
// to the ledger.
type PostingStatus string

const (
	PostingDraft    PostingStatus = "DRAFT"
	PostingPosted   PostingStatus = "POSTED"
	PostingReversed PostingStatus = "REVERSED"
)

// PaymentStatus is derived from allocations, never set directly by callers.
type PaymentStatus string

const (
	PaymentUnpaid        PaymentStatus = "UNPAID"
	PaymentPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentPaid          PaymentStatus = "PAID"
)

// CancelStatus tracks document cancellation independently of the other concerns.
type CancelStatus string

const (
	CancelActive    CancelStatus = "ACTIVE"
	CancelCancelled CancelStatus = "CANCELLED"
)

// Invoice is a receivable or payable document. Status concerns are independent
// typed enums; totals are always derived from lines and allocations.
type Invoice struct {
	InvoiceID    string      `json:"invoiceID"` // Primary Key (UUID)
	Kind         InvoiceKind `json:"kind"`
	PartyRef     string      `json:"partyRef"` // Customer (receivable) or supplier (payable) reference
	Country      string      `json:"country"`  // Tax jurisdiction for per-line tax lookup
	CurrencyCode string      `json:"currencyCode"`
	IssueDate    time.Time   `json:"issueDate"`
	DueDate      time.Time   `json:"dueDate"`
	Memo         string      `json:"memo"`

	ApprovalStatus ApprovalStatus `json:"approvalStatus"`
	PostingStatus  PostingStatus  `json:"postingStatus"`
	PaymentStatus  PaymentStatus  `json:"paymentStatus"`
	CancelStatus   CancelStatus   `json:"cancelStatus"`

	PostedAt    *time.Time `json:"postedAt,omitempty"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`

	// Locked at posting time, write-once, never recomputed afterwards.
	ExchangeRate      *decimal.Decimal `json:"exchangeRate,omitempty"`      // native -> base
	BaseCurrencyTotal *decimal.Decimal `json:"baseCurrencyTotal,omitempty"` // total incl. tax, converted once
	JournalEntryID    *string          `json:"journalEntryID,omitempty"`

	Lines []InvoiceLine `json:"lines,omitempty"`
	AuditFields
}

// InvoiceLine is one ordered line of an invoice.
type InvoiceLine struct {
	LineID      string          `json:"lineID"`    // Primary Key (UUID)
	InvoiceID   string          `json:"invoiceID"` // FK -> invoices
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TaxCategory *string         `json:"taxCategory,omitempty"` // Nullable reference into the tax-rate table
	AuditFields
}

// Amount returns the untaxed line amount (quantity x unit price), unrounded.
func (l InvoiceLine) Amount() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// Editable reports whether header/line edits are legal for the invoice's
// current approval state. Editing is only legal in Draft or Rejected.
func (inv *Invoice) Editable() bool {
	return inv.ApprovalStatus == ApprovalDraft || inv.ApprovalStatus == ApprovalRejected
}
