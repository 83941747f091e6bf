package dto

import (
	"time"

	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateInvoiceLineRequest is one ordered line of an invoice.
type CreateInvoiceLineRequest struct {
	Description string          `json:"description" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unitPrice" binding:"required"`
	TaxCategory *string         `json:"taxCategory"`
}

// CreateInvoiceRequest defines the payload for creating a draft invoice.
type CreateInvoiceRequest struct {
	Kind         domain.InvoiceKind         `json:"kind" binding:"required,oneof=RECEIVABLE PAYABLE"`
	PartyRef     string                     `json:"partyRef" binding:"required"`
	Country      string                     `json:"country" binding:"required,len=2,uppercase"`
	CurrencyCode string                     `json:"currencyCode" binding:"required,len=3,uppercase"`
	IssueDate    time.Time                  `json:"issueDate" binding:"required"`
	DueDate      time.Time                  `json:"dueDate" binding:"required"`
	Memo         string                     `json:"memo"`
	Lines        []CreateInvoiceLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// UpdateInvoiceRequest defines the editable fields of a Draft/Rejected invoice.
// Nil fields are left unchanged; non-nil Lines replace all existing lines.
type UpdateInvoiceRequest struct {
	PartyRef  *string                     `json:"partyRef"`
	Country   *string                     `json:"country"`
	IssueDate *time.Time                  `json:"issueDate"`
	DueDate   *time.Time                  `json:"dueDate"`
	Memo      *string                     `json:"memo"`
	Lines     *[]CreateInvoiceLineRequest `json:"lines"`
}

// ApprovalActionRequest carries the optional reviewer comment for
// submit/approve/reject actions.
type ApprovalActionRequest struct {
	Comments string `json:"comments"`
}

// InvoiceTotals are the amounts derived from lines and allocations; they are
// computed on read, never stored.
type InvoiceTotals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
	Paid        decimal.Decimal `json:"paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// InvoiceLineResponse defines the data returned for one invoice line.
type InvoiceLineResponse struct {
	LineID      string          `json:"lineID"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TaxCategory *string         `json:"taxCategory,omitempty"`
}

// InvoiceResponse defines the data returned for an invoice.
type InvoiceResponse struct {
	InvoiceID    string    `json:"invoiceID"`
	Kind         string    `json:"kind"`
	PartyRef     string    `json:"partyRef"`
	Country      string    `json:"country"`
	CurrencyCode string    `json:"currencyCode"`
	IssueDate    time.Time `json:"issueDate"`
	DueDate      time.Time `json:"dueDate"`
	Memo         string    `json:"memo,omitempty"`

	ApprovalStatus string `json:"approvalStatus"`
	PostingStatus  string `json:"postingStatus"`
	PaymentStatus  string `json:"paymentStatus"`
	CancelStatus   string `json:"cancelStatus"`

	PostedAt    *time.Time `json:"postedAt,omitempty"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`

	ExchangeRate      *decimal.Decimal `json:"exchangeRate,omitempty"`
	BaseCurrencyTotal *decimal.Decimal `json:"baseCurrencyTotal,omitempty"`
	JournalEntryID    *string          `json:"journalEntryID,omitempty"`

	Totals InvoiceTotals         `json:"totals"`
	Lines  []InvoiceLineResponse `json:"lines,omitempty"`
}

// PostInvoiceResult is the stable contract returned by invoice posting.
type PostInvoiceResult struct {
	JournalEntryID    string          `json:"journalEntryID"`
	ExchangeRate      decimal.Decimal `json:"exchangeRate"`
	BaseCurrencyTotal decimal.Decimal `json:"baseCurrencyTotal"`
}

// ListInvoicesParams holds parameters for listing invoices.
type ListInvoicesParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListInvoicesResponse is a page of invoices plus the next cursor.
type ListInvoicesResponse struct {
	Invoices  []InvoiceResponse `json:"invoices"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToInvoiceResponse converts a domain invoice plus derived totals to its DTO.
func ToInvoiceResponse(inv *domain.Invoice, totals InvoiceTotals) InvoiceResponse {
	resp := InvoiceResponse{
		InvoiceID:         inv.InvoiceID,
		Kind:              string(inv.Kind),
		PartyRef:          inv.PartyRef,
		Country:           inv.Country,
		CurrencyCode:      inv.CurrencyCode,
		IssueDate:         inv.IssueDate,
		DueDate:           inv.DueDate,
		Memo:              inv.Memo,
		ApprovalStatus:    string(inv.ApprovalStatus),
		PostingStatus:     string(inv.PostingStatus),
		PaymentStatus:     string(inv.PaymentStatus),
		CancelStatus:      string(inv.CancelStatus),
		PostedAt:          inv.PostedAt,
		PaidAt:            inv.PaidAt,
		CancelledAt:       inv.CancelledAt,
		ExchangeRate:      inv.ExchangeRate,
		BaseCurrencyTotal: inv.BaseCurrencyTotal,
		JournalEntryID:    inv.JournalEntryID,
		Totals:            totals,
	}
	if len(inv.Lines) > 0 {
		resp.Lines = make([]InvoiceLineResponse, len(inv.Lines))
		for i, line := range inv.Lines {
			resp.Lines[i] = InvoiceLineResponse{
				LineID:      line.LineID,
				Description: line.Description,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				TaxCategory: line.TaxCategory,
			}
		}
	}
	return resp
}
