package dto

import (
	"time"

	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAllocationRequest assigns part of the payment to one invoice, in the
// invoice's currency.
type CreateAllocationRequest struct {
	InvoiceID string          `json:"invoiceID" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

// CreatePaymentRequest defines the payload for creating a payment with its
// allocations. Allocations may be empty (unapplied payment on account).
type CreatePaymentRequest struct {
	Kind         domain.InvoiceKind        `json:"kind" binding:"required,oneof=RECEIVABLE PAYABLE"`
	PartyRef     string                    `json:"partyRef" binding:"required"`
	CurrencyCode string                    `json:"currencyCode" binding:"required,len=3,uppercase"`
	Amount       decimal.Decimal           `json:"amount" binding:"required"`
	PaymentDate  time.Time                 `json:"paymentDate" binding:"required"`
	Memo         string                    `json:"memo"`
	Allocations  []CreateAllocationRequest `json:"allocations" binding:"dive"`
}

// AllocationResponse defines the data returned for one allocation.
type AllocationResponse struct {
	AllocationID string          `json:"allocationID"`
	InvoiceID    string          `json:"invoiceID"`
	Amount       decimal.Decimal `json:"amount"`
}

// PaymentResponse defines the data returned for a payment.
type PaymentResponse struct {
	PaymentID       string               `json:"paymentID"`
	Kind            string               `json:"kind"`
	PartyRef        string               `json:"partyRef"`
	CurrencyCode    string               `json:"currencyCode"`
	PaymentDate     time.Time            `json:"paymentDate"`
	Amount          decimal.Decimal      `json:"amount"`
	Memo            string               `json:"memo,omitempty"`
	Status          string               `json:"status"`
	InvoiceCurrency *string              `json:"invoiceCurrency,omitempty"`
	ExchangeRate    *decimal.Decimal     `json:"exchangeRate,omitempty"`
	JournalEntryID  *string              `json:"journalEntryID,omitempty"`
	Allocations     []AllocationResponse `json:"allocations,omitempty"`
}

// ListPaymentsParams holds parameters for listing payments.
type ListPaymentsParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListPaymentsResponse is a page of payments plus the next cursor.
type ListPaymentsResponse struct {
	Payments  []PaymentResponse `json:"payments"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// PostPaymentResult is the stable contract returned by payment posting.
type PostPaymentResult struct {
	JournalEntryID   string          `json:"journalEntryID"`
	FXGainLoss       decimal.Decimal `json:"fxGainLoss"` // Positive: gain, negative: loss
	ClosedInvoiceIDs []string        `json:"closedInvoiceIDs"`
}

// ToPaymentResponse converts a domain payment (with allocations) to its DTO.
func ToPaymentResponse(p *domain.Payment) PaymentResponse {
	resp := PaymentResponse{
		PaymentID:       p.PaymentID,
		Kind:            string(p.Kind),
		PartyRef:        p.PartyRef,
		CurrencyCode:    p.CurrencyCode,
		PaymentDate:     p.PaymentDate,
		Amount:          p.Amount,
		Memo:            p.Memo,
		Status:          string(p.Status),
		InvoiceCurrency: p.InvoiceCurrency,
		ExchangeRate:    p.ExchangeRate,
		JournalEntryID:  p.JournalEntryID,
	}
	if len(p.Allocations) > 0 {
		resp.Allocations = make([]AllocationResponse, len(p.Allocations))
		for i, a := range p.Allocations {
			resp.Allocations[i] = AllocationResponse{
				AllocationID: a.AllocationID,
				InvoiceID:    a.InvoiceID,
				Amount:       a.Amount,
			}
		}
	}
	return resp
}
