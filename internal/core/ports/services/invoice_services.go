package services

import (
	"context"

	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/corefin/accounting_core_app/internal/dto"
)

// InvoiceReaderSvc defines read operations for invoice data
type InvoiceReaderSvc interface {
	// GetInvoiceByID retrieves an invoice with its lines and derived totals.
	GetInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, dto.InvoiceTotals, error)

	// ListInvoices retrieves a paginated list of invoices.
	ListInvoices(ctx context.Context, params dto.ListInvoicesParams) (*dto.ListInvoicesResponse, error)
}

// InvoiceWriterSvc defines write operations for invoice data
type InvoiceWriterSvc interface {
	// CreateInvoice persists a new draft invoice with its lines.
	CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest, creatorUserID string) (*domain.Invoice, error)

	// UpdateInvoice modifies an editable (Draft or Rejected) invoice.
	UpdateInvoice(ctx context.Context, invoiceID string, req dto.UpdateInvoiceRequest, requestingUserID string) (*domain.Invoice, error)

	// DeleteInvoice removes a Draft invoice entirely.
	DeleteInvoice(ctx context.Context, invoiceID string, requestingUserID string) error
}

// InvoiceApprovalSvc drives the document approval workflow
type InvoiceApprovalSvc interface {
	// SubmitInvoice moves a Draft or Rejected invoice to PendingApproval.
	SubmitInvoice(ctx context.Context, invoiceID string, req dto.ApprovalActionRequest, userID string) (*domain.Invoice, error)

	// ApproveInvoice moves a PendingApproval invoice to Approved.
	ApproveInvoice(ctx context.Context, invoiceID string, req dto.ApprovalActionRequest, approverUserID string) (*domain.Invoice, error)

	// RejectInvoice moves a PendingApproval invoice back to Rejected.
	RejectInvoice(ctx context.Context, invoiceID string, req dto.ApprovalActionRequest, approverUserID string) (*domain.Invoice, error)
}

// InvoicePostingSvc books approved invoices to the ledger
type InvoicePostingSvc interface {
	// PostInvoice books an approved invoice to the ledger: applies tax rates
	// per line, converts to the base currency at the issue-date rate, and
	// creates the balanced journal entry.
	PostInvoice(ctx context.Context, invoiceID string, userID string) (*dto.PostInvoiceResult, error)

	// CancelInvoice cancels an invoice. Posted invoices get a reversing
	// journal entry; unposted ones are simply marked cancelled.
	CancelInvoice(ctx context.Context, invoiceID string, userID string) (*domain.Invoice, error)
}

// InvoiceSvcFacade combines all invoice-related service interfaces
type InvoiceSvcFacade interface {
	InvoiceReaderSvc
	InvoiceWriterSvc
	InvoiceApprovalSvc
	InvoicePostingSvc
}
