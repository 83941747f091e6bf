package repositories

import (
	"context"
	"time"

	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// InvoiceReader defines read operations for invoices.
type InvoiceReader interface {
	FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error)
	FindLinesByInvoiceID(ctx context.Context, invoiceID string) ([]domain.InvoiceLine, error)
	ListInvoices(ctx context.Context, limit int, nextToken *string) ([]domain.Invoice, *string, error)

	// SumAllocations returns the total amount allocated against an invoice.
	SumAllocations(ctx context.Context, invoiceID string) (decimal.Decimal, error)
}

// InvoiceWriter defines write operations for invoices.
type InvoiceWriter interface {
	SaveInvoice(ctx context.Context, invoice domain.Invoice, lines []domain.InvoiceLine) error

	// UpdateInvoice replaces the header fields and lines of an editable
	// invoice. The service guards state legality before calling.
	UpdateInvoice(ctx context.Context, invoice domain.Invoice, lines []domain.InvoiceLine) error

	DeleteInvoice(ctx context.Context, invoiceID string) error

	// UpdateApprovalStatus records an approval workflow transition.
	UpdateApprovalStatus(ctx context.Context, invoiceID string, status domain.ApprovalStatus, updatedBy string, updatedAt time.Time) error

	// UpdateCancellation marks an invoice cancelled.
	UpdateCancellation(ctx context.Context, invoiceID string, cancelledAt time.Time, updatedBy string) error
}

// InvoiceTransactionSupport defines invoice operations used inside posting and
// allocation transactions.
type InvoiceTransactionSupport interface {
	// FindInvoiceForUpdate loads an invoice header under a row lock, giving the
	// caller the per-invoice exclusivity region allocation validation needs.
	// Lock contention maps to ConcurrentAllocationConflictError.
	FindInvoiceForUpdate(ctx context.Context, tx pgx.Tx, invoiceID string) (*domain.Invoice, error)

	// SumAllocationsInTx totals allocations against an invoice inside the
	// locking transaction.
	SumAllocationsInTx(ctx context.Context, tx pgx.Tx, invoiceID string) (decimal.Decimal, error)

	// MarkPostedInTx locks in the posting-time exchange rate and base total.
	// These columns are write-once.
	MarkPostedInTx(ctx context.Context, tx pgx.Tx, invoiceID string, exchangeRate, baseCurrencyTotal decimal.Decimal, journalEntryID string, postedAt time.Time, updatedBy string) error

	// MarkReversedInTx flips the posting status of a posted invoice to REVERSED.
	MarkReversedInTx(ctx context.Context, tx pgx.Tx, invoiceID string, updatedBy string, updatedAt time.Time) error

	// UpdatePaymentStatusInTx records the derived payment status.
	UpdatePaymentStatusInTx(ctx context.Context, tx pgx.Tx, invoiceID string, status domain.PaymentStatus, paidAt *time.Time, updatedBy string, updatedAt time.Time) error

	// UpdateCancellationInTx marks an invoice cancelled inside the caller's
	// transaction, so a posted invoice's ledger reversal and cancellation
	// commit together.
	UpdateCancellationInTx(ctx context.Context, tx pgx.Tx, invoiceID string, cancelledAt time.Time, updatedBy string) error
}

// InvoiceRepositoryFacade combines all invoice repository interfaces.
type InvoiceRepositoryFacade interface {
	InvoiceReader
	InvoiceWriter
	InvoiceTransactionSupport
	TransactionManager
}
