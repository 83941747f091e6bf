package repositories

import (
	"context"
	"time"

	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// PaymentReader defines read operations for payments.
type PaymentReader interface {
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error)
	FindAllocationsByPaymentID(ctx context.Context, paymentID string) ([]domain.PaymentAllocation, error)
	ListPayments(ctx context.Context, limit int, nextToken *string) ([]domain.Payment, *string, error)
}

// PaymentWriter defines write operations for payments.
type PaymentWriter interface {
	// SavePaymentInTx persists a payment header and its allocation rows inside
	// the caller's transaction; creation shares the transaction with the
	// allocation validation lock region.
	SavePaymentInTx(ctx context.Context, tx pgx.Tx, payment domain.Payment, allocations []domain.PaymentAllocation) error

	// MarkPostedInTx records the posting outcome: journal entry link, the
	// payment-date exchange rate, and the uniform invoice currency when the
	// allocations share one.
	MarkPostedInTx(ctx context.Context, tx pgx.Tx, paymentID string, journalEntryID string, invoiceCurrency *string, exchangeRate *decimal.Decimal, updatedBy string, updatedAt time.Time) error
}

// PaymentRepositoryFacade combines all payment repository interfaces.
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
	TransactionManager
}
