package services

import (
	"context"

	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/corefin/accounting_core_app/internal/dto"
)

// PaymentReaderSvc defines read operations for payment data
type PaymentReaderSvc interface {
	// GetPaymentByID retrieves a payment with its allocations.
	GetPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error)

	// ListPayments retrieves a paginated list of payments.
	ListPayments(ctx context.Context, params dto.ListPaymentsParams) (*dto.ListPaymentsResponse, error)
}

// PaymentWriterSvc defines write operations for payment data
type PaymentWriterSvc interface {
	// CreatePayment validates the allocations against invoice outstanding
	// balances under row locks, persists the payment, and advances the
	// payment status of each allocated invoice.
	CreatePayment(ctx context.Context, req dto.CreatePaymentRequest, creatorUserID string) (*domain.Payment, error)

	// PostPayment books the payment to the ledger, realizing FX gain or loss
	// on each cross-currency allocation.
	PostPayment(ctx context.Context, paymentID string, userID string) (*dto.PostPaymentResult, error)
}

// PaymentSvcFacade combines all payment-related service interfaces
type PaymentSvcFacade interface {
	PaymentReaderSvc
	PaymentWriterSvc
}
