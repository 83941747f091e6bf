package mapping

import (
	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/corefin/accounting_core_app/internal/models"
)

// ToModelPayment converts a domain payment to its storage form (header only).
func ToModelPayment(p domain.Payment) models.Payment {
	return models.Payment{
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
		AuditFields:     ToModelAuditFields(p.AuditFields),
	}
}

// ToDomainPayment converts a storage payment to its domain form (header only).
func ToDomainPayment(m models.Payment) domain.Payment {
	return domain.Payment{
		PaymentID:       m.PaymentID,
		Kind:            domain.InvoiceKind(m.Kind),
		PartyRef:        m.PartyRef,
		CurrencyCode:    m.CurrencyCode,
		PaymentDate:     m.PaymentDate,
		Amount:          m.Amount,
		Memo:            m.Memo,
		Status:          domain.PaymentDocStatus(m.Status),
		InvoiceCurrency: m.InvoiceCurrency,
		ExchangeRate:    m.ExchangeRate,
		JournalEntryID:  m.JournalEntryID,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelPaymentAllocation converts a domain allocation to its storage form.
func ToModelPaymentAllocation(a domain.PaymentAllocation) models.PaymentAllocation {
	return models.PaymentAllocation{
		AllocationID: a.AllocationID,
		PaymentID:    a.PaymentID,
		InvoiceID:    a.InvoiceID,
		Amount:       a.Amount,
		AuditFields:  ToModelAuditFields(a.AuditFields),
	}
}

// ToDomainPaymentAllocation converts a storage allocation to its domain form.
func ToDomainPaymentAllocation(m models.PaymentAllocation) domain.PaymentAllocation {
	return domain.PaymentAllocation{
		AllocationID: m.AllocationID,
		PaymentID:    m.PaymentID,
		InvoiceID:    m.InvoiceID,
		Amount:       m.Amount,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainPaymentAllocationSlice converts storage allocations to domain form.
func ToDomainPaymentAllocationSlice(ms []models.PaymentAllocation) []domain.PaymentAllocation {
	allocations := make([]domain.PaymentAllocation, len(ms))
	for i, m := range ms {
		allocations[i] = ToDomainPaymentAllocation(m)
	}
	return allocations
}
