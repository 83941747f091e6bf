package mapping

import (
	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/corefin/accounting_core_app/internal/models"
)

// ToModelInvoice converts a domain invoice to its storage form (header only).
func ToModelInvoice(inv domain.Invoice) models.Invoice {
	return models.Invoice{
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
		AuditFields:       ToModelAuditFields(inv.AuditFields),
	}
}

// ToDomainInvoice converts a storage invoice to its domain form (header only).
func ToDomainInvoice(m models.Invoice) domain.Invoice {
	return domain.Invoice{
		InvoiceID:         m.InvoiceID,
		Kind:              domain.InvoiceKind(m.Kind),
		PartyRef:          m.PartyRef,
		Country:           m.Country,
		CurrencyCode:      m.CurrencyCode,
		IssueDate:         m.IssueDate,
		DueDate:           m.DueDate,
		Memo:              m.Memo,
		ApprovalStatus:    domain.ApprovalStatus(m.ApprovalStatus),
		PostingStatus:     domain.PostingStatus(m.PostingStatus),
		PaymentStatus:     domain.PaymentStatus(m.PaymentStatus),
		CancelStatus:      domain.CancelStatus(m.CancelStatus),
		PostedAt:          m.PostedAt,
		PaidAt:            m.PaidAt,
		CancelledAt:       m.CancelledAt,
		ExchangeRate:      m.ExchangeRate,
		BaseCurrencyTotal: m.BaseCurrencyTotal,
		JournalEntryID:    m.JournalEntryID,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelInvoiceLine converts a domain invoice line to its storage form.
func ToModelInvoiceLine(l domain.InvoiceLine) models.InvoiceLine {
	return models.InvoiceLine{
		LineID:      l.LineID,
		InvoiceID:   l.InvoiceID,
		Description: l.Description,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		TaxCategory: l.TaxCategory,
		AuditFields: ToModelAuditFields(l.AuditFields),
	}
}

// ToDomainInvoiceLine converts a storage invoice line to its domain form.
func ToDomainInvoiceLine(m models.InvoiceLine) domain.InvoiceLine {
	return domain.InvoiceLine{
		LineID:      m.LineID,
		InvoiceID:   m.InvoiceID,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		TaxCategory: m.TaxCategory,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainInvoiceLineSlice converts storage invoice lines to domain lines.
func ToDomainInvoiceLineSlice(ms []models.InvoiceLine) []domain.InvoiceLine {
	lines := make([]domain.InvoiceLine, len(ms))
	for i, m := range ms {
		lines[i] = ToDomainInvoiceLine(m)
	}
	return lines
}
