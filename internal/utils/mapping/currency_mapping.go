package mapping

import (
	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/corefin/accounting_core_app/internal/models"
)

// ToModelCurrency converts a domain currency to its storage form.
func ToModelCurrency(c domain.Currency) models.Currency {
	return models.Currency{
		CurrencyCode: c.CurrencyCode,
		Symbol:       c.Symbol,
		Name:         c.Name,
		Precision:    c.Precision,
		AuditFields:  ToModelAuditFields(c.AuditFields),
	}
}

// ToDomainCurrency converts a storage currency to its domain form.
func ToDomainCurrency(m models.Currency) domain.Currency {
	return domain.Currency{
		CurrencyCode: m.CurrencyCode,
		Symbol:       m.Symbol,
		Name:         m.Name,
		Precision:    m.Precision,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}
