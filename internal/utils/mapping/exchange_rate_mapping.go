package mapping

import (
	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/corefin/accounting_core_app/internal/models"
)

// ToModelExchangeRate converts a domain exchange rate to its storage form.
func ToModelExchangeRate(r domain.ExchangeRate) models.ExchangeRate {
	return models.ExchangeRate{
		ExchangeRateID:   r.ExchangeRateID,
		FromCurrencyCode: r.FromCurrencyCode,
		ToCurrencyCode:   r.ToCurrencyCode,
		Rate:             r.Rate,
		RateType:         string(r.RateType),
		DateEffective:    r.DateEffective,
		AuditFields:      ToModelAuditFields(r.AuditFields),
	}
}

// ToDomainExchangeRate converts a storage exchange rate to its domain form.
func ToDomainExchangeRate(m models.ExchangeRate) domain.ExchangeRate {
	return domain.ExchangeRate{
		ExchangeRateID:   m.ExchangeRateID,
		FromCurrencyCode: m.FromCurrencyCode,
		ToCurrencyCode:   m.ToCurrencyCode,
		Rate:             m.Rate,
		RateType:         domain.RateType(m.RateType),
		DateEffective:    m.DateEffective,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}
