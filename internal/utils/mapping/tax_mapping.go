package mapping

import (
	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/corefin/accounting_core_app/internal/models"
)

// ToDomainTaxRate converts a storage tax rate to its domain form.
func ToDomainTaxRate(m models.TaxRate) domain.TaxRate {
	return domain.TaxRate{
		TaxRateID:     m.TaxRateID,
		Country:       m.Country,
		Category:      m.Category,
		Rate:          m.Rate,
		EffectiveFrom: m.EffectiveFrom,
		EffectiveTo:   m.EffectiveTo,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelTaxRate converts a domain tax rate to its storage form.
func ToModelTaxRate(r domain.TaxRate) models.TaxRate {
	return models.TaxRate{
		TaxRateID:     r.TaxRateID,
		Country:       r.Country,
		Category:      r.Category,
		Rate:          r.Rate,
		EffectiveFrom: r.EffectiveFrom,
		EffectiveTo:   r.EffectiveTo,
		AuditFields:   ToModelAuditFields(r.AuditFields),
	}
}

// ToDomainCorporateTaxRule converts a storage corporate tax rule to its domain form.
func ToDomainCorporateTaxRule(m models.CorporateTaxRule) domain.CorporateTaxRule {
	return domain.CorporateTaxRule{
		RuleID:        m.RuleID,
		Country:       m.Country,
		Rate:          m.Rate,
		Threshold:     m.Threshold,
		EffectiveFrom: m.EffectiveFrom,
		EffectiveTo:   m.EffectiveTo,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelCorporateTaxRule converts a domain corporate tax rule to its storage form.
func ToModelCorporateTaxRule(r domain.CorporateTaxRule) models.CorporateTaxRule {
	return models.CorporateTaxRule{
		RuleID:        r.RuleID,
		Country:       r.Country,
		Rate:          r.Rate,
		Threshold:     r.Threshold,
		EffectiveFrom: r.EffectiveFrom,
		EffectiveTo:   r.EffectiveTo,
		AuditFields:   ToModelAuditFields(r.AuditFields),
	}
}

// ToModelCorporateTaxFiling converts a domain filing to its storage form.
func ToModelCorporateTaxFiling(f domain.CorporateTaxFiling) models.CorporateTaxFiling {
	return models.CorporateTaxFiling{
		FilingID:        f.FilingID,
		Country:         f.Country,
		PeriodStart:     f.PeriodStart,
		PeriodEnd:       f.PeriodEnd,
		Status:          string(f.Status),
		TaxBase:         f.TaxBase,
		TaxAmount:       f.TaxAmount,
		AccrualEntryID:  f.AccrualEntryID,
		ReversalEntryID: f.ReversalEntryID,
		AuditFields:     ToModelAuditFields(f.AuditFields),
	}
}

// ToDomainCorporateTaxFiling converts a storage filing to its domain form.
func ToDomainCorporateTaxFiling(m models.CorporateTaxFiling) domain.CorporateTaxFiling {
	return domain.CorporateTaxFiling{
		FilingID:        m.FilingID,
		Country:         m.Country,
		PeriodStart:     m.PeriodStart,
		PeriodEnd:       m.PeriodEnd,
		Status:          domain.FilingStatus(m.Status),
		TaxBase:         m.TaxBase,
		TaxAmount:       m.TaxAmount,
		AccrualEntryID:  m.AccrualEntryID,
		ReversalEntryID: m.ReversalEntryID,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}
