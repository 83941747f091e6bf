package mapping

import (
	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/corefin/accounting_core_app/internal/models"
)

// ToModelAccount converts a domain account to its storage form.
func ToModelAccount(a domain.Account) models.Account {
	m := models.Account{
		AccountID:    a.AccountID,
		Name:         a.Name,
		AccountType:  string(a.AccountType),
		CurrencyCode: a.CurrencyCode,
		Description:  a.Description,
		IsActive:     a.IsActive,
		Balance:      a.Balance,
		AuditFields:  ToModelAuditFields(a.AuditFields),
	}
	if a.Purpose != nil {
		p := string(*a.Purpose)
		m.Purpose = &p
	}
	return m
}

// ToDomainAccount converts a storage account to its domain form.
func ToDomainAccount(m models.Account) domain.Account {
	a := domain.Account{
		AccountID:    m.AccountID,
		Name:         m.Name,
		AccountType:  domain.AccountType(m.AccountType),
		CurrencyCode: m.CurrencyCode,
		Description:  m.Description,
		IsActive:     m.IsActive,
		Balance:      m.Balance,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
	if m.Purpose != nil {
		p := domain.AccountPurpose(*m.Purpose)
		a.Purpose = &p
	}
	return a
}
