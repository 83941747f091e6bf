package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxRate is the storage representation of a document tax rate row.
type TaxRate struct {
	TaxRateID     string          `json:"taxRateID"`
	Country       string          `json:"country"`
	Category      string          `json:"category"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveFrom time.Time       `json:"effectiveFrom"`
	EffectiveTo   *time.Time      `json:"effectiveTo"`
	AuditFields
}

// CorporateTaxRule is the storage representation of a corporate tax rule row.
type CorporateTaxRule struct {
	RuleID        string           `json:"ruleID"`
	Country       string           `json:"country"`
	Rate          decimal.Decimal  `json:"rate"`
	Threshold     *decimal.Decimal `json:"threshold"`
	EffectiveFrom time.Time        `json:"effectiveFrom"`
	EffectiveTo   *time.Time       `json:"effectiveTo"`
	AuditFields
}

// CorporateTaxFiling is the storage representation of a filing row.
type CorporateTaxFiling struct {
	FilingID        string          `json:"filingID"`
	Country         string          `json:"country"`
	PeriodStart     time.Time       `json:"periodStart"`
	PeriodEnd       time.Time       `json:"periodEnd"`
	Status          string          `json:"status"`
	TaxBase         decimal.Decimal `json:"taxBase"`
	TaxAmount       decimal.Decimal `json:"taxAmount"`
	AccrualEntryID  string          `json:"accrualEntryID"`
	ReversalEntryID *string         `json:"reversalEntryID"`
	AuditFields
}
