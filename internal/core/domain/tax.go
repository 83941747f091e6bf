package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxRate is per-line document tax reference data with temporal validity.
type TaxRate struct {
	TaxRateID     string          `json:"taxRateID"` // Primary Key (UUID)
	Country       string          `json:"country"`   // ISO country code
	Category      string          `json:"category"`  // e.g. "STANDARD", "REDUCED", "ZERO"
	Rate          decimal.Decimal `json:"rate"`      // e.g. 0.05 = 5%
	EffectiveFrom time.Time       `json:"effectiveFrom"`
	EffectiveTo   *time.Time      `json:"effectiveTo,omitempty"` // nil = currently active
	AuditFields
}

// CorporateTaxRule holds the corporate income tax parameters for a country.
type CorporateTaxRule struct {
	RuleID        string           `json:"ruleID"` // Primary Key (UUID)
	Country       string           `json:"country"`
	Rate          decimal.Decimal  `json:"rate"`
	Threshold     *decimal.Decimal `json:"threshold,omitempty"` // Profit below this is untaxed
	EffectiveFrom time.Time        `json:"effectiveFrom"`
	EffectiveTo   *time.Time       `json:"effectiveTo,omitempty"`
	AuditFields
}

// FilingStatus is the state of a corporate tax filing.
type FilingStatus string

const (
	FilingAccrued  FilingStatus = "ACCRUED"
	FilingFiled    FilingStatus = "FILED"
	FilingReversed FilingStatus = "REVERSED"
)

// CorporateTaxFiling records one period's corporate tax accrual and its filing
// state. One filing exists per (country, period).
type CorporateTaxFiling struct {
	FilingID    string          `json:"filingID"` // Primary Key (UUID)
	Country     string          `json:"country"`
	PeriodStart time.Time       `json:"periodStart"`
	PeriodEnd   time.Time       `json:"periodEnd"`
	Status      FilingStatus    `json:"status"`
	TaxBase     decimal.Decimal `json:"taxBase"` // Taxable profit above the threshold, floored at zero
	TaxAmount   decimal.Decimal `json:"taxAmount"`

	AccrualEntryID  string  `json:"accrualEntryID"`            // FK -> journal_entries
	ReversalEntryID *string `json:"reversalEntryID,omitempty"` // Set when reversed
	AuditFields
}
