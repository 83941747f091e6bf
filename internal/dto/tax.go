package dto

import (
	"time"

	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccrueTaxRequest defines the payload for accruing corporate tax for a period.
type AccrueTaxRequest struct {
	Country     string    `json:"country" binding:"required,len=2,uppercase"`
	PeriodStart time.Time `json:"periodStart" binding:"required"`
	PeriodEnd   time.Time `json:"periodEnd" binding:"required"`
}

// FilingResponse defines the data returned for a corporate tax filing.
type FilingResponse struct {
	FilingID        string          `json:"filingID"`
	Country         string          `json:"country"`
	PeriodStart     time.Time       `json:"periodStart"`
	PeriodEnd       time.Time       `json:"periodEnd"`
	Status          string          `json:"status"`
	TaxBase         decimal.Decimal `json:"taxBase"`
	TaxAmount       decimal.Decimal `json:"taxAmount"`
	AccrualEntryID  string          `json:"accrualEntryID"`
	ReversalEntryID *string         `json:"reversalEntryID,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// CreateTaxRateRequest defines the payload for seeding a document tax rate.
type CreateTaxRateRequest struct {
	Country       string          `json:"country" binding:"required,len=2,uppercase"`
	Category      string          `json:"category" binding:"required"`
	Rate          decimal.Decimal `json:"rate" binding:"required"`
	EffectiveFrom time.Time       `json:"effectiveFrom" binding:"required"`
	EffectiveTo   *time.Time      `json:"effectiveTo"`
}

// CreateCorporateTaxRuleRequest defines the payload for seeding a corporate tax rule.
type CreateCorporateTaxRuleRequest struct {
	Country       string           `json:"country" binding:"required,len=2,uppercase"`
	Rate          decimal.Decimal  `json:"rate" binding:"required"`
	Threshold     *decimal.Decimal `json:"threshold"`
	EffectiveFrom time.Time        `json:"effectiveFrom" binding:"required"`
	EffectiveTo   *time.Time       `json:"effectiveTo"`
}

// ToFilingResponse converts a domain filing to its response DTO.
func ToFilingResponse(f *domain.CorporateTaxFiling) FilingResponse {
	return FilingResponse{
		FilingID:        f.FilingID,
		Country:         f.Country,
		PeriodStart:     f.PeriodStart,
		PeriodEnd:       f.PeriodEnd,
		Status:          string(f.Status),
		TaxBase:         f.TaxBase,
		TaxAmount:       f.TaxAmount,
		AccrualEntryID:  f.AccrualEntryID,
		ReversalEntryID: f.ReversalEntryID,
		CreatedAt:       f.CreatedAt,
	}
}
