package domain

import "github.com/shopspring/decimal"

// TypeTotals accumulates the posted debit and credit sides for one account
// type over a reporting period.
type TypeTotals struct {
	Debits  decimal.Decimal `json:"debits"`
	Credits decimal.Decimal `json:"credits"`
}
