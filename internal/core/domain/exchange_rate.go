package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateType distinguishes rate sources/uses within the rate table.
type RateType string

const (
	RateSpot    RateType = "SPOT"
	RateClosing RateType = "CLOSING"
)

// ExchangeRate stores the conversion rate between two currencies effective on a
// date. Conceptually append-only reference data.
type ExchangeRate struct {
	ExchangeRateID   string          `json:"exchangeRateID"` // Primary Key (UUID)
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	RateType         RateType        `json:"rateType"`
	DateEffective    time.Time       `json:"dateEffective"`
	AuditFields
}
