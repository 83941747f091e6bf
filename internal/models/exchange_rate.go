package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is the storage representation of an exchange rate row.
type ExchangeRate struct {
	ExchangeRateID   string          `json:"exchangeRateID"`
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	RateType         string          `json:"rateType"`
	DateEffective    time.Time       `json:"dateEffective"`
	AuditFields
}
