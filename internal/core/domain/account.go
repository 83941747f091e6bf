package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// AccountPurpose is the reference-data mapping key the posting engine uses to
// locate the accounts a document posts against. The chart of accounts itself is
// external reference data; the core only needs these well-known roles.
type AccountPurpose string

const (
	PurposeBank                AccountPurpose = "BANK"
	PurposeAccountsReceivable  AccountPurpose = "ACCOUNTS_RECEIVABLE"
	PurposeAccountsPayable     AccountPurpose = "ACCOUNTS_PAYABLE"
	PurposeSalesRevenue        AccountPurpose = "SALES_REVENUE"
	PurposePurchaseExpense     AccountPurpose = "PURCHASE_EXPENSE"
	PurposeTaxPayable          AccountPurpose = "TAX_PAYABLE"
	PurposeFXGain              AccountPurpose = "FX_GAIN"
	PurposeFXLoss              AccountPurpose = "FX_LOSS"
	PurposeCorporateTaxExpense AccountPurpose = "CORPORATE_TAX_EXPENSE"
	PurposeCorporateTaxPayable AccountPurpose = "CORPORATE_TAX_PAYABLE"
)

// Account represents an entry in the chart of accounts.
// All journal postings reference accounts; the core treats them as read-only
// reference data apart from the maintained running balance.
type Account struct {
	AccountID    string          `json:"accountID"`    // Primary Key (e.g., UUID)
	Name         string          `json:"name"`         // User-defined name
	AccountType  AccountType     `json:"accountType"`  // ASSET, LIABILITY, etc.
	CurrencyCode string          `json:"currencyCode"` // FK -> currencies.code (NON-NULL)
	Purpose      *AccountPurpose `json:"purpose"`      // Nullable well-known role mapping
	Description  string          `json:"description"`  // Nullable user description
	IsActive     bool            `json:"isActive"`
	AuditFields
	Balance decimal.Decimal `json:"balance"` // Persisted running balance in base currency
}
