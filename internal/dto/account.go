package dto

import (
	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the payload for seeding a chart-of-accounts entry.
type CreateAccountRequest struct {
	Name         string                 `json:"name" binding:"required"`
	AccountType  domain.AccountType     `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	CurrencyCode string                 `json:"currencyCode" binding:"required,len=3,uppercase"`
	Purpose      *domain.AccountPurpose `json:"purpose"`
	Description  string                 `json:"description"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID    string          `json:"accountID"`
	Name         string          `json:"name"`
	AccountType  string          `json:"accountType"`
	CurrencyCode string          `json:"currencyCode"`
	Purpose      *string         `json:"purpose,omitempty"`
	Description  string          `json:"description,omitempty"`
	IsActive     bool            `json:"isActive"`
	Balance      decimal.Decimal `json:"balance"`
}

// ToAccountResponse converts a domain.Account to its response DTO.
func ToAccountResponse(a *domain.Account) AccountResponse {
	resp := AccountResponse{
		AccountID:    a.AccountID,
		Name:         a.Name,
		AccountType:  string(a.AccountType),
		CurrencyCode: a.CurrencyCode,
		Description:  a.Description,
		IsActive:     a.IsActive,
		Balance:      a.Balance,
	}
	if a.Purpose != nil {
		p := string(*a.Purpose)
		resp.Purpose = &p
	}
	return resp
}

// ToListAccountResponse converts a slice of domain accounts to DTOs.
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	responses := make([]AccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = ToAccountResponse(&accounts[i])
	}
	return responses
}
