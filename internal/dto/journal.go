package dto

import (
	"time"

	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateEntryLineRequest is one debit or credit line of a manual journal entry.
type CreateEntryLineRequest struct {
	AccountID  string            `json:"accountID" binding:"required"`
	Amount     decimal.Decimal   `json:"amount" binding:"required"`
	LineType   domain.LineType   `json:"lineType" binding:"required,oneof=DEBIT CREDIT"`
	Memo       string            `json:"memo"`
	Dimensions map[string]string `json:"dimensions"`
}

// CreateEntryRequest defines the payload for posting a manual journal entry.
type CreateEntryRequest struct {
	Date         time.Time                `json:"date" binding:"required"`
	Memo         string                   `json:"memo" binding:"required"`
	CurrencyCode string                   `json:"currencyCode" binding:"required,len=3,uppercase"`
	Lines        []CreateEntryLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// EntryLineResponse defines the data returned for a journal line.
type EntryLineResponse struct {
	LineID         string            `json:"lineID"`
	AccountID      string            `json:"accountID"`
	Amount         decimal.Decimal   `json:"amount"`
	LineType       string            `json:"lineType"`
	Memo           string            `json:"memo,omitempty"`
	Dimensions     map[string]string `json:"dimensions,omitempty"`
	RunningBalance decimal.Decimal   `json:"runningBalance"`
}

// EntryResponse defines the data returned for a journal entry.
type EntryResponse struct {
	EntryID          string              `json:"entryID"`
	EntryDate        time.Time           `json:"entryDate"`
	Memo             string              `json:"memo"`
	CurrencyCode     string              `json:"currencyCode"`
	Status           string              `json:"status"`
	Amount           decimal.Decimal     `json:"amount"`
	OriginalEntryID  *string             `json:"originalEntryID,omitempty"`
	ReversingEntryID *string             `json:"reversingEntryID,omitempty"`
	Lines            []EntryLineResponse `json:"lines,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
	CreatedBy        string              `json:"createdBy"`
}

// ListEntriesParams holds parameters for listing journal entries.
type ListEntriesParams struct {
	Limit            int     `form:"limit"`
	NextToken        *string `form:"nextToken"`
	IncludeReversals bool    `form:"includeReversals"`
	IncludeLines     bool    `form:"includeLines"`
}

// ListEntriesResponse is a page of journal entries plus the next cursor.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ToEntryLineResponse converts a domain line to its response DTO.
func ToEntryLineResponse(line *domain.JournalLine) EntryLineResponse {
	return EntryLineResponse{
		LineID:         line.LineID,
		AccountID:      line.AccountID,
		Amount:         line.Amount,
		LineType:       string(line.LineType),
		Memo:           line.Memo,
		Dimensions:     line.Dimensions,
		RunningBalance: line.RunningBalance,
	}
}

// ToEntryResponse converts a domain entry (with optional lines) to its response DTO.
func ToEntryResponse(e *domain.JournalEntry) EntryResponse {
	resp := EntryResponse{
		EntryID:          e.EntryID,
		EntryDate:        e.EntryDate,
		Memo:             e.Memo,
		CurrencyCode:     e.CurrencyCode,
		Status:           string(e.Status),
		Amount:           e.Amount,
		OriginalEntryID:  e.OriginalEntryID,
		ReversingEntryID: e.ReversingEntryID,
		CreatedAt:        e.CreatedAt,
		CreatedBy:        e.CreatedBy,
	}
	if len(e.Lines) > 0 {
		resp.Lines = make([]EntryLineResponse, len(e.Lines))
		for i := range e.Lines {
			resp.Lines[i] = ToEntryLineResponse(&e.Lines[i])
		}
	}
	return resp
}
