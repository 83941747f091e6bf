package mapping

import (
	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/corefin/accounting_core_app/internal/models"
)

// ToModelJournalEntry converts a domain journal entry to its storage form.
func ToModelJournalEntry(e domain.JournalEntry) models.JournalEntry {
	m := models.JournalEntry{
		EntryID:          e.EntryID,
		EntryDate:        e.EntryDate,
		Memo:             e.Memo,
		CurrencyCode:     e.CurrencyCode,
		Status:           string(e.Status),
		OriginalEntryID:  e.OriginalEntryID,
		ReversingEntryID: e.ReversingEntryID,
		SourceID:         e.SourceID,
		Amount:           e.Amount,
		AuditFields:      ToModelAuditFields(e.AuditFields),
	}
	if e.SourceType != nil {
		st := string(*e.SourceType)
		m.SourceType = &st
	}
	return m
}

// ToDomainJournalEntry converts a storage journal entry to its domain form.
func ToDomainJournalEntry(m models.JournalEntry) domain.JournalEntry {
	e := domain.JournalEntry{
		EntryID:          m.EntryID,
		EntryDate:        m.EntryDate,
		Memo:             m.Memo,
		CurrencyCode:     m.CurrencyCode,
		Status:           domain.EntryStatus(m.Status),
		OriginalEntryID:  m.OriginalEntryID,
		ReversingEntryID: m.ReversingEntryID,
		SourceID:         m.SourceID,
		Amount:           m.Amount,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
	if m.SourceType != nil {
		st := domain.EntrySourceType(*m.SourceType)
		e.SourceType = &st
	}
	return e
}

// ToModelJournalLine converts a domain journal line to its storage form.
func ToModelJournalLine(l domain.JournalLine) models.JournalLine {
	return models.JournalLine{
		LineID:         l.LineID,
		EntryID:        l.EntryID,
		AccountID:      l.AccountID,
		Amount:         l.Amount,
		LineType:       string(l.LineType),
		CurrencyCode:   l.CurrencyCode,
		Memo:           l.Memo,
		Dimensions:     l.Dimensions,
		RunningBalance: l.RunningBalance,
		AuditFields:    ToModelAuditFields(l.AuditFields),
	}
}

// ToDomainJournalLine converts a storage journal line to its domain form.
func ToDomainJournalLine(m models.JournalLine) domain.JournalLine {
	return domain.JournalLine{
		LineID:         m.LineID,
		EntryID:        m.EntryID,
		AccountID:      m.AccountID,
		Amount:         m.Amount,
		LineType:       domain.LineType(m.LineType),
		CurrencyCode:   m.CurrencyCode,
		Memo:           m.Memo,
		Dimensions:     m.Dimensions,
		RunningBalance: m.RunningBalance,
		EntryDate:      m.EntryDate,
		EntryMemo:      m.EntryMemo,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainJournalLineSlice converts a slice of storage lines to domain lines.
func ToDomainJournalLineSlice(ms []models.JournalLine) []domain.JournalLine {
	lines := make([]domain.JournalLine, len(ms))
	for i, m := range ms {
		lines[i] = ToDomainJournalLine(m)
	}
	return lines
}
