package apperrors

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// The accounting core surfaces every failure as a structured type so the
// presentation layer can render actionable messages. None of these are retried
// automatically except ConcurrentAllocationConflictError, which is safe to
// retry once with a refreshed outstanding balance.

// UnbalancedEntryError reports a journal entry whose debits and credits do not
// match in the entry's own currency. Always fatal to the posting operation.
type UnbalancedEntryError struct {
	EntryID    string
	Debits     decimal.Decimal
	Credits    decimal.Decimal
	Difference decimal.Decimal // Debits - Credits, signed
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("journal entry %s is unbalanced: debits %s, credits %s (difference %s)",
		e.EntryID, e.Debits.String(), e.Credits.String(), e.Difference.String())
}

// InvalidStateTransitionError reports a state machine misuse, naming the
// current and required states.
type InvalidStateTransitionError struct {
	Entity   string // e.g. "invoice", "payment", "tax filing"
	EntityID string
	Action   string // attempted operation, e.g. "approve"
	Current  string
	Required string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s %s %s: status is %s, expected %s",
		e.Action, e.Entity, e.EntityID, e.Current, e.Required)
}

// OverAllocationError reports an allocation that would exceed an invoice's
// outstanding balance or a payment's total.
type OverAllocationError struct {
	InvoiceID   string
	Outstanding decimal.Decimal
	Requested   decimal.Decimal
}

func (e *OverAllocationError) Error() string {
	return fmt.Sprintf("allocation of %s exceeds outstanding balance %s on invoice %s",
		e.Requested.String(), e.Outstanding.String(), e.InvoiceID)
}

// RateNotFoundError reports that no direct, inverse, or base-currency-bridged
// exchange rate exists on or before the requested date.
type RateNotFoundError struct {
	FromCurrency string
	ToCurrency   string
	Date         time.Time
	RateType     string
}

func (e *RateNotFoundError) Error() string {
	return fmt.Sprintf("no %s exchange rate found for %s->%s on or before %s",
		e.RateType, e.FromCurrency, e.ToCurrency, e.Date.Format("2006-01-02"))
}

// MissingFXAccountError reports that the gain or loss account mapping required
// to book a realized FX difference is not configured.
type MissingFXAccountError struct {
	Kind string // "FX_GAIN" or "FX_LOSS"
}

func (e *MissingFXAccountError) Error() string {
	return fmt.Sprintf("no account configured for %s; realized FX differences cannot be posted", e.Kind)
}

// ConcurrentAllocationConflictError reports a race on an invoice's outstanding
// balance during allocation. Callers may retry once with fresh state.
type ConcurrentAllocationConflictError struct {
	InvoiceID string
}

func (e *ConcurrentAllocationConflictError) Error() string {
	return fmt.Sprintf("concurrent allocation detected on invoice %s, retry with refreshed outstanding balance", e.InvoiceID)
}
