package accounting

import (
	"fmt"

	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DefaultMoneyPrecision is the rounding precision used when the currency does
// not declare its own minor-unit count.
const DefaultMoneyPrecision int32 = 2

// RoundMoney applies the fixed monetary rounding policy: half-up at the given
// minor-unit precision. shopspring's Round rounds half away from zero, which is
// half-up for the positive amounts the ledger deals in.
func RoundMoney(amount decimal.Decimal, precision int32) decimal.Decimal {
	return amount.Round(precision)
}

// CalculateSignedAmount applies the correct sign to a line amount based on
// account type and line type. Used by services and repositories so balance
// arithmetic stays consistent.
// DEBIT to ASSET/EXPENSE -> +, CREDIT to ASSET/EXPENSE -> -
// DEBIT to LIABILITY/EQUITY/INCOME -> -, CREDIT to LIABILITY/EQUITY/INCOME -> +
func CalculateSignedAmount(line domain.JournalLine, accountType domain.AccountType) (decimal.Decimal, error) {
	signedAmount := line.Amount
	isDebit := line.LineType == domain.Debit

	switch accountType {
	case domain.Asset, domain.Expense:
		if !isDebit {
			signedAmount = signedAmount.Neg()
		}
	case domain.Liability, domain.Equity, domain.Income:
		if isDebit {
			signedAmount = signedAmount.Neg()
		}
	default:
		return decimal.Zero, fmt.Errorf("unknown account type '%s' encountered for account ID %s", accountType, line.AccountID)
	}
	return signedAmount, nil
}

// SumDebitsCredits totals the debit and credit sides of a set of lines.
func SumDebitsCredits(lines []domain.JournalLine) (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, line := range lines {
		if line.LineType == domain.Debit {
			debits = debits.Add(line.Amount)
		} else {
			credits = credits.Add(line.Amount)
		}
	}
	return debits, credits
}
