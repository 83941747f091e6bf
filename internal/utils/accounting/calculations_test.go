package accounting_test

import (
	"testing"

	"github.com/corefin/accounting_core_app/internal/core/domain"
	"github.com/corefin/accounting_core_app/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundMoney(t *testing.T) {
	testCases := []struct {
		name      string
		amount    string
		precision int32
		expected  string
	}{
		{"exact half rounds up", "3856.125", 2, "3856.13"},
		{"below half rounds down", "5.004", 2, "5.00"},
		{"above half rounds up", "5.006", 2, "5.01"},
		{"negative half rounds away from zero", "-2.005", 2, "-2.01"},
		{"already at precision", "100.10", 2, "100.10"},
		{"zero precision", "2.5", 0, "3"},
		{"three minor units", "1.0005", 3, "1.001"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := accounting.RoundMoney(decimal.RequireFromString(tc.amount), tc.precision)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.expected)), "got %s, want %s", got, tc.expected)
		})
	}
}

func TestCalculateSignedAmount(t *testing.T) {
	amount := decimal.NewFromInt(100)

	testCases := []struct {
		name        string
		accountType domain.AccountType
		lineType    domain.LineType
		expected    int64
	}{
		{"debit to asset increases", domain.Asset, domain.Debit, 100},
		{"credit to asset decreases", domain.Asset, domain.Credit, -100},
		{"debit to expense increases", domain.Expense, domain.Debit, 100},
		{"credit to expense decreases", domain.Expense, domain.Credit, -100},
		{"debit to liability decreases", domain.Liability, domain.Debit, -100},
		{"credit to liability increases", domain.Liability, domain.Credit, 100},
		{"debit to equity decreases", domain.Equity, domain.Debit, -100},
		{"credit to equity increases", domain.Equity, domain.Credit, 100},
		{"debit to income decreases", domain.Income, domain.Debit, -100},
		{"credit to income increases", domain.Income, domain.Credit, 100},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			line := domain.JournalLine{Amount: amount, LineType: tc.lineType}
			got, err := accounting.CalculateSignedAmount(line, tc.accountType)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.NewFromInt(tc.expected)), "got %s, want %d", got, tc.expected)
		})
	}
}

func TestCalculateSignedAmount_UnknownAccountType(t *testing.T) {
	line := domain.JournalLine{Amount: decimal.NewFromInt(100), LineType: domain.Debit, AccountID: "acc-1"}

	_, err := accounting.CalculateSignedAmount(line, domain.AccountType("SUSPENSE"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown account type")
}

func TestSumDebitsCredits(t *testing.T) {
	lines := []domain.JournalLine{
		{Amount: decimal.RequireFromString("3856.13"), LineType: domain.Debit},
		{Amount: decimal.RequireFromString("3672.50"), LineType: domain.Credit},
		{Amount: decimal.RequireFromString("183.63"), LineType: domain.Credit},
	}

	debits, credits := accounting.SumDebitsCredits(lines)

	assert.True(t, debits.Equal(decimal.RequireFromString("3856.13")), "got %s", debits)
	assert.True(t, credits.Equal(decimal.RequireFromString("3856.13")), "got %s", credits)
}

func TestSumDebitsCredits_Empty(t *testing.T) {
	debits, credits := accounting.SumDebitsCredits(nil)

	assert.True(t, debits.IsZero())
	assert.True(t, credits.IsZero())
}
