package model

import (
	"testing"

	"github.com/akapol/tye-ledger-sync/internal/tye"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func rawExpense(number, amount, approver string) tye.Expense {
	return tye.Expense{
		Number: number,
		Amount: amount,
		CostCenters: []tye.CostCenter{
			{Amount: amount, Approver: tye.Approver{Legajo: approver}},
		},
	}
}

func TestNewReport_Totals(t *testing.T) {
	rep, err := NewReport(tye.Report{
		Number: "5001",
		Type:   "1",
		Period: "20260131",
		User:   tye.User{Legajo: "U001"},
		Expenses: []tye.Expense{
			rawExpense("E1", "100", ""),
			rawExpense("E2", "50", ""),
		},
	}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 150.0, rep.ExpenseTotal)
	assert.Equal(t, "202601", rep.Period)
	assert.Len(t, rep.Expenses, 2)
}

func TestNewReport_ApproverCascade(t *testing.T) {
	tests := []struct {
		name      string
		approvers []string
		expected  string
	}{
		{
			name:      "first non-empty expense approver wins",
			approvers: []string{"", "A200", "A300"},
			expected:  "A200",
		},
		{
			name:      "no expense approver falls back to own user",
			approvers: []string{"", "", ""},
			expected:  "U001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var expenses []tye.Expense
			for i, approver := range tt.approvers {
				expenses = append(expenses, rawExpense(string(rune('A'+i)), "10", approver))
			}
			rep, err := NewReport(tye.Report{
				Number:   "5002",
				Type:     "1",
				Date:     "20260131",
				User:     tye.User{Legajo: "U001"},
				Expenses: expenses,
			}, zap.NewNop())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, rep.Approver)
		})
	}
}

func TestNewReport_CardCodes(t *testing.T) {
	tests := []struct {
		name     string
		card     string
		expected string
	}{
		{name: "maps VISA SIGNATURE to S", card: "VISA SIGNATURE", expected: "S"},
		{name: "maps VISA CORPORATE to C", card: "VISA CORPORATE", expected: "C"},
		{name: "maps VISA PURCHASING to P", card: "VISA PURCHASING", expected: "P"},
		{name: "maps unrecognized product to empty", card: "AMEX GOLD", expected: ""},
		{name: "maps absent product to empty", card: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := NewReport(tye.Report{
				Number:     "5003",
				Type:       "2",
				Date:       "20260131",
				CreditCard: tt.card,
				User:       tye.User{Legajo: "U001"},
			}, zap.NewNop())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, rep.CardCode)
		})
	}
}

func TestNewReport_LinkedAdvances(t *testing.T) {
	rep, err := NewReport(tye.Report{
		Number: "5004",
		Type:   "1",
		Date:   "20260131",
		User:   tye.User{Legajo: "U001"},
		CashAdvances: []tye.CashAdvance{
			{Number: "9001", ReportedAmountMD: "200"},
			{Number: "9002", ReportedAmountMD: "300"},
		},
	}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 500.0, rep.AdvanceTotal)
	assert.Equal(t, []string{"9001", "9002"}, rep.AdvanceNumbers)
}

func TestNewReport_PeriodFallsBackToDate(t *testing.T) {
	rep, err := NewReport(tye.Report{
		Number: "5005",
		Type:   "1",
		Date:   "20260215",
		User:   tye.User{Legajo: "U001"},
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "202602", rep.Period)
}

func TestNewReport_UnbalancedExpenseIsOnlyFlagged(t *testing.T) {
	rep, err := NewReport(tye.Report{
		Number: "5006",
		Type:   "1",
		Date:   "20260131",
		User:   tye.User{Legajo: "U001"},
		Expenses: []tye.Expense{
			{
				Number:      "E1",
				Amount:      "100",
				CostCenters: []tye.CostCenter{{Amount: "40"}},
			},
		},
	}, zap.NewNop())
	require.NoError(t, err, "a balance violation must not fail construction")
	assert.False(t, rep.Expenses[0].Balanced())
}

func TestNewReport_MalformedType(t *testing.T) {
	_, err := NewReport(tye.Report{
		Number: "5007",
		Type:   "abc",
		Date:   "20260131",
		User:   tye.User{Legajo: "U001"},
	}, zap.NewNop())
	assert.Error(t, err)
}
