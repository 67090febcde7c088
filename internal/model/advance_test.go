package model

import (
	"testing"

	"github.com/akapol/tye-ledger-sync/internal/tye"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCashAdvance_ApproverResolution(t *testing.T) {
	tests := []struct {
		name      string
		approvers []tye.Approver
		expected  string
	}{
		{
			name: "first non-finance approver wins",
			approvers: []tye.Approver{
				{Legajo: "F100", IsFinanceRole: "true"},
				{Legajo: "A200", IsFinanceRole: "false"},
				{Legajo: "A300", IsFinanceRole: "false"},
			},
			expected: "A200",
		},
		{
			name: "only finance approvers fall back to own user",
			approvers: []tye.Approver{
				{Legajo: "F100", IsFinanceRole: "true"},
			},
			expected: "U001",
		},
		{
			name:      "no approvers fall back to own user",
			approvers: nil,
			expected:  "U001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adv, err := NewCashAdvance(tye.CashAdvance{
				Number:    "9001",
				Date:      "20260115",
				Amount:    "1500.50",
				Currency:  "ARS",
				User:      tye.User{Legajo: "U001", CostCenters: []string{"CC01"}, Name: "Ana", Email: "ana@example.com"},
				Approvers: tt.approvers,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, adv.Approver)
		})
	}
}

func TestNewCashAdvance_Fields(t *testing.T) {
	adv, err := NewCashAdvance(tye.CashAdvance{
		Number:   "9001",
		Date:     "20260115",
		Amount:   "1500.50",
		Currency: "ARS",
		User:     tye.User{Legajo: "U001", CostCenters: []string{"CC01"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "9001", adv.Number)
	assert.Equal(t, ClassAdvance, adv.Type)
	assert.Equal(t, "202601", adv.Period, "period is the first six characters of the date")
	assert.Equal(t, "CC01", adv.UserCostCenter)
	assert.Equal(t, 1500.50, adv.Amount)
	assert.Zero(t, adv.Sequence, "sequence is assigned at posting time")
}

func TestNewCashAdvance_Defaults(t *testing.T) {
	adv, err := NewCashAdvance(tye.CashAdvance{Number: "9002", User: tye.User{Legajo: "U001"}})
	require.NoError(t, err)

	assert.Zero(t, adv.Amount, "absent amount defaults to zero")
	assert.Empty(t, adv.UserCostCenter)
	assert.Equal(t, "U001", adv.Approver)
}

func TestNewCashAdvance_MalformedAmount(t *testing.T) {
	_, err := NewCashAdvance(tye.CashAdvance{
		Number: "9003",
		Amount: "not-a-number",
		User:   tye.User{Legajo: "U001"},
	})
	assert.Error(t, err)
}
