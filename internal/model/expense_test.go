package model

import (
	"testing"

	"github.com/akapol/tye-ledger-sync/internal/tye"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExpense_GratuityNormalization(t *testing.T) {
	exp, err := NewExpense(tye.Expense{
		Number:      "E1",
		ExpenseType: "tip",
		Account:     "SE00010",
		Amount:      "20",
		Comment:     "propina almuerzo",
		Receipt:     "https://example.com/r.pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, "SE00058", exp.Account)
	assert.Equal(t, "PROPINAS", exp.ExpenseType)
	assert.Empty(t, exp.Comment)
	assert.Empty(t, exp.ReceiptLink)
}

func TestNewExpense_CommentSanitization(t *testing.T) {
	exp, err := NewExpense(tye.Expense{
		Number:  "E2",
		Amount:  "10",
		Comment: "taxi: aeropuerto -> hotel (noche)",
	})
	require.NoError(t, err)

	assert.Equal(t, "taxi aeropuerto hotel noche ", exp.Comment)
}

func TestNewExpense_Markers(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{name: "true encodes as S", value: "true", expected: "S"},
		{name: "false encodes as N", value: "false", expected: "N"},
		{name: "absent encodes as N", value: "", expected: "N"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := NewExpense(tye.Expense{
				Number:       "E3",
				Amount:       "10",
				Unrecognized: tt.value,
				Personal:     tt.value,
				Reimbursable: tt.value,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, exp.Unrecognized)
			assert.Equal(t, tt.expected, exp.Personal)
			assert.Equal(t, tt.expected, exp.Reimbursable)
		})
	}
}

func TestNewExpense_AllocationCodes(t *testing.T) {
	exp, err := NewExpense(tye.Expense{
		Number: "E4",
		Amount: "100",
		CostCenters: []tye.CostCenter{
			{
				CostCenters: []string{"CC0001"},
				Amount:      "100",
				Allocations: []tye.Allocation{
					{Code: "RP", Item: tye.AllocationItem{Code: "RP1234"}},
					{Code: "COD.VINC.", Item: tye.AllocationItem{Code: "VIN001"}},
				},
				Approver: tye.Approver{Legajo: "A100"},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, exp.Allocations, 1)

	alloc := exp.Allocations[0]
	assert.Equal(t, "CC0001", alloc.CostCenter)
	assert.Equal(t, "RP1234", alloc.RP)
	assert.Equal(t, "VIN001", alloc.LinkCode)
	assert.Equal(t, "A100", exp.Approver)
	assert.True(t, exp.Balanced())
}

func TestNewExpense_LinkCodeSentinelIgnored(t *testing.T) {
	exp, err := NewExpense(tye.Expense{
		Number: "E5",
		Amount: "100",
		CostCenters: []tye.CostCenter{
			{
				Amount: "100",
				Allocations: []tye.Allocation{
					{Code: "COD.VINC.", Item: tye.AllocationItem{Code: "NA"}},
				},
			},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, exp.Allocations[0].LinkCode, "the NA sentinel means no linking code")
}

func TestNewExpense_UnbalancedAllocationsDoNotFail(t *testing.T) {
	exp, err := NewExpense(tye.Expense{
		Number: "E6",
		Amount: "100",
		CostCenters: []tye.CostCenter{
			{Amount: "60"},
			{Amount: "30"},
		},
	})
	require.NoError(t, err)

	assert.False(t, exp.Balanced())
	assert.Equal(t, 90.0, exp.AllocationTotal)
	assert.Equal(t, 100.0, exp.Amount)
}

func TestNewExpense_TaxFields(t *testing.T) {
	exp, err := NewExpense(tye.Expense{
		Number: "E7",
		Amount: "10",
		Tax: tye.Tax{
			TicketNumber: "0001-00001234",
			ReceiptType:  "FA",
			Cuit:         "30-12345678-9",
			Merchant:     "Hotel Plaza",
			Letter:       "A",
			Location:     "CABA",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "0001-00001234", exp.TicketNumber)
	assert.Equal(t, "FA", exp.ReceiptType)
	assert.Equal(t, "30-12345678-9", exp.Cuit)
	assert.Equal(t, "Hotel Plaza", exp.Merchant)
	assert.Equal(t, "A", exp.Letter)
	assert.Equal(t, "CABA", exp.Location)
}

func TestFirstAllocation_Empty(t *testing.T) {
	exp := &Expense{}
	first := exp.FirstAllocation()
	assert.Empty(t, first.CostCenter)
	assert.Empty(t, first.RP)
	assert.Empty(t, first.LinkCode)
}
