package model

import (
	"fmt"
	"regexp"

	"github.com/akapol/tye-ledger-sync/internal/tye"
)

// Gratuities are normalized to a fixed ledger account and concept label
// and never carry a comment or receipt.
const (
	gratuityType    = "tip"
	gratuityAccount = "SE00058"
	gratuityLabel   = "PROPINAS"
)

var nonWordPattern = regexp.MustCompile(`\W+`)

// Expense is one spent-money line item within a report.
type Expense struct {
	Number      string
	Date        string
	Account     string
	ExpenseType string
	Currency    string
	Amount      float64
	Comment     string
	ReceiptLink string

	// Single-character ledger markers, not booleans: the stored
	// procedures consume them as S/N codes.
	Unrecognized string
	Personal     string
	Reimbursable string

	// Fiscal sub-fields.
	TicketNumber string
	ReceiptType  string
	Cuit         string
	Merchant     string
	Letter       string
	Location     string

	Approver        string
	Allocations     []*CostCenterAllocation
	AllocationTotal float64
	ItemSequence    int // 1-based item number, assigned at posting
}

// NewExpense builds an expense and its allocations from the raw document.
// The allocation total is accumulated here so the caller can check the
// balance invariant without another pass.
func NewExpense(raw tye.Expense) (*Expense, error) {
	amount, err := parseAmount(raw.Amount)
	if err != nil {
		return nil, fmt.Errorf("expense %s: %w", raw.Number, err)
	}

	exp := &Expense{
		Number:       raw.Number,
		Date:         raw.Date,
		Account:      raw.Account,
		ExpenseType:  raw.ExpenseType,
		Currency:     raw.Currency,
		Amount:       amount,
		Comment:      nonWordPattern.ReplaceAllString(raw.Comment, " "),
		ReceiptLink:  raw.Receipt,
		Unrecognized: marker(raw.Unrecognized),
		Personal:     marker(raw.Personal),
		Reimbursable: marker(raw.Reimbursable),
		TicketNumber: raw.Tax.TicketNumber,
		ReceiptType:  raw.Tax.ReceiptType,
		Cuit:         raw.Tax.Cuit,
		Merchant:     raw.Tax.Merchant,
		Letter:       raw.Tax.Letter,
		Location:     raw.Tax.Location,
	}

	if raw.ExpenseType == gratuityType {
		exp.Account = gratuityAccount
		exp.ExpenseType = gratuityLabel
		exp.Comment = ""
		exp.ReceiptLink = ""
	}

	for _, rawAlloc := range raw.CostCenters {
		alloc, err := NewCostCenterAllocation(rawAlloc)
		if err != nil {
			return nil, fmt.Errorf("expense %s: %w", raw.Number, err)
		}
		exp.Allocations = append(exp.Allocations, alloc)
		exp.AllocationTotal += alloc.Amount
		if exp.Approver == "" {
			exp.Approver = alloc.Approver
		}
	}

	return exp, nil
}

// Balanced reports whether the allocations sum to the expense amount.
func (e *Expense) Balanced() bool {
	return e.AllocationTotal == e.Amount
}

// FirstAllocation returns the expense's first allocation, or a zero
// allocation when there is none. Item rows repeat its codes.
func (e *Expense) FirstAllocation() *CostCenterAllocation {
	if len(e.Allocations) == 0 {
		return &CostCenterAllocation{}
	}
	return e.Allocations[0]
}

// marker encodes a textual boolean as the single-character code the
// ledger consumes.
func marker(value string) string {
	if value == "true" {
		return "S"
	}
	return "N"
}
