package model

import (
	"fmt"

	"github.com/akapol/tye-ledger-sync/internal/tye"
)

// CashAdvance is a monetary advance issued to a user ahead of a report.
// Immutable after construction except for the posting sequence number.
type CashAdvance struct {
	Number         string
	Type           int
	Period         string
	Approver       string
	UserLegajo     string
	UserCostCenter string
	UserName       string
	UserEmail      string
	Amount         float64
	Currency       string
	Sequence       int64 // header sequence number, assigned at posting
}

// NewCashAdvance builds a cash advance from its raw document. The
// approver is the first one outside the finance role; advances approved
// only by finance fall back to the requesting user.
func NewCashAdvance(raw tye.CashAdvance) (*CashAdvance, error) {
	amount, err := parseAmount(raw.Amount)
	if err != nil {
		return nil, fmt.Errorf("cash advance %s: %w", raw.Number, err)
	}

	approver := raw.User.Legajo
	for _, entry := range raw.Approvers {
		if entry.IsFinanceRole == "false" {
			approver = entry.Legajo
			break
		}
	}

	return &CashAdvance{
		Number:         raw.Number,
		Type:           ClassAdvance,
		Period:         accountingPeriod(raw.Date, ""),
		Approver:       approver,
		UserLegajo:     raw.User.Legajo,
		UserCostCenter: firstOf(raw.User.CostCenters),
		UserName:       raw.User.Name,
		UserEmail:      raw.User.Email,
		Amount:         amount,
		Currency:       raw.Currency,
	}, nil
}
