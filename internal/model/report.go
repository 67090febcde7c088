package model

import (
	"fmt"
	"strconv"

	"github.com/akapol/tye-ledger-sync/internal/tye"
	"go.uber.org/zap"
)

// Document classes as the ledger knows them.
const (
	ClassCashReport = 1
	ClassCardReport = 2
	ClassAdvance    = 4
)

// cardCodes maps card-product names to the single-letter codes the
// ledger stores. Unrecognized products map to the empty code.
var cardCodes = map[string]string{
	"VISA SIGNATURE":  "S",
	"VISA CORPORATE":  "C",
	"VISA PURCHASING": "P",
}

// Report is the top-level expensing document.
type Report struct {
	Number         string
	Type           int
	Period         string
	UserLegajo     string
	UserCostCenter string
	UserName       string
	UserEmail      string
	CardCode       string
	AdvanceTotal   float64
	AdvanceNumbers []string
	ExpenseTotal   float64
	Approver       string
	Expenses       []*Expense
	Sequence       int64 // header sequence number, assigned at posting
}

// NewReport builds a report and all of its children eagerly. Expenses
// whose allocations do not sum to the expense amount are logged as
// data-integrity warnings; construction proceeds with the data as given.
func NewReport(raw tye.Report, logger *zap.Logger) (*Report, error) {
	reportType, err := strconv.Atoi(raw.Type)
	if err != nil {
		return nil, fmt.Errorf("report %s: malformed type %q: %w", raw.Number, raw.Type, err)
	}

	rep := &Report{
		Number:         raw.Number,
		Type:           reportType,
		Period:         accountingPeriod(raw.Period, raw.Date),
		UserLegajo:     raw.User.Legajo,
		UserCostCenter: firstOf(raw.User.CostCenters),
		UserName:       raw.User.Name,
		UserEmail:      raw.User.Email,
		CardCode:       cardCodes[raw.CreditCard],
	}

	for _, adv := range raw.CashAdvances {
		amount, err := parseAmount(adv.ReportedAmountMD)
		if err != nil {
			return nil, fmt.Errorf("report %s: advance %s: %w", raw.Number, adv.Number, err)
		}
		rep.AdvanceTotal += amount
		rep.AdvanceNumbers = append(rep.AdvanceNumbers, adv.Number)
	}

	for _, rawExp := range raw.Expenses {
		exp, err := NewExpense(rawExp)
		if err != nil {
			return nil, fmt.Errorf("report %s: %w", raw.Number, err)
		}
		rep.Expenses = append(rep.Expenses, exp)
		rep.ExpenseTotal += exp.Amount
		if rep.Approver == "" {
			rep.Approver = exp.Approver
		}
		if !exp.Balanced() {
			logger.Warn("Allocation total does not match expense amount",
				zap.String("report", raw.Number),
				zap.String("expense", exp.Number),
				zap.Float64("allocation_total", exp.AllocationTotal),
				zap.Float64("amount", exp.Amount))
		}
	}

	// Approver cascade: first non-empty expense-level approver wins,
	// else the report's own user.
	if rep.Approver == "" {
		rep.Approver = rep.UserLegajo
	}

	return rep, nil
}

// accountingPeriod derives the YYYYMM period from the report's period
// field, falling back to its date.
func accountingPeriod(period, date string) string {
	if period == "" {
		period = date
	}
	if len(period) > 6 {
		period = period[:6]
	}
	return period
}
