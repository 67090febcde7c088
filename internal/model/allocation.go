package model

import (
	"fmt"
	"strconv"

	"github.com/akapol/tye-ledger-sync/internal/tye"
)

// Allocation-type tags carried in the nested allocation list.
const (
	allocationTagRP   = "RP"
	allocationTagLink = "COD.VINC."

	// The service fills unassigned linking codes with this sentinel.
	linkCodeSentinel = "NA"
)

// CostCenterAllocation is a share of an expense's amount attributed to
// one cost center.
type CostCenterAllocation struct {
	CostCenter  string
	Amount      float64
	RP          string
	LinkCode    string
	Approver    string
	SubSequence int // 1-based sub-item number, assigned at posting
}

// NewCostCenterAllocation builds an allocation from its raw document.
func NewCostCenterAllocation(raw tye.CostCenter) (*CostCenterAllocation, error) {
	amount, err := parseAmount(raw.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid allocation amount: %w", err)
	}

	alloc := &CostCenterAllocation{
		CostCenter: firstOf(raw.CostCenters),
		Amount:     amount,
		Approver:   raw.Approver.Legajo,
	}

	for _, entry := range raw.Allocations {
		switch entry.Code {
		case allocationTagRP:
			alloc.RP = entry.Item.Code
		case allocationTagLink:
			if entry.Item.Code != linkCodeSentinel {
				alloc.LinkCode = entry.Item.Code
			}
		}
	}

	return alloc, nil
}

// parseAmount parses a numeric leaf, treating absence as zero. Malformed
// text is a construction error.
func parseAmount(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed amount %q: %w", s, err)
	}
	return v, nil
}

func firstOf(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
