package tye

import "encoding/xml"

// Raw document graph returned by the GetInformation operation. Every leaf
// stays a string; the expense service omits elements freely and the model
// layer is responsible for defaulting and numeric parsing.

// User identifies the employee a document belongs to.
type User struct {
	Legajo      string   `xml:"Legajo"`
	CostCenters []string `xml:"CostCenter"`
	Name        string   `xml:"Name"`
	Email       string   `xml:"Email"`
}

// Approver is one entry of a document's approval chain.
type Approver struct {
	Legajo        string `xml:"Legajo"`
	IsFinanceRole string `xml:"isFinanceRole"`
}

// Allocation is one tagged code entry inside a cost-center block.
type Allocation struct {
	Code string         `xml:"Code"`
	Item AllocationItem `xml:"Item"`
}

// AllocationItem carries the value of an allocation tag.
type AllocationItem struct {
	Code string `xml:"Code"`
}

// CostCenter is one share of an expense attributed to a cost center.
type CostCenter struct {
	CostCenters []string     `xml:"CostCenter"`
	Amount      string       `xml:"Amount"`
	Allocations []Allocation `xml:"Allocation"`
	Approver    Approver     `xml:"Approver"`
}

// Tax holds the fiscal sub-fields of an expense.
type Tax struct {
	TicketNumber string `xml:"TicketNumber"`
	ReceiptType  string `xml:"ReceiptType"`
	Cuit         string `xml:"Cuit"`
	Merchant     string `xml:"Merchant"`
	Letter       string `xml:"Letter"`
	Location     string `xml:"Location"`
}

// Expense is one spent-money line item inside a report.
type Expense struct {
	Number       string       `xml:"Number"`
	Date         string       `xml:"Date"`
	Account      string       `xml:"Account"`
	ExpenseType  string       `xml:"ExpenseType"`
	Currency     string       `xml:"Currency"`
	Amount       string       `xml:"Amount"`
	Comment      string       `xml:"Comment"`
	Receipt      string       `xml:"Receipt"`
	Unrecognized string       `xml:"Unrecognized"`
	Personal     string       `xml:"Personal"`
	Reimbursable string       `xml:"Reimbursable"`
	Tax          Tax          `xml:"Tax"`
	CostCenters  []CostCenter `xml:"CostCenter"`
}

// CashAdvance is a monetary advance issued ahead of a report. When nested
// inside a Report only Number and ReportedAmountMD are populated.
type CashAdvance struct {
	Number           string     `xml:"Number"`
	Date             string     `xml:"Date"`
	Amount           string     `xml:"Amount"`
	ReportedAmountMD string     `xml:"ReportedAmountMD"`
	Currency         string     `xml:"Currency"`
	User             User       `xml:"User"`
	Approvers        []Approver `xml:"Approver"`
}

// Report is the top-level expensing document.
type Report struct {
	Number       string        `xml:"Number"`
	Type         string        `xml:"Type"`
	Date         string        `xml:"Date"`
	Period       string        `xml:"Period"`
	CreditCard   string        `xml:"CreditCard"`
	User         User          `xml:"User"`
	CashAdvances []CashAdvance `xml:"CashAdvance"`
	Expenses     []Expense     `xml:"Expense"`
}

// InformationResult is the decoded body of one GetInformation call.
type InformationResult struct {
	Message      Message       `xml:"Message"`
	CashAdvances []CashAdvance `xml:"CashAdvance"`
	Reports      []Report      `xml:"Report"`
}

// Message is the service's per-response status block.
type Message struct {
	Code string `xml:"Code"`
}

type getInformationEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Response struct {
			Result InformationResult `xml:"GetInformationResult"`
		} `xml:"GetInformationResponse"`
	} `xml:"Body"`
}

// dropNullUsers discards instances whose user identifier is the literal
// "null" sentinel before model construction ever sees them.
func (r *InformationResult) dropNullUsers() {
	advances := r.CashAdvances[:0]
	for _, adv := range r.CashAdvances {
		if adv.User.Legajo != "null" {
			advances = append(advances, adv)
		}
	}
	r.CashAdvances = advances

	reports := r.Reports[:0]
	for _, rep := range r.Reports {
		if rep.User.Legajo != "null" {
			reports = append(reports, rep)
		}
	}
	r.Reports = reports
}
