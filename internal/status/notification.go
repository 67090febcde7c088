package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/akapol/tye-ledger-sync/internal/ledger"
	"github.com/akapol/tye-ledger-sync/internal/model"
)

// Notification stages. A header advances 0 -> 1 when its posting is
// acknowledged and 1 -> 2 when its settlement is acknowledged.
const (
	StagePosted  = 0
	StageSettled = 1
)

// Eligible reports whether the header may advance from its current
// stage. A (stage, class) pair with no transition rule is simply not
// eligible, never an error.
func Eligible(s *ledger.PendingStatus) bool {
	switch s.Stage {
	case StagePosted:
		// Acknowledge receipt unconditionally for the known classes.
		switch s.Class {
		case model.ClassCashReport, model.ClassCardReport, model.ClassAdvance:
			return true
		}
	case StageSettled:
		switch s.Class {
		case model.ClassCashReport:
			return s.SettlementRef != nil && s.AccountHolder != nil &&
				(s.Amount <= s.AdvanceAmount || s.PaymentBatch != nil)
		case model.ClassAdvance:
			return s.SettlementRef != nil && s.AccountHolder != nil && s.PaymentBatch != nil
		}
	}
	return false
}

// Fragment builds the outbound notification for one eligible header, or
// the empty string when no transition applies. The fragment is emitted
// without any whitespace; the service rejects envelopes containing it.
func Fragment(s *ledger.PendingStatus, company string, today time.Time) string {
	if !Eligible(s) {
		return ""
	}

	document := "Report"
	if s.Class == model.ClassAdvance {
		document = "CashAdvance"
	}
	nextStage := s.Stage + 1
	date := today.Format("20060102")

	fragment := fmt.Sprintf(`<tye:%[1]s>
		<tye:Type>%[2]d</tye:Type>
		<tye:Number>%[3]s</tye:Number>
		<tye:Document>
			<tye:Company>%[4]s</tye:Company>
			<tye:DocumentNumber>%[2]d%[5]d%[3]s</tye:DocumentNumber>
			<tye:FiscalYear>%[6]d</tye:FiscalYear>
			<tye:DocumentDate>%[7]s</tye:DocumentDate>
			<tye:EntryDate>%[7]s0000</tye:EntryDate>
		</tye:Document>
	</tye:%[1]s>`,
		document, nextStage, s.Number, company, s.Class, today.Year(), date)

	replacer := strings.NewReplacer("\n", "", "\t", "")
	return replacer.Replace(fragment)
}
