package ledger

import (
	"context"
	"errors"
)

// ErrConstraintViolation marks an integrity-constraint failure reported
// by the data store. Card reports hitting it are awaiting an upstream
// load, not failing.
var ErrConstraintViolation = errors.New("ledger: constraint violation")

// HeaderRow is the top-level ledger record for one report or advance.
type HeaderRow struct {
	Account       string // employee account the header is filed under
	Period        string // YYYYMM accounting period
	Sequence      int64
	Number        string // expense-service document number
	Class         int
	Currency      string
	Amount        float64
	AdvanceAmount float64
	Approver      string
	CardCode      string
}

// ItemRow is the ledger record for one expense within a report. The
// cost-center, RP and linking codes repeat the first allocation's values
// even though the full detail goes to sub-item rows; the legacy
// item/sub-item split of the ledger schema expects the duplication.
type ItemRow struct {
	Class         int
	Number        string
	Account       string
	Period        string
	Sequence      int64
	Item          int
	DocSubtype    string
	OriginNumber  string
	Date          string
	Amount        float64
	Currency      string
	CostCenter    string
	RP            string
	LinkCode      string
	Jurisdiction  string
	Merchant      string
	TaxID         string
	ReceiptLink   string
	LedgerAccount string
	Concept       string
	Comment       string
	Unrecognized  string
	Personal      string
	Reimbursable  string
}

// SubItemRow is the ledger record for one cost-center allocation.
type SubItemRow struct {
	Class      int
	Number     string
	Account    string
	Period     string
	Sequence   int64
	Item       int
	SubItem    int
	CostCenter string
	RP         string
	LinkCode   string
	Amount     float64
}

// PendingStatus describes one header eligible for evaluation by the
// status synchronization state machine.
type PendingStatus struct {
	Number        string
	Class         int
	SettlementRef *string
	Amount        float64
	PaymentBatch  *string
	Stage         int
	AccountHolder *string
	AdvanceAmount float64
}

// ReceiptItem is one posted item whose receipt still needs fetching.
type ReceiptItem struct {
	Account  string
	Holder   string
	Period   string
	Sequence int64
	Item     int
	Link     string
	Class    int
	Number   string
	Path     string // local path, set once the receipt is stored
}

// Ops groups the write operations that participate in a report's
// posting transaction.
type Ops interface {
	// NextHeaderSequence returns the next free header sequence number
	// for the (account, period) pair.
	NextHeaderSequence(ctx context.Context, account, period string) (int64, error)
	InsertHeader(ctx context.Context, row *HeaderRow) error
	InsertItem(ctx context.Context, row *ItemRow) error
	InsertSubItem(ctx context.Context, row *SubItemRow) error
	// LinkAdvance associates a previously posted cash advance with the
	// report that consumes it.
	LinkAdvance(ctx context.Context, advanceNumber, reportNumber string) error
}

// Store is the full ledger port. Every method maps to one named
// parametrized operation of the data store; their internals are opaque.
type Store interface {
	Ops

	// InTransaction runs fn inside one ledger transaction, committing on
	// nil and rolling back on error.
	InTransaction(ctx context.Context, fn func(Ops) error) error

	ListPendingStatuses(ctx context.Context) ([]*PendingStatus, error)
	UpdateHeaderStage(ctx context.Context, class int, number string, stage int) error

	ListPendingReceipts(ctx context.Context) ([]*ReceiptItem, error)
	UpdateReceiptPath(ctx context.Context, item *ReceiptItem) error

	// RunLedgerLoad executes the downstream accounting load over the
	// posted rows.
	RunLedgerLoad(ctx context.Context) error
	// GeneratePreloads executes the preload generator over the loaded
	// rows.
	GeneratePreloads(ctx context.Context) error

	// SendOperatorAlert dispatches a mail alert through the data
	// store's mail operation.
	SendOperatorAlert(ctx context.Context, subject, message string) error
}
