package pipeline

import (
	"context"
	"testing"

	"github.com/akapol/tye-ledger-sync/internal/ledger"
	"github.com/akapol/tye-ledger-sync/internal/model"
	"github.com/akapol/tye-ledger-sync/internal/status"
	"github.com/akapol/tye-ledger-sync/internal/tye"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	result *tye.InformationResult
}

func (f *fakeSource) FetchDocuments(ctx context.Context) (*tye.InformationResult, error) {
	return f.result, nil
}

type fakeRegistrar struct {
	batches []string
}

func (f *fakeRegistrar) RegisterDocuments(ctx context.Context, fragment string) error {
	f.batches = append(f.batches, fragment)
	return nil
}

// recordingStore counts posted rows across the whole run.
type recordingStore struct {
	nextSeq  int64
	headers  []*ledger.HeaderRow
	items    []*ledger.ItemRow
	subItems []*ledger.SubItemRow
	links    [][2]string
}

func (r *recordingStore) NextHeaderSequence(ctx context.Context, account, period string) (int64, error) {
	r.nextSeq++
	return r.nextSeq, nil
}

func (r *recordingStore) InsertHeader(ctx context.Context, row *ledger.HeaderRow) error {
	r.headers = append(r.headers, row)
	return nil
}

func (r *recordingStore) InsertItem(ctx context.Context, row *ledger.ItemRow) error {
	r.items = append(r.items, row)
	return nil
}

func (r *recordingStore) InsertSubItem(ctx context.Context, row *ledger.SubItemRow) error {
	r.subItems = append(r.subItems, row)
	return nil
}

func (r *recordingStore) LinkAdvance(ctx context.Context, advance, report string) error {
	r.links = append(r.links, [2]string{advance, report})
	return nil
}

func (r *recordingStore) InTransaction(ctx context.Context, fn func(ledger.Ops) error) error {
	return fn(r)
}

func (r *recordingStore) ListPendingStatuses(ctx context.Context) ([]*ledger.PendingStatus, error) {
	return nil, nil
}

func (r *recordingStore) UpdateHeaderStage(ctx context.Context, class int, number string, stage int) error {
	return nil
}

func (r *recordingStore) ListPendingReceipts(ctx context.Context) ([]*ledger.ReceiptItem, error) {
	return nil, nil
}

func (r *recordingStore) UpdateReceiptPath(ctx context.Context, item *ledger.ReceiptItem) error {
	return nil
}
func (r *recordingStore) RunLedgerLoad(ctx context.Context) error    { return nil }
func (r *recordingStore) GeneratePreloads(ctx context.Context) error { return nil }
func (r *recordingStore) SendOperatorAlert(ctx context.Context, subject, message string) error {
	return nil
}

// One cash report with two expenses of 100 and 50, each fully allocated,
// and no linked advances: one header totalling 150, two items, two
// sub-items, zero advance-link updates.
func TestRunner_EndToEnd(t *testing.T) {
	source := &fakeSource{
		result: &tye.InformationResult{
			Reports: []tye.Report{
				{
					Number: "5001",
					Type:   "1",
					Period: "20260131",
					User:   tye.User{Legajo: "U001"},
					Expenses: []tye.Expense{
						{
							Number: "E1",
							Amount: "100",
							CostCenters: []tye.CostCenter{
								{CostCenters: []string{"CC0001"}, Amount: "100"},
							},
						},
						{
							Number: "E2",
							Amount: "50",
							CostCenters: []tye.CostCenter{
								{CostCenters: []string{"CC0002"}, Amount: "50"},
							},
						},
					},
				},
			},
		},
	}

	store := &recordingStore{}
	registrar := &fakeRegistrar{}
	logger := zap.NewNop()

	runner := NewRunner(
		source,
		ledger.NewPoster(store, logger),
		status.NewSynchronizer(store, registrar, "AKAPOL", logger),
		"", // no next stage in tests
		logger,
	)
	require.NoError(t, runner.Run(context.Background()))

	require.Len(t, store.headers, 1)
	assert.Equal(t, 150.0, store.headers[0].Amount)
	assert.Equal(t, model.ClassCashReport, store.headers[0].Class)

	assert.Len(t, store.items, 2)
	assert.Len(t, store.subItems, 2)
	assert.Empty(t, store.links, "no advances were referenced")
	assert.Empty(t, registrar.batches, "nothing was pending status synchronization")
}
