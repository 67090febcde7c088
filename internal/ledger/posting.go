package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/akapol/tye-ledger-sync/internal/model"
	"go.uber.org/zap"
)

// Document subtype codes for item rows without fiscal letters.
const (
	subtypeNoReceipt      = "DI"
	subtypePendingReceipt = "DIC"
)

// Field widths of the legacy item/sub-item columns.
const (
	widthCostCenter = 6
	widthRP         = 6
	widthLinkCode   = 10
)

// Poster converts constructed documents into committed ledger rows.
type Poster struct {
	store  Store
	logger *zap.Logger
}

// NewPoster creates a new posting engine
func NewPoster(store Store, logger *zap.Logger) *Poster {
	return &Poster{
		store:  store,
		logger: logger,
	}
}

// PostAdvances posts each cash advance as its own unit. A failure is
// logged and the remaining advances still post.
func (p *Poster) PostAdvances(ctx context.Context, advances []*model.CashAdvance) {
	for _, adv := range advances {
		if err := p.postAdvance(ctx, adv); err != nil {
			p.logger.Error("Failed to post cash advance",
				zap.String("number", adv.Number),
				zap.Error(err))
			continue
		}
		p.logger.Info("Cash advance header posted",
			zap.String("number", adv.Number),
			zap.Int64("sequence", adv.Sequence))
	}
}

func (p *Poster) postAdvance(ctx context.Context, adv *model.CashAdvance) error {
	seq, err := p.store.NextHeaderSequence(ctx, adv.UserLegajo, adv.Period)
	if err != nil {
		return fmt.Errorf("failed to obtain header sequence: %w", err)
	}
	adv.Sequence = seq

	return p.store.InsertHeader(ctx, &HeaderRow{
		Account:  adv.UserLegajo,
		Period:   adv.Period,
		Sequence: seq,
		Number:   adv.Number,
		Class:    adv.Type,
		Currency: adv.Currency,
		Amount:   adv.Amount,
		Approver: adv.Approver,
	})
}

// PostReports posts each report inside one ledger transaction: header,
// advance links, then items and sub-items in document order. A failure
// rolls back that report only; the batch continues. A constraint
// violation on a card report means its upstream load has not landed yet
// and is reported as informational.
func (p *Poster) PostReports(ctx context.Context, reports []*model.Report) {
	for _, rep := range reports {
		err := p.store.InTransaction(ctx, func(tx Ops) error {
			return p.postReport(ctx, tx, rep)
		})
		if err == nil {
			p.logger.Info("Report posted",
				zap.String("number", rep.Number),
				zap.Int64("sequence", rep.Sequence),
				zap.Int("items", len(rep.Expenses)))
			continue
		}
		if errors.Is(err, ErrConstraintViolation) && rep.Type == model.ClassCardReport {
			p.logger.Info("Card report awaiting prior processing",
				zap.String("number", rep.Number))
			continue
		}
		p.logger.Error("Failed to post report",
			zap.String("number", rep.Number),
			zap.Error(err))
	}
}

func (p *Poster) postReport(ctx context.Context, tx Ops, rep *model.Report) error {
	seq, err := tx.NextHeaderSequence(ctx, rep.UserLegajo, rep.Period)
	if err != nil {
		return fmt.Errorf("failed to obtain header sequence: %w", err)
	}
	rep.Sequence = seq

	header := &HeaderRow{
		Account:       rep.UserLegajo,
		Period:        rep.Period,
		Sequence:      seq,
		Number:        rep.Number,
		Class:         rep.Type,
		Amount:        rep.ExpenseTotal,
		AdvanceAmount: rep.AdvanceTotal,
		Approver:      rep.Approver,
		CardCode:      rep.CardCode,
	}
	if err := tx.InsertHeader(ctx, header); err != nil {
		return err
	}

	if err := p.linkAdvances(ctx, tx, rep); err != nil {
		return err
	}

	for i, exp := range rep.Expenses {
		exp.ItemSequence = i + 1
		if err := tx.InsertItem(ctx, itemRow(rep, exp)); err != nil {
			return fmt.Errorf("item %d: %w", exp.ItemSequence, err)
		}
		for k, alloc := range exp.Allocations {
			alloc.SubSequence = k + 1
			if err := tx.InsertSubItem(ctx, subItemRow(rep, exp, alloc)); err != nil {
				return fmt.Errorf("item %d sub-item %d: %w", exp.ItemSequence, alloc.SubSequence, err)
			}
		}
	}

	return nil
}

// linkAdvances associates every referenced cash advance with the
// report's document number. Partial linking is never attempted: the
// first failure propagates into the report's rollback.
func (p *Poster) linkAdvances(ctx context.Context, tx Ops, rep *model.Report) error {
	for _, number := range rep.AdvanceNumbers {
		if err := tx.LinkAdvance(ctx, number, rep.Number); err != nil {
			return fmt.Errorf("failed to link advance %s: %w", number, err)
		}
		p.logger.Info("Cash advance linked to report",
			zap.String("advance", number),
			zap.String("report", rep.Number))
	}
	return nil
}

func itemRow(rep *model.Report, exp *model.Expense) *ItemRow {
	first := exp.FirstAllocation()
	return &ItemRow{
		Class:         rep.Type,
		Number:        rep.Number,
		Account:       rep.UserLegajo,
		Period:        rep.Period,
		Sequence:      rep.Sequence,
		Item:          exp.ItemSequence,
		DocSubtype:    documentSubtype(exp),
		OriginNumber:  exp.TicketNumber,
		Date:          exp.Date,
		Amount:        exp.Amount,
		Currency:      exp.Currency,
		CostCenter:    truncate(first.CostCenter, widthCostCenter),
		RP:            truncate(first.RP, widthRP),
		LinkCode:      truncate(first.LinkCode, widthLinkCode),
		Jurisdiction:  exp.Location,
		Merchant:      exp.Merchant,
		TaxID:         exp.Cuit,
		ReceiptLink:   exp.ReceiptLink,
		LedgerAccount: exp.Account,
		Concept:       exp.ExpenseType,
		Comment:       exp.Comment,
		Unrecognized:  exp.Unrecognized,
		Personal:      exp.Personal,
		Reimbursable:  exp.Reimbursable,
	}
}

func subItemRow(rep *model.Report, exp *model.Expense, alloc *model.CostCenterAllocation) *SubItemRow {
	return &SubItemRow{
		Class:      rep.Type,
		Number:     rep.Number,
		Account:    rep.UserLegajo,
		Period:     rep.Period,
		Sequence:   rep.Sequence,
		Item:       exp.ItemSequence,
		SubItem:    alloc.SubSequence,
		CostCenter: truncate(alloc.CostCenter, widthCostCenter),
		RP:         truncate(alloc.RP, widthRP),
		LinkCode:   truncate(alloc.LinkCode, widthLinkCode),
		Amount:     alloc.Amount,
	}
}

// documentSubtype chooses the item's document subtype by precedence:
// fiscal letter present, then missing receipt link, then receipt pending
// attachment.
func documentSubtype(exp *model.Expense) string {
	switch {
	case exp.Letter != "":
		return exp.ReceiptType
	case exp.ReceiptLink == "":
		return subtypeNoReceipt
	default:
		return subtypePendingReceipt
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
