package model

import (
	"github.com/akapol/tye-ledger-sync/internal/tye"
	"go.uber.org/zap"
)

// Batch is the fully constructed document model for one run.
type Batch struct {
	Advances []*CashAdvance
	Reports  []*Report
}

// NewBatch materializes the whole document batch. A malformed document
// aborts construction; the inbound feed is expected to be clean and bad
// numerics are a data-quality defect to fix upstream.
func NewBatch(result *tye.InformationResult, logger *zap.Logger) (*Batch, error) {
	batch := &Batch{}

	for _, raw := range result.CashAdvances {
		adv, err := NewCashAdvance(raw)
		if err != nil {
			return nil, err
		}
		batch.Advances = append(batch.Advances, adv)
		logger.Info("Cash advance received",
			zap.String("number", adv.Number),
			zap.String("user", adv.UserLegajo),
			zap.Float64("amount", adv.Amount))
	}

	for _, raw := range result.Reports {
		rep, err := NewReport(raw, logger)
		if err != nil {
			return nil, err
		}
		batch.Reports = append(batch.Reports, rep)
		logger.Info("Report received",
			zap.String("number", rep.Number),
			zap.Int("type", rep.Type),
			zap.String("user", rep.UserLegajo),
			zap.Float64("total", rep.ExpenseTotal))
	}

	return batch, nil
}
