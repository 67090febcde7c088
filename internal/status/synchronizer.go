package status

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akapol/tye-ledger-sync/internal/ledger"
	"go.uber.org/zap"
)

// Registrar sends one concatenated notification batch to the expense
// service.
type Registrar interface {
	RegisterDocuments(ctx context.Context, fragment string) error
}

// Synchronizer runs the two-phase status synchronization: build the
// batch of due notifications, send it once, and only after the service
// acknowledges commit each header's stage advance locally.
//
// The two phases are not atomic across systems: a crash between the
// remote acknowledgment and a local stage commit leaves that header
// eligible again next run and it will be re-notified. The receiving
// service's idempotency has to absorb that; do not reorder the phases.
type Synchronizer struct {
	store     ledger.Store
	registrar Registrar
	company   string
	logger    *zap.Logger
	now       func() time.Time
}

// NewSynchronizer creates a new status synchronizer
func NewSynchronizer(store ledger.Store, registrar Registrar, company string, logger *zap.Logger) *Synchronizer {
	return &Synchronizer{
		store:     store,
		registrar: registrar,
		company:   company,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes one synchronization pass.
func (s *Synchronizer) Run(ctx context.Context) error {
	statuses, err := s.store.ListPendingStatuses(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending statuses: %w", err)
	}

	today := s.now()
	var batch strings.Builder
	var eligible []*ledger.PendingStatus
	for _, status := range statuses {
		fragment := Fragment(status, s.company, today)
		if fragment == "" {
			continue
		}
		batch.WriteString(fragment)
		eligible = append(eligible, status)
		s.logger.Info("Status advance queued",
			zap.String("number", status.Number),
			zap.Int("class", status.Class),
			zap.Int("stage", status.Stage+1))
	}

	if len(eligible) == 0 {
		s.logger.Info("No status advances due")
		return nil
	}

	if err := s.registrar.RegisterDocuments(ctx, batch.String()); err != nil {
		s.logger.Error("Notification batch rejected, no stages advanced", zap.Error(err))
		if alertErr := s.store.SendOperatorAlert(ctx, "Error",
			"Failed to send status notifications to the expense service."); alertErr != nil {
			s.logger.Error("Failed to raise operator alert", zap.Error(alertErr))
		}
		return fmt.Errorf("failed to send notification batch: %w", err)
	}

	for _, status := range eligible {
		if err := s.store.UpdateHeaderStage(ctx, status.Class, status.Number, status.Stage+1); err != nil {
			s.logger.Error("Failed to advance header stage",
				zap.String("number", status.Number),
				zap.Error(err))
			if alertErr := s.store.SendOperatorAlert(ctx, "Error",
				fmt.Sprintf("Failed to advance header %s to stage %d.", status.Number, status.Stage+1)); alertErr != nil {
				s.logger.Error("Failed to raise operator alert", zap.Error(alertErr))
			}
			continue
		}
		s.logger.Info("Header stage advanced",
			zap.String("number", status.Number),
			zap.Int("stage", status.Stage+1))
	}

	return nil
}
