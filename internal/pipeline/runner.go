package pipeline

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/akapol/tye-ledger-sync/internal/model"
	"github.com/akapol/tye-ledger-sync/internal/tye"
	"go.uber.org/zap"
)

// DocumentSource delivers the current document batch.
type DocumentSource interface {
	FetchDocuments(ctx context.Context) (*tye.InformationResult, error)
}

// Poster posts constructed documents into the ledger.
type Poster interface {
	PostAdvances(ctx context.Context, advances []*model.CashAdvance)
	PostReports(ctx context.Context, reports []*model.Report)
}

// Synchronizer runs one status synchronization pass.
type Synchronizer interface {
	Run(ctx context.Context) error
}

// Runner sequences one batch run: fetch, build the document model, post
// advances and reports, synchronize statuses, then hand off to the next
// stage.
type Runner struct {
	source       DocumentSource
	poster       Poster
	synchronizer Synchronizer
	nextStage    string
	logger       *zap.Logger
}

// NewRunner creates a new pipeline runner
func NewRunner(source DocumentSource, poster Poster, synchronizer Synchronizer, nextStage string, logger *zap.Logger) *Runner {
	return &Runner{
		source:       source,
		poster:       poster,
		synchronizer: synchronizer,
		nextStage:    nextStage,
		logger:       logger,
	}
}

// Run executes one pass. Posting failures are isolated per document and
// a synchronization failure does not block the handoff; only a failure
// to obtain or construct the batch aborts the run.
func (r *Runner) Run(ctx context.Context) error {
	result, err := r.source.FetchDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch document batch: %w", err)
	}

	batch, err := model.NewBatch(result, r.logger)
	if err != nil {
		return fmt.Errorf("failed to build document model: %w", err)
	}

	r.poster.PostAdvances(ctx, batch.Advances)
	r.poster.PostReports(ctx, batch.Reports)

	if err := r.synchronizer.Run(ctx); err != nil {
		r.logger.Error("Status synchronization failed", zap.Error(err))
	}

	LaunchStage(r.nextStage, r.logger)
	return nil
}

// LaunchStage starts the next external batch stage. The stage runs on
// its own configuration; a launch failure is logged and nothing more.
func LaunchStage(path string, logger *zap.Logger) {
	if path == "" {
		return
	}
	logger.Info("Launching next stage", zap.String("path", path))
	if err := exec.Command(path).Run(); err != nil {
		logger.Error("Failed to run next stage",
			zap.String("path", path),
			zap.Error(err))
	}
}
