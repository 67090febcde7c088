package receipt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/akapol/tye-ledger-sync/internal/ledger"
	"go.uber.org/zap"
)

var extensionPattern = regexp.MustCompile(`\.([a-zA-Z0-9]+)$`)

// Config holds receipt fetcher configuration
type Config struct {
	APIKey  string
	Dir     string
	Timeout time.Duration
}

// Fetcher downloads the receipts of posted items and records the local
// path back into the ledger.
type Fetcher struct {
	store      ledger.Store
	apiKey     string
	dir        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewFetcher creates a new receipt fetcher
func NewFetcher(store ledger.Store, cfg Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		store:      store,
		apiKey:     cfg.APIKey,
		dir:        cfg.Dir,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Run fetches every pending receipt. A failure on one item raises an
// operator alert and the remaining items still run.
func (f *Fetcher) Run(ctx context.Context) error {
	items, err := f.store.ListPendingReceipts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending receipts: %w", err)
	}

	for _, item := range items {
		if err := f.fetch(ctx, item); err != nil {
			f.logger.Error("Failed to fetch receipt",
				zap.String("holder", item.Holder),
				zap.Int64("sequence", item.Sequence),
				zap.Int("item", item.Item),
				zap.Error(err))
			if alertErr := f.store.SendOperatorAlert(ctx, "Error",
				fmt.Sprintf("Failed to store receipt for item %s %s %d %d.",
					item.Holder, item.Period, item.Sequence, item.Item)); alertErr != nil {
				f.logger.Error("Failed to raise operator alert", zap.Error(alertErr))
			}
			continue
		}
		if err := f.store.UpdateReceiptPath(ctx, item); err != nil {
			f.logger.Error("Failed to record receipt path",
				zap.String("path", item.Path),
				zap.Error(err))
		}
	}

	return nil
}

func (f *Fetcher) fetch(ctx context.Context, item *ledger.ReceiptItem) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.Link, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-Api-Key", f.apiKey)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service returned status %d", resp.StatusCode)
	}

	extension := "unknown"
	if match := extensionPattern.FindStringSubmatch(item.Link); match != nil {
		extension = match[1]
	}

	sequence := strconv.FormatInt(item.Sequence, 10)
	itemNumber := strconv.Itoa(item.Item)
	folder := filepath.Join(f.dir, item.Holder, item.Period, sequence, itemNumber)
	if err := os.MkdirAll(folder, 0755); err != nil {
		return fmt.Errorf("failed to create receipt folder: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s_%s.%s", item.Holder, item.Period, sequence, itemNumber, extension)
	item.Path = filepath.Join(folder, name)

	// Re-runs never overwrite an already stored receipt.
	if _, err := os.Stat(item.Path); err == nil {
		return nil
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read receipt: %w", err)
	}
	if err := os.WriteFile(item.Path, content, 0644); err != nil {
		return fmt.Errorf("failed to write receipt: %w", err)
	}

	f.logger.Info("Receipt stored", zap.String("path", item.Path))
	return nil
}
