package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/akapol/tye-ledger-sync/internal/config"
	"github.com/akapol/tye-ledger-sync/internal/ledger/sqlserver"
	"github.com/akapol/tye-ledger-sync/internal/pipeline"
	"github.com/akapol/tye-ledger-sync/internal/receipt"
	"github.com/akapol/tye-ledger-sync/pkg/database"
	"github.com/akapol/tye-ledger-sync/pkg/utils"
	"go.uber.org/zap"
)

// receiptfetch downloads the receipts of loaded items into local
// storage and records their paths, then hands off to the preload stage.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:  cfg.Logger.Level,
		Dir:    cfg.Logger.Dir,
		Name:   "receiptfetch",
		Format: cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting receipt fetch run")

	db, err := database.New(database.Config{
		Server:      cfg.Database.Server,
		Port:        cfg.Database.Port,
		Database:    cfg.Database.Name,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		LockTimeout: cfg.Database.LockTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to the ledger database", zap.Error(err))
	}
	defer db.Close()

	store := sqlserver.New(db, cfg.Alert.Recipient, logger)
	fetcher := receipt.NewFetcher(store, receipt.Config{
		APIKey:  cfg.Tye.APIKey,
		Dir:     cfg.Receipt.Dir,
		Timeout: cfg.Tye.Timeout,
	}, logger)

	if err := fetcher.Run(context.Background()); err != nil {
		logger.Error("Receipt fetch failed", zap.Error(err))
	} else {
		logger.Info("Receipt fetch finished")
	}

	pipeline.LaunchStage(cfg.Stages.Preload, logger)
}
