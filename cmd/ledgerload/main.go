package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/akapol/tye-ledger-sync/internal/config"
	"github.com/akapol/tye-ledger-sync/internal/ledger/sqlserver"
	"github.com/akapol/tye-ledger-sync/internal/pipeline"
	"github.com/akapol/tye-ledger-sync/pkg/database"
	"github.com/akapol/tye-ledger-sync/pkg/utils"
	"go.uber.org/zap"
)

// ledgerload runs the accounting load over the rows posted by tyesync,
// then hands off to the receipt fetch stage.
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
		Name:   "ledgerload",
		Format: cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting ledger load run")

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

	ctx := context.Background()
	if err := store.RunLedgerLoad(ctx); err != nil {
		logger.Error("Ledger load failed", zap.Error(err))
		if alertErr := store.SendOperatorAlert(ctx, "Error",
			"Failed to run the accounting load over the posted expense rows."); alertErr != nil {
			logger.Error("Failed to raise operator alert", zap.Error(alertErr))
		}
	} else {
		logger.Info("Ledger load finished")
	}

	pipeline.LaunchStage(cfg.Stages.ReceiptFetch, logger)
}
