package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/akapol/tye-ledger-sync/internal/config"
	"github.com/akapol/tye-ledger-sync/internal/ledger/sqlserver"
	"github.com/akapol/tye-ledger-sync/pkg/database"
	"github.com/akapol/tye-ledger-sync/pkg/utils"
	"go.uber.org/zap"
)

// preload generates the pre-load entries over the loaded rows. Last
// stage of the chain.
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
		Name:   "preload",
		Format: cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting preload run")

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
	if err := store.GeneratePreloads(ctx); err != nil {
		logger.Error("Preload generation failed", zap.Error(err))
		if alertErr := store.SendOperatorAlert(ctx, "Error",
			"Failed to generate pre-load entries over the loaded expense rows."); alertErr != nil {
			logger.Error("Failed to raise operator alert", zap.Error(alertErr))
		}
		os.Exit(1)
	}

	logger.Info("Preload run finished")
}
