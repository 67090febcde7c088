package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/akapol/tye-ledger-sync/internal/config"
	"github.com/akapol/tye-ledger-sync/internal/ledger"
	"github.com/akapol/tye-ledger-sync/internal/ledger/sqlserver"
	"github.com/akapol/tye-ledger-sync/internal/pipeline"
	"github.com/akapol/tye-ledger-sync/internal/status"
	"github.com/akapol/tye-ledger-sync/internal/tye"
	"github.com/akapol/tye-ledger-sync/pkg/database"
	"github.com/akapol/tye-ledger-sync/pkg/utils"
	"go.uber.org/zap"
)

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
		Name:   cfg.Logger.Name,
		Format: cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting expense-ledger synchronization run")

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

	var store ledger.Store = sqlserver.New(db, cfg.Alert.Recipient, logger)

	client := tye.NewClient(tye.Config{
		URL:     cfg.Tye.URL,
		APIKey:  cfg.Tye.APIKey,
		Timeout: cfg.Tye.Timeout,
	}, logger)

	poster := ledger.NewPoster(store, logger)
	synchronizer := status.NewSynchronizer(store, client, cfg.Company, logger)
	runner := pipeline.NewRunner(client, poster, synchronizer, cfg.Stages.LedgerLoad, logger)

	if err := runner.Run(context.Background()); err != nil {
		logger.Fatal("Run failed", zap.Error(err))
	}

	logger.Info("Run finished")
}
