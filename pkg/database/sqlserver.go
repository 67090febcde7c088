package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"
)

// Config holds database configuration
type Config struct {
	Server   string
	Port     int
	Database string
	User     string
	Password string
	// LockTimeout is the per-connection lock wait and query governor
	// ceiling applied once at startup.
	LockTimeout time.Duration
}

// DB wraps sql.DB with additional functionality
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// New opens a SQL Server connection and applies the session options the
// stored procedures rely on. The pool is pinned to a single connection so
// the SET options hold for the whole run; the batch is single-threaded
// anyway.
func New(cfg Config, logger *zap.Logger) (*DB, error) {
	dsn := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Server, cfg.Port),
		RawQuery: url.Values{"database": {cfg.Database}}.Encode(),
	}

	sqlDB, err := sql.Open("sqlserver", dsn.String())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	seconds := int(cfg.LockTimeout / time.Second)
	sessionOptions := []string{
		fmt.Sprintf("SET LOCK_TIMEOUT %d", seconds*1000),
		fmt.Sprintf("SET QUERY_GOVERNOR_COST_LIMIT %d", seconds),
		"SET NOCOUNT ON",
		"SET ARITHABORT ON",
	}
	for _, stmt := range sessionOptions {
		if _, err := sqlDB.Exec(stmt); err != nil {
			return nil, fmt.Errorf("failed to apply session option %q: %w", stmt, err)
		}
	}

	db := &DB{
		DB:     sqlDB,
		logger: logger,
	}

	logger.Info("Database connection established", zap.String("database", cfg.Database))
	return db, nil
}

// WithTransaction executes a function within a transaction
func (db *DB) WithTransaction(fn func(*sql.Tx) error) error {
	tx, err := db.DB.Begin()
	if err != nil {
		db.logger.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		db.logger.Error("Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	db.logger.Info("Closing database connection")
	return db.DB.Close()
}
