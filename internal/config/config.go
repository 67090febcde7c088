package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Tye      TyeConfig      `mapstructure:"tye"`
	Company  string         `mapstructure:"company"`
	Alert    AlertConfig    `mapstructure:"alert"`
	Receipt  ReceiptConfig  `mapstructure:"receipt"`
	Stages   StagesConfig   `mapstructure:"stages"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// DatabaseConfig holds SQL Server configuration
type DatabaseConfig struct {
	Server      string        `mapstructure:"server"`
	Port        int           `mapstructure:"port"`
	Name        string        `mapstructure:"name"`
	User        string        `mapstructure:"user"`
	Password    string        `mapstructure:"password"`
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
}

// TyeConfig holds the expense-service endpoint configuration
type TyeConfig struct {
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AlertConfig holds operator alert configuration
type AlertConfig struct {
	Recipient string `mapstructure:"recipient"`
}

// ReceiptConfig holds receipt storage configuration
type ReceiptConfig struct {
	Dir string `mapstructure:"dir"`
}

// StagesConfig holds the paths of the chained batch binaries. An empty
// path disables the handoff for that stage.
type StagesConfig struct {
	LedgerLoad   string `mapstructure:"ledger_load"`
	ReceiptFetch string `mapstructure:"receipt_fetch"`
	Preload      string `mapstructure:"preload"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Dir    string `mapstructure:"dir"`
	Name   string `mapstructure:"name"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from the .env file, the YAML config file and
// environment variables, in increasing order of precedence.
func Load(configPath string) (*Config, error) {
	_ = gotenv.Load() // .env is optional

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("database.port", 1433)
	viper.SetDefault("database.lock_timeout", 20*time.Minute)

	viper.SetDefault("tye.timeout", 60*time.Second)

	viper.SetDefault("receipt.dir", "receipts")

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.dir", "logs")
	viper.SetDefault("logger.name", "tyesync")
	viper.SetDefault("logger.format", "console")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive credentials from environment
	viper.BindEnv("database.server", "DB_SERVER")
	viper.BindEnv("database.name", "DB_NAME")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("tye.url", "TYE_URL")
	viper.BindEnv("tye.api_key", "TYE_API_KEY")
	viper.BindEnv("alert.recipient", "ALERT_RECIPIENT")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Server == "" {
		return fmt.Errorf("database.server is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Tye.URL == "" {
		return fmt.Errorf("tye.url is required")
	}
	if c.Tye.APIKey == "" {
		return fmt.Errorf("tye.api_key is required")
	}
	if c.Company == "" {
		return fmt.Errorf("company is required")
	}
	return nil
}
