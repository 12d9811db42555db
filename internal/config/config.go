package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Paypal    PaypalConfig    `yaml:"paypal"`
	Orders    OrdersConfig    `yaml:"orders"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// JWTConfig contains token validation settings
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// PaypalConfig contains payment gateway settings
type PaypalConfig struct {
	Mode     string `yaml:"mode"` // "sandbox" or "live"
	ClientID string `yaml:"client_id"`
	Secret   string `yaml:"secret"`
	Currency string `yaml:"currency"`
}

// OrdersConfig contains order engine policy settings
type OrdersConfig struct {
	// TotalTolerance is the accepted absolute difference between the
	// client-computed and server-computed order totals.
	TotalTolerance float64 `yaml:"total_tolerance"`
	// StalePaymentExpiryHours is how long a PayPal order may sit PENDING
	// without a captured payment before the sweep job cancels it.
	StalePaymentExpiryHours int `yaml:"stale_payment_expiry_hours"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ExpireStalePendingOrders string `yaml:"expire_stale_pending_orders"`
	SendReturnReminders      string `yaml:"send_return_reminders"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Paypal
	if val := os.Getenv("PAYPAL_MODE"); val != "" {
		c.Paypal.Mode = val
	}
	if val := os.Getenv("PAYPAL_CLIENT_ID"); val != "" {
		c.Paypal.ClientID = val
	}
	if val := os.Getenv("PAYPAL_SECRET"); val != "" {
		c.Paypal.Secret = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}

	if c.Paypal.Mode == "" {
		c.Paypal.Mode = "sandbox"
	}
	if c.Paypal.Mode != "sandbox" && c.Paypal.Mode != "live" {
		return fmt.Errorf("invalid paypal mode: %s", c.Paypal.Mode)
	}
	if c.Paypal.Currency == "" {
		c.Paypal.Currency = "USD"
	}

	if c.Orders.TotalTolerance == 0 {
		c.Orders.TotalTolerance = 0.50
	}
	if c.Orders.TotalTolerance < 0 {
		return fmt.Errorf("order total tolerance must be non-negative")
	}
	if c.Orders.StalePaymentExpiryHours == 0 {
		c.Orders.StalePaymentExpiryHours = 48
	}

	// Scheduler defaults
	if c.Scheduler.ExpireStalePendingOrders == "" {
		c.Scheduler.ExpireStalePendingOrders = "0 0 1 * * *" // 1 AM UTC
	}
	if c.Scheduler.SendReturnReminders == "" {
		c.Scheduler.SendReturnReminders = "0 0 9 * * *" // 9 AM UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
