package config

import (
	"fmt"
	"os"

	"market-sim/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills in reference-cadence defaults for omitted fields.
func (c *Config) applyDefaults() {
	if c.Market.TickIntervalSeconds == 0 {
		c.Market.TickIntervalSeconds = 1
	}
	if len(c.Market.BaselinePrices) == 0 {
		c.Market.BaselinePrices = map[string]float64{
			"TECH":    100,
			"ENERGY":  80,
			"FINANCE": 120,
		}
	}
	if c.Session.HeartbeatStalenessSeconds == 0 {
		c.Session.HeartbeatStalenessSeconds = 300
	}
	if c.Session.SweepIntervalSeconds == 0 {
		c.Session.SweepIntervalSeconds = 300
	}
	if c.Retention.Days == 0 {
		c.Retention.Days = 7
	}
	if c.Retention.SweepIntervalSeconds == 0 {
		c.Retention.SweepIntervalSeconds = 86400
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration (Flattened)
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Storage configuration
	if c.Storage.DBType == "" {
		return fmt.Errorf("database type cannot be empty")
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		return fmt.Errorf("database path cannot be empty for sqlite")
	}
	if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
		return fmt.Errorf("connection string cannot be empty for postgres")
	}

	// Validate Market configuration
	if c.Market.TickIntervalSeconds <= 0 {
		return fmt.Errorf("tick interval must be greater than 0")
	}
	if len(c.Market.BaselinePrices) == 0 {
		return fmt.Errorf("at least one baseline symbol must be configured")
	}
	for sym, price := range c.Market.BaselinePrices {
		if sym == "" {
			return fmt.Errorf("baseline symbol cannot be empty")
		}
		if price <= 0 {
			return fmt.Errorf("baseline price for %s must be greater than 0", sym)
		}
	}
	if c.Market.MarketHoursOnly && len(c.Market.ReferenceSymbols) == 0 {
		return fmt.Errorf("market_hours_only requires at least one reference symbol")
	}

	// Validate Session configuration
	if c.Session.HeartbeatStalenessSeconds <= 0 {
		return fmt.Errorf("heartbeat staleness must be greater than 0")
	}
	if c.Session.SweepIntervalSeconds <= 0 {
		return fmt.Errorf("session sweep interval must be greater than 0")
	}

	// Validate Retention configuration
	if c.Retention.Days <= 0 {
		return fmt.Errorf("retention days must be greater than 0")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
