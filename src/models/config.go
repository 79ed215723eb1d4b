package models

// MConfig Structure
type MConfig struct {
	Name      string           `yaml:"name"`
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	LogLevel  string           `yaml:"log_level"`
	Storage   MStorageConfig   `yaml:"storage"`
	Market    MMarketConfig    `yaml:"market"`
	Session   MSessionConfig   `yaml:"session"`
	Retention MRetentionConfig `yaml:"retention"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MMarketConfig struct {
	TickIntervalSeconds int                `yaml:"tick_interval_seconds"`
	BaselinePrices      map[string]float64 `yaml:"baseline_prices"`
	MarketHoursOnly     bool               `yaml:"market_hours_only"`
	ReferenceSymbols    []string           `yaml:"reference_symbols"`
}

type MSessionConfig struct {
	HeartbeatStalenessSeconds int `yaml:"heartbeat_staleness_seconds"`
	SweepIntervalSeconds      int `yaml:"sweep_interval_seconds"`
}

type MRetentionConfig struct {
	Days                 int `yaml:"days"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
}
