package config

import "time"

// Config is the root configuration for a streamd instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Server   ServerConfig   `yaml:"server"`
	Database DBConfig       `yaml:"database"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Pumps    PumpConfig     `yaml:"pumps"`
	Signals  SignalsConfig  `yaml:"signals"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// InstanceConfig identifies this server instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// ServerConfig holds the client-facing WebSocket server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	WSPath       string        `yaml:"ws_path"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PingInterval time.Duration `yaml:"ping_interval"`
	SendBuffer   int           `yaml:"send_buffer"` // per-client outbound frame buffer
}

// DBConfig holds the PostgreSQL connection for the watchlist and the
// signal/alert audit tables.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// UpstreamConfig holds the exchange market-data feed settings.
type UpstreamConfig struct {
	URL                string        `yaml:"url"`
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
	PingTimeout        time.Duration `yaml:"ping_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	BufferSize         int           `yaml:"buffer_size"`
}

// PumpConfig holds pump detector settings.
type PumpConfig struct {
	Window       time.Duration `yaml:"window"`
	ThresholdPct float64       `yaml:"threshold_pct"`
	Cooldown     time.Duration `yaml:"cooldown"`
}

// SignalsConfig holds moving-average signal generator settings.
type SignalsConfig struct {
	FastPeriod int `yaml:"fast_period"`
	SlowPeriod int `yaml:"slow_period"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}
