package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultServerHost         = "0.0.0.0"
	DefaultServerPort         = 8080
	DefaultWSPath             = "/ws"
	DefaultWriteTimeout       = 5 * time.Second
	DefaultPingInterval       = 30 * time.Second
	DefaultSendBuffer         = 256
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultUpstreamURL        = "wss://stream.binance.com:9443/ws"
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 60 * time.Second
	DefaultUpstreamPingWait   = 90 * time.Second
	DefaultUpstreamWriteWait  = 5 * time.Second
	DefaultUpstreamBuffer     = 1000
	DefaultPumpWindow         = 5 * time.Minute
	DefaultPumpThresholdPct   = 5.0
	DefaultPumpCooldown       = 15 * time.Minute
	DefaultFastPeriod         = 7
	DefaultSlowPeriod         = 25
	DefaultLogLevel           = "info"
)

func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Host == "" {
		c.Server.Host = DefaultServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.WSPath == "" {
		c.Server.WSPath = DefaultWSPath
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.PingInterval == 0 {
		c.Server.PingInterval = DefaultPingInterval
	}
	if c.Server.SendBuffer == 0 {
		c.Server.SendBuffer = DefaultSendBuffer
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Upstream defaults
	if c.Upstream.URL == "" {
		c.Upstream.URL = DefaultUpstreamURL
	}
	if c.Upstream.ReconnectBaseDelay == 0 {
		c.Upstream.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Upstream.ReconnectMaxDelay == 0 {
		c.Upstream.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Upstream.PingTimeout == 0 {
		c.Upstream.PingTimeout = DefaultUpstreamPingWait
	}
	if c.Upstream.WriteTimeout == 0 {
		c.Upstream.WriteTimeout = DefaultUpstreamWriteWait
	}
	if c.Upstream.BufferSize == 0 {
		c.Upstream.BufferSize = DefaultUpstreamBuffer
	}

	// Pump detector defaults
	if c.Pumps.Window == 0 {
		c.Pumps.Window = DefaultPumpWindow
	}
	if c.Pumps.ThresholdPct == 0 {
		c.Pumps.ThresholdPct = DefaultPumpThresholdPct
	}
	if c.Pumps.Cooldown == 0 {
		c.Pumps.Cooldown = DefaultPumpCooldown
	}

	// Signal generator defaults
	if c.Signals.FastPeriod == 0 {
		c.Signals.FastPeriod = DefaultFastPeriod
	}
	if c.Signals.SlowPeriod == 0 {
		c.Signals.SlowPeriod = DefaultSlowPeriod
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
}
