package config

import (
	"time"

	"github.com/radio-control/cellstate/internal/clocksync"
)

// ClockConfig holds the network time thresholds and switches.
type ClockConfig struct {
	UpdateSpacing     time.Duration `yaml:"updateSpacing"`
	UpdateDiff        time.Duration `yaml:"updateDiff"`
	MaxReceiveDelay   time.Duration `yaml:"maxReceiveDelay"`
	IgnoreNetworkTime bool          `yaml:"ignoreNetworkTime"`
	AutoTime          bool          `yaml:"autoTime"`
	AutoTimeZone      bool          `yaml:"autoTimeZone"`

	// InitialZone seeds the device clock's zone before any network time.
	InitialZone string `yaml:"initialZone"`
}

// TelemetryConfig holds the event stream cadence and replay depth.
type TelemetryConfig struct {
	HeartbeatInterval    time.Duration `yaml:"heartbeatInterval"`
	HeartbeatJitter      time.Duration `yaml:"heartbeatJitter"`
	EventBufferSize      int           `yaml:"eventBufferSize"`
	EventBufferRetention time.Duration `yaml:"eventBufferRetention"`
	ClientQueueSize      int           `yaml:"clientQueueSize"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// AuthSecret is the HS256 key and AuthPublicKeyFile a PEM RS256 key for
	// bearer tokens. With neither set the API is open.
	AuthSecret        string `yaml:"authSecret"`
	AuthPublicKeyFile string `yaml:"authPublicKeyFile"`

	// RateLimit is the sustained control requests per second, RateBurst the
	// bucket size. A zero limit disables limiting.
	RateLimit float64 `yaml:"rateLimit"`
	RateBurst int     `yaml:"rateBurst"`
}

// ClockBaseline returns the standard network time thresholds.
func ClockBaseline() ClockConfig {
	return ClockConfig{
		UpdateSpacing:   clocksync.DefaultUpdateSpacing,
		UpdateDiff:      clocksync.DefaultUpdateDiff,
		MaxReceiveDelay: clocksync.DefaultMaxReceiveDelay,
		AutoTime:        true,
		AutoTimeZone:    true,
	}
}

// TelemetryBaseline returns heartbeat 15s ±2s and 50 buffered events kept an hour.
func TelemetryBaseline() TelemetryConfig {
	return TelemetryConfig{
		HeartbeatInterval:    15 * time.Second,
		HeartbeatJitter:      2 * time.Second,
		EventBufferSize:      50,
		EventBufferRetention: time.Hour,
		ClientQueueSize:      100,
	}
}

// ServerBaseline listens on :8080. WriteTimeout stays zero so event streams
// are not cut off.
func ServerBaseline() ServerConfig {
	return ServerConfig{
		Addr:            ":8080",
		ReadTimeout:     10 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		RateLimit:       5,
		RateBurst:       10,
	}
}

// Engine converts the section into clock engine settings.
func (c ClockConfig) Engine() clocksync.Config {
	return clocksync.Config{
		UpdateSpacing:     c.UpdateSpacing,
		UpdateDiff:        c.UpdateDiff,
		MaxReceiveDelay:   c.MaxReceiveDelay,
		IgnoreNetworkTime: c.IgnoreNetworkTime,
		AutoTime:          c.AutoTime,
		AutoTimeZone:      c.AutoTimeZone,
	}
}
