//
//
package config

import (
	"fmt"
	"log/slog"

	"github.com/radio-control/cellstate/internal/radiolink"
	"github.com/radio-control/cellstate/internal/tz"
)

// Validate checks every section.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateClock(&cfg.Clock); err != nil {
		return fmt.Errorf("clock validation failed: %w", err)
	}
	if err := validateRoaming(&cfg.Roaming); err != nil {
		return fmt.Errorf("roaming validation failed: %w", err)
	}
	if err := validateTelemetry(&cfg.Telemetry); err != nil {
		return fmt.Errorf("telemetry validation failed: %w", err)
	}
	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}
	if err := validateLog(&cfg.Log); err != nil {
		return fmt.Errorf("log validation failed: %w", err)
	}
	if cfg.Tracker.QueueSize <= 0 {
		return fmt.Errorf("tracker validation failed: queue size must be positive, got %d", cfg.Tracker.QueueSize)
	}
	if cfg.Tracker.SignalPollPeriod <= 0 {
		return fmt.Errorf("tracker validation failed: signal poll period must be positive, got %v", cfg.Tracker.SignalPollPeriod)
	}
	if err := validateModem(&cfg.Modem); err != nil {
		return fmt.Errorf("modem validation failed: %w", err)
	}
	return nil
}

func validateClock(c *ClockConfig) error {
	if c.UpdateSpacing <= 0 {
		return fmt.Errorf("update spacing must be positive, got %v", c.UpdateSpacing)
	}
	if c.UpdateDiff <= 0 {
		return fmt.Errorf("update diff must be positive, got %v", c.UpdateDiff)
	}
	if c.MaxReceiveDelay <= 0 {
		return fmt.Errorf("max receive delay must be positive, got %v", c.MaxReceiveDelay)
	}
	if c.InitialZone != "" {
		if _, err := tz.Load(c.InitialZone); err != nil {
			return fmt.Errorf("initial zone: %w", err)
		}
	}
	return nil
}

func validateRoaming(r *RoamingConfig) error {
	if _, err := r.Policy(); err != nil {
		return err
	}
	ind := r.Indicators
	if ind.On == ind.Off || ind.On == ind.Flash || ind.Off == ind.Flash {
		return fmt.Errorf("indicator values must be distinct, got on=%d off=%d flash=%d", ind.On, ind.Off, ind.Flash)
	}
	if ind.OffThreshold < 0 {
		return fmt.Errorf("indicator off threshold must be non-negative, got %d", ind.OffThreshold)
	}
	for code := range r.Codes {
		if code < 0 {
			return fmt.Errorf("registration code must be non-negative, got %d", code)
		}
	}
	return nil
}

func validateTelemetry(t *TelemetryConfig) error {
	if t.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive, got %v", t.HeartbeatInterval)
	}
	if t.HeartbeatJitter < 0 {
		return fmt.Errorf("heartbeat jitter must be non-negative, got %v", t.HeartbeatJitter)
	}
	if t.HeartbeatJitter > t.HeartbeatInterval/2 {
		return fmt.Errorf("heartbeat jitter %v exceeds 50%% of interval %v", t.HeartbeatJitter, t.HeartbeatInterval)
	}
	if t.EventBufferSize <= 0 {
		return fmt.Errorf("event buffer size must be positive, got %d", t.EventBufferSize)
	}
	if t.EventBufferRetention <= 0 {
		return fmt.Errorf("event buffer retention must be positive, got %v", t.EventBufferRetention)
	}
	if t.ClientQueueSize <= 0 {
		return fmt.Errorf("client queue size must be positive, got %d", t.ClientQueueSize)
	}
	return nil
}

func validateServer(s *ServerConfig) error {
	if s.Addr == "" {
		return fmt.Errorf("listen address must be set")
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.IdleTimeout < 0 {
		return fmt.Errorf("timeouts must be non-negative")
	}
	if s.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %v", s.ShutdownTimeout)
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("rate limit must be non-negative, got %v", s.RateLimit)
	}
	if s.RateLimit > 0 && s.RateBurst <= 0 {
		return fmt.Errorf("rate burst must be positive when limiting, got %d", s.RateBurst)
	}
	return nil
}

func validateLog(l *LogConfig) error {
	if _, err := ParseLevel(l.Level); err != nil {
		return err
	}
	if l.File != "" && l.MaxSizeMB <= 0 {
		return fmt.Errorf("max size must be positive, got %d", l.MaxSizeMB)
	}
	return nil
}

func validateModem(m *ModemConfig) error {
	if _, err := radiolink.ParseState(m.Radio); err != nil {
		return err
	}
	if m.Latency < 0 {
		return fmt.Errorf("latency must be non-negative, got %v", m.Latency)
	}
	if m.QueueSize <= 0 {
		return fmt.Errorf("queue size must be positive, got %d", m.QueueSize)
	}
	return nil
}

// ParseLevel maps a level name onto slog.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}
