package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBaseline(t *testing.T) {
	require.NoError(t, Validate(Default()))
	assert.Error(t, Validate(nil))
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero spacing", func(c *Config) { c.Clock.UpdateSpacing = 0 }, "clock validation failed"},
		{"negative diff", func(c *Config) { c.Clock.UpdateDiff = -time.Second }, "clock validation failed"},
		{"unknown zone", func(c *Config) { c.Clock.InitialZone = "Mars/Olympus" }, "clock validation failed"},
		{"bad source", func(c *Config) { c.Roaming.Source = "gsm" }, "roaming validation failed"},
		{"bad state name", func(c *Config) { c.Roaming.Codes[7] = "ROAMING" }, "roaming validation failed"},
		{"same indicators", func(c *Config) { c.Roaming.Indicators.Flash = c.Roaming.Indicators.On }, "roaming validation failed"},
		{"jitter too large", func(c *Config) { c.Telemetry.HeartbeatJitter = 10 * time.Second }, "telemetry validation failed"},
		{"empty buffer", func(c *Config) { c.Telemetry.EventBufferSize = 0 }, "telemetry validation failed"},
		{"no addr", func(c *Config) { c.Server.Addr = "" }, "server validation failed"},
		{"burst without room", func(c *Config) { c.Server.RateBurst = 0 }, "server validation failed"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log validation failed"},
		{"queue size", func(c *Config) { c.Tracker.QueueSize = 0 }, "tracker validation failed"},
		{"signal poll period", func(c *Config) { c.Tracker.SignalPollPeriod = 0 }, "tracker validation failed"},
		{"radio state", func(c *Config) { c.Modem.Radio = "standby" }, "modem validation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, Validate(cfg), tt.want)
		})
	}
}

func TestValidateAllowsDisabledRateLimit(t *testing.T) {
	cfg := Default()
	cfg.Server.RateLimit = 0
	cfg.Server.RateBurst = 0
	assert.NoError(t, Validate(cfg))
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	lvl, err = ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	_, err = ParseLevel("")
	assert.Error(t, err)
}

func TestClockEngineConversion(t *testing.T) {
	c := ClockBaseline()
	c.IgnoreNetworkTime = true
	e := c.Engine()
	assert.Equal(t, c.UpdateSpacing, e.UpdateSpacing)
	assert.Equal(t, c.MaxReceiveDelay, e.MaxReceiveDelay)
	assert.True(t, e.IgnoreNetworkTime)
	assert.True(t, e.AutoTimeZone)
}
