//
//
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// DefaultFile is read when no path is given and it exists in the working
// directory.
const DefaultFile = "cellstate.yaml"

// EnvPrefix starts every override variable.
const EnvPrefix = "CELLSTATE_"

// Load merges the baseline, the YAML file at path (or CELLSTATE_CONFIG, or
// cellstate.yaml when present) and CELLSTATE_* overrides, then validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile decodes YAML over cfg. Keys absent from the file keep their
// current values; maps are merged entry by entry.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return fmt.Errorf("failed to decode YAML: %w", err)
	}
	return nil
}

// applyEnvOverrides applies CELLSTATE_* environment variables to cfg.
func applyEnvOverrides(cfg *Config) error {
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"CLOCK_UPDATE_SPACING", &cfg.Clock.UpdateSpacing},
		{"CLOCK_UPDATE_DIFF", &cfg.Clock.UpdateDiff},
		{"CLOCK_MAX_RECEIVE_DELAY", &cfg.Clock.MaxReceiveDelay},
		{"TELEMETRY_HEARTBEAT_INTERVAL", &cfg.Telemetry.HeartbeatInterval},
		{"TELEMETRY_HEARTBEAT_JITTER", &cfg.Telemetry.HeartbeatJitter},
		{"TELEMETRY_EVENT_BUFFER_RETENTION", &cfg.Telemetry.EventBufferRetention},
		{"SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout},
		{"MODEM_LATENCY", &cfg.Modem.Latency},
		{"TRACKER_SIGNAL_POLL_PERIOD", &cfg.Tracker.SignalPollPeriod},
	}
	for _, d := range durations {
		if val := os.Getenv(EnvPrefix + d.key); val != "" {
			v, err := time.ParseDuration(val)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, d.key, err)
			}
			*d.dst = v
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"CLOCK_IGNORE_NITZ", &cfg.Clock.IgnoreNetworkTime},
		{"CLOCK_AUTO_TIME", &cfg.Clock.AutoTime},
		{"CLOCK_AUTO_TIME_ZONE", &cfg.Clock.AutoTimeZone},
		{"LOG_COMPRESS", &cfg.Log.Compress},
	}
	for _, b := range bools {
		if val := os.Getenv(EnvPrefix + b.key); val != "" {
			v, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, b.key, err)
			}
			*b.dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"TELEMETRY_EVENT_BUFFER_SIZE", &cfg.Telemetry.EventBufferSize},
		{"SERVER_RATE_BURST", &cfg.Server.RateBurst},
		{"TRACKER_QUEUE_SIZE", &cfg.Tracker.QueueSize},
		{"LOG_MAX_SIZE_MB", &cfg.Log.MaxSizeMB},
		{"LOG_MAX_BACKUPS", &cfg.Log.MaxBackups},
	}
	for _, i := range ints {
		if val := os.Getenv(EnvPrefix + i.key); val != "" {
			v, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, i.key, err)
			}
			*i.dst = v
		}
	}

	if val := os.Getenv(EnvPrefix + "SERVER_RATE_LIMIT"); val != "" {
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("%sSERVER_RATE_LIMIT: %w", EnvPrefix, err)
		}
		cfg.Server.RateLimit = v
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"CLOCK_INITIAL_ZONE", &cfg.Clock.InitialZone},
		{"ROAMING_SOURCE", &cfg.Roaming.Source},
		{"SERVER_ADDR", &cfg.Server.Addr},
		{"AUTH_SECRET", &cfg.Server.AuthSecret},
		{"AUTH_PUBLIC_KEY_FILE", &cfg.Server.AuthPublicKeyFile},
		{"LOG_LEVEL", &cfg.Log.Level},
		{"LOG_FILE", &cfg.Log.File},
		{"AUDIT_DIR", &cfg.Audit.Dir},
		{"PROPS_FILE", &cfg.Props.File},
		{"MODEM_RADIO", &cfg.Modem.Radio},
	}
	for _, s := range strs {
		if val := os.Getenv(EnvPrefix + s.key); val != "" {
			*s.dst = val
		}
	}

	if val := os.Getenv(EnvPrefix + "ROAMING_HOME_OPERATORS"); val != "" {
		cfg.Roaming.HomeOperatorNames = splitList(val)
	}
	if val := os.Getenv(EnvPrefix + "ROAMING_HOME_INDICATORS"); val != "" {
		cfg.Roaming.HomeIndicators = splitList(val)
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
