package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/radio-control/cellstate/internal/modem/sim"
	"github.com/radio-control/cellstate/internal/radiolink"
	"github.com/radio-control/cellstate/internal/servicestate"
)

// Config is the complete daemon configuration.
type Config struct {
	Clock     ClockConfig     `yaml:"clock"`
	Roaming   RoamingConfig   `yaml:"roaming"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Audit     AuditConfig     `yaml:"audit"`
	Props     PropsConfig     `yaml:"props"`
	Tracker   TrackerConfig   `yaml:"tracker"`
	Modem     ModemConfig     `yaml:"modem"`
}

// RoamingConfig is the carrier-specific roaming data.
type RoamingConfig struct {
	// Source is "ruim" or "nv".
	Source            string                      `yaml:"source"`
	HomeIndicators    []string                    `yaml:"homeIndicators"`
	HomeOperatorNames []string                    `yaml:"homeOperatorNames"`
	Indicators        servicestate.IndicatorTable `yaml:"indicators"`

	// Codes maps registration codes to state names such as IN_SERVICE.
	Codes        map[int]string `yaml:"codes"`
	RoamingCodes []int          `yaml:"roamingCodes"`

	// Eri replaces the built-in ERI table when non-empty.
	Eri           map[int]servicestate.EriEntry `yaml:"eri"`
	SearchingText string                        `yaml:"searchingText"`
}

// LogConfig selects the log level and the rotated log file.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

// AuditConfig locates the audit trail. An empty Dir disables it.
type AuditConfig struct {
	Dir        string `yaml:"dir"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
}

// PropsConfig locates the property file. An empty File keeps properties in
// memory.
type PropsConfig struct {
	File string `yaml:"file"`
}

// TrackerConfig sizes the tracker's task queue and sets how often signal
// strength is polled.
type TrackerConfig struct {
	QueueSize        int           `yaml:"queueSize"`
	SignalPollPeriod time.Duration `yaml:"signalPollPeriod"`
}

// ModemConfig seeds the simulated modem.
type ModemConfig struct {
	Latency      time.Duration     `yaml:"latency"`
	QueueSize    int               `yaml:"queueSize"`
	Family       string            `yaml:"family"`
	Radio        string            `yaml:"radio"`
	Registration sim.Registration  `yaml:"registration"`
	Operator     sim.OperatorNames `yaml:"operator"`
	Subscription sim.Subscription  `yaml:"subscription"`
	Signal       sim.Signal        `yaml:"signal"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Clock:     ClockBaseline(),
		Roaming:   RoamingBaseline(),
		Telemetry: TelemetryBaseline(),
		Server:    ServerBaseline(),
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Audit: AuditConfig{
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
		Tracker: TrackerConfig{
			QueueSize:        256,
			SignalPollPeriod: 20 * time.Second,
		},
		Modem: ModemConfig{
			Latency:   20 * time.Millisecond,
			QueueSize: 64,
			Family:    "ril",
			Radio:     "on",
			Registration: sim.Registration{
				Code:                    1,
				RadioTechnology:         6,
				BaseStationID:           1,
				CSSIndicator:            1,
				SystemID:                4,
				NetworkID:               1,
				RoamingIndicator:        1,
				InPRL:                   true,
				DefaultRoamingIndicator: 1,
			},
			Operator: sim.OperatorNames{
				AlphaLong:  "Simulated Carrier",
				AlphaShort: "SIM",
				Numeric:    "310260",
			},
			Subscription: sim.Subscription{
				MDN:        "5550100",
				HomeSIDs:   []int{4},
				HomeNIDs:   []int{65535},
				MIN:        "5550100000",
				PRLVersion: "1",
			},
			Signal: sim.Signal{
				GsmRssi:  99,
				GsmBer:   -1,
				CdmaDbm:  75,
				CdmaEcio: 90,
				EvdoDbm:  80,
				EvdoEcio: 50,
				EvdoSnr:  6,
				LteRssi:  99,
			},
		},
	}
}

// RoamingBaseline returns the standard code table in RUIM mode with the
// built-in ERI table.
func RoamingBaseline() RoamingConfig {
	def := servicestate.DefaultCodeTable()
	codes := make(map[int]string, len(def.States))
	for code, st := range def.States {
		codes[code] = st.String()
	}
	roaming := make([]int, 0, len(def.Roaming))
	for code, r := range def.Roaming {
		if r {
			roaming = append(roaming, code)
		}
	}
	sort.Ints(roaming)
	return RoamingConfig{
		Source:        "ruim",
		Indicators:    servicestate.DefaultIndicatorTable(),
		Codes:         codes,
		RoamingCodes:  roaming,
		SearchingText: servicestate.SearchingText,
	}
}

// Policy builds the roaming policy.
func (r RoamingConfig) Policy() (servicestate.RoamingPolicy, error) {
	src, err := servicestate.ParseSubscriptionSource(r.Source)
	if err != nil {
		return servicestate.RoamingPolicy{}, err
	}
	codes, err := r.codeTable()
	if err != nil {
		return servicestate.RoamingPolicy{}, err
	}
	return servicestate.RoamingPolicy{
		Source:            src,
		HomeIndicators:    append([]string(nil), r.HomeIndicators...),
		HomeOperatorNames: append([]string(nil), r.HomeOperatorNames...),
		Indicators:        r.Indicators,
		Codes:             codes,
	}, nil
}

func (r RoamingConfig) codeTable() (servicestate.CodeTable, error) {
	t := servicestate.CodeTable{
		States:  make(map[int]servicestate.RegState, len(r.Codes)),
		Roaming: make(map[int]bool, len(r.RoamingCodes)),
	}
	for code, name := range r.Codes {
		var st servicestate.RegState
		if err := st.UnmarshalText([]byte(name)); err != nil {
			return servicestate.CodeTable{}, fmt.Errorf("code %d: %w", code, err)
		}
		t.States[code] = st
	}
	for _, code := range r.RoamingCodes {
		t.Roaming[code] = true
	}
	return t, nil
}

// EriTable returns the configured ERI table, or the built-in one.
func (r RoamingConfig) EriTable() servicestate.EriTable {
	t := servicestate.DefaultEriTable()
	if len(r.Eri) > 0 {
		t.Entries = make(map[int]servicestate.EriEntry, len(r.Eri))
		for ind, e := range r.Eri {
			t.Entries[ind] = e
		}
	}
	if r.SearchingText != "" {
		t.SearchingText = r.SearchingText
	}
	return t
}

// Sim converts the section into simulated modem settings.
func (m ModemConfig) Sim() (sim.Config, error) {
	radio, err := radiolink.ParseState(m.Radio)
	if err != nil {
		return sim.Config{}, err
	}
	return sim.Config{
		Latency:      m.Latency,
		QueueSize:    m.QueueSize,
		Family:       m.Family,
		Radio:        radio,
		Registration: m.Registration,
		Operator:     m.Operator,
		Subscription: m.Subscription,
		Signal:       m.Signal,
	}, nil
}
