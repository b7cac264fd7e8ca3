//
//
package servicestate

import (
	"fmt"
	"strings"
)

// SubscriptionSource says where the subscription (home SIDs, operator name)
// comes from.
type SubscriptionSource int

const (
	// SourceRUIM reads subscription data from the removable identity module.
	SourceRUIM SubscriptionSource = iota
	// SourceNV reads subscription data from the modem's non-volatile memory.
	SourceNV
)

func (s SubscriptionSource) String() string {
	switch s {
	case SourceRUIM:
		return "ruim"
	case SourceNV:
		return "nv"
	default:
		return fmt.Sprintf("SubscriptionSource(%d)", int(s))
	}
}

// ParseSubscriptionSource accepts "ruim" or "nv".
func ParseSubscriptionSource(s string) (SubscriptionSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ruim", "sim":
		return SourceRUIM, nil
	case "nv":
		return SourceNV, nil
	}
	return SourceRUIM, fmt.Errorf("unknown subscription source %q", s)
}

// IndicatorTable holds the carrier's roaming indicator constants.
type IndicatorTable struct {
	On           int `yaml:"on" json:"on"`
	Off          int `yaml:"off" json:"off"`
	Flash        int `yaml:"flash" json:"flash"`
	OffThreshold int `yaml:"offThreshold" json:"offThreshold"`
}

// DefaultIndicatorTable returns the standard ERI constants.
func DefaultIndicatorTable() IndicatorTable {
	return IndicatorTable{On: 0, Off: 1, Flash: 2, OffThreshold: 2}
}

// RoamingInputs are the facts the roaming indicator is derived from.
type RoamingInputs struct {
	RegistrationRoaming     bool
	NamMatch                bool
	HomeSystemsKnown        bool
	PRLLoaded               bool
	InPRL                   bool
	RoamingIndicator        int
	DefaultRoamingIndicator int
}

// Resolve derives the displayed roaming indicator.
//
// Without a loaded PRL the indicator flashes. Without known home systems the
// reported indicator is kept. Otherwise the NAM match and PRL membership
// pick between the default, Flash, the reported value, and Off.
func (t IndicatorTable) Resolve(in RoamingInputs) int {
	if !in.PRLLoaded {
		return t.Flash
	}
	if !in.HomeSystemsKnown {
		return in.RoamingIndicator
	}

	switch {
	case !in.NamMatch && !in.InPRL:
		return in.DefaultRoamingIndicator
	case in.NamMatch && !in.InPRL:
		return t.Flash
	case !in.NamMatch && in.InPRL:
		return in.RoamingIndicator
	default:
		if in.RoamingIndicator <= t.OffThreshold {
			return t.Off
		}
		return in.RoamingIndicator
	}
}

// ResolveRoamingIndicator applies the default indicator table.
func ResolveRoamingIndicator(in RoamingInputs) int {
	return DefaultIndicatorTable().Resolve(in)
}

// RoamingPolicy is the carrier-specific roaming configuration.
type RoamingPolicy struct {
	Source SubscriptionSource
	// HomeIndicators are reported roaming indicators that still mean home
	// system, compared as raw reply strings.
	HomeIndicators []string
	// HomeOperatorNames are operator names treated as home in addition to
	// the SIM operator name.
	HomeOperatorNames []string
	Indicators        IndicatorTable
	Codes             CodeTable
}

// DefaultRoamingPolicy returns a RUIM policy with the standard tables.
func DefaultRoamingPolicy() RoamingPolicy {
	return RoamingPolicy{
		Source:     SourceRUIM,
		Indicators: DefaultIndicatorTable(),
		Codes:      DefaultCodeTable(),
	}
}

// IsHomeIndicator reports whether a raw roaming indicator is listed as home.
func (p RoamingPolicy) IsHomeIndicator(raw string) bool {
	for _, h := range p.HomeIndicators {
		if h == raw {
			return true
		}
	}
	return false
}

// BetweenOperators refines raw registration roaming using operator names:
// a roaming registration on a network whose name matches the SIM operator
// (or a configured home name) is not roaming.
func (p RoamingPolicy) BetweenOperators(raw bool, op Operator, simOperatorAlpha string) bool {
	if !raw {
		return false
	}
	names := append([]string{simOperatorAlpha}, p.HomeOperatorNames...)
	for _, n := range names {
		if n == "" {
			continue
		}
		if op.AlphaLong == n || op.AlphaShort == n {
			return false
		}
	}
	return true
}

// CodeTable maps registration codes to states. Codes not in the table are
// out of service.
type CodeTable struct {
	States  map[int]RegState
	Roaming map[int]bool
}

// DefaultCodeTable maps 1 and 5 to in service (5 roaming) and 0, 2, 3, 4 to
// out of service.
func DefaultCodeTable() CodeTable {
	return CodeTable{
		States: map[int]RegState{
			0: OutOfService,
			1: InService,
			2: OutOfService,
			3: OutOfService,
			4: OutOfService,
			5: InService,
		},
		Roaming: map[int]bool{5: true},
	}
}

// Lookup returns the state for code and whether the code is known.
func (t CodeTable) Lookup(code int) (RegState, bool) {
	s, ok := t.States[code]
	if !ok {
		return OutOfService, false
	}
	return s, true
}

// IsRoaming reports whether code means registered on a roaming system.
func (t CodeTable) IsRoaming(code int) bool {
	return t.Roaming[code]
}
