//
//
package servicestate

import (
	"fmt"
	"math"
)

// RegState is the registration state exposed to consumers.
type RegState int

const (
	OutOfService RegState = iota
	InService
	Denied
	Searching
)

func (s RegState) String() string {
	switch s {
	case OutOfService:
		return "OUT_OF_SERVICE"
	case InService:
		return "IN_SERVICE"
	case Denied:
		return "DENIED"
	case Searching:
		return "SEARCHING"
	default:
		return fmt.Sprintf("RegState(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s RegState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *RegState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "OUT_OF_SERVICE":
		*s = OutOfService
	case "IN_SERVICE":
		*s = InService
	case "DENIED":
		*s = Denied
	case "SEARCHING":
		*s = Searching
	default:
		return fmt.Errorf("unknown registration state %q", string(b))
	}
	return nil
}

// InvalidCoordinate marks an unknown base station latitude or longitude.
const InvalidCoordinate = math.MaxInt32

// CellLocation identifies the serving base station.
type CellLocation struct {
	BaseStationID int `json:"baseStationId"`
	Latitude      int `json:"latitude"`
	Longitude     int `json:"longitude"`
	SystemID      int `json:"systemId"`
	NetworkID     int `json:"networkId"`
}

// UnknownLocation is the location before any registration reply.
func UnknownLocation() CellLocation {
	return CellLocation{
		BaseStationID: -1,
		Latitude:      InvalidCoordinate,
		Longitude:     InvalidCoordinate,
		SystemID:      -1,
		NetworkID:     -1,
	}
}

// HasCoordinates reports whether the base station position is known.
func (c CellLocation) HasCoordinates() bool {
	return c.Latitude != InvalidCoordinate && c.Longitude != InvalidCoordinate
}

// Operator holds the network operator names. Empty means not reported.
type Operator struct {
	AlphaLong  string `json:"alphaLong"`
	AlphaShort string `json:"alphaShort"`
	Numeric    string `json:"numeric"`
}

// Snapshot is one complete, internally consistent service state.
type Snapshot struct {
	State                   RegState     `json:"state"`
	RadioTechnology         int          `json:"radioTechnology"`
	Operator                Operator     `json:"operator"`
	Roaming                 bool         `json:"roaming"`
	CSSIndicator            bool         `json:"cssIndicator"`
	SystemID                int          `json:"systemId"`
	NetworkID               int          `json:"networkId"`
	RoamingIndicator        int          `json:"roamingIndicator"`
	DefaultRoamingIndicator int          `json:"defaultRoamingIndicator"`
	InPRL                   bool         `json:"inPrl"`
	EriIconIndex            int          `json:"eriIconIndex"`
	EriIconMode             int          `json:"eriIconMode"`
	EriText                 string       `json:"eriText,omitempty"`
	DenialReason            string       `json:"denialReason,omitempty"`
	Location                CellLocation `json:"location"`
}

// OutOfServiceSnapshot is the clean-slate state used for fresh rounds and
// whenever the radio is off or unavailable.
func OutOfServiceSnapshot() Snapshot {
	return Snapshot{
		State:                   OutOfService,
		SystemID:                -1,
		NetworkID:               -1,
		RoamingIndicator:        -1,
		DefaultRoamingIndicator: -1,
		EriIconIndex:            -1,
		EriIconMode:             -1,
		Location:                UnknownLocation(),
	}
}

// Equal compares every field except Location, which is tracked separately.
func (s Snapshot) Equal(o Snapshot) bool {
	s.Location = CellLocation{}
	o.Location = CellLocation{}
	return s == o
}
