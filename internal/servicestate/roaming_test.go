package servicestate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRoamingIndicatorTable(t *testing.T) {
	tbl := DefaultIndicatorTable()

	for _, prlLoaded := range []bool{false, true} {
		for _, namMatch := range []bool{false, true} {
			for _, inPRL := range []bool{false, true} {
				for reported := -1; reported <= 12; reported++ {
					for _, def := range []int{0, 1, 7} {
						in := RoamingInputs{
							NamMatch:                namMatch,
							HomeSystemsKnown:        true,
							PRLLoaded:               prlLoaded,
							InPRL:                   inPRL,
							RoamingIndicator:        reported,
							DefaultRoamingIndicator: def,
						}

						var want int
						switch {
						case !prlLoaded:
							want = tbl.Flash
						case !namMatch && !inPRL:
							want = def
						case namMatch && !inPRL:
							want = tbl.Flash
						case !namMatch && inPRL:
							want = reported
						case reported <= 2:
							want = tbl.Off
						default:
							want = reported
						}

						if got := ResolveRoamingIndicator(in); got != want {
							t.Errorf("Resolve(%+v) = %d, want %d", in, got, want)
						}
					}
				}
			}
		}
	}
}

func TestResolveRoamingIndicatorThresholdExample(t *testing.T) {
	got := ResolveRoamingIndicator(RoamingInputs{
		RegistrationRoaming: true,
		NamMatch:            true,
		HomeSystemsKnown:    true,
		PRLLoaded:           true,
		InPRL:               true,
		RoamingIndicator:    1,
	})
	assert.Equal(t, DefaultIndicatorTable().Off, got)
}

func TestResolveKeepsReportedWithoutHomeSystems(t *testing.T) {
	got := ResolveRoamingIndicator(RoamingInputs{
		PRLLoaded:               true,
		RoamingIndicator:        5,
		DefaultRoamingIndicator: 9,
	})
	assert.Equal(t, 5, got)

	got = ResolveRoamingIndicator(RoamingInputs{RoamingIndicator: 5})
	assert.Equal(t, 2, got, "an unloaded PRL flashes even without home systems")
}

func TestCustomIndicatorTable(t *testing.T) {
	tbl := IndicatorTable{On: 10, Off: 11, Flash: 12, OffThreshold: 4}
	in := RoamingInputs{NamMatch: true, HomeSystemsKnown: true, PRLLoaded: true, InPRL: true, RoamingIndicator: 4}
	assert.Equal(t, 11, tbl.Resolve(in))

	in.RoamingIndicator = 5
	assert.Equal(t, 5, tbl.Resolve(in))

	in.InPRL = false
	assert.Equal(t, 12, tbl.Resolve(in))
}

func TestBetweenOperators(t *testing.T) {
	p := RoamingPolicy{HomeOperatorNames: []string{"Partner"}}
	op := Operator{AlphaLong: "Home Wireless", AlphaShort: "HW", Numeric: "310004"}

	assert.False(t, p.BetweenOperators(false, op, "Other"))
	assert.False(t, p.BetweenOperators(true, op, "Home Wireless"))
	assert.False(t, p.BetweenOperators(true, op, "HW"))
	assert.True(t, p.BetweenOperators(true, op, "Other"))
	assert.False(t, p.BetweenOperators(true, Operator{AlphaShort: "Partner"}, "Other"))
	assert.True(t, p.BetweenOperators(true, Operator{}, ""), "empty names never match")
}

func TestCodeTable(t *testing.T) {
	tbl := DefaultCodeTable()
	tests := []struct {
		code    int
		state   RegState
		known   bool
		roaming bool
	}{
		{0, OutOfService, true, false},
		{1, InService, true, false},
		{2, OutOfService, true, false},
		{3, OutOfService, true, false},
		{4, OutOfService, true, false},
		{5, InService, true, true},
		{10, OutOfService, false, false},
		{-3, OutOfService, false, false},
	}
	for _, tt := range tests {
		s, ok := tbl.Lookup(tt.code)
		assert.Equal(t, tt.state, s, "code %d", tt.code)
		assert.Equal(t, tt.known, ok, "code %d", tt.code)
		assert.Equal(t, tt.roaming, tbl.IsRoaming(tt.code), "code %d", tt.code)
	}
}

func TestParseSubscriptionSource(t *testing.T) {
	s, err := ParseSubscriptionSource("NV")
	assert.NoError(t, err)
	assert.Equal(t, SourceNV, s)

	s, err = ParseSubscriptionSource("ruim")
	assert.NoError(t, err)
	assert.Equal(t, SourceRUIM, s)

	_, err = ParseSubscriptionSource("flash")
	assert.Error(t, err)
}
