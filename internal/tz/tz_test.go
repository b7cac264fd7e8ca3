package tz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	winter = time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)
	summer = time.Date(2024, time.July, 15, 12, 0, 0, 0, time.UTC)
)

func TestCountryForMCC(t *testing.T) {
	tests := []struct {
		mcc  int
		want string
	}{
		{310, "us"},
		{316, "us"},
		{234, "gb"},
		{262, "de"},
		{440, "jp"},
		{505, "au"},
		{999, ""},
	}
	for _, tt := range tests {
		if got := CountryForMCC(tt.mcc); got != tt.want {
			t.Errorf("CountryForMCC(%d) = %q, want %q", tt.mcc, got, tt.want)
		}
	}
}

func TestCountryForNumeric(t *testing.T) {
	iso, err := CountryForNumeric("310260")
	require.NoError(t, err)
	assert.Equal(t, "us", iso)

	_, err = CountryForNumeric("31")
	assert.Error(t, err)

	_, err = CountryForNumeric("ab1234")
	assert.Error(t, err)
}

func TestZoneForCountry(t *testing.T) {
	tests := []struct {
		name   string
		iso    string
		offset time.Duration
		dst    bool
		when   time.Time
		want   string
		found  bool
	}{
		{"us eastern winter", "us", -5 * time.Hour, false, winter, "America/New_York", true},
		{"us pacific summer", "us", -7 * time.Hour, true, summer, "America/Los_Angeles", true},
		{"us arizona summer", "us", -7 * time.Hour, false, summer, "America/Phoenix", true},
		{"gb summer", "GB", time.Hour, true, summer, "Europe/London", true},
		{"jp", "jp", 9 * time.Hour, false, winter, "Asia/Tokyo", true},
		{"india half hour", "in", 5*time.Hour + 30*time.Minute, false, winter, "Asia/Kolkata", true},
		{"wrong dst", "jp", 9 * time.Hour, true, winter, "", false},
		{"unknown country", "xx", 0, false, winter, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ZoneForCountry(tt.iso, tt.offset, tt.dst, tt.when)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindZoneMatchesOffset(t *testing.T) {
	id, ok := FindZone(0, false, winter)
	require.True(t, ok)
	assert.True(t, Matches(id, 0, false, winter), "%s should be UTC+0 without DST in winter", id)

	id, ok = FindZone(9*time.Hour, false, winter)
	require.True(t, ok)
	off, err := Offset(id, winter)
	require.NoError(t, err)
	assert.Equal(t, 9*time.Hour, off)
}

func TestNetworkZoneRetriesOppositeDST(t *testing.T) {
	// No zone is UTC+9 with DST; the retry finds a standard-time match.
	_, ok := FindZone(9*time.Hour, true, winter)
	require.False(t, ok)

	id, ok := NetworkZone(9*time.Hour, true, winter)
	require.True(t, ok)
	assert.True(t, Matches(id, 9*time.Hour, false, winter))
}

func TestNetworkZoneNoMatch(t *testing.T) {
	_, ok := NetworkZone(13*time.Hour+7*time.Minute, false, winter)
	assert.False(t, ok)
}

func TestUsesGMT(t *testing.T) {
	assert.True(t, UsesGMT("pt"))
	assert.True(t, UsesGMT("GB"))
	assert.False(t, UsesGMT("us"))
}

func TestLoadCaches(t *testing.T) {
	a, err := Load("Europe/Paris")
	require.NoError(t, err)
	b, err := Load("Europe/Paris")
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = Load("Not/AZone")
	assert.Error(t, err)
}

func TestCountryZonesAreLoadable(t *testing.T) {
	for iso, zones := range countryZones {
		for _, z := range zones {
			if _, err := Load(z); err != nil {
				t.Errorf("country %s zone %s: %v", iso, z, err)
			}
		}
	}
}

func TestEveryMCCCountryHasZones(t *testing.T) {
	for _, mcc := range MCCs() {
		iso := CountryForMCC(mcc)
		assert.True(t, HasCountry(iso), "MCC %d country %s has no zones", mcc, iso)
	}
}

func TestNetworkZoneFractionalOffsets(t *testing.T) {
	tests := []struct {
		name   string
		offset time.Duration
		want   string
	}{
		{"nepal", 5*time.Hour + 45*time.Minute, "Asia/Kathmandu"},
		{"afghanistan", 4*time.Hour + 30*time.Minute, "Asia/Kabul"},
		{"iran", 3*time.Hour + 30*time.Minute, "Asia/Tehran"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := NetworkZone(tt.offset, false, winter)
			require.True(t, ok)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestZoneForCountryCoversSmallCountries(t *testing.T) {
	id, ok := ZoneForCountry("hr", time.Hour, false, winter)
	require.True(t, ok)
	assert.Equal(t, "Europe/Zagreb", id)

	id, ok = ZoneForCountry("np", 5*time.Hour+45*time.Minute, false, summer)
	require.True(t, ok)
	assert.Equal(t, "Asia/Kathmandu", id)
}

func TestCountriesSorted(t *testing.T) {
	isos := Countries()
	require.NotEmpty(t, isos)
	assert.IsIncreasing(t, isos)
	assert.False(t, HasCountry("zz"))
}
