// Package tz resolves time zones from country codes and UTC offsets, and
// countries from mobile country codes. All lookups are pure functions over
// embedded tables and the Go time zone database.
package tz

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"
)

var (
	locations sync.Map // zone ID -> *time.Location

	allZonesOnce sync.Once
	allZones     []string
)

// Load returns the location for a zone ID, caching successful loads.
func Load(zoneID string) (*time.Location, error) {
	if v, ok := locations.Load(zoneID); ok {
		return v.(*time.Location), nil
	}
	loc, err := time.LoadLocation(zoneID)
	if err != nil {
		return nil, fmt.Errorf("failed to load zone %q: %w", zoneID, err)
	}
	locations.Store(zoneID, loc)
	return loc, nil
}

// CountryForMCC returns the ISO country for a mobile country code, or "".
func CountryForMCC(mcc int) string {
	return mccCountries[mcc]
}

// CountryForNumeric returns the ISO country for an operator numeric
// (MCC followed by MNC).
func CountryForNumeric(numeric string) (string, error) {
	if len(numeric) < 3 {
		return "", fmt.Errorf("operator numeric %q too short for MCC", numeric)
	}
	mcc, err := strconv.Atoi(numeric[:3])
	if err != nil {
		return "", fmt.Errorf("operator numeric %q has no MCC: %w", numeric, err)
	}
	return CountryForMCC(mcc), nil
}

// ZonesForCountry returns the known zones for an ISO country.
func ZonesForCountry(iso string) []string {
	return countryZones[strings.ToLower(iso)]
}

// HasCountry reports whether iso has an entry in the zone table.
func HasCountry(iso string) bool {
	return len(ZonesForCountry(iso)) > 0
}

// Countries returns every ISO country with zones, sorted.
func Countries() []string {
	out := make([]string, 0, len(countryZones))
	for iso := range countryZones {
		out = append(out, iso)
	}
	sort.Strings(out)
	return out
}

// MCCs returns every mobile country code in the table, sorted.
func MCCs() []int {
	out := make([]int, 0, len(mccCountries))
	for mcc := range mccCountries {
		out = append(out, mcc)
	}
	sort.Ints(out)
	return out
}

// UsesGMT reports whether the country keeps GMT as standard time.
func UsesGMT(iso string) bool {
	return gmtCountries[strings.ToLower(iso)]
}

// Matches reports whether zoneID has the given total UTC offset and DST
// state at instant when.
func Matches(zoneID string, offset time.Duration, dst bool, when time.Time) bool {
	loc, err := Load(zoneID)
	if err != nil {
		return false
	}
	t := when.In(loc)
	_, secs := t.Zone()
	return time.Duration(secs)*time.Second == offset && t.IsDST() == dst
}

// ZoneForCountry picks the first zone of iso matching offset and dst at when.
func ZoneForCountry(iso string, offset time.Duration, dst bool, when time.Time) (string, bool) {
	for _, id := range ZonesForCountry(iso) {
		if Matches(id, offset, dst, when) {
			return id, true
		}
	}
	return "", false
}

// FindZone searches every known zone for one matching offset and dst at when.
// The result is best-effort: several zones usually match.
func FindZone(offset time.Duration, dst bool, when time.Time) (string, bool) {
	for _, id := range knownZones() {
		if Matches(id, offset, dst, when) {
			return id, true
		}
	}
	return "", false
}

// NetworkZone is FindZone retried with the opposite DST flag, for network
// time signals whose DST field is unreliable.
func NetworkZone(offset time.Duration, dst bool, when time.Time) (string, bool) {
	if id, ok := FindZone(offset, dst, when); ok {
		return id, true
	}
	return FindZone(offset, !dst, when)
}

// Offset returns the total UTC offset of zoneID at when.
func Offset(zoneID string, when time.Time) (time.Duration, error) {
	loc, err := Load(zoneID)
	if err != nil {
		return 0, err
	}
	_, secs := when.In(loc).Zone()
	return time.Duration(secs) * time.Second, nil
}

// knownZones is every zone of every country, sorted.
func knownZones() []string {
	allZonesOnce.Do(func() {
		seen := make(map[string]bool)
		for _, zones := range countryZones {
			for _, z := range zones {
				if !seen[z] {
					seen[z] = true
					allZones = append(allZones, z)
				}
			}
		}
		sort.Strings(allZones)
	})
	return allZones
}
