//
//
package servicestate

import (
	"fmt"
	"strconv"
	"strings"
)

// Subscription is the device's CDMA subscription identity.
type Subscription struct {
	MDN        string `json:"mdn"`
	HomeSIDs   []int  `json:"homeSids"`
	HomeNIDs   []int  `json:"homeNids"`
	MIN        string `json:"min"`
	PRLVersion string `json:"prlVersion"`
}

// ParseSubscription parses a subscription reply: MDN, comma separated home
// SIDs, comma separated home NIDs, MIN and an optional PRL version.
func ParseSubscription(fields []string) (Subscription, error) {
	if len(fields) < 4 {
		return Subscription{}, fmt.Errorf("subscription reply has %d fields, want at least 4: %w",
			len(fields), ErrMalformedReply)
	}

	sids, err := parseIDList(fields[1])
	if err != nil {
		return Subscription{}, fmt.Errorf("home SIDs: %w", err)
	}
	nids, err := parseIDList(fields[2])
	if err != nil {
		return Subscription{}, fmt.Errorf("home NIDs: %w", err)
	}

	sub := Subscription{
		MDN:      fields[0],
		HomeSIDs: sids,
		HomeNIDs: nids,
		MIN:      fields[3],
	}
	if len(fields) > 4 {
		sub.PRLVersion = fields[4]
	}
	return sub, nil
}

func parseIDList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", part, ErrMalformedReply)
		}
		out = append(out, v)
	}
	return out, nil
}

// SIDsAllZero reports whether no usable home SID is provisioned.
func (s Subscription) SIDsAllZero() bool {
	for _, sid := range s.HomeSIDs {
		if sid != 0 {
			return false
		}
	}
	return true
}

// IsHomeSID reports whether sid is one of the home SIDs.
func (s Subscription) IsHomeSID(sid int) bool {
	for _, h := range s.HomeSIDs {
		if h == sid {
			return true
		}
	}
	return false
}

// PRLLoaded reports whether a roaming list version is known.
func (s Subscription) PRLLoaded() bool {
	return s.PRLVersion != ""
}
