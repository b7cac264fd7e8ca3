//
//
package clocksync

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedSignal is returned for network time strings that cannot be parsed.
var ErrMalformedSignal = errors.New("malformed network time signal")

// Sample is one parsed network time signal.
type Sample struct {
	Raw        string
	ReceivedAt time.Duration

	Year, Month, Day     int
	Hour, Minute, Second int

	// Offset is the local offset from UTC, DST already applied.
	Offset   time.Duration
	DST      bool
	ZoneName string

	// UTC is the signalled instant.
	UTC time.Time
}

// ParseNITZ parses "yy/mm/dd,hh:mm:ss(+|-)tz[,dst[,Area!Location]]" where tz
// counts quarter hours. The date and time are UTC.
func ParseNITZ(raw string, receivedAt time.Duration) (Sample, error) {
	s := Sample{Raw: raw, ReceivedAt: receivedAt}

	parts := strings.SplitN(strings.TrimSpace(raw), ",", 4)
	if len(parts) < 2 {
		return s, fmt.Errorf("%q: missing time: %w", raw, ErrMalformedSignal)
	}

	date := strings.Split(parts[0], "/")
	if len(date) != 3 {
		return s, fmt.Errorf("%q: bad date: %w", raw, ErrMalformedSignal)
	}

	timeAndZone := parts[1]
	signAt := strings.IndexAny(timeAndZone, "+-")
	if signAt < 0 {
		return s, fmt.Errorf("%q: missing zone offset: %w", raw, ErrMalformedSignal)
	}
	clock := strings.Split(timeAndZone[:signAt], ":")
	if len(clock) != 3 {
		return s, fmt.Errorf("%q: bad time: %w", raw, ErrMalformedSignal)
	}

	nums := make([]int, 0, 7)
	for _, field := range append(date, clock...) {
		v, err := unsigned(field)
		if err != nil {
			return s, fmt.Errorf("%q: %w", raw, ErrMalformedSignal)
		}
		nums = append(nums, v)
	}
	quarters, err := unsigned(timeAndZone[signAt+1:])
	if err != nil {
		return s, fmt.Errorf("%q: bad zone offset: %w", raw, ErrMalformedSignal)
	}
	if timeAndZone[signAt] == '-' {
		quarters = -quarters
	}

	s.Year = 2000 + nums[0]
	s.Month, s.Day = nums[1], nums[2]
	s.Hour, s.Minute, s.Second = nums[3], nums[4], nums[5]
	s.Offset = time.Duration(quarters) * 15 * time.Minute

	if s.Month < 1 || s.Month > 12 || s.Day < 1 || s.Day > daysIn(s.Year, s.Month) ||
		s.Hour > 23 || s.Minute > 59 || s.Second > 59 {
		return s, fmt.Errorf("%q: field out of range: %w", raw, ErrMalformedSignal)
	}

	if len(parts) >= 3 {
		dst, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return s, fmt.Errorf("%q: bad dst flag: %w", raw, ErrMalformedSignal)
		}
		s.DST = dst != 0
	}
	if len(parts) == 4 {
		s.ZoneName = strings.ReplaceAll(strings.TrimSpace(parts[3]), "!", "/")
	}

	s.UTC = time.Date(s.Year, time.Month(s.Month), s.Day, s.Hour, s.Minute, s.Second, 0, time.UTC)
	return s, nil
}

// unsigned parses a run of decimal digits. Signs are not accepted.
func unsigned(field string) (int, error) {
	if field == "" {
		return 0, strconv.ErrSyntax
	}
	for _, c := range field {
		if c < '0' || c > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(field)
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// String renders the sample back in signal format.
func (s Sample) String() string {
	sign := '+'
	q := int(s.Offset / (15 * time.Minute))
	if q < 0 {
		sign = '-'
		q = -q
	}
	out := fmt.Sprintf("%02d/%02d/%02d,%02d:%02d:%02d%c%d",
		s.Year-2000, s.Month, s.Day, s.Hour, s.Minute, s.Second, sign, q)
	if s.DST || s.ZoneName != "" {
		dst := 0
		if s.DST {
			dst = 1
		}
		out += fmt.Sprintf(",%d", dst)
	}
	if s.ZoneName != "" {
		out += "," + strings.ReplaceAll(s.ZoneName, "/", "!")
	}
	return out
}
