//
//
package clocksync

import (
	"sync"
	"time"

	"github.com/radio-control/cellstate/internal/tz"
)

// Clock supplies wall-clock time and a monotonic tick that never jumps when
// the wall clock is set.
type Clock interface {
	Now() time.Time
	Elapsed() time.Duration
}

// SystemSetter applies committed time and zone to the host.
type SystemSetter interface {
	SetTime(t time.Time) error
	SetTimeZone(zoneID string) error
}

// SystemClock reads the process clock. Elapsed is measured from construction
// using Go's monotonic reading.
type SystemClock struct {
	start time.Time
}

// NewSystemClock returns a clock whose Elapsed starts at zero now.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) Now() time.Time {
	return time.Now()
}

func (c *SystemClock) Elapsed() time.Duration {
	return time.Since(c.start)
}

// VirtualClock is a device clock layered over a base clock. SetTime moves
// its wall time without touching the host, and the monotonic tick comes
// straight from the base.
type VirtualClock struct {
	base Clock

	mu     sync.RWMutex
	offset time.Duration
	zone   string
}

// NewVirtualClock returns a clock reading base until SetTime is called.
func NewVirtualClock(base Clock, zoneID string) *VirtualClock {
	return &VirtualClock{base: base, zone: zoneID}
}

func (c *VirtualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.base.Now().Add(c.offset)
}

func (c *VirtualClock) Elapsed() time.Duration {
	return c.base.Elapsed()
}

func (c *VirtualClock) SetTime(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = t.Sub(c.base.Now())
	return nil
}

func (c *VirtualClock) SetTimeZone(zoneID string) error {
	if _, err := tz.Load(zoneID); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zone = zoneID
	return nil
}

// Zone returns the configured zone id.
func (c *VirtualClock) Zone() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.zone
}

// Local returns Now in the configured zone, or UTC if none is set.
func (c *VirtualClock) Local() time.Time {
	now := c.Now()
	if zone := c.Zone(); zone != "" {
		if loc, err := tz.Load(zone); err == nil {
			return now.In(loc)
		}
	}
	return now.UTC()
}
