//
//
package clocksync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/radio-control/cellstate/internal/props"
	"github.com/radio-control/cellstate/internal/tz"
)

// ErrImplausibleDelay is returned when a signal's receive delay is negative
// or too large to trust.
var ErrImplausibleDelay = errors.New("implausible network time receive delay")

// ErrSetTime wraps a failure of the system setter.
var ErrSetTime = errors.New("failed to set system time")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("clock sync engine closed")

// Defaults for Config.
const (
	DefaultUpdateSpacing   = 10 * time.Minute
	DefaultUpdateDiff      = 2 * time.Second
	DefaultMaxReceiveDelay = time.Duration(math.MaxInt32) * time.Millisecond
)

// Config holds the commit gating thresholds.
type Config struct {
	// UpdateSpacing is how long after a commit any sample is accepted again.
	UpdateSpacing time.Duration
	// UpdateDiff is how far the clock must be off for an early commit.
	UpdateDiff time.Duration
	// MaxReceiveDelay bounds the transit correction.
	MaxReceiveDelay time.Duration
	// IgnoreNetworkTime disables clock setting; zones are still resolved.
	IgnoreNetworkTime bool
	AutoTime          bool
	AutoTimeZone      bool
}

// DefaultConfig returns the standard thresholds with automatic time and zone on.
func DefaultConfig() Config {
	return Config{
		UpdateSpacing:   DefaultUpdateSpacing,
		UpdateDiff:      DefaultUpdateDiff,
		MaxReceiveDelay: DefaultMaxReceiveDelay,
		AutoTime:        true,
		AutoTimeZone:    true,
	}
}

// Emitter is told about committed clock and zone changes.
type Emitter interface {
	ClockChanged(t time.Time)
	TimeZoneChanged(zoneID string)
}

// Outcome says what happened to a network time signal.
type Outcome int

const (
	OutcomeCommitted Outcome = iota
	OutcomeRecorded
	OutcomeRedundant
	OutcomeIgnored
	OutcomeRejected
	OutcomeMalformed
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeRecorded:
		return "recorded"
	case OutcomeRedundant:
		return "redundant"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeRejected:
		return "rejected"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Ledger remembers the last network time and zone so they can be
// re-applied later.
type Ledger struct {
	ZoneID string        `json:"zoneId,omitempty"`
	Time   time.Time     `json:"time"`
	At     time.Duration `json:"at"`
	// Committed is false until the first sample has been recorded.
	Committed bool `json:"committed"`
}

// deferredZone holds zone hints from a signal that arrived before the
// operator country was known.
type deferredZone struct {
	offset time.Duration
	dst    bool
	when   time.Time
}

// Options wires an Engine.
type Options struct {
	Config  Config
	Clock   Clock
	Setter  SystemSetter
	Props   props.Store
	Emitter Emitter
	Logger  *slog.Logger
}

// Engine turns network time signals into clock and zone commits. It is not
// safe for concurrent use; the tracker loop is its only caller.
type Engine struct {
	cfg     Config
	clock   Clock
	setter  SystemSetter
	props   props.Store
	emitter Emitter
	logger  *slog.Logger

	// wake is held for the commit section only.
	wake *semaphore.Weighted

	ledger Ledger

	countryKnown bool
	country      string
	needFixZone  *deferredZone

	closed bool
}

// NewEngine creates an engine. Zero thresholds in cfg take their defaults.
func NewEngine(opts Options) *Engine {
	cfg := opts.Config
	if cfg.UpdateSpacing <= 0 {
		cfg.UpdateSpacing = DefaultUpdateSpacing
	}
	if cfg.UpdateDiff <= 0 {
		cfg.UpdateDiff = DefaultUpdateDiff
	}
	if cfg.MaxReceiveDelay <= 0 {
		cfg.MaxReceiveDelay = DefaultMaxReceiveDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = NewSystemClock()
	}
	store := opts.Props
	if store == nil {
		store = &props.MemStore{}
	}

	return &Engine{
		cfg:     cfg,
		clock:   clock,
		setter:  opts.Setter,
		props:   store,
		emitter: opts.Emitter,
		logger:  logger.With("component", "clocksync"),
		wake:    semaphore.NewWeighted(1),
	}
}

// OnNetworkTimeSignal handles one raw signal received at the monotonic tick
// receivedAt. Malformed and implausible signals are logged and dropped
// before they touch the zone or the clock.
func (e *Engine) OnNetworkTimeSignal(raw string, receivedAt time.Duration) (Outcome, error) {
	if e.closed {
		return OutcomeIgnored, ErrClosed
	}

	start := e.clock.Elapsed()
	e.logger.Info("network time received", "raw", raw, "received_at", receivedAt, "delay", start-receivedAt)

	sample, err := ParseNITZ(raw, receivedAt)
	if err != nil {
		e.logger.Error("failed to parse network time", "raw", raw, "error", err)
		return OutcomeMalformed, err
	}

	delay, err := e.receiveDelay(sample)
	if err != nil {
		return OutcomeRejected, err
	}

	e.resolveZone(sample)

	if e.cfg.IgnoreNetworkTime || props.Bool(e.props, props.IgnoreNetworkTime) {
		e.logger.Info("not setting clock, network time is ignored")
		return OutcomeIgnored, nil
	}

	return e.commitTime(sample, delay)
}

func (e *Engine) receiveDelay(s Sample) (time.Duration, error) {
	delay := e.clock.Elapsed() - s.ReceivedAt
	if delay < 0 {
		e.logger.Warn("not setting time, clock rolled backwards since signal was received",
			"raw", s.Raw, "delay", delay)
		return 0, fmt.Errorf("negative delay %v: %w", delay, ErrImplausibleDelay)
	}
	if delay > e.cfg.MaxReceiveDelay {
		e.logger.Warn("not setting time, signal processing took too long",
			"raw", s.Raw, "delay", delay)
		return 0, fmt.Errorf("delay %v exceeds %v: %w", delay, e.cfg.MaxReceiveDelay, ErrImplausibleDelay)
	}
	return delay, nil
}

func (e *Engine) resolveZone(s Sample) {
	zone := ""
	if s.ZoneName != "" {
		if _, err := tz.Load(s.ZoneName); err == nil {
			zone = s.ZoneName
		} else {
			e.logger.Warn("ignoring unknown embedded zone", "zone", s.ZoneName, "error", err)
		}
	}

	if zone == "" && e.countryKnown {
		zone, _ = zoneFor(e.country, s.Offset, s.DST, s.UTC)
	}

	if zone == "" {
		e.needFixZone = &deferredZone{offset: s.Offset, dst: s.DST, when: s.UTC}
		e.logger.Info("deferring zone resolution until country is known",
			"offset", s.Offset, "dst", s.DST)
		return
	}

	e.needFixZone = nil
	e.useZone(zone)
}

func (e *Engine) commitTime(s Sample, delay time.Duration) (Outcome, error) {
	if !e.wake.TryAcquire(1) {
		return OutcomeIgnored, ErrClosed
	}
	defer e.wake.Release(1)

	now := e.clock.Elapsed()
	t := s.UTC.Add(delay)
	outcome := OutcomeRecorded

	if e.cfg.AutoTime {
		gained := t.Sub(e.clock.Now())
		sinceLast := now - e.ledger.At

		if !e.ledger.Committed || sinceLast > e.cfg.UpdateSpacing || abs(gained) > e.cfg.UpdateDiff {
			e.logger.Info("auto updating time of day",
				"time", t, "delay", delay, "gained", gained)
			if err := e.applyTime(t); err != nil {
				return OutcomeFailed, err
			}
			outcome = OutcomeCommitted
		} else {
			e.logger.Info("ignoring network time, recent update",
				"since_last", sinceLast, "gained", gained)
			return OutcomeRedundant, nil
		}
	}

	e.setProp(props.NetworkTime, strconv.FormatInt(t.UnixMilli(), 10))
	e.ledger.Time = t
	e.ledger.At = e.clock.Elapsed()
	e.ledger.Committed = true
	return outcome, nil
}

// applyTime sets the system clock. On failure nothing is emitted and the
// caller must leave the ledger alone so the next signal retries.
func (e *Engine) applyTime(t time.Time) error {
	if e.setter != nil {
		if err := e.setter.SetTime(t); err != nil {
			e.logger.Error("failed to set system time", "error", err)
			return fmt.Errorf("%w: %w", ErrSetTime, err)
		}
	}
	if e.emitter != nil {
		e.emitter.ClockChanged(t)
	}
	return nil
}

func (e *Engine) useZone(zoneID string) {
	if e.cfg.AutoTimeZone {
		e.applyZone(zoneID)
	}
	e.ledger.ZoneID = zoneID
}

func (e *Engine) applyZone(zoneID string) {
	if e.setter != nil {
		if err := e.setter.SetTimeZone(zoneID); err != nil {
			e.logger.Error("failed to set time zone", "zone", zoneID, "error", err)
			return
		}
	}
	e.setProp(props.TimeZone, zoneID)
	if e.emitter != nil {
		e.emitter.TimeZoneChanged(zoneID)
	}
}

// CountryResolved records the operator country and completes a deferred
// zone resolution if one is waiting.
func (e *Engine) CountryResolved(iso string) {
	e.countryKnown = true
	e.country = iso
	if e.needFixZone != nil {
		e.FixZone(iso)
	}
}

// CountryLost forgets the operator country.
func (e *Engine) CountryLost() {
	e.countryKnown = false
	e.country = ""
}

// NeedsZoneFix reports whether a signal is waiting for the country.
func (e *Engine) NeedsZoneFix() bool {
	return e.needFixZone != nil
}

// FixZone resolves the deferred zone for iso. A zero offset without DST
// outside the GMT countries is treated as a missing zone: the configured
// zone is kept and the clock is shifted by its offset.
func (e *Engine) FixZone(iso string) {
	d := e.needFixZone
	if d == nil {
		return
	}
	e.needFixZone = nil

	zone := ""
	configured := e.props.Get(props.TimeZone, "")

	switch {
	case d.offset == 0 && !d.dst && configured != "" && !tz.UsesGMT(iso):
		off, err := tz.Offset(configured, e.clock.Now())
		if err != nil {
			e.logger.Warn("configured zone is not loadable", "zone", configured, "error", err)
			return
		}
		zone = configured
		if e.cfg.AutoTime {
			_ = e.applyTime(e.clock.Now().Add(-off))
		} else {
			e.ledger.Time = e.ledger.Time.Add(-off)
		}
	default:
		zone, _ = zoneFor(iso, d.offset, d.dst, d.when)
	}

	if zone == "" {
		e.logger.Warn("no zone matches network time",
			"country", iso, "offset", d.offset, "dst", d.dst)
		return
	}
	e.logger.Info("fixed time zone", "country", iso, "zone", zone)
	e.useZone(zone)
}

// SetAutoTime switches automatic time. Enabling it re-applies the last
// network time.
func (e *Engine) SetAutoTime(enabled bool) {
	e.cfg.AutoTime = enabled
	if enabled {
		e.RevertToNetworkTime()
	}
}

// SetAutoTimeZone switches automatic zone. Enabling it re-applies the last
// network zone.
func (e *Engine) SetAutoTimeZone(enabled bool) {
	e.cfg.AutoTimeZone = enabled
	if enabled && e.ledger.ZoneID != "" {
		e.applyZone(e.ledger.ZoneID)
	}
}

// AutoTime reports whether automatic time is on.
func (e *Engine) AutoTime() bool {
	return e.cfg.AutoTime
}

// AutoTimeZone reports whether automatic zone is on.
func (e *Engine) AutoTimeZone() bool {
	return e.cfg.AutoTimeZone
}

// RevertToNetworkTime re-applies the last network zone and time, advanced by
// the monotonic time since it was recorded. It does nothing with automatic
// time off or an incomplete ledger.
func (e *Engine) RevertToNetworkTime() bool {
	if !e.cfg.AutoTime || e.closed {
		return false
	}
	l := e.ledger
	e.logger.Info("reverting to network time", "zone", l.ZoneID, "time", l.Time, "at", l.At)
	if l.ZoneID == "" || !l.Committed || l.Time.IsZero() {
		return false
	}

	e.applyZone(l.ZoneID)
	return e.applyTime(l.Time.Add(e.clock.Elapsed()-l.At)) == nil
}

// Ledger returns the last recorded network time and zone.
func (e *Engine) Ledger() Ledger {
	return e.ledger
}

// Close waits for an in-progress commit and blocks further commits.
func (e *Engine) Close(ctx context.Context) error {
	if e.closed {
		return nil
	}
	if err := e.wake.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for clock commit: %w", err)
	}
	e.closed = true
	return nil
}

func (e *Engine) setProp(key, value string) {
	if err := e.props.Set(key, value); err != nil {
		e.logger.Warn("failed to persist property", "key", key, "error", err)
	}
}

// zoneFor picks a zone of iso matching the offset. An empty country, as on
// test networks with a bogus MCC, or one missing from the zone table falls
// back to a search over every zone.
func zoneFor(iso string, offset time.Duration, dst bool, when time.Time) (string, bool) {
	if !tz.HasCountry(iso) {
		return tz.NetworkZone(offset, dst, when)
	}
	return tz.ZoneForCountry(iso, offset, dst, when)
}

func abs(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
