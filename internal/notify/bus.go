// Package notify fans tracker transitions out to collaborators as typed
// events.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/radio-control/cellstate/internal/clocksync"
	"github.com/radio-control/cellstate/internal/registrant"
	"github.com/radio-control/cellstate/internal/servicestate"
)

// Kind is an event type.
type Kind int

const (
	Registered Kind = iota
	Deregistered
	RoamingOn
	RoamingOff
	LocationChanged
	ServiceStateChanged
	SubscriptionInfoReady
	ClockChanged
	TimeZoneChanged
	SignalStrengthChanged
	numKinds
)

var kindNames = [numKinds]string{
	Registered:            "registered",
	Deregistered:          "deregistered",
	RoamingOn:             "roaming_on",
	RoamingOff:            "roaming_off",
	LocationChanged:       "location_changed",
	ServiceStateChanged:   "service_state_changed",
	SubscriptionInfoReady: "subscription_info_ready",
	ClockChanged:          "clock_changed",
	TimeZoneChanged:       "timezone_changed",
	SignalStrengthChanged: "signal_strength_changed",
}

func (k Kind) String() string {
	if k >= 0 && k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Kinds returns every event kind in firing order.
func Kinds() []Kind {
	out := make([]Kind, numKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// Event is one transition. Service is set for service events, Time for
// clock events, Zone for zone events and Signal for signal events.
type Event struct {
	Kind    Kind                         `json:"-"`
	At      time.Time                    `json:"at"`
	Service *servicestate.Snapshot       `json:"service,omitempty"`
	Time    *time.Time                   `json:"time,omitempty"`
	Zone    string                       `json:"zone,omitempty"`
	Signal  *servicestate.SignalStrength `json:"signal,omitempty"`
}

var changeKinds = map[servicestate.Change]Kind{
	servicestate.ChangeRegistered:        Registered,
	servicestate.ChangeDeregistered:      Deregistered,
	servicestate.ChangeRoamingOn:         RoamingOn,
	servicestate.ChangeRoamingOff:        RoamingOff,
	servicestate.ChangeLocation:          LocationChanged,
	servicestate.ChangeServiceState:      ServiceStateChanged,
	servicestate.ChangeSubscriptionReady: SubscriptionInfoReady,
}

var (
	_ servicestate.Emitter = (*Bus)(nil)
	_ clocksync.Emitter    = (*Bus)(nil)
)

// Bus delivers events to per-kind and catch-all subscribers. It implements
// servicestate.Emitter and clocksync.Emitter.
type Bus struct {
	lists [numKinds]registrant.List[Event]
	all   registrant.List[Event]

	mu                sync.Mutex
	last              servicestate.Snapshot
	subscriptionReady bool

	now func() time.Time
}

// NewBus returns a bus whose last known state is out of service.
func NewBus() *Bus {
	return &Bus{last: servicestate.OutOfServiceSnapshot(), now: time.Now}
}

// ServiceChanged publishes a reconciler transition.
func (b *Bus) ServiceChanged(c servicestate.Change, s servicestate.Snapshot) {
	kind, ok := changeKinds[c]
	if !ok {
		return
	}

	b.mu.Lock()
	b.last = s
	if kind == SubscriptionInfoReady {
		b.subscriptionReady = true
	}
	b.mu.Unlock()

	snap := s
	b.publish(Event{Kind: kind, At: b.now(), Service: &snap})
}

// ClockChanged publishes a committed wall clock.
func (b *Bus) ClockChanged(t time.Time) {
	b.publish(Event{Kind: ClockChanged, At: b.now(), Time: &t})
}

// TimeZoneChanged publishes a committed zone.
func (b *Bus) TimeZoneChanged(zoneID string) {
	b.publish(Event{Kind: TimeZoneChanged, At: b.now(), Zone: zoneID})
}

// SignalStrengthChanged publishes a new signal measurement.
func (b *Bus) SignalStrengthChanged(s servicestate.SignalStrength) {
	b.publish(Event{Kind: SignalStrengthChanged, At: b.now(), Signal: &s})
}

func (b *Bus) publish(ev Event) {
	b.lists[ev.Kind].NotifyAll(ev)
	b.all.NotifyAll(ev)
}

// Subscribe registers fn for one kind. Registered, RoamingOn, RoamingOff
// and SubscriptionInfoReady are level conditions: when the condition
// already holds, fn is called once before Subscribe returns.
func (b *Bus) Subscribe(kind Kind, fn func(Event)) registrant.Handle {
	if kind < 0 || kind >= numKinds {
		panic(fmt.Sprintf("notify: unknown event kind %d", int(kind)))
	}

	b.mu.Lock()
	last := b.last
	ready := b.subscriptionReady
	b.mu.Unlock()

	active := false
	switch kind {
	case Registered:
		active = last.State == servicestate.InService
	case RoamingOn:
		active = last.Roaming
	case RoamingOff:
		active = !last.Roaming
	case SubscriptionInfoReady:
		active = ready
	}
	return b.lists[kind].AddIf(fn, active, Event{Kind: kind, At: b.now(), Service: &last})
}

// Unsubscribe removes a per-kind subscription.
func (b *Bus) Unsubscribe(kind Kind, h registrant.Handle) bool {
	if kind < 0 || kind >= numKinds {
		return false
	}
	return b.lists[kind].Remove(h)
}

// SubscribeAll registers fn for every event.
func (b *Bus) SubscribeAll(fn func(Event)) registrant.Handle {
	return b.all.Add(fn)
}

// UnsubscribeAll removes a catch-all subscription.
func (b *Bus) UnsubscribeAll(h registrant.Handle) bool {
	return b.all.Remove(h)
}

// Last returns the most recently published service snapshot.
func (b *Bus) Last() servicestate.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}
