//
//
package radiolink

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/radio-control/cellstate/internal/registrant"
)

// State is the operating state reported by the radio.
type State int32

const (
	Unavailable State = iota
	Off
	On
)

// IsAvailable reports whether the radio answers requests at all.
func (s State) IsAvailable() bool {
	return s != Unavailable
}

// IsOn reports whether the radio is powered and able to register.
func (s State) IsOn() bool {
	return s == On
}

func (s State) String() string {
	switch s {
	case Unavailable:
		return "UNAVAILABLE"
	case Off:
		return "OFF"
	case On:
		return "ON"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// ParseState parses the names produced by String, case-insensitively.
func ParseState(s string) (State, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "UNAVAILABLE":
		return Unavailable, nil
	case "OFF":
		return Off, nil
	case "ON":
		return On, nil
	}
	return Unavailable, fmt.Errorf("unknown radio state %q", s)
}

// Event selects which transition a subscriber is told about.
type Event int

const (
	EventStateChanged Event = iota
	EventAvailable
	EventNotAvailable
	EventOn
	EventOffOrNotAvailable

	numEvents
)

func (e Event) String() string {
	switch e {
	case EventStateChanged:
		return "stateChanged"
	case EventAvailable:
		return "available"
	case EventNotAvailable:
		return "notAvailable"
	case EventOn:
		return "on"
	case EventOffOrNotAvailable:
		return "offOrNotAvailable"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Observer holds the current radio state and fans transitions out to
// per-event subscriber lists.
//
// Callbacks run synchronously on the goroutine calling SetState, with the
// observer's transition lock held. They may call State but must not call
// SetState or Subscribe.
type Observer struct {
	mu     sync.Mutex
	state  atomic.Int32
	lists  [numEvents]registrant.List[State]
	logger *slog.Logger
}

// NewObserver creates an observer starting in the given state.
func NewObserver(initial State, logger *slog.Logger) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Observer{logger: logger.With("component", "radiolink")}
	o.state.Store(int32(initial))
	return o
}

// State returns the current radio state.
func (o *Observer) State() State {
	return State(o.state.Load())
}

// SetState records a new radio state and notifies subscribers of every
// transition edge it crosses, in a fixed order.
func (o *Observer) SetState(newState State) {
	o.mu.Lock()
	defer o.mu.Unlock()

	oldState := o.State()
	if oldState == newState {
		return
	}
	o.state.Store(int32(newState))

	o.logger.Info("radio state changed", "from", oldState.String(), "to", newState.String())

	o.lists[EventStateChanged].NotifyAll(newState)

	if newState.IsAvailable() && !oldState.IsAvailable() {
		o.lists[EventAvailable].NotifyAll(newState)
	}
	if !newState.IsAvailable() && oldState.IsAvailable() {
		o.lists[EventNotAvailable].NotifyAll(newState)
	}
	if newState.IsOn() && !oldState.IsOn() {
		o.lists[EventOn].NotifyAll(newState)
	}
	if !newState.IsOn() && oldState.IsOn() {
		o.lists[EventOffOrNotAvailable].NotifyAll(newState)
	}
}

// Subscribe registers fn for ev. For the level-style events (everything but
// EventStateChanged) fn is called immediately when the condition already
// holds.
func (o *Observer) Subscribe(ev Event, fn func(State)) registrant.Handle {
	if ev < 0 || ev >= numEvents {
		panic(fmt.Sprintf("radiolink: subscribe to unknown event %d", int(ev)))
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	current := o.State()
	return o.lists[ev].AddIf(fn, levelHolds(ev, current), current)
}

// Unsubscribe removes a registration made with Subscribe.
func (o *Observer) Unsubscribe(ev Event, h registrant.Handle) {
	if ev < 0 || ev >= numEvents {
		return
	}
	o.lists[ev].Remove(h)
}

func levelHolds(ev Event, s State) bool {
	switch ev {
	case EventAvailable:
		return s.IsAvailable()
	case EventNotAvailable:
		return !s.IsAvailable()
	case EventOn:
		return s.IsOn()
	case EventOffOrNotAvailable:
		return !s.IsOn()
	default:
		return false
	}
}
