//
//
package servicestate

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/radio-control/cellstate/internal/props"
	"github.com/radio-control/cellstate/internal/tz"
)

// Change is a transition kind fired by the reconciler.
type Change int

const (
	ChangeRegistered Change = iota
	ChangeDeregistered
	ChangeServiceState
	ChangeRoamingOn
	ChangeRoamingOff
	ChangeLocation
	ChangeSubscriptionReady
)

func (c Change) String() string {
	switch c {
	case ChangeRegistered:
		return "registered"
	case ChangeDeregistered:
		return "deregistered"
	case ChangeServiceState:
		return "service_state_changed"
	case ChangeRoamingOn:
		return "roaming_on"
	case ChangeRoamingOff:
		return "roaming_off"
	case ChangeLocation:
		return "location_changed"
	case ChangeSubscriptionReady:
		return "subscription_info_ready"
	default:
		return fmt.Sprintf("Change(%d)", int(c))
	}
}

// Emitter receives reconciler transitions with the newly committed snapshot.
type Emitter interface {
	ServiceChanged(c Change, s Snapshot)
}

// CountryListener is told when the operator country becomes known or is lost.
type CountryListener interface {
	CountryResolved(iso string)
	CountryLost()
}

// Diff describes the edges between two committed snapshots.
type Diff struct {
	Registered      bool
	Deregistered    bool
	Changed         bool
	RoamingOn       bool
	RoamingOff      bool
	LocationChanged bool

	Previous Snapshot
	Current  Snapshot
}

// Any reports whether any edge fired.
func (d Diff) Any() bool {
	return d.Registered || d.Deregistered || d.Changed ||
		d.RoamingOn || d.RoamingOff || d.LocationChanged
}

// Compare computes the edges from prev to next.
func Compare(prev, next Snapshot) Diff {
	prevIn := prev.State == InService
	nextIn := next.State == InService
	return Diff{
		Registered:      !prevIn && nextIn,
		Deregistered:    prevIn && !nextIn,
		Changed:         !next.Equal(prev),
		RoamingOn:       !prev.Roaming && next.Roaming,
		RoamingOff:      prev.Roaming && !next.Roaming,
		LocationChanged: next.Location != prev.Location,
		Previous:        prev,
		Current:         next,
	}
}

// Options configures a Reconciler.
type Options struct {
	Policy  RoamingPolicy
	Eri     EriTable
	Props   props.Store
	Emitter Emitter
	Country CountryListener
	Logger  *slog.Logger
}

// Reconciler owns the committed snapshot and turns completed poll rounds
// into transitions. It is not safe for concurrent use; the tracker loop is
// its only caller.
type Reconciler struct {
	policy  RoamingPolicy
	eri     EriTable
	props   props.Store
	emitter Emitter
	country CountryListener
	logger  *slog.Logger

	committed Snapshot

	subscription      Subscription
	subscriptionReady bool

	gotCountry bool
	iso        string
}

// NewReconciler creates a reconciler whose committed state is out of service.
func NewReconciler(opts Options) *Reconciler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Props == nil {
		opts.Props = &props.MemStore{}
	}
	if opts.Eri.Entries == nil {
		opts.Eri = DefaultEriTable()
	}
	if opts.Policy.Codes.States == nil {
		opts.Policy.Codes = DefaultCodeTable()
	}
	if opts.Policy.Indicators == (IndicatorTable{}) {
		opts.Policy.Indicators = DefaultIndicatorTable()
	}

	return &Reconciler{
		policy:    opts.Policy,
		eri:       opts.Eri,
		props:     opts.Props,
		emitter:   opts.Emitter,
		country:   opts.Country,
		logger:    logger.With("component", "reconciler"),
		committed: OutOfServiceSnapshot(),
	}
}

// SetCountryListener replaces the country listener.
func (r *Reconciler) SetCountryListener(l CountryListener) {
	r.country = l
}

// NewPending returns a clean accumulator for the next round.
func (r *Reconciler) NewPending() *Pending {
	return newPending(&r.policy, r.logger)
}

// Committed returns the externally visible snapshot.
func (r *Reconciler) Committed() Snapshot {
	return r.committed
}

// Policy returns the roaming policy in use.
func (r *Reconciler) Policy() RoamingPolicy {
	return r.policy
}

// OnRoundComplete commits p and fires one event per edge, in order:
// registered, deregistered, service state changed (after publishing operator
// properties), roaming on, roaming off, location changed.
func (r *Reconciler) OnRoundComplete(p *Pending) Diff {
	next := r.finalize(p)
	diff := Compare(r.committed, next)
	r.committed = next

	if diff.Registered {
		r.emit(ChangeRegistered, next)
	}
	if diff.Deregistered {
		r.emit(ChangeDeregistered, next)
	}
	if diff.Changed {
		r.publishOperator(next)
		r.emit(ChangeServiceState, next)
	}
	if diff.RoamingOn {
		r.emit(ChangeRoamingOn, next)
	}
	if diff.RoamingOff {
		r.emit(ChangeRoamingOff, next)
	}
	if diff.LocationChanged {
		r.emit(ChangeLocation, next)
	}

	if diff.Any() {
		r.logger.Info("service state committed",
			"state", next.State.String(),
			"roaming", next.Roaming,
			"operator", next.Operator.Numeric,
			"roaming_indicator", next.RoamingIndicator)
	}
	return diff
}

func (r *Reconciler) finalize(p *Pending) Snapshot {
	s := p.next
	if p.offline {
		return s
	}

	sub := r.subscription
	homeKnown := !sub.SIDsAllZero()
	namMatch := homeKnown && sub.IsHomeSID(s.SystemID)

	roaming := p.rawRoaming
	if r.policy.Source == SourceRUIM {
		spn := r.props.Get(props.SIMOperatorAlpha, "empty")
		roaming = r.policy.BetweenOperators(roaming, s.Operator, spn)
	}
	s.Roaming = roaming

	s.RoamingIndicator = r.policy.Indicators.Resolve(RoamingInputs{
		RegistrationRoaming:     roaming,
		NamMatch:                namMatch,
		HomeSystemsKnown:        homeKnown,
		PRLLoaded:               sub.PRLLoaded(),
		InPRL:                   s.InPRL,
		RoamingIndicator:        p.reportedInd,
		DefaultRoamingIndicator: s.DefaultRoamingIndicator,
	})

	entry, found := r.eri.Lookup(s.RoamingIndicator, s.DefaultRoamingIndicator)
	s.EriIconIndex = entry.IconIndex
	s.EriIconMode = entry.IconMode

	if r.policy.Source == SourceNV {
		text := r.eri.Searching()
		if s.State == InService {
			text = ""
			if found {
				text = entry.Text
			}
		}
		s.EriText = text
		s.Operator.AlphaLong = text
	}
	return s
}

func (r *Reconciler) publishOperator(s Snapshot) {
	r.setProp(props.OperatorAlpha, s.Operator.AlphaLong)
	r.setProp(props.OperatorNumeric, s.Operator.Numeric)

	if s.Operator.Numeric == "" {
		r.setProp(props.OperatorISOCountry, "")
	} else {
		iso, err := tz.CountryForNumeric(s.Operator.Numeric)
		if err != nil {
			r.logger.Warn("failed to resolve operator country",
				"numeric", s.Operator.Numeric, "error", err)
			iso = ""
		}
		r.setProp(props.OperatorISOCountry, iso)
		r.gotCountry = true
		r.iso = iso
		if r.country != nil {
			r.country.CountryResolved(iso)
		}
	}

	r.setProp(props.OperatorIsRoaming, strconv.FormatBool(s.Roaming))
}

func (r *Reconciler) setProp(key, value string) {
	if err := r.props.Set(key, value); err != nil {
		r.logger.Warn("failed to persist property", "key", key, "error", err)
	}
}

func (r *Reconciler) emit(c Change, s Snapshot) {
	if r.emitter != nil {
		r.emitter.ServiceChanged(c, s)
	}
}

// ResetCountry forgets the operator country. Called when the radio turns off
// or becomes unavailable.
func (r *Reconciler) ResetCountry() {
	r.gotCountry = false
	r.iso = ""
	if r.country != nil {
		r.country.CountryLost()
	}
}

// Country returns the operator country and whether it is known. A known
// empty country means a test network.
func (r *Reconciler) Country() (string, bool) {
	return r.iso, r.gotCountry
}

// ApplySubscriptionReply stores the subscription identity. The first
// successful parse fires ChangeSubscriptionReady.
func (r *Reconciler) ApplySubscriptionReply(fields []string) error {
	sub, err := ParseSubscription(fields)
	if err != nil {
		return err
	}
	if sub.PRLVersion == "" {
		sub.PRLVersion = r.subscription.PRLVersion
	}
	r.subscription = sub

	if !r.subscriptionReady {
		r.subscriptionReady = true
		r.logger.Info("subscription info ready",
			"mdn", sub.MDN, "home_sids", sub.HomeSIDs, "prl_version", sub.PRLVersion)
		r.emit(ChangeSubscriptionReady, r.committed)
	}
	return nil
}

// ApplyPRLVersion stores the roaming list version from a PRL version reply.
func (r *Reconciler) ApplyPRLVersion(fields []string) error {
	if len(fields) < 1 {
		return fmt.Errorf("PRL version reply is empty: %w", ErrMalformedReply)
	}
	r.subscription.PRLVersion = fields[0]
	return nil
}

// Subscription returns the stored subscription identity.
func (r *Reconciler) Subscription() Subscription {
	return r.subscription
}

// SubscriptionReady reports whether subscription info has been parsed.
func (r *Reconciler) SubscriptionReady() bool {
	return r.subscriptionReady
}
