// Package tracker runs the service-state tracker: one goroutine owns the
// poll rounds, the reconciler and the clock sync engine, and every modem
// reply or radio transition is posted to it before any state is touched.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/radio-control/cellstate/internal/clocksync"
	"github.com/radio-control/cellstate/internal/metrics"
	"github.com/radio-control/cellstate/internal/modem"
	"github.com/radio-control/cellstate/internal/notify"
	"github.com/radio-control/cellstate/internal/poll"
	"github.com/radio-control/cellstate/internal/props"
	"github.com/radio-control/cellstate/internal/radiolink"
	"github.com/radio-control/cellstate/internal/registrant"
	"github.com/radio-control/cellstate/internal/servicestate"
)

// ErrDisposed is returned by calls made after Dispose.
var ErrDisposed = errors.New("tracker disposed")

// DefaultQueueSize is the task queue capacity.
const DefaultQueueSize = 256

// DefaultSignalPollPeriod is how often signal strength is polled while the
// radio is on and not reporting it unsolicited.
const DefaultSignalPollPeriod = 20 * time.Second

// Options wires a Tracker.
type Options struct {
	Transport modem.Transport
	Radio     *radiolink.Observer
	Props     props.Store
	Bus       *notify.Bus
	Clock     clocksync.Clock
	Setter    clocksync.SystemSetter

	Policy      servicestate.RoamingPolicy
	Eri         servicestate.EriTable
	ClockConfig clocksync.Config

	QueueSize        int
	SignalPollPeriod time.Duration
	Logger           *slog.Logger
}

// Status is a point-in-time view of the tracker for readers on other
// goroutines.
type Status struct {
	Radio             string                      `json:"radio"`
	Service           servicestate.Snapshot       `json:"service"`
	Subscription      servicestate.Subscription   `json:"subscription"`
	SubscriptionReady bool                        `json:"subscriptionReady"`
	Country           string                      `json:"country"`
	CountryKnown      bool                        `json:"countryKnown"`
	Ledger            clocksync.Ledger            `json:"ledger"`
	AutoTime          bool                        `json:"autoTime"`
	AutoTimeZone      bool                        `json:"autoTimeZone"`
	PendingZoneFix    bool                        `json:"pendingZoneFix"`
	PollActive        bool                        `json:"pollActive"`
	PollGeneration    uint64                      `json:"pollGeneration"`
	PollRemaining     int                         `json:"pollRemaining"`
	Signal            servicestate.SignalStrength `json:"signal"`
	SignalPolling     bool                        `json:"signalPolling"`
}

type radioSub struct {
	ev     radiolink.Event
	handle registrant.Handle
}

// Tracker owns the committed service state and clock sync for one radio.
type Tracker struct {
	transport  modem.Transport
	radio      *radiolink.Observer
	bus        *notify.Bus
	reconciler *servicestate.Reconciler
	engine     *clocksync.Engine
	poll       *poll.Coordinator[*servicestate.Pending]
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	tasks   chan func()
	quit    chan struct{}
	stopped chan struct{}

	radioSubs []radioSub
	busSub    registrant.Handle

	// Signal strength, owned by the loop. pushSignal is set once the radio
	// reports unsolicited and polling stops for good.
	signal       servicestate.SignalStrength
	signalPeriod time.Duration
	signalTimer  *time.Timer
	pushSignal   bool

	status      atomic.Pointer[Status]
	disposeOnce sync.Once
}

// New creates a tracker, starts its loop and subscribes it to the radio.
// An initial poll round is queued immediately.
func New(opts Options) (*Tracker, error) {
	if opts.Transport == nil {
		return nil, fmt.Errorf("tracker: transport is required")
	}
	if opts.Radio == nil {
		return nil, fmt.Errorf("tracker: radio observer is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Bus == nil {
		opts.Bus = notify.NewBus()
	}
	if opts.Props == nil {
		opts.Props = &props.MemStore{}
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.SignalPollPeriod <= 0 {
		opts.SignalPollPeriod = DefaultSignalPollPeriod
	}

	engine := clocksync.NewEngine(clocksync.Options{
		Config:  opts.ClockConfig,
		Clock:   opts.Clock,
		Setter:  opts.Setter,
		Props:   opts.Props,
		Emitter: opts.Bus,
		Logger:  logger,
	})
	reconciler := servicestate.NewReconciler(servicestate.Options{
		Policy:  opts.Policy,
		Eri:     opts.Eri,
		Props:   opts.Props,
		Emitter: opts.Bus,
		Country: engine,
		Logger:  logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t := &Tracker{
		transport:  opts.Transport,
		radio:      opts.Radio,
		bus:        opts.Bus,
		reconciler: reconciler,
		engine:     engine,
		logger:     logger.With("component", "tracker"),
		ctx:        ctx,
		cancel:     cancel,
		tasks:      make(chan func(), opts.QueueSize),
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),

		signal:       servicestate.DefaultSignalStrength(),
		signalPeriod: opts.SignalPollPeriod,
	}
	t.poll = poll.New(poll.Config[*servicestate.Pending]{
		Transport:      opts.Transport,
		Radio:          opts.Radio.State,
		Post:           func(fn func()) { t.post(fn) },
		NewAccumulator: reconciler.NewPending,
		MarkOffline:    (*servicestate.Pending).MarkOffline,
		Complete:       t.roundComplete,
		Logger:         logger,
	})

	t.publishStatus()
	go t.loop()

	t.busSub = t.bus.SubscribeAll(recordEvent)
	t.subscribeRadio(radiolink.EventStateChanged, func(s radiolink.State) {
		metrics.RadioState.Set(float64(s))
		t.post(t.pollState)
	})
	t.subscribeRadio(radiolink.EventOn, func(radiolink.State) {
		t.post(t.loadSubscription)
		t.post(t.queueSignalPoll)
	})
	metrics.RadioState.Set(float64(opts.Radio.State()))
	t.post(t.pollState)

	return t, nil
}

func (t *Tracker) subscribeRadio(ev radiolink.Event, fn func(radiolink.State)) {
	h := t.radio.Subscribe(ev, fn)
	t.radioSubs = append(t.radioSubs, radioSub{ev: ev, handle: h})
}

func (t *Tracker) loop() {
	defer close(t.stopped)
	for {
		select {
		case fn := <-t.tasks:
			fn()
			t.publishStatus()
		case <-t.quit:
			return
		}
	}
}

// post queues fn for the loop. It returns false once the tracker is disposed.
func (t *Tracker) post(fn func()) bool {
	select {
	case <-t.quit:
		return false
	default:
	}
	select {
	case t.tasks <- fn:
		return true
	case <-t.quit:
		return false
	}
}

func (t *Tracker) pollState() {
	t.poll.BeginRound(t.ctx, []poll.Query[*servicestate.Pending]{
		{Kind: modem.Operator, Apply: (*servicestate.Pending).ApplyOperatorReply},
		{Kind: modem.RegistrationState, Apply: (*servicestate.Pending).ApplyRegistrationReply},
	})
}

func (t *Tracker) roundComplete(r *poll.Round[*servicestate.Pending]) {
	if r.Offline {
		t.reconciler.ResetCountry()
		t.setSignal(servicestate.DefaultSignalStrength())
	}
	diff := t.reconciler.OnRoundComplete(r.Acc)

	cur := diff.Current
	metrics.ServiceInService.Set(boolGauge(cur.State == servicestate.InService))
	metrics.ServiceRoaming.Set(boolGauge(cur.Roaming))

	t.logger.Debug("poll round complete",
		"generation", uint64(r.ID), "offline", r.Offline, "changed", diff.Any())
}

func (t *Tracker) loadSubscription() {
	t.transport.Send(t.ctx, modem.CdmaSubscription, nil, func(r modem.Reply) {
		t.post(func() {
			if r.Err != nil {
				t.logger.Warn("subscription request failed", "error", r.Err)
				return
			}
			if err := t.reconciler.ApplySubscriptionReply(r.Result); err != nil {
				t.logger.Warn("malformed subscription reply", "error", err)
			}
		})
	})
	t.transport.Send(t.ctx, modem.PRLVersion, nil, func(r modem.Reply) {
		t.post(func() {
			if r.Err != nil {
				t.logger.Warn("PRL version request failed", "error", r.Err)
				return
			}
			if err := t.reconciler.ApplyPRLVersion(r.Result); err != nil {
				t.logger.Warn("malformed PRL version reply", "error", err)
			}
		})
	})
}

// queueSignalPoll schedules the next signal poll unless one is already
// scheduled or the radio reports signal changes itself.
func (t *Tracker) queueSignalPoll() {
	if t.pushSignal || t.signalTimer != nil {
		return
	}
	t.signalTimer = time.AfterFunc(t.signalPeriod, func() { t.post(t.pollSignal) })
}

func (t *Tracker) pollSignal() {
	t.signalTimer = nil
	if t.pushSignal || !t.radio.State().IsOn() {
		// Polling resumes when the radio turns back on.
		return
	}
	t.transport.Send(t.ctx, modem.SignalStrength, nil, func(r modem.Reply) {
		t.post(func() { t.signalReply(r) })
	})
}

func (t *Tracker) signalReply(r modem.Reply) {
	if t.pushSignal || !t.radio.State().IsOn() {
		return
	}
	if r.Err != nil {
		metrics.SignalReports.WithLabelValues("error").Inc()
		t.logger.Debug("signal strength request failed", "error", r.Err)
		t.setSignal(servicestate.DefaultSignalStrength())
	} else {
		t.applySignal(r.Result, "poll")
	}
	t.queueSignalPoll()
}

func (t *Tracker) applySignal(fields []string, source string) {
	metrics.SignalReports.WithLabelValues(source).Inc()
	s, err := servicestate.ParseSignalStrength(fields)
	if err != nil {
		t.logger.Warn("malformed signal strength", "source", source, "error", err)
	}
	t.setSignal(s)
}

func (t *Tracker) setSignal(s servicestate.SignalStrength) {
	if s == t.signal {
		return
	}
	t.signal = s
	metrics.SignalLevel.WithLabelValues("cdma_dbm").Set(float64(s.CdmaDbm))
	metrics.SignalLevel.WithLabelValues("cdma_ecio").Set(float64(s.CdmaEcio))
	metrics.SignalLevel.WithLabelValues("evdo_dbm").Set(float64(s.EvdoDbm))
	metrics.SignalLevel.WithLabelValues("evdo_ecio").Set(float64(s.EvdoEcio))
	metrics.SignalLevel.WithLabelValues("evdo_snr").Set(float64(s.EvdoSnr))
	t.bus.SignalStrengthChanged(s)
}

func (t *Tracker) stopSignalPoll() {
	if t.signalTimer != nil {
		t.signalTimer.Stop()
		t.signalTimer = nil
	}
}

// SignalStrengthUpdate handles an unsolicited signal report. The first one
// stops polling for the life of the tracker.
func (t *Tracker) SignalStrengthUpdate(fields []string) {
	t.post(func() {
		if !t.pushSignal {
			t.logger.Info("radio reports signal strength, polling stopped")
			t.pushSignal = true
			t.stopSignalPoll()
		}
		t.applySignal(fields, "unsolicited")
	})
}

// RadioStateChanged forwards a radio transition to the observer.
func (t *Tracker) RadioStateChanged(s radiolink.State) {
	t.radio.SetState(s)
}

// NetworkStateChanged starts a new poll round, superseding any active one.
func (t *Tracker) NetworkStateChanged() {
	t.post(t.pollState)
}

// PollState is NetworkStateChanged under the name callers use for a manual
// refresh.
func (t *Tracker) PollState() {
	t.NetworkStateChanged()
}

// NetworkTime queues a network time signal received at the monotonic tick
// receivedAt.
func (t *Tracker) NetworkTime(raw string, receivedAt time.Duration) {
	t.post(func() { t.handleNetworkTime(raw, receivedAt) })
}

func (t *Tracker) handleNetworkTime(raw string, receivedAt time.Duration) {
	outcome, err := t.engine.OnNetworkTimeSignal(raw, receivedAt)
	metrics.ClockSignalsTotal.WithLabelValues(outcome.String()).Inc()
	if err != nil {
		t.logger.Debug("network time not applied", "outcome", outcome.String(), "error", err)
	}
}

// SubmitNetworkTime handles a network time signal and waits for its outcome.
func (t *Tracker) SubmitNetworkTime(ctx context.Context, raw string, receivedAt time.Duration) (clocksync.Outcome, error) {
	var (
		outcome clocksync.Outcome
		err     error
	)
	callErr := t.call(ctx, func() {
		outcome, err = t.engine.OnNetworkTimeSignal(raw, receivedAt)
		metrics.ClockSignalsTotal.WithLabelValues(outcome.String()).Inc()
	})
	if callErr != nil {
		return clocksync.OutcomeIgnored, callErr
	}
	return outcome, err
}

// SetAutoTime switches automatic time; enabling it reverts to network time.
func (t *Tracker) SetAutoTime(ctx context.Context, enabled bool) error {
	return t.call(ctx, func() { t.engine.SetAutoTime(enabled) })
}

// SetAutoTimeZone switches automatic zone; enabling it re-applies the
// network zone.
func (t *Tracker) SetAutoTimeZone(ctx context.Context, enabled bool) error {
	return t.call(ctx, func() { t.engine.SetAutoTimeZone(enabled) })
}

// RevertToNetworkTime re-applies the last network time and zone.
func (t *Tracker) RevertToNetworkTime(ctx context.Context) (bool, error) {
	var applied bool
	err := t.call(ctx, func() { applied = t.engine.RevertToNetworkTime() })
	return applied, err
}

// call runs fn on the loop and waits for it.
func (t *Tracker) call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !t.post(func() { fn(); close(done) }) {
		return ErrDisposed
	}
	select {
	case <-done:
		return nil
	case <-t.stopped:
		return ErrDisposed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sync waits until every task queued before it has run.
func (t *Tracker) Sync(ctx context.Context) error {
	return t.call(ctx, func() {})
}

// ServiceState returns the committed snapshot.
func (t *Tracker) ServiceState() servicestate.Snapshot {
	return t.status.Load().Service
}

// Status returns the latest published status.
func (t *Tracker) Status() Status {
	return *t.status.Load()
}

// Bus returns the event bus the tracker publishes to.
func (t *Tracker) Bus() *notify.Bus {
	return t.bus
}

// SignalStrength returns the latest published signal measurement.
func (t *Tracker) SignalStrength() servicestate.SignalStrength {
	return t.status.Load().Signal
}

// Radio returns the radio observer.
func (t *Tracker) Radio() *radiolink.Observer {
	return t.radio
}

func (t *Tracker) publishStatus() {
	gen, active := t.poll.Active()
	country, known := t.reconciler.Country()
	st := &Status{
		Radio:             t.radio.State().String(),
		Service:           t.reconciler.Committed(),
		Subscription:      t.reconciler.Subscription(),
		SubscriptionReady: t.reconciler.SubscriptionReady(),
		Country:           country,
		CountryKnown:      known,
		Ledger:            t.engine.Ledger(),
		AutoTime:          t.engine.AutoTime(),
		AutoTimeZone:      t.engine.AutoTimeZone(),
		PendingZoneFix:    t.engine.NeedsZoneFix(),
		PollActive:        active,
		PollGeneration:    uint64(gen),
		PollRemaining:     t.poll.Remaining(),
		Signal:            t.signal,
		SignalPolling:     !t.pushSignal && t.radio.State().IsOn(),
	}
	t.status.Store(st)
}

// Dispose unregisters from the radio, invalidates the active round, waits
// for any clock commit and stops the loop. Later calls return nil.
func (t *Tracker) Dispose(ctx context.Context) error {
	var err error
	t.disposeOnce.Do(func() {
		for _, s := range t.radioSubs {
			t.radio.Unsubscribe(s.ev, s.handle)
		}
		t.bus.UnsubscribeAll(t.busSub)

		err = t.call(ctx, func() {
			t.poll.Cancel()
			t.stopSignalPoll()
			if cerr := t.engine.Close(ctx); cerr != nil {
				t.logger.Warn("clock sync did not release", "error", cerr)
			}
		})

		t.cancel()
		close(t.quit)
		<-t.stopped
		t.logger.Info("tracker disposed")
	})
	return err
}

func recordEvent(ev notify.Event) {
	switch ev.Kind {
	case notify.ClockChanged:
	case notify.TimeZoneChanged:
		metrics.ClockZoneFixes.Inc()
	case notify.SignalStrengthChanged:
	default:
		metrics.ServiceTransitions.WithLabelValues(ev.Kind.String()).Inc()
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
