// Package sim implements a simulated radio behind the modem.Transport port.
//
// Requests are queued and answered in FIFO order by a single worker after a
// configurable latency, the way a real modem serializes its command channel.
// Unsolicited indications (radio state, network state, network time and
// signal reports) are delivered to a Listener.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/radio-control/cellstate/internal/clocksync"
	"github.com/radio-control/cellstate/internal/modem"
	"github.com/radio-control/cellstate/internal/radiolink"
)

// Registration is the record returned for a REGISTRATION_STATE request.
type Registration struct {
	Code                    int    `yaml:"code" json:"code"`
	LAC                     string `yaml:"lac" json:"lac"`
	CID                     string `yaml:"cid" json:"cid"`
	RadioTechnology         int    `yaml:"radioTechnology" json:"radioTechnology"`
	BaseStationID           int    `yaml:"baseStationId" json:"baseStationId"`
	Latitude                int    `yaml:"latitude" json:"latitude"`
	Longitude               int    `yaml:"longitude" json:"longitude"`
	CSSIndicator            int    `yaml:"cssIndicator" json:"cssIndicator"`
	SystemID                int    `yaml:"systemId" json:"systemId"`
	NetworkID               int    `yaml:"networkId" json:"networkId"`
	RoamingIndicator        int    `yaml:"roamingIndicator" json:"roamingIndicator"`
	InPRL                   bool   `yaml:"inPrl" json:"inPrl"`
	DefaultRoamingIndicator int    `yaml:"defaultRoamingIndicator" json:"defaultRoamingIndicator"`
	DenialReason            int    `yaml:"denialReason" json:"denialReason"`
}

// Fields encodes the record in reply order.
func (r Registration) Fields() []string {
	inPRL := "0"
	if r.InPRL {
		inPRL = "1"
	}
	return []string{
		strconv.Itoa(r.Code),
		r.LAC,
		r.CID,
		strconv.Itoa(r.RadioTechnology),
		strconv.Itoa(r.BaseStationID),
		strconv.Itoa(r.Latitude),
		strconv.Itoa(r.Longitude),
		strconv.Itoa(r.CSSIndicator),
		strconv.Itoa(r.SystemID),
		strconv.Itoa(r.NetworkID),
		strconv.Itoa(r.RoamingIndicator),
		inPRL,
		strconv.Itoa(r.DefaultRoamingIndicator),
		strconv.Itoa(r.DenialReason),
	}
}

// OperatorNames is the record returned for an OPERATOR request.
type OperatorNames struct {
	AlphaLong  string `yaml:"alphaLong" json:"alphaLong"`
	AlphaShort string `yaml:"alphaShort" json:"alphaShort"`
	Numeric    string `yaml:"numeric" json:"numeric"`
}

// Subscription is the record returned for a CDMA_SUBSCRIPTION request.
type Subscription struct {
	MDN        string `yaml:"mdn" json:"mdn"`
	HomeSIDs   []int  `yaml:"homeSids" json:"homeSids"`
	HomeNIDs   []int  `yaml:"homeNids" json:"homeNids"`
	MIN        string `yaml:"min" json:"min"`
	PRLVersion string `yaml:"prlVersion" json:"prlVersion"`
}

// Signal is the raw signal measurement as the radio reports it: CDMA and
// EVDO levels are positive magnitudes.
type Signal struct {
	GsmRssi  int `yaml:"gsmRssi" json:"gsmRssi"`
	GsmBer   int `yaml:"gsmBer" json:"gsmBer"`
	CdmaDbm  int `yaml:"cdmaDbm" json:"cdmaDbm"`
	CdmaEcio int `yaml:"cdmaEcio" json:"cdmaEcio"`
	EvdoDbm  int `yaml:"evdoDbm" json:"evdoDbm"`
	EvdoEcio int `yaml:"evdoEcio" json:"evdoEcio"`
	EvdoSnr  int `yaml:"evdoSnr" json:"evdoSnr"`
	LteRssi  int `yaml:"lteRssi" json:"lteRssi"`
	LteRsrp  int `yaml:"lteRsrp" json:"lteRsrp"`
	LteRsrq  int `yaml:"lteRsrq" json:"lteRsrq"`
	LteSnr   int `yaml:"lteSnr" json:"lteSnr"`
	LteCqi   int `yaml:"lteCqi" json:"lteCqi"`
}

// Fields encodes the measurement in reply order.
func (s Signal) Fields() []string {
	v := []int{s.GsmRssi, s.GsmBer, s.CdmaDbm, s.CdmaEcio, s.EvdoDbm, s.EvdoEcio,
		s.EvdoSnr, s.LteRssi, s.LteRsrp, s.LteRsrq, s.LteSnr, s.LteCqi}
	out := make([]string, len(v))
	for i, n := range v {
		out[i] = strconv.Itoa(n)
	}
	return out
}

// Config seeds a simulated modem.
type Config struct {
	Latency      time.Duration
	QueueSize    int
	Family       string
	Radio        radiolink.State
	Registration Registration
	Operator     OperatorNames
	Subscription Subscription
	Signal       Signal
}

// Listener receives unsolicited indications from the modem.
type Listener interface {
	RadioStateChanged(radiolink.State)
	NetworkStateChanged()
	NetworkTime(raw string, receivedAt time.Duration)
	SignalStrengthUpdate(fields []string)
}

type command struct {
	ctx       context.Context
	kind      modem.RequestKind
	params    []string
	done      func(modem.Reply)
	timestamp time.Time
}

// Modem is a simulated radio.
type Modem struct {
	mu           sync.RWMutex
	radio        radiolink.State
	registration Registration
	operator     OperatorNames
	subscription Subscription
	signal       Signal
	latency      time.Duration
	family       string
	failNext     map[modem.RequestKind]error
	listener     Listener

	clock  clocksync.Clock
	logger *slog.Logger

	commandQueue chan command
	stopChan     chan struct{}
	wg           sync.WaitGroup
	ctx          context.Context
	cancel       context.CancelFunc
	closeOnce    sync.Once
}

var _ modem.Transport = (*Modem)(nil)

// New creates a simulated modem and starts its command worker.
func New(cfg Config, clock clocksync.Clock, logger *slog.Logger) *Modem {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clocksync.NewSystemClock()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Family == "" {
		cfg.Family = "ril"
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Modem{
		radio:        cfg.Radio,
		registration: cfg.Registration,
		operator:     cfg.Operator,
		subscription: cfg.Subscription,
		signal:       cfg.Signal,
		latency:      cfg.Latency,
		family:       cfg.Family,
		failNext:     make(map[modem.RequestKind]error),
		clock:        clock,
		logger:       logger.With("component", "modem-sim"),
		commandQueue: make(chan command, cfg.QueueSize),
		stopChan:     make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}

	m.wg.Add(1)
	go m.commandWorker()

	return m
}

// SetListener installs the receiver of unsolicited indications.
func (m *Modem) SetListener(l Listener) {
	m.mu.Lock()
	m.listener = l
	m.mu.Unlock()
}

// Send queues a request. The reply is delivered from the worker goroutine.
func (m *Modem) Send(ctx context.Context, kind modem.RequestKind, params []string, done func(modem.Reply)) {
	cmd := command{
		ctx:       ctx,
		kind:      kind,
		params:    params,
		done:      done,
		timestamp: time.Now(),
	}

	select {
	case <-m.ctx.Done():
		go done(modem.Reply{Kind: kind, Err: m.normalize(errors.New("RADIO_NOT_AVAILABLE: modem closed"))})
		return
	default:
	}

	select {
	case m.commandQueue <- cmd:
	default:
		go done(modem.Reply{Kind: kind, Err: m.normalize(errors.New("COMMAND_QUEUE_FULL"))})
	}
}

// commandWorker answers commands in FIFO order.
func (m *Modem) commandWorker() {
	defer m.wg.Done()

	for {
		select {
		case cmd := <-m.commandQueue:
			m.processCommand(cmd)
		case <-m.stopChan:
			return
		case <-m.ctx.Done():
			return
		}
	}
}

func (m *Modem) processCommand(cmd command) {
	m.mu.RLock()
	latency := m.latency
	m.mu.RUnlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		select {
		case <-timer.C:
		case <-cmd.ctx.Done():
			timer.Stop()
			cmd.done(modem.Reply{Kind: cmd.kind, Err: fmt.Errorf("request %s canceled: %w", cmd.kind, cmd.ctx.Err())})
			return
		case <-m.ctx.Done():
			timer.Stop()
			cmd.done(modem.Reply{Kind: cmd.kind, Err: m.normalize(errors.New("RADIO_NOT_AVAILABLE: modem closed"))})
			return
		}
	}

	if err := cmd.ctx.Err(); err != nil {
		cmd.done(modem.Reply{Kind: cmd.kind, Err: fmt.Errorf("request %s canceled: %w", cmd.kind, err)})
		return
	}

	cmd.done(m.answer(cmd.kind))
}

// answer builds the reply from the current simulated state.
func (m *Modem) answer(kind modem.RequestKind) modem.Reply {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.failNext[kind]; ok {
		delete(m.failNext, kind)
		return modem.Reply{Kind: kind, Err: m.normalize(err)}
	}

	if !m.radio.IsAvailable() {
		return modem.Reply{Kind: kind, Err: m.normalize(errors.New("RADIO_NOT_AVAILABLE"))}
	}

	switch kind {
	case modem.RegistrationState:
		if !m.radio.IsOn() {
			return modem.Reply{Kind: kind, Err: m.normalize(errors.New("RADIO_NOT_AVAILABLE: radio off"))}
		}
		return modem.Reply{Kind: kind, Result: m.registration.Fields()}
	case modem.Operator:
		if !m.radio.IsOn() {
			return modem.Reply{Kind: kind, Err: m.normalize(errors.New("RADIO_NOT_AVAILABLE: radio off"))}
		}
		return modem.Reply{Kind: kind, Result: []string{m.operator.AlphaLong, m.operator.AlphaShort, m.operator.Numeric}}
	case modem.CdmaSubscription:
		s := m.subscription
		result := []string{s.MDN, joinInts(s.HomeSIDs), joinInts(s.HomeNIDs), s.MIN}
		if s.PRLVersion != "" {
			result = append(result, s.PRLVersion)
		}
		return modem.Reply{Kind: kind, Result: result}
	case modem.PRLVersion:
		return modem.Reply{Kind: kind, Result: []string{m.subscription.PRLVersion}}
	case modem.SignalStrength:
		if !m.radio.IsOn() {
			return modem.Reply{Kind: kind, Err: m.normalize(errors.New("RADIO_NOT_AVAILABLE: radio off"))}
		}
		return modem.Reply{Kind: kind, Result: m.signal.Fields()}
	default:
		return modem.Reply{Kind: kind, Err: m.normalize(fmt.Errorf("REQUEST_NOT_SUPPORTED: %s", kind))}
	}
}

func (m *Modem) normalize(err error) error {
	return modem.NormalizeFailureWithFamily(err, nil, m.family)
}

// RadioState returns the simulated radio state.
func (m *Modem) RadioState() radiolink.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.radio
}

// SetRadioState changes the simulated radio state and indicates it.
func (m *Modem) SetRadioState(s radiolink.State) {
	m.mu.Lock()
	changed := m.radio != s
	m.radio = s
	l := m.listener
	m.mu.Unlock()

	if changed {
		m.logger.Info("simulated radio state", "state", s.String())
	}
	if l != nil {
		l.RadioStateChanged(s)
	}
}

// SetRegistration replaces the registration record and indicates a network
// state change.
func (m *Modem) SetRegistration(r Registration) {
	m.mu.Lock()
	m.registration = r
	l := m.listener
	m.mu.Unlock()

	if l != nil {
		l.NetworkStateChanged()
	}
}

// Registration returns the current registration record.
func (m *Modem) Registration() Registration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registration
}

// SetOperator replaces the operator names and indicates a network state change.
func (m *Modem) SetOperator(op OperatorNames) {
	m.mu.Lock()
	m.operator = op
	l := m.listener
	m.mu.Unlock()

	if l != nil {
		l.NetworkStateChanged()
	}
}

// SetSubscription replaces the subscription record.
func (m *Modem) SetSubscription(s Subscription) {
	m.mu.Lock()
	m.subscription = s
	m.mu.Unlock()
}

// SetSignal replaces the measurement returned to signal strength polls.
func (m *Modem) SetSignal(s Signal) {
	m.mu.Lock()
	m.signal = s
	m.mu.Unlock()
}

// Signal returns the current measurement.
func (m *Modem) Signal() Signal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.signal
}

// ReportSignal replaces the measurement and delivers it unsolicited, the
// way radios that push signal changes behave.
func (m *Modem) ReportSignal(s Signal) {
	m.mu.Lock()
	m.signal = s
	l := m.listener
	m.mu.Unlock()

	if l != nil {
		l.SignalStrengthUpdate(s.Fields())
	}
}

// SetLatency changes the per-request answer delay.
func (m *Modem) SetLatency(d time.Duration) {
	m.mu.Lock()
	m.latency = d
	m.mu.Unlock()
}

// FailNext makes the next request of kind fail with err.
func (m *Modem) FailNext(kind modem.RequestKind, err error) {
	m.mu.Lock()
	m.failNext[kind] = err
	m.mu.Unlock()
}

// InjectNetworkTime delivers a network time string stamped with the
// current monotonic tick.
func (m *Modem) InjectNetworkTime(raw string) {
	m.mu.RLock()
	l := m.listener
	m.mu.RUnlock()

	if l != nil {
		l.NetworkTime(raw, m.clock.Elapsed())
	}
}

// Close stops the worker. Requests still queued are failed as not available.
func (m *Modem) Close() error {
	var err error
	m.closeOnce.Do(func() {
		m.cancel()
		close(m.stopChan)

		done := make(chan struct{})
		go func() {
			m.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(10 * time.Second):
			err = fmt.Errorf("shutdown timeout")
			return
		}

		for {
			select {
			case cmd := <-m.commandQueue:
				cmd.done(modem.Reply{Kind: cmd.kind, Err: m.normalize(errors.New("RADIO_NOT_AVAILABLE: modem closed"))})
			default:
				return
			}
		}
	})
	return err
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
