package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radio-control/cellstate/internal/auth"
	"github.com/radio-control/cellstate/internal/clocksync"
	"github.com/radio-control/cellstate/internal/config"
	"github.com/radio-control/cellstate/internal/modem/sim"
	"github.com/radio-control/cellstate/internal/radiolink"
	"github.com/radio-control/cellstate/internal/servicestate"
	"github.com/radio-control/cellstate/internal/telemetry"
	"github.com/radio-control/cellstate/internal/tracker"
)

type fakeTracker struct {
	mu           sync.Mutex
	status       tracker.Status
	polls        int
	autoTime     []bool
	submitted    []string
	submitResult clocksync.Outcome
	submitErr    error
	syncErr      error
}

func (f *fakeTracker) Status() tracker.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeTracker) PollState() {
	f.mu.Lock()
	f.polls++
	f.status.PollActive = true
	f.status.PollGeneration++
	f.mu.Unlock()
}

func (f *fakeTracker) Sync(context.Context) error { return f.syncErr }

func (f *fakeTracker) SubmitNetworkTime(_ context.Context, raw string, _ time.Duration) (clocksync.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, raw)
	return f.submitResult, f.submitErr
}

func (f *fakeTracker) SetAutoTime(_ context.Context, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.autoTime = append(f.autoTime, enabled)
	f.status.AutoTime = enabled
	return nil
}

func (f *fakeTracker) SetAutoTimeZone(_ context.Context, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.AutoTimeZone = enabled
	return nil
}

func (f *fakeTracker) RevertToNetworkTime(context.Context) (bool, error) {
	return true, nil
}

type fakeModem struct {
	mu    sync.Mutex
	radio radiolink.State
	reg   sim.Registration
	op    sim.OperatorNames
	sig   sim.Signal
	sent  int
}

func (f *fakeModem) RadioState() radiolink.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.radio
}

func (f *fakeModem) SetRadioState(s radiolink.State) {
	f.mu.Lock()
	f.radio = s
	f.mu.Unlock()
}

func (f *fakeModem) Registration() sim.Registration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reg
}

func (f *fakeModem) SetRegistration(r sim.Registration) {
	f.mu.Lock()
	f.reg = r
	f.mu.Unlock()
}

func (f *fakeModem) SetOperator(op sim.OperatorNames) {
	f.mu.Lock()
	f.op = op
	f.mu.Unlock()
}

func (f *fakeModem) SetSignal(s sim.Signal) {
	f.mu.Lock()
	f.sig = s
	f.mu.Unlock()
}

func (f *fakeModem) ReportSignal(s sim.Signal) {
	f.mu.Lock()
	f.sig = s
	f.sent++
	f.mu.Unlock()
}

type auditCall struct {
	user   string
	action string
	params map[string]interface{}
	err    error
}

type fakeAudit struct {
	mu    sync.Mutex
	calls []auditCall
}

func (f *fakeAudit) LogControlAction(ctx context.Context, action string, params map[string]interface{}, err error) {
	user := ""
	if c := auth.ClaimsFromContext(ctx); c != nil {
		user = c.Subject
	}
	f.mu.Lock()
	f.calls = append(f.calls, auditCall{user: user, action: action, params: params, err: err})
	f.mu.Unlock()
}

type testEnv struct {
	tracker *fakeTracker
	modem   *fakeModem
	audit   *fakeAudit
	handler http.Handler
}

func newTestEnv(t *testing.T, cfg config.ServerConfig, mw *auth.Middleware) *testEnv {
	t.Helper()
	snap := servicestate.OutOfServiceSnapshot()
	snap.State = servicestate.InService
	env := &testEnv{
		tracker: &fakeTracker{status: tracker.Status{Radio: "ON", Service: snap, AutoTime: true}},
		modem:   &fakeModem{radio: radiolink.On, reg: sim.Registration{Code: 1, SystemID: 4}},
		audit:   &fakeAudit{},
	}
	srv := NewServer(Options{
		Config:  cfg,
		Tracker: env.tracker,
		Modem:   env.modem,
		Audit:   env.audit,
		Auth:    mw,
	})
	env.handler = srv.Handler()
	return env
}

func (e *testEnv) do(method, path, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	assert.NotEmpty(t, resp.CorrelationID)
	return resp
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, config.ServerBaseline(), nil)
	rec := env.do(http.MethodGet, "/api/v1/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, "ok", resp.Result)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "ON", data["radio"])
	assert.Equal(t, "IN_SERVICE", data["state"])
}

func TestServiceStateAndStatus(t *testing.T) {
	env := newTestEnv(t, config.ServerBaseline(), nil)

	rec := env.do(http.MethodGet, "/api/v1/service-state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"IN_SERVICE"`)

	rec = env.do(http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"autoTime":true`)

	rec = env.do(http.MethodPost, "/api/v1/status", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSetRadio(t *testing.T) {
	env := newTestEnv(t, config.ServerBaseline(), nil)

	rec := env.do(http.MethodPost, "/api/v1/radio", `{"state":"off"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, radiolink.Off, env.modem.RadioState())

	require.Len(t, env.audit.calls, 1)
	assert.Equal(t, "setRadioState", env.audit.calls[0].action)
	assert.Equal(t, "anonymous", env.audit.calls[0].user)
	assert.Equal(t, "OFF", env.audit.calls[0].params["state"])

	rec = env.do(http.MethodPost, "/api/v1/radio", `{"state":"sideways"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/v1/radio", `{"state":"on","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decodeEnvelope(t, rec).Code)

	rec = env.do(http.MethodPost, "/api/v1/radio", `{"state":"on"}{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetRegistrationOverlaysCurrent(t *testing.T) {
	env := newTestEnv(t, config.ServerBaseline(), nil)

	rec := env.do(http.MethodPost, "/api/v1/registration", `{"code":5,"roamingIndicator":6}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	reg := env.modem.Registration()
	assert.Equal(t, 5, reg.Code)
	assert.Equal(t, 6, reg.RoamingIndicator)
	assert.Equal(t, 4, reg.SystemID)

	rec = env.do(http.MethodPost, "/api/v1/registration", `{"code":99}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_RANGE", decodeEnvelope(t, rec).Code)
}

func TestSetOperator(t *testing.T) {
	env := newTestEnv(t, config.ServerBaseline(), nil)
	rec := env.do(http.MethodPost, "/api/v1/operator", `{"alphaLong":"Carrier","numeric":"310260"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "310260", env.modem.op.Numeric)
}

func TestSetSignal(t *testing.T) {
	env := newTestEnv(t, config.ServerBaseline(), nil)
	rec := env.do(http.MethodPost, "/api/v1/signal", `{"cdmaDbm":70,"cdmaEcio":80}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 70, env.modem.sig.CdmaDbm)
	assert.Zero(t, env.modem.sent)

	rec = env.do(http.MethodPost, "/api/v1/signal?unsolicited=true", `{"cdmaDbm":65}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 65, env.modem.sig.CdmaDbm)
	assert.Equal(t, 1, env.modem.sent)
}

func TestPoll(t *testing.T) {
	env := newTestEnv(t, config.ServerBaseline(), nil)
	rec := env.do(http.MethodPost, "/api/v1/poll", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.tracker.polls)

	env.tracker.syncErr = tracker.ErrDisposed
	rec = env.do(http.MethodPost, "/api/v1/poll", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "UNAVAILABLE", decodeEnvelope(t, rec).Code)
}

func TestNetworkTime(t *testing.T) {
	env := newTestEnv(t, config.ServerBaseline(), nil)
	env.tracker.submitResult = clocksync.OutcomeCommitted

	rec := env.do(http.MethodPost, "/api/v1/clock/network-time", `{"time":"24/07/04,16:00:00-16,1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"24/07/04,16:00:00-16,1"}, env.tracker.submitted)
	assert.Contains(t, rec.Body.String(), `"outcome":"committed"`)

	env.tracker.submitResult = clocksync.OutcomeMalformed
	env.tracker.submitErr = fmt.Errorf("%q: %w", "junk", clocksync.ErrMalformedSignal)
	rec = env.do(http.MethodPost, "/api/v1/clock/network-time", `{"time":"junk"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.tracker.submitErr = clocksync.ErrImplausibleDelay
	rec = env.do(http.MethodPost, "/api/v1/clock/network-time", `{"time":"24/07/04,16:00:00-16"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "REJECTED", decodeEnvelope(t, rec).Code)

	env.tracker.submitResult = clocksync.OutcomeFailed
	env.tracker.submitErr = fmt.Errorf("%w: %w", clocksync.ErrSetTime, errors.New("permission denied"))
	rec = env.do(http.MethodPost, "/api/v1/clock/network-time", `{"time":"24/07/04,16:00:00-16"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "CLOCK_SET_FAILED", decodeEnvelope(t, rec).Code)

	rec = env.do(http.MethodPost, "/api/v1/clock/network-time", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAutoTimeToggles(t *testing.T) {
	env := newTestEnv(t, config.ServerBaseline(), nil)

	rec := env.do(http.MethodPost, "/api/v1/clock/auto-time", `{"enabled":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []bool{false}, env.tracker.autoTime)
	assert.Contains(t, rec.Body.String(), `"autoTime":false`)

	rec = env.do(http.MethodPost, "/api/v1/clock/auto-time-zone", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"autoTimeZone":true`)

	rec = env.do(http.MethodPost, "/api/v1/clock/auto-time", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/v1/clock/revert", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"applied":true`)
}

func TestRateLimit(t *testing.T) {
	cfg := config.ServerBaseline()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 2
	env := newTestEnv(t, cfg, nil)

	for i := 0; i < 2; i++ {
		rec := env.do(http.MethodPost, "/api/v1/poll", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := env.do(http.MethodPost, "/api/v1/poll", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "BUSY", decodeEnvelope(t, rec).Code)

	// Reads are not limited.
	rec = env.do(http.MethodGet, "/api/v1/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthScopes(t *testing.T) {
	v, err := auth.NewVerifier(auth.VerifierConfig{Secret: "shared"})
	require.NoError(t, err)
	env := newTestEnv(t, config.ServerBaseline(), auth.NewMiddleware(v, nil))

	viewer, err := v.Sign(auth.Claims{Subject: "viewer-1", Roles: []string{auth.RoleViewer}, Scopes: []string{auth.ScopeRead}}, time.Hour, time.Now())
	require.NoError(t, err)
	operator, err := v.Sign(auth.Claims{Subject: "op-1", Roles: []string{auth.RoleController}, Scopes: []string{auth.ScopeRead, auth.ScopeControl}}, time.Hour, time.Now())
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/v1/health", "").Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/v1/status", "").Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/v1/status", "", "Authorization", "Bearer "+viewer).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/api/v1/radio", `{"state":"off"}`, "Authorization", "Bearer "+viewer).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/v1/telemetry", "", "Authorization", "Bearer "+viewer).Code)

	rec := env.do(http.MethodPost, "/api/v1/radio", `{"state":"off"}`, "Authorization", "Bearer "+operator)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.audit.calls, 1)
	assert.Equal(t, "op-1", env.audit.calls[0].user)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, config.ServerBaseline(), nil)
	rec := env.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cellstate_")
}

func TestTelemetryUnavailable(t *testing.T) {
	env := newTestEnv(t, config.ServerBaseline(), nil)
	rec := env.do(http.MethodGet, "/api/v1/telemetry", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	hub := telemetry.NewHub(config.TelemetryBaseline(), nil, nil)
	hub.Stop()
	srv := NewServer(Options{Config: config.ServerBaseline(), Telemetry: hub})
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/telemetry", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
