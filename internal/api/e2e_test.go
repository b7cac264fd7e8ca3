package api

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radio-control/cellstate/internal/clocksync"
	"github.com/radio-control/cellstate/internal/config"
	"github.com/radio-control/cellstate/internal/modem/sim"
	"github.com/radio-control/cellstate/internal/notify"
	"github.com/radio-control/cellstate/internal/props"
	"github.com/radio-control/cellstate/internal/radiolink"
	"github.com/radio-control/cellstate/internal/servicestate"
	"github.com/radio-control/cellstate/internal/telemetry"
	"github.com/radio-control/cellstate/internal/tracker"
)

type stack struct {
	url     string
	tracker *tracker.Tracker
	modem   *sim.Modem
	hub     *telemetry.Hub
}

func newStack(t *testing.T) *stack {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	base := clocksync.NewSystemClock()
	device := clocksync.NewVirtualClock(base, "")

	modem := sim.New(sim.Config{
		Latency: time.Millisecond,
		Radio:   radiolink.On,
		Registration: sim.Registration{
			Code:             1,
			SystemID:         4,
			NetworkID:        7,
			RoamingIndicator: 1,
			InPRL:            true,
		},
		Operator:     sim.OperatorNames{AlphaLong: "Carrier", AlphaShort: "CR", Numeric: "310260"},
		Subscription: sim.Subscription{HomeSIDs: []int{4}, HomeNIDs: []int{7}, PRLVersion: "51"},
	}, base, logger)

	bus := notify.NewBus()
	tr, err := tracker.New(tracker.Options{
		Transport:   modem,
		Radio:       radiolink.NewObserver(modem.RadioState(), logger),
		Props:       props.NewMemStore(nil),
		Bus:         bus,
		Clock:       device,
		Setter:      device,
		Policy:      servicestate.DefaultRoamingPolicy(),
		ClockConfig: clocksync.DefaultConfig(),
		Logger:      logger,
	})
	require.NoError(t, err)
	modem.SetListener(tr)

	hub := telemetry.NewHub(config.TelemetryBaseline(), func() interface{} { return tr.Status() }, logger)
	bus.SubscribeAll(hub.PublishNotify)

	srv := NewServer(Options{
		Config:    config.ServerBaseline(),
		Tracker:   tr,
		Modem:     modem,
		Telemetry: hub,
		Clock:     base,
		Logger:    logger,
	})
	ts := httptest.NewServer(srv.Handler())

	t.Cleanup(func() {
		hub.Stop()
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = tr.Dispose(ctx)
		_ = modem.Close()
	})
	return &stack{url: ts.URL, tracker: tr, modem: modem, hub: hub}
}

func getJSON(t *testing.T, url string) map[string]interface{} {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, "ok", out["result"])
	return out["data"].(map[string]interface{})
}

func postJSON(t *testing.T, url, body string) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

// streamEvents reads SSE event names until ctx ends.
func streamEvents(ctx context.Context, t *testing.T, url string) <-chan string {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := make(chan string, 64)
	go func() {
		defer resp.Body.Close()
		defer close(out)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if name, ok := strings.CutPrefix(sc.Text(), "event: "); ok {
				out <- name
			}
		}
	}()
	return out
}

func waitForEvent(t *testing.T, events <-chan string, want string) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case name, ok := <-events:
			require.True(t, ok, "stream closed before %s", want)
			if name == want {
				return
			}
		case <-timeout:
			t.Fatalf("no %s event", want)
		}
	}
}

func TestEndToEndRoamingAndClock(t *testing.T) {
	st := newStack(t)

	require.Eventually(t, func() bool {
		return st.tracker.ServiceState().State == servicestate.InService
	}, 2*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := streamEvents(ctx, t, st.url+"/api/v1/telemetry?kinds=roaming_on,timezone_changed")
	waitForEvent(t, events, telemetry.TypeReady)

	require.Equal(t, http.StatusOK, postJSON(t, st.url+"/api/v1/registration", `{"code":5,"roamingIndicator":6}`))
	waitForEvent(t, events, "roaming_on")

	service := getJSON(t, st.url+"/api/v1/service-state")
	assert.Equal(t, true, service["roaming"])
	assert.Equal(t, "IN_SERVICE", service["state"])

	require.Equal(t, http.StatusOK, postJSON(t, st.url+"/api/v1/clock/network-time", `{"time":"24/07/04,16:00:00-16,1"}`))
	waitForEvent(t, events, "timezone_changed")

	status := getJSON(t, st.url+"/api/v1/status")
	ledger := status["ledger"].(map[string]interface{})
	assert.Equal(t, "America/New_York", ledger["zoneId"])
	assert.Equal(t, true, ledger["committed"])
}

func TestEndToEndRadioOff(t *testing.T) {
	st := newStack(t)
	require.Eventually(t, func() bool {
		return st.tracker.ServiceState().State == servicestate.InService
	}, 2*time.Second, 5*time.Millisecond)

	require.Equal(t, http.StatusOK, postJSON(t, st.url+"/api/v1/radio", `{"state":"off"}`))
	require.Eventually(t, func() bool {
		return st.tracker.ServiceState().State == servicestate.OutOfService
	}, 2*time.Second, 5*time.Millisecond)

	radio := getJSON(t, st.url+"/api/v1/radio")
	assert.Equal(t, "OFF", radio["state"])

	health := getJSON(t, st.url+"/api/v1/health")
	assert.Equal(t, "OUT_OF_SERVICE", health["state"])
}
