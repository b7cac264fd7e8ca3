// Package modemtest provides a conformance suite for modem.Transport
// implementations.
package modemtest

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/radio-control/cellstate/internal/modem"
	"github.com/radio-control/cellstate/internal/radiolink"
)

// Harness is a transport under test plus the controls the suite needs.
type Harness struct {
	Transport modem.Transport
	// SetRadio drives the simulated radio state.
	SetRadio func(radiolink.State)
	// Close releases the transport. Optional.
	Close func()
}

// ConformanceResult records one check.
type ConformanceResult struct {
	TestName string
	Passed   bool
	Error    string
	Duration time.Duration
}

// ConformanceReport collects every check run against a transport.
type ConformanceReport struct {
	TotalTests  int
	PassedTests int
	FailedTests int
	Results     []ConformanceResult
	Duration    time.Duration
}

const replyTimeout = 5 * time.Second

// RunConformance runs the suite. newHarness is called once per check so
// checks do not share transport state.
func RunConformance(t *testing.T, newHarness func(t *testing.T) Harness) {
	start := time.Now()
	report := &ConformanceReport{}

	checks := []struct {
		name string
		fn   func(t *testing.T, h Harness) error
	}{
		{"RegistrationHasFourteenFields", checkRegistrationFields},
		{"OperatorHasThreeFields", checkOperatorFields},
		{"UnavailableRadioFailsNotAvailable", checkUnavailable},
		{"EveryRequestAnsweredOnce", checkAnsweredOnce},
		{"CanceledContextFails", checkCanceled},
	}

	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			h := newHarness(t)
			if h.Close != nil {
				defer h.Close()
			}

			checkStart := time.Now()
			err := c.fn(t, h)
			res := ConformanceResult{TestName: c.name, Passed: err == nil, Duration: time.Since(checkStart)}
			if err != nil {
				res.Error = err.Error()
				t.Error(err)
			}
			recordResult(report, res)
		})
	}

	report.Duration = time.Since(start)
	t.Logf("modem conformance: %d/%d passed in %v", report.PassedTests, report.TotalTests, report.Duration)
}

func recordResult(report *ConformanceReport, res ConformanceResult) {
	report.TotalTests++
	if res.Passed {
		report.PassedTests++
	} else {
		report.FailedTests++
	}
	report.Results = append(report.Results, res)
}

func send(h Harness, ctx context.Context, kind modem.RequestKind) (modem.Reply, error) {
	replies := make(chan modem.Reply, 1)
	h.Transport.Send(ctx, kind, nil, func(r modem.Reply) { replies <- r })

	select {
	case r := <-replies:
		return r, nil
	case <-time.After(replyTimeout):
		return modem.Reply{}, errors.New("no reply for " + kind.String())
	}
}

func checkRegistrationFields(t *testing.T, h Harness) error {
	h.SetRadio(radiolink.On)
	r, err := send(h, context.Background(), modem.RegistrationState)
	if err != nil {
		return err
	}
	if r.Err != nil {
		return errors.New("registration failed: " + r.Err.Error())
	}
	if len(r.Result) != 14 {
		return errors.New("registration reply has " + strconv.Itoa(len(r.Result)) + " fields, want 14")
	}
	if r.Kind != modem.RegistrationState {
		return errors.New("reply kind " + r.Kind.String() + ", want REGISTRATION_STATE")
	}
	return nil
}

func checkOperatorFields(t *testing.T, h Harness) error {
	h.SetRadio(radiolink.On)
	r, err := send(h, context.Background(), modem.Operator)
	if err != nil {
		return err
	}
	if r.Err != nil {
		return errors.New("operator failed: " + r.Err.Error())
	}
	if len(r.Result) < 3 {
		return errors.New("operator reply has " + strconv.Itoa(len(r.Result)) + " fields, want at least 3")
	}
	return nil
}

func checkUnavailable(t *testing.T, h Harness) error {
	h.SetRadio(radiolink.Unavailable)
	for _, kind := range []modem.RequestKind{modem.RegistrationState, modem.Operator} {
		r, err := send(h, context.Background(), kind)
		if err != nil {
			return err
		}
		if !modem.IsRadioNotAvailable(r.Err) {
			return errors.New(kind.String() + " with radio unavailable returned " + errString(r.Err) + ", want RADIO_NOT_AVAILABLE")
		}
	}
	return nil
}

func checkAnsweredOnce(t *testing.T, h Harness) error {
	h.SetRadio(radiolink.On)

	const n = 8
	counts := make(chan modem.RequestKind, 2*n)
	for i := 0; i < n; i++ {
		h.Transport.Send(context.Background(), modem.RegistrationState, nil, func(r modem.Reply) { counts <- r.Kind })
	}

	deadline := time.After(replyTimeout)
	for i := 0; i < n; i++ {
		select {
		case <-counts:
		case <-deadline:
			return errors.New("only " + strconv.Itoa(i) + " of " + strconv.Itoa(n) + " requests answered")
		}
	}

	select {
	case <-counts:
		return errors.New("a request was answered more than once")
	case <-time.After(50 * time.Millisecond):
	}
	return nil
}

func checkCanceled(t *testing.T, h Harness) error {
	h.SetRadio(radiolink.On)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := send(h, ctx, modem.RegistrationState)
	if err != nil {
		return err
	}
	if !errors.Is(r.Err, context.Canceled) {
		return errors.New("canceled request returned " + errString(r.Err) + ", want context.Canceled")
	}
	return nil
}

func errString(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}
