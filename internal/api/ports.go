package api

import (
	"context"
	"net/http"
	"time"

	"github.com/radio-control/cellstate/internal/audit"
	"github.com/radio-control/cellstate/internal/clocksync"
	"github.com/radio-control/cellstate/internal/modem/sim"
	"github.com/radio-control/cellstate/internal/radiolink"
	"github.com/radio-control/cellstate/internal/telemetry"
	"github.com/radio-control/cellstate/internal/tracker"
)

// TrackerPort is what the API needs from the tracker.
type TrackerPort interface {
	Status() tracker.Status
	PollState()
	Sync(ctx context.Context) error
	SubmitNetworkTime(ctx context.Context, raw string, receivedAt time.Duration) (clocksync.Outcome, error)
	SetAutoTime(ctx context.Context, enabled bool) error
	SetAutoTimeZone(ctx context.Context, enabled bool) error
	RevertToNetworkTime(ctx context.Context) (bool, error)
}

// ModemPort drives the simulated radio.
type ModemPort interface {
	RadioState() radiolink.State
	SetRadioState(s radiolink.State)
	Registration() sim.Registration
	SetRegistration(r sim.Registration)
	SetOperator(op sim.OperatorNames)
	SetSignal(s sim.Signal)
	ReportSignal(s sim.Signal)
}

// TelemetryPort streams events to one client until it disconnects.
type TelemetryPort interface {
	Subscribe(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// AuditPort records control requests.
type AuditPort interface {
	LogControlAction(ctx context.Context, action string, params map[string]interface{}, err error)
}

var (
	_ TrackerPort   = (*tracker.Tracker)(nil)
	_ ModemPort     = (*sim.Modem)(nil)
	_ TelemetryPort = (*telemetry.Hub)(nil)
	_ AuditPort     = (*audit.Logger)(nil)
)
