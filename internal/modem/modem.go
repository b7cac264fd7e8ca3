// Package modem defines the asynchronous request/reply port to the radio
// and the failure taxonomy its replies are normalized into.
package modem

import (
	"context"
	"fmt"
)

// RequestKind names a query the tracker can issue to the radio.
type RequestKind int

const (
	// RegistrationState returns the 14-field registration record.
	RegistrationState RequestKind = iota + 1
	// Operator returns alpha long, alpha short and numeric operator names.
	Operator
	// CdmaSubscription returns MDN, home SIDs, home NIDs, MIN and optionally the PRL version.
	CdmaSubscription
	// PRLVersion returns the loaded preferred roaming list version.
	PRLVersion
	// SignalStrength returns the 12-field signal measurement.
	SignalStrength
)

func (k RequestKind) String() string {
	switch k {
	case RegistrationState:
		return "REGISTRATION_STATE"
	case Operator:
		return "OPERATOR"
	case CdmaSubscription:
		return "CDMA_SUBSCRIPTION"
	case PRLVersion:
		return "PRL_VERSION"
	case SignalStrength:
		return "SIGNAL_STRENGTH"
	default:
		return fmt.Sprintf("RequestKind(%d)", int(k))
	}
}

// Reply carries the outcome of one request. Exactly one of Result or Err is
// meaningful.
type Reply struct {
	Kind   RequestKind
	Result []string
	Err    error
}

// Transport sends requests to the radio. Send must not block on the reply:
// done is invoked exactly once, on any goroutine, when the radio answers or
// the request fails.
type Transport interface {
	Send(ctx context.Context, kind RequestKind, params []string, done func(Reply))
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, kind RequestKind, params []string, done func(Reply))

// Send calls f.
func (f TransportFunc) Send(ctx context.Context, kind RequestKind, params []string, done func(Reply)) {
	f(ctx, kind, params, done)
}
