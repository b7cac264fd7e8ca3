package fake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/radio-control/cellstate/internal/modem"
)

func TestTransportRecordsAndReplies(t *testing.T) {
	tr := NewTransport()

	var got modem.Reply
	tr.Send(context.Background(), modem.Operator, nil, func(r modem.Reply) { got = r })

	call := tr.Next(modem.Operator)
	if call == nil {
		t.Fatal("Next(Operator) = nil, want pending call")
	}

	call.Reply("Long", "Short", "310260")

	if got.Kind != modem.Operator {
		t.Errorf("Kind = %v, want %v", got.Kind, modem.Operator)
	}
	if len(got.Result) != 3 || got.Result[2] != "310260" {
		t.Errorf("Result = %v, want [Long Short 310260]", got.Result)
	}
	if len(tr.Pending()) != 0 {
		t.Errorf("Pending() = %d calls, want 0", len(tr.Pending()))
	}
}

func TestCallRepliesOnce(t *testing.T) {
	tr := NewTransport()
	count := 0
	tr.Send(context.Background(), modem.PRLVersion, nil, func(modem.Reply) { count++ })

	call := tr.Next(modem.PRLVersion)
	call.Reply("1")
	call.Fail(errors.New("late"))

	if count != 1 {
		t.Errorf("done called %d times, want 1", count)
	}
}

func TestRespondWithIsAsynchronous(t *testing.T) {
	tr := NewTransport()
	tr.RespondWith(modem.PRLVersion, "42")

	replies := make(chan modem.Reply, 1)
	tr.Send(context.Background(), modem.PRLVersion, nil, func(r modem.Reply) { replies <- r })

	select {
	case r := <-replies:
		if r.Err != nil || len(r.Result) != 1 || r.Result[0] != "42" {
			t.Errorf("reply = %+v, want result [42]", r)
		}
		if r.Kind != modem.PRLVersion {
			t.Errorf("Kind = %v, want PRLVersion", r.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("no reply from responder")
	}

	if tr.Count(modem.PRLVersion) != 1 {
		t.Errorf("Count = %d, want 1", tr.Count(modem.PRLVersion))
	}
}

func TestRespondError(t *testing.T) {
	tr := NewTransport()
	tr.RespondError(modem.RegistrationState, modem.ErrRadioNotAvailable)

	replies := make(chan modem.Reply, 1)
	tr.Send(context.Background(), modem.RegistrationState, nil, func(r modem.Reply) { replies <- r })

	r := <-replies
	if !errors.Is(r.Err, modem.ErrRadioNotAvailable) {
		t.Errorf("Err = %v, want RADIO_NOT_AVAILABLE", r.Err)
	}

	tr.Respond(modem.RegistrationState, nil)
	tr.Send(context.Background(), modem.RegistrationState, nil, func(modem.Reply) {
		t.Error("removed responder still answered")
	})
	if len(tr.Pending()) != 1 {
		t.Errorf("Pending() = %d, want 1", len(tr.Pending()))
	}
}

func TestReset(t *testing.T) {
	tr := NewTransport()
	tr.Send(context.Background(), modem.Operator, nil, func(modem.Reply) {})
	tr.Reset()
	if len(tr.Calls()) != 0 {
		t.Errorf("Calls() after Reset = %d, want 0", len(tr.Calls()))
	}
}
