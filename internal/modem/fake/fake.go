// Package fake provides a scripted modem transport for deterministic tests.
//
// Requests are recorded and left pending until the test answers them, so
// tests control reply order, staleness and failures exactly.
package fake

import (
	"context"
	"sync"

	"github.com/radio-control/cellstate/internal/modem"
)

// Call is one recorded request.
type Call struct {
	Kind   modem.RequestKind
	Params []string

	done    func(modem.Reply)
	mu      sync.Mutex
	replied bool
}

// Reply answers the call with a result. Second and later answers are ignored.
func (c *Call) Reply(result ...string) {
	c.deliver(modem.Reply{Kind: c.Kind, Result: result})
}

// Fail answers the call with an error.
func (c *Call) Fail(err error) {
	c.deliver(modem.Reply{Kind: c.Kind, Err: err})
}

// Replied reports whether the call has been answered.
func (c *Call) Replied() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replied
}

func (c *Call) deliver(r modem.Reply) {
	c.mu.Lock()
	if c.replied {
		c.mu.Unlock()
		return
	}
	c.replied = true
	c.mu.Unlock()

	c.done(r)
}

// Responder produces an automatic reply for a request kind.
type Responder func(params []string) modem.Reply

// Transport records calls and optionally auto-replies per kind.
type Transport struct {
	mu         sync.Mutex
	calls      []*Call
	responders map[modem.RequestKind]Responder
}

var _ modem.Transport = (*Transport)(nil)

// NewTransport creates an empty scripted transport.
func NewTransport() *Transport {
	return &Transport{responders: make(map[modem.RequestKind]Responder)}
}

// Send records the call. With a responder installed for kind the reply is
// delivered asynchronously on a new goroutine.
func (t *Transport) Send(ctx context.Context, kind modem.RequestKind, params []string, done func(modem.Reply)) {
	call := &Call{Kind: kind, Params: params, done: done}

	t.mu.Lock()
	t.calls = append(t.calls, call)
	responder := t.responders[kind]
	t.mu.Unlock()

	if responder != nil {
		r := responder(params)
		r.Kind = kind
		go call.deliver(r)
	}
}

// Respond installs an automatic responder for kind. A nil responder removes it.
func (t *Transport) Respond(kind modem.RequestKind, r Responder) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if r == nil {
		delete(t.responders, kind)
		return
	}
	t.responders[kind] = r
}

// RespondWith installs a responder that always returns result.
func (t *Transport) RespondWith(kind modem.RequestKind, result ...string) {
	t.Respond(kind, func([]string) modem.Reply { return modem.Reply{Result: result} })
}

// RespondError installs a responder that always fails with err.
func (t *Transport) RespondError(kind modem.RequestKind, err error) {
	t.Respond(kind, func([]string) modem.Reply { return modem.Reply{Err: err} })
}

// Calls returns every recorded call in send order.
func (t *Transport) Calls() []*Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Call, len(t.calls))
	copy(out, t.calls)
	return out
}

// Pending returns unanswered calls in send order.
func (t *Transport) Pending() []*Call {
	var out []*Call
	for _, c := range t.Calls() {
		if !c.Replied() {
			out = append(out, c)
		}
	}
	return out
}

// Next returns the oldest unanswered call of kind, or nil.
func (t *Transport) Next(kind modem.RequestKind) *Call {
	for _, c := range t.Pending() {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// Count returns how many calls of kind have been sent.
func (t *Transport) Count(kind modem.RequestKind) int {
	n := 0
	for _, c := range t.Calls() {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls. Responders stay installed.
func (t *Transport) Reset() {
	t.mu.Lock()
	t.calls = nil
	t.mu.Unlock()
}
