// Package poll runs batches of modem queries as rounds and completes each
// round exactly once.
//
// Every round has a generation. Reply closures capture the generation at
// dispatch time and are marshaled onto the owner's loop before anything is
// touched; a reply whose generation is no longer active is dropped.
package poll

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/radio-control/cellstate/internal/metrics"
	"github.com/radio-control/cellstate/internal/modem"
	"github.com/radio-control/cellstate/internal/radiolink"
)

// Generation identifies a round.
type Generation uint64

// Query is one request in a round. Apply folds a successful result into the
// round's accumulator.
type Query[A any] struct {
	Kind   modem.RequestKind
	Params []string
	Apply  func(acc A, result []string) error
}

// Round is the bookkeeping for one batch of queries.
type Round[A any] struct {
	ID        Generation
	Remaining int
	Acc       A
	// Offline is set when the round was synthesized without querying.
	Offline bool

	done    bool
	started time.Time
	cancel  context.CancelFunc
	span    trace.Span
}

// Config wires a Coordinator.
type Config[A any] struct {
	Transport modem.Transport
	// Radio reports the current radio state.
	Radio func() radiolink.State
	// Post runs fn on the owner's loop.
	Post func(fn func())
	// NewAccumulator returns a clean accumulator for a round.
	NewAccumulator func() A
	// MarkOffline turns an accumulator into the out-of-service result.
	MarkOffline func(acc A)
	// Complete receives each finished round once.
	Complete func(r *Round[A])
	Logger   *slog.Logger
	Tracer   trace.Tracer
}

// Coordinator owns at most one active round. All methods must be called on
// the owner's loop.
type Coordinator[A any] struct {
	cfg    Config[A]
	logger *slog.Logger
	tracer trace.Tracer

	last   Generation
	active *Round[A]
}

// New creates a coordinator.
func New[A any](cfg Config[A]) *Coordinator[A] {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("cellstate/poll")
	}
	if cfg.Post == nil {
		cfg.Post = func(fn func()) { fn() }
	}
	return &Coordinator[A]{
		cfg:    cfg,
		logger: logger.With("component", "poll"),
		tracer: tracer,
	}
}

// BeginRound invalidates any active round and starts a new one. If the radio
// is off or unavailable no query is sent and an offline round completes
// immediately.
func (c *Coordinator[A]) BeginRound(ctx context.Context, queries []Query[A]) Generation {
	c.supersede("superseded")

	state := c.cfg.Radio()
	if !state.IsOn() {
		return c.completeOffline(ctx, state.String())
	}

	round := c.start(ctx, len(queries))
	if len(queries) == 0 {
		c.complete(round, "completed")
		return round.ID
	}

	gen := round.ID
	rctx := trace.ContextWithSpan(ctx, round.span)
	rctx, round.cancel = context.WithCancel(rctx)

	for _, q := range queries {
		q := q
		c.cfg.Transport.Send(rctx, q.Kind, q.Params, func(r modem.Reply) {
			c.cfg.Post(func() { c.handleReply(ctx, gen, q, r) })
		})
		if c.active != round {
			// A synchronous reply aborted the round.
			break
		}
	}
	return gen
}

// Active returns the active generation, if any.
func (c *Coordinator[A]) Active() (Generation, bool) {
	if c.active == nil {
		return 0, false
	}
	return c.active.ID, true
}

// Remaining returns the outstanding reply count of the active round.
func (c *Coordinator[A]) Remaining() int {
	if c.active == nil {
		return 0
	}
	return c.active.Remaining
}

// Cancel invalidates the active round without completing it.
func (c *Coordinator[A]) Cancel() {
	c.supersede("canceled")
}

func (c *Coordinator[A]) supersede(outcome string) {
	r := c.active
	if r == nil {
		return
	}
	c.active = nil
	r.done = true
	if r.cancel != nil {
		r.cancel()
	}
	r.span.SetAttributes(attribute.String("outcome", outcome))
	r.span.End()
	metrics.PollRoundsTotal.WithLabelValues(outcome).Inc()
	c.logger.Debug("poll round invalidated", "generation", uint64(r.ID), "remaining", r.Remaining, "outcome", outcome)
}

func (c *Coordinator[A]) start(ctx context.Context, n int) *Round[A] {
	c.last++
	_, span := c.tracer.Start(ctx, "poll.round",
		trace.WithAttributes(
			attribute.Int64("generation", int64(c.last)),
			attribute.Int("queries", n),
		),
	)
	r := &Round[A]{
		ID:        c.last,
		Remaining: n,
		Acc:       c.cfg.NewAccumulator(),
		started:   time.Now(),
		span:      span,
	}
	c.active = r
	return r
}

func (c *Coordinator[A]) completeOffline(ctx context.Context, reason string) Generation {
	r := c.start(ctx, 0)
	r.Offline = true
	if c.cfg.MarkOffline != nil {
		c.cfg.MarkOffline(r.Acc)
	}
	r.span.SetAttributes(attribute.String("offline_reason", reason))
	c.complete(r, "offline")
	return r.ID
}

func (c *Coordinator[A]) handleReply(ctx context.Context, gen Generation, q Query[A], reply modem.Reply) {
	r := c.active
	if r == nil || r.ID != gen || r.done {
		metrics.PollStaleReplies.Inc()
		c.logger.Debug("dropping stale reply", "generation", uint64(gen), "request", q.Kind.String())
		return
	}

	if reply.Err != nil {
		if modem.IsRadioNotAvailable(reply.Err) || !c.cfg.Radio().IsOn() {
			c.abort(ctx, r, q, reply.Err)
			return
		}
		metrics.PollReplyErrors.WithLabelValues(q.Kind.String()).Inc()
		if errors.Is(reply.Err, modem.ErrOpNotAllowedBeforeReg) {
			c.logger.Debug("request not allowed before registration", "request", q.Kind.String())
		} else {
			c.logger.Warn("poll request failed", "request", q.Kind.String(), "error", reply.Err)
		}
	} else if q.Apply != nil {
		if err := q.Apply(r.Acc, reply.Result); err != nil {
			metrics.PollReplyErrors.WithLabelValues(q.Kind.String()).Inc()
			c.logger.Warn("malformed poll reply", "request", q.Kind.String(), "error", err)
		}
	}

	r.Remaining--
	if r.Remaining <= 0 {
		c.complete(r, "completed")
	}
}

// abort drops the round's partial data and commits an offline round instead.
func (c *Coordinator[A]) abort(ctx context.Context, r *Round[A], q Query[A], err error) {
	c.logger.Warn("radio not available, aborting poll round",
		"generation", uint64(r.ID), "request", q.Kind.String(), "error", err)
	r.span.RecordError(err)
	r.span.SetStatus(codes.Error, err.Error())
	c.supersede("aborted")
	c.completeOffline(ctx, "radio not available")
}

func (c *Coordinator[A]) complete(r *Round[A], outcome string) {
	if r.done {
		return
	}
	r.done = true
	if c.active == r {
		c.active = nil
	}
	if r.cancel != nil {
		r.cancel()
	}

	metrics.PollRoundsTotal.WithLabelValues(outcome).Inc()
	metrics.PollRoundLatency.Observe(time.Since(r.started).Seconds())
	r.span.SetAttributes(attribute.String("outcome", outcome))
	r.span.End()

	c.cfg.Complete(r)
}
