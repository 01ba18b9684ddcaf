// Package channel implements the bounded roundtrip channel used to talk to
// long-lived workers: each call carries a request, the caller's context, and
// a one-shot reply slot. The reply slot is write-once; a worker that cannot
// serve a request drops the slot instead of replying, which surfaces as
// ErrClosed on the caller side.
package channel

import (
	"context"

	perr "lineview/internal/platform/errors"
)

// DefaultCapacity is the bounded queue size for worker channels
const DefaultCapacity = 10

// ErrClosed is returned by Roundtrip when the reply slot was dropped without
// a reply, or when the worker has stopped receiving
var ErrClosed = perr.Closedf("roundtrip reply dropped")

type call[Req, Resp any] struct {
	req   Req
	ctx   context.Context
	reply chan Resp
}

// Sender is the producer half of a roundtrip channel
type Sender[Req, Resp any] struct {
	calls chan call[Req, Resp]
	done  chan struct{}
}

// Receiver is the worker half of a roundtrip channel
type Receiver[Req, Resp any] struct {
	calls chan call[Req, Resp]
	done  chan struct{}
}

// New creates a bounded roundtrip channel; capacity <= 0 means DefaultCapacity
func New[Req, Resp any](capacity int) (Sender[Req, Resp], Receiver[Req, Resp]) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	calls := make(chan call[Req, Resp], capacity)
	done := make(chan struct{})
	return Sender[Req, Resp]{calls: calls, done: done}, Receiver[Req, Resp]{calls: calls, done: done}
}

// Roundtrip sends req to the worker and waits for the one-shot reply.
// Returns ctx.Err() if the caller's context is cancelled first, ErrClosed if
// the worker dropped the reply slot or stopped receiving.
func (s Sender[Req, Resp]) Roundtrip(ctx context.Context, req Req) (Resp, error) {
	var zero Resp
	c := call[Req, Resp]{req: req, ctx: ctx, reply: make(chan Resp, 1)}
	select {
	case s.calls <- c:
	case <-s.done:
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	select {
	case resp, ok := <-c.reply:
		if !ok {
			return zero, ErrClosed
		}
		return resp, nil
	case <-s.done:
		// the worker may have replied just before terminating
		select {
		case resp, ok := <-c.reply:
			if ok {
				return resp, nil
			}
		default:
		}
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Call is one delivered request. Exactly one of Reply or Drop must be called;
// worker loops typically defer Drop so a skipped reply still unblocks the
// caller.
type Call[Req, Resp any] struct {
	Req     Req
	ctx     context.Context
	reply   chan Resp
	settled bool
}

// Context returns the caller's context; workers race long upstream reads
// against it
func (c *Call[Req, Resp]) Context() context.Context { return c.ctx }

// Reply delivers resp and seals the slot. No-op after Reply or Drop.
func (c *Call[Req, Resp]) Reply(resp Resp) {
	if c.settled {
		return
	}
	c.settled = true
	c.reply <- resp
	close(c.reply)
}

// Drop seals the slot without a reply. No-op after Reply or Drop.
func (c *Call[Req, Resp]) Drop() {
	if c.settled {
		return
	}
	c.settled = true
	close(c.reply)
}

// Recv blocks until a call is available or ctx is cancelled. The second
// return is false when the worker should terminate.
func (r Receiver[Req, Resp]) Recv(ctx context.Context) (*Call[Req, Resp], bool) {
	select {
	case c := <-r.calls:
		return &Call[Req, Resp]{Req: c.req, ctx: c.ctx, reply: c.reply}, true
	case <-ctx.Done():
		return nil, false
	}
}

// Close marks the worker as terminated; pending and future roundtrips fail
// with ErrClosed instead of hanging. Worker goroutines defer this.
func (r Receiver[Req, Resp]) Close() { close(r.done) }
