// internal/worker/worker.go
//
// Message-passing boundary around one solver engine.
// Responsibilities:
//   - Run the engine on a single goroutine that owns it.
//   - Deliver each request in arrival order and return exactly one response.
//   - Track when the worker was last used so idle sessions can be swept.
//
// A caller whose context ends stops waiting, but a request already handed to
// the engine still runs to completion; its response is dropped.

package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Storm-fyre/silversolver/internal/session"
)

// ErrClosed is returned by Do after Close.
var ErrClosed = errors.New("worker: closed")

// Handler is what a worker drives. *session.Engine implements it.
type Handler interface {
	Handle(ctx context.Context, req session.Request) session.Response
}

type call struct {
	ctx   context.Context
	req   session.Request
	reply chan session.Response
}

// Worker serialises requests to one Handler.
type Worker struct {
	calls    chan call
	done     chan struct{}
	stopped  chan struct{}
	once     sync.Once
	lastUsed atomic.Int64 // unix nanos
	now      func() time.Time
}

// Start launches the goroutine that owns h.
func Start(h Handler) *Worker {
	w := &Worker{
		calls:   make(chan call),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		now:     time.Now,
	}
	w.touch()
	go w.loop(h)
	return w
}

func (w *Worker) loop(h Handler) {
	defer close(w.stopped)
	for {
		select {
		case c := <-w.calls:
			c.reply <- h.Handle(c.ctx, c.req)
		case <-w.done:
			return
		}
	}
}

// Do sends req and waits for its response.
func (w *Worker) Do(ctx context.Context, req session.Request) (session.Response, error) {
	w.touch()
	c := call{ctx: ctx, req: req, reply: make(chan session.Response, 1)}

	select {
	case w.calls <- c:
	case <-w.done:
		return session.Response{}, ErrClosed
	case <-ctx.Done():
		return session.Response{}, ctx.Err()
	}

	select {
	case resp := <-c.reply:
		return resp, nil
	case <-ctx.Done():
		return session.Response{}, ctx.Err()
	}
}

// Close stops the worker and waits for an in-flight request to finish.
// It is safe to call more than once.
func (w *Worker) Close() {
	w.once.Do(func() { close(w.done) })
	<-w.stopped
}

// LastUsed reports when Do was last called.
func (w *Worker) LastUsed() time.Time {
	return time.Unix(0, w.lastUsed.Load())
}

func (w *Worker) touch() { w.lastUsed.Store(w.now().UnixNano()) }
