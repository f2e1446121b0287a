// Package async implements single-assignment futures bound to a loop.
//
// Every observer of a Future runs on the Future's loop, whichever goroutine
// resolved it.
package async

import (
	"context"
	"errors"
	"sync"

	"github.com/pipecat-ai/rtvi-client-android/internal/logx"
	"github.com/pipecat-ai/rtvi-client-android/sdk/loop"
)

var (
	// ErrTimeout resolves futures created by WithTimeout that expired.
	ErrTimeout = errors.New("the operation timed out")

	// ErrAwaitOnLoop is returned when Await would block the loop it waits on.
	ErrAwaitOnLoop = errors.New("await called on the future's own loop")
)

// Unit is the value of futures that only signal completion.
type Unit = struct{}

// Result is the terminal outcome of a Future.
type Result[V any] struct {
	Value V
	Err   error
}

// Ok wraps a successful value.
func Ok[V any](v V) Result[V] { return Result[V]{Value: v} }

// Err wraps a failure.
func Err[V any](err error) Result[V] { return Result[V]{Err: err} }

// IsOk reports whether r holds a value.
func (r Result[V]) IsOk() bool { return r.Err == nil }

// Future is the read side of a Promise.
type Future[V any] struct {
	loop *loop.Loop

	mu        sync.Mutex
	result    *Result[V]
	callbacks []func(Result[V])
}

// Loop returns the loop observers run on.
func (f *Future[V]) Loop() *loop.Loop { return f.loop }

// WithCallback registers cb to receive the result exactly once. If f is
// already resolved cb still runs on the loop.
func (f *Future[V]) WithCallback(cb func(Result[V])) *Future[V] {
	f.loop.RunOnThread(func() {
		f.mu.Lock()
		if f.result == nil {
			f.callbacks = append(f.callbacks, cb)
			f.mu.Unlock()
			return
		}
		r := *f.result
		f.mu.Unlock()
		cb(r)
	})
	return f
}

// WithErrorCallback registers cb for the error branch only.
func (f *Future[V]) WithErrorCallback(cb func(error)) *Future[V] {
	return f.WithCallback(func(r Result[V]) {
		if r.Err != nil {
			cb(r.Err)
		}
	})
}

// LogError logs a failure of the operation named by description.
func (f *Future[V]) LogError(description string) *Future[V] {
	return f.WithErrorCallback(func(err error) {
		logx.Log.Error().Err(err).Msgf("Operation %s failed", description)
	})
}

// Resolved reports whether a result has been published.
func (f *Future[V]) Resolved() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result != nil
}

// Await blocks until f resolves or ctx is done. It must not be called from
// the loop f is bound to.
func (f *Future[V]) Await(ctx context.Context) (V, error) {
	var zero V
	if f.loop != nil && f.loop.IsCurrent() {
		return zero, ErrAwaitOnLoop
	}
	ch := make(chan Result[V], 1)
	f.WithCallback(func(r Result[V]) { ch <- r })
	select {
	case r := <-ch:
		return r.Value, r.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (f *Future[V]) resolve(r Result[V]) {
	f.loop.RunOnThread(func() {
		f.mu.Lock()
		if f.result != nil {
			f.mu.Unlock()
			return
		}
		f.result = &r
		cbs := f.callbacks
		f.callbacks = nil
		f.mu.Unlock()
		for _, cb := range cbs {
			cb(r)
		}
	})
}

// Promise is the write side of a Future. Only the first resolution counts.
type Promise[V any] struct {
	future *Future[V]
}

// NewPromise returns an unresolved promise bound to l.
func NewPromise[V any](l *loop.Loop) *Promise[V] {
	return &Promise[V]{future: &Future[V]{loop: l}}
}

// Future returns the read side.
func (p *Promise[V]) Future() *Future[V] { return p.future }

// Resolve publishes r unless a result was already published. It may be
// called from any goroutine.
func (p *Promise[V]) Resolve(r Result[V]) { p.future.resolve(r) }

// ResolveOk resolves with v.
func (p *Promise[V]) ResolveOk(v V) { p.Resolve(Ok(v)) }

// ResolveErr resolves with err.
func (p *Promise[V]) ResolveErr(err error) { p.Resolve(Err[V](err)) }
