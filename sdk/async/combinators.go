package async

import (
	"time"

	"github.com/pipecat-ai/rtvi-client-android/sdk/loop"
)

// Resolved returns a future already holding v.
func Resolved[V any](l *loop.Loop, v V) *Future[V] {
	p := NewPromise[V](l)
	p.ResolveOk(v)
	return p.Future()
}

// Failed returns a future already holding err.
func Failed[V any](l *loop.Loop, err error) *Future[V] {
	p := NewPromise[V](l)
	p.ResolveErr(err)
	return p.Future()
}

// WithPromise hands a fresh promise to fn and returns its future.
func WithPromise[V any](l *loop.Loop, fn func(*Promise[V])) *Future[V] {
	p := NewPromise[V](l)
	fn(p)
	return p.Future()
}

// RunOnLoop runs fn on l and forwards the future it returns.
func RunOnLoop[V any](l *loop.Loop, fn func() *Future[V]) *Future[V] {
	p := NewPromise[V](l)
	l.RunOnThread(func() {
		fn().WithCallback(p.Resolve)
	})
	return p.Future()
}

// Go runs fn on a new goroutine and publishes its result on l.
func Go[V any](l *loop.Loop, fn func() (V, error)) *Future[V] {
	p := NewPromise[V](l)
	go func() {
		v, err := fn()
		if err != nil {
			p.ResolveErr(err)
			return
		}
		p.ResolveOk(v)
	}()
	return p.Future()
}

// Map transforms the value of f. Errors pass through unchanged.
func Map[V, W any](f *Future[V], fn func(V) W) *Future[W] {
	p := NewPromise[W](f.loop)
	f.WithCallback(func(r Result[V]) {
		if r.Err != nil {
			p.ResolveErr(r.Err)
			return
		}
		p.ResolveOk(fn(r.Value))
	})
	return p.Future()
}

// MapError transforms the error of f. Values pass through unchanged.
func MapError[V any](f *Future[V], fn func(error) error) *Future[V] {
	p := NewPromise[V](f.loop)
	f.WithCallback(func(r Result[V]) {
		if r.Err != nil {
			p.ResolveErr(fn(r.Err))
			return
		}
		p.Resolve(r)
	})
	return p.Future()
}

// Chain runs fn with the value of f and follows the future it returns.
// fn is not called when f fails.
func Chain[V, W any](f *Future[V], fn func(V) *Future[W]) *Future[W] {
	p := NewPromise[W](f.loop)
	f.WithCallback(func(r Result[V]) {
		if r.Err != nil {
			p.ResolveErr(r.Err)
			return
		}
		fn(r.Value).WithCallback(p.Resolve)
	})
	return p.Future()
}

// WithTimeout fails with ErrTimeout unless f resolves within d. The first
// outcome wins and the other is discarded.
func WithTimeout[V any](f *Future[V], d time.Duration) *Future[V] {
	p := NewPromise[V](f.loop)
	timer := f.loop.AfterFunc(d, func() { p.ResolveErr(ErrTimeout) })
	f.WithCallback(func(r Result[V]) {
		timer.Stop()
		p.Resolve(r)
	})
	return p.Future()
}

// Discard drops the value of f.
func Discard[V any](f *Future[V]) *Future[Unit] {
	return Map(f, func(V) Unit { return Unit{} })
}
