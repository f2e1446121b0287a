// Package loop provides a single goroutine that runs posted tasks in order.
//
// A Loop is the execution context a client is bound to. All client state is
// only touched from tasks running on the loop, so that state needs no locks.
package loop

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pipecat-ai/rtvi-client-android/internal/logx"
)

// ErrClosed is returned when work is submitted to a closed loop.
var ErrClosed = errors.New("loop closed")

// Loop serializes tasks onto one goroutine.
//
// A nil *Loop is valid and runs every task inline on the caller's goroutine.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
	gid    atomic.Uint64
}

// New starts a loop goroutine.
func New() *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	started := make(chan struct{})
	go l.run(started)
	<-started
	return l
}

func (l *Loop) run(started chan struct{}) {
	l.gid.Store(goid())
	close(started)
	defer close(l.done)
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			if l.closed {
				l.mu.Unlock()
				return
			}
			l.mu.Unlock()
			<-l.wake
			continue
		}
		task := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()
		l.exec(task)
	}
}

func (l *Loop) exec(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logx.Log.Error().Interface("panic", r).Bytes("stack", stack()).Msg("loop task panicked")
		}
	}()
	task()
}

// IsCurrent reports whether the caller is running on the loop goroutine.
func (l *Loop) IsCurrent() bool {
	if l == nil {
		return true
	}
	return l.gid.Load() == goid()
}

// Post queues fn to run on the loop. It returns false if the loop is closed.
func (l *Loop) Post(fn func()) bool {
	if l == nil {
		fn()
		return true
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// RunOnThread runs fn immediately when called on the loop, otherwise it
// queues fn. Once the loop is closed, fn runs on the caller after the loop
// goroutine has exited.
func (l *Loop) RunOnThread(fn func()) {
	if l.IsCurrent() {
		fn()
		return
	}
	if !l.Post(fn) {
		<-l.done
		fn()
	}
}

// AfterFunc runs fn on the loop once d has elapsed.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, func() { l.RunOnThread(fn) })
}

// Call runs fn on the loop and waits for it to return.
func (l *Loop) Call(fn func()) error {
	if l.IsCurrent() {
		fn()
		return nil
	}
	done := make(chan struct{})
	var panicked any
	ok := l.Post(func() {
		defer close(done)
		defer func() { panicked = recover() }()
		fn()
	})
	if !ok {
		return ErrClosed
	}
	<-done
	if panicked != nil {
		panic(panicked)
	}
	return nil
}

// AssertCurrent panics when the caller is not on the loop goroutine.
func (l *Loop) AssertCurrent() {
	if !l.IsCurrent() {
		panic(fmt.Sprintf("loop: called from goroutine %d, expected %d", goid(), l.gid.Load()))
	}
}

// Close stops accepting tasks. Already queued tasks still run.
func (l *Loop) Close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Done is closed once the loop goroutine has exited.
func (l *Loop) Done() <-chan struct{} {
	if l == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return l.done
}

var goroutinePrefix = []byte("goroutine ")

// goid parses the current goroutine id from the runtime stack header.
func goid() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func stack() []byte {
	buf := make([]byte, 4096)
	return buf[:runtime.Stack(buf, false)]
}
