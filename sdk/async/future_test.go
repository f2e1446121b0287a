package async

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pipecat-ai/rtvi-client-android/sdk/loop"
)

func await[V any](t *testing.T, f *Future[V]) (V, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v, err := f.Await(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("future never resolved")
	}
	return v, err
}

func TestResolveOnce(t *testing.T) {
	l := loop.New()
	defer l.Close()

	p := NewPromise[int](l)
	p.ResolveOk(1)
	p.ResolveOk(2)
	p.ResolveErr(errors.New("late"))

	v, err := await(t, p.Future())
	if err != nil || v != 1 {
		t.Fatalf("expected 1, got %d %v", v, err)
	}
}

func TestLateObserverCalledOnce(t *testing.T) {
	l := loop.New()
	defer l.Close()

	f := Resolved(l, "x")
	calls := make(chan string, 4)
	f.WithCallback(func(r Result[string]) { calls <- r.Value })
	f.WithCallback(func(r Result[string]) { calls <- r.Value })

	_ = l.Call(func() {})
	if len(calls) != 2 {
		t.Fatalf("expected 2 invocations, got %d", len(calls))
	}
}

func TestCallbacksRunOnLoop(t *testing.T) {
	l := loop.New()
	defer l.Close()

	p := NewPromise[int](l)
	onLoop := make(chan bool, 1)
	p.Future().WithCallback(func(Result[int]) { onLoop <- l.IsCurrent() })
	go p.ResolveOk(3)
	select {
	case ok := <-onLoop:
		if !ok {
			t.Fatalf("callback ran off loop")
		}
	case <-time.After(time.Second):
		t.Fatalf("callback not invoked")
	}
}

func TestMapAndMapError(t *testing.T) {
	l := loop.New()
	defer l.Close()

	v, err := await(t, Map(Resolved(l, 2), func(n int) string { return "n" + string(rune('0'+n)) }))
	if err != nil || v != "n2" {
		t.Fatalf("map: %q %v", v, err)
	}

	boom := errors.New("boom")
	mapped := Map(Failed[int](l, boom), func(n int) int { t.Fatalf("map called on error"); return n })
	if _, err := await(t, mapped); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	wrapped := MapError(Failed[int](l, boom), func(e error) error { return errors.Join(errors.New("wrapped"), e) })
	if _, err := await(t, wrapped); !errors.Is(err, boom) || err.Error() == boom.Error() {
		t.Fatalf("unexpected mapped error %v", err)
	}

	if v, err := await(t, MapError(Resolved(l, 5), func(e error) error { return e })); err != nil || v != 5 {
		t.Fatalf("value should pass through, got %d %v", v, err)
	}
}

func TestChainSkipsOnError(t *testing.T) {
	l := loop.New()
	defer l.Close()

	called := false
	f := Chain(Failed[int](l, ErrTimeout), func(int) *Future[string] {
		called = true
		return Resolved(l, "x")
	})
	if _, err := await(t, f); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if called {
		t.Fatalf("chain function ran on error")
	}

	s, err := await(t, Chain(Resolved(l, 1), func(n int) *Future[int] { return Resolved(l, n+1) }))
	if err != nil || s != 2 {
		t.Fatalf("chain: %d %v", s, err)
	}
}

func TestWithTimeoutFires(t *testing.T) {
	l := loop.New()
	defer l.Close()

	never := NewPromise[int](l)
	_, err := await(t, WithTimeout(never.Future(), 20*time.Millisecond))
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestWithTimeoutSourceWins(t *testing.T) {
	l := loop.New()
	defer l.Close()

	p := NewPromise[int](l)
	f := WithTimeout(p.Future(), 50*time.Millisecond)
	p.ResolveOk(9)

	results := make(chan Result[int], 2)
	f.WithCallback(func(r Result[int]) { results <- r })
	time.Sleep(100 * time.Millisecond)
	_ = l.Call(func() {})
	if len(results) != 1 {
		t.Fatalf("expected one resolution, got %d", len(results))
	}
	if r := <-results; r.Err != nil || r.Value != 9 {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestAwaitOnLoopRejected(t *testing.T) {
	l := loop.New()
	defer l.Close()

	var err error
	_ = l.Call(func() {
		_, err = Resolved(l, 1).Await(context.Background())
	})
	if !errors.Is(err, ErrAwaitOnLoop) {
		t.Fatalf("expected ErrAwaitOnLoop, got %v", err)
	}
}

func TestGoAndRunOnLoop(t *testing.T) {
	l := loop.New()
	defer l.Close()

	v, err := await(t, Go(l, func() (int, error) { return 7, nil }))
	if err != nil || v != 7 {
		t.Fatalf("go: %d %v", v, err)
	}

	onLoop, err := await(t, RunOnLoop(l, func() *Future[bool] { return Resolved(l, l.IsCurrent()) }))
	if err != nil || !onLoop {
		t.Fatalf("RunOnLoop did not run on loop")
	}
}

func TestErrorCallbackOnlyOnError(t *testing.T) {
	l := loop.New()
	defer l.Close()

	var got []error
	Resolved(l, 1).WithErrorCallback(func(e error) { got = append(got, e) })
	Failed[int](l, ErrTimeout).WithErrorCallback(func(e error) { got = append(got, e) }).LogError("test")
	_ = l.Call(func() {})
	if len(got) != 1 || !errors.Is(got[0], ErrTimeout) {
		t.Fatalf("unexpected errors %v", got)
	}
}
