package platform

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestLifecycle_StopReverseOrder(t *testing.T) {
	lc := NewLifecycle()

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		lc.OnStop(name, func(_ context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	if err := lc.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if strings.Join(order, ",") != "third,second,first" {
		t.Errorf("unexpected stop order %v", order)
	}
	if !lc.IsStopped() {
		t.Error("IsStopped() = false after Stop()")
	}
}

func TestLifecycle_StopTwice(t *testing.T) {
	lc := NewLifecycle()
	calls := 0
	lc.RegisterCloser("db", closerFunc(func() error {
		calls++
		return nil
	}))

	_ = lc.Stop(context.Background())
	if err := lc.Stop(context.Background()); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("expected closer to run once, ran %d times", calls)
	}
}

func TestLifecycle_StopCollectsErrors(t *testing.T) {
	lc := NewLifecycle()
	boom := errors.New("boom")
	ran := false
	lc.RegisterCloser("storage", closerFunc(func() error {
		ran = true
		return nil
	}))
	lc.RegisterCloser("database", closerFunc(func() error { return boom }))

	err := lc.Stop(context.Background())
	if err == nil {
		t.Fatal("Stop() expected error")
	}
	if !strings.Contains(err.Error(), "closing database") {
		t.Errorf("expected resource name in error, got %v", err)
	}
	if !ran {
		t.Error("a failing closer must not prevent the others")
	}
}
