package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

const goroutineCount = 100

func TestNewChecker_EmptyIsHealthy(t *testing.T) {
	report := NewChecker().Run(context.Background())
	if !report.Healthy() {
		t.Error("Healthy() = false, want true without probes")
	}
	if len(report.Statuses) != 0 {
		t.Errorf("Statuses = %v, want none", report.Statuses)
	}
}

func TestRun_ReportsInRegistrationOrder(t *testing.T) {
	hc := NewChecker()
	hc.Register("database", func(context.Context) error { return nil })
	hc.Register("storage", func(context.Context) error { return errors.New("connection refused") })

	report := hc.Run(context.Background())
	if report.Healthy() {
		t.Error("Healthy() = true, want false with a failing probe")
	}
	if len(report.Statuses) != 2 {
		t.Fatalf("got %d statuses, want 2", len(report.Statuses))
	}

	db, st := report.Statuses[0], report.Statuses[1]
	if db.Name != "database" || db.State != StateOK || db.Error != "" {
		t.Errorf("database status = %+v", db)
	}
	if st.Name != "storage" || st.State != StateUnavailable || st.Error != "connection refused" {
		t.Errorf("storage status = %+v", st)
	}
	if failed := report.Failed(); len(failed) != 1 || failed[0] != "storage" {
		t.Errorf("Failed() = %v, want [storage]", failed)
	}
}

func TestRun_PassesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	hc := NewChecker()
	hc.Register("ctx", func(ctx context.Context) error { return ctx.Err() })

	report := hc.Run(ctx)
	if report.Healthy() {
		t.Error("expected a cancelled context to fail the probe")
	}
}

func TestRun_Sequential(t *testing.T) {
	var running, overlaps atomic.Int32
	var order []string
	step := func(name string) Probe {
		return func(context.Context) error {
			if running.Add(1) > 1 {
				overlaps.Add(1)
			}
			defer running.Add(-1)
			time.Sleep(5 * time.Millisecond)
			order = append(order, name)
			return nil
		}
	}

	hc := NewChecker()
	hc.Register("database", step("database"))
	hc.Register("storage", step("storage"))
	hc.Register("cache", step("cache"))
	_ = hc.Run(context.Background())

	if overlaps.Load() != 0 {
		t.Errorf("probes overlapped %d times, want none", overlaps.Load())
	}
	want := []string{"database", "storage", "cache"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order = %v, want %v", order, want)
			break
		}
	}
}

func TestConcurrentRegisterAndRun(t *testing.T) {
	hc := NewChecker()
	var calls atomic.Int32
	done := make(chan struct{})

	for range goroutineCount {
		go func() {
			hc.Register("p", func(context.Context) error {
				calls.Add(1)
				return nil
			})
			_ = hc.Run(context.Background())
			done <- struct{}{}
		}()
	}
	for range goroutineCount {
		<-done
	}

	report := hc.Run(context.Background())
	if len(report.Statuses) != goroutineCount {
		t.Errorf("got %d statuses, want %d", len(report.Statuses), goroutineCount)
	}
	if !report.Healthy() {
		t.Error("expected all probes healthy")
	}
	if calls.Load() < goroutineCount {
		t.Errorf("probes ran %d times, want at least %d", calls.Load(), goroutineCount)
	}
}
