package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// testJob signals on execution and optionally blocks until released
type testJob struct {
	name    string
	done    chan struct{}
	release chan struct{}
	err     error
}

func (j *testJob) Name() string { return j.name }

func (j *testJob) Execute(ctx context.Context) error {
	if j.release != nil {
		select {
		case <-j.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if j.done != nil {
		close(j.done)
	}
	return j.err
}

func TestDispatcher_ExecutesJobs(t *testing.T) {
	d := NewDispatcher(2, 4, zap.NewNop())
	d.Start()
	defer d.Shutdown()

	done := make(chan struct{})
	if err := d.Schedule(&testJob{name: "verify", done: done}); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not executed")
	}
}

func TestDispatcher_QueueFull(t *testing.T) {
	d := NewDispatcher(1, 1, zap.NewNop())
	d.Start()
	defer d.Shutdown()

	release := make(chan struct{})
	defer close(release)

	// Occupy the single worker, then fill the queue
	if err := d.Schedule(&testJob{name: "blocker", release: release}); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	// The worker may not have picked up the blocker yet, so saturation
	// takes at most two more jobs
	var full bool
	for i := 0; i < 3; i++ {
		if err := d.Schedule(&testJob{name: "filler", release: release}); errors.Is(err, ErrQueueFull) {
			full = true
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !full {
		t.Error("expected ErrQueueFull once the queue saturates")
	}
}

func TestDispatcher_ScheduleAfterShutdown(t *testing.T) {
	d := NewDispatcher(1, 1, zap.NewNop())
	d.Start()
	d.Shutdown()

	if err := d.Schedule(&testJob{name: "late"}); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

func TestDispatcher_ShutdownCancelsInFlight(t *testing.T) {
	d := NewDispatcher(1, 1, zap.NewNop())
	d.Start()

	started := make(chan struct{})
	var once sync.Once
	job := &cancelAwareJob{started: started, once: &once}
	if err := d.Schedule(job); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("job never started")
	}

	finished := make(chan struct{})
	go func() {
		d.Shutdown()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return; in-flight job ignored cancellation")
	}
}

// cancelAwareJob blocks on its context until cancelled
type cancelAwareJob struct {
	started chan struct{}
	once    *sync.Once
}

func (j *cancelAwareJob) Name() string { return "cancel-aware" }

func (j *cancelAwareJob) Execute(ctx context.Context) error {
	j.once.Do(func() { close(j.started) })
	<-ctx.Done()
	return ctx.Err()
}

func TestDispatcher_LogsJobErrors(t *testing.T) {
	d := NewDispatcher(1, 2, zap.NewNop())
	d.Start()
	defer d.Shutdown()

	done := make(chan struct{})
	if err := d.Schedule(&testJob{name: "failing", done: done, err: errors.New("boom")}); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	// The error is swallowed after logging; the pool keeps working
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("failing job was not executed")
	}

	after := make(chan struct{})
	if err := d.Schedule(&testJob{name: "next", done: after}); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	select {
	case <-after:
	case <-time.After(2 * time.Second):
		t.Fatal("pool stopped after a failing job")
	}
}
