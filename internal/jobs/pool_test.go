package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type testJob struct {
	key     string
	execute func(ctx context.Context) error
}

func (j *testJob) Execute(ctx context.Context) error { return j.execute(ctx) }
func (j *testJob) Key() string                       { return j.key }
func (j *testJob) Description() string               { return "test job" }

func TestPoolExecutesSubmittedJobs(t *testing.T) {
	pool := NewPool(3, 10, time.Second)
	pool.Start()

	var executed atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		job := &testJob{
			key: "job",
			execute: func(ctx context.Context) error {
				defer wg.Done()
				executed.Add(1)
				return nil
			},
		}
		if err := pool.Submit(job); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	wg.Wait()
	pool.ShutdownWithTimeout(time.Second)

	if got := executed.Load(); got != 8 {
		t.Errorf("expected 8 executed jobs, got %d", got)
	}
}

func TestPoolDropsWhenQueueFull(t *testing.T) {
	// No workers started, so the queue never drains.
	pool := NewPool(1, 2, time.Second)

	blocked := &testJob{key: "blocked", execute: func(ctx context.Context) error { return nil }}

	if err := pool.Submit(blocked); err != nil {
		t.Fatalf("first submit should fit in the queue: %v", err)
	}
	if err := pool.Submit(blocked); err != nil {
		t.Fatalf("second submit should fit in the queue: %v", err)
	}
	if err := pool.Submit(blocked); err == nil {
		t.Fatal("expected a drop error once the queue is full")
	}
}

func TestPoolShutdownDrainsQueuedJobs(t *testing.T) {
	pool := NewPool(1, 10, time.Second)

	var executed atomic.Int32
	for i := 0; i < 5; i++ {
		job := &testJob{
			key: "queued",
			execute: func(ctx context.Context) error {
				executed.Add(1)
				return nil
			},
		}
		if err := pool.Submit(job); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	// Workers start after the queue is loaded; shutdown must still run
	// every accepted job before returning.
	pool.Start()
	pool.ShutdownWithTimeout(2 * time.Second)

	if got := executed.Load(); got != 5 {
		t.Errorf("expected all 5 queued jobs to run before shutdown, got %d", got)
	}
}

func TestPoolRejectsAfterShutdown(t *testing.T) {
	pool := NewPool(1, 1, time.Second)
	pool.Start()
	pool.ShutdownWithTimeout(time.Second)

	err := pool.Submit(&testJob{key: "late", execute: func(ctx context.Context) error { return nil }})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled after shutdown, got %v", err)
	}
}

func TestPoolSubmitDuringShutdownDrainFailsCleanly(t *testing.T) {
	pool := NewPool(1, 1, time.Second)
	pool.Start()

	started := make(chan struct{})
	release := make(chan struct{})
	blocking := &testJob{
		key: "blocking",
		execute: func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		},
	}
	if err := pool.Submit(blocking); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	<-started

	// The worker is now pinned, so shutdown stays in its drain window
	// until the job is released.
	done := make(chan struct{})
	go func() {
		pool.ShutdownWithTimeout(5 * time.Second)
		close(done)
	}()

	noop := &testJob{key: "late", execute: func(ctx context.Context) error { return nil }}
	deadline := time.After(2 * time.Second)
	for {
		err := pool.Submit(noop)
		if errors.Is(err, errPoolClosed) {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Submit never observed the closed queue")
		case <-time.After(time.Millisecond):
		}
	}

	close(release)
	<-done
}

func TestPoolJobTimeout(t *testing.T) {
	pool := NewPool(1, 1, 50*time.Millisecond)
	pool.Start()

	timedOut := make(chan bool, 1)
	job := &testJob{
		key: "slow",
		execute: func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				timedOut <- true
				return ctx.Err()
			case <-time.After(5 * time.Second):
				timedOut <- false
				return nil
			}
		},
	}

	if err := pool.Submit(job); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	select {
	case got := <-timedOut:
		if !got {
			t.Error("expected the job context to expire")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job never observed its deadline")
	}

	pool.ShutdownWithTimeout(time.Second)
}
