package pipeline

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type testResult struct {
	value int
	err   error
}

func (r testResult) Failure() error {
	return r.err
}

func TestRunFoldsEveryTask(t *testing.T) {
	p := NewPool(PoolConfig{Workers: 4})

	const n = 100
	sum := 0
	seen := make(map[int]bool)
	aborted := Run(context.Background(), p, n,
		func(ctx context.Context, i int) testResult {
			return testResult{value: i}
		},
		func(i int, r testResult) {
			// fold runs on a single goroutine, no locking needed
			sum += r.value
			seen[i] = true
		})

	if aborted.Len() != 0 {
		t.Errorf("unfinished = %+v, want none", aborted)
	}
	if len(seen) != n {
		t.Errorf("folded %d results, want %d", len(seen), n)
	}
	if sum != n*(n-1)/2 {
		t.Errorf("sum = %d, want %d", sum, n*(n-1)/2)
	}
	if p.Completed() != n || p.Active() != 0 {
		t.Errorf("Completed() = %d, Active() = %d", p.Completed(), p.Active())
	}
}

func TestRunEmpty(t *testing.T) {
	called := false
	aborted := Run(context.Background(), NewPool(PoolConfig{}), 0,
		func(ctx context.Context, i int) testResult { called = true; return testResult{} },
		func(i int, r testResult) { called = true })
	if called || aborted.Len() != 0 {
		t.Error("Run() with no tasks should do nothing")
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	const workers = 3
	p := NewPool(PoolConfig{Workers: workers})

	var running, peak atomic.Int64
	Run(context.Background(), p, 30,
		func(ctx context.Context, i int) testResult {
			cur := running.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			running.Add(-1)
			return testResult{}
		},
		func(i int, r testResult) {})

	if got := peak.Load(); got > workers {
		t.Errorf("peak concurrency = %d, want at most %d", got, workers)
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	p := NewPool(PoolConfig{Workers: 2})
	boom := errors.New("boom")

	var failed, ok int
	aborted := Run(context.Background(), p, 10,
		func(ctx context.Context, i int) testResult {
			if i == 3 {
				return testResult{err: boom}
			}
			return testResult{value: i}
		},
		func(i int, r testResult) {
			if r.err != nil {
				failed++
			} else {
				ok++
			}
		})

	if aborted.Len() != 0 || failed != 1 || ok != 9 {
		t.Errorf("failed = %d, ok = %d, aborted = %v; want 1, 9, none", failed, ok, aborted)
	}
}

func TestRunAbortOnError(t *testing.T) {
	p := NewPool(PoolConfig{Workers: 1, AbortOnError: true, GracePeriod: time.Second})
	boom := errors.New("boom")

	var folded []int
	aborted := Run(context.Background(), p, 10,
		func(ctx context.Context, i int) testResult {
			switch {
			case i == 2:
				return testResult{err: boom}
			case i > 2:
				select {
				case <-ctx.Done():
					return testResult{err: ctx.Err()}
				case <-time.After(time.Second):
				}
			}
			return testResult{value: i}
		},
		func(i int, r testResult) {
			folded = append(folded, i)
		})

	if len(aborted.Aborted) == 0 || len(aborted.Unresolved) != 0 {
		t.Fatalf("unfinished = %+v, want aborted tasks after the first failure", aborted)
	}
	if len(folded)+aborted.Len() != 10 {
		t.Errorf("folded %d + unfinished %d, want 10 tasks accounted for", len(folded), aborted.Len())
	}
	for _, i := range aborted.Aborted {
		if i <= 2 {
			t.Errorf("task %d ran before the failure and should not be aborted", i)
		}
	}
}

func TestRunCancelledInFlight(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(PoolConfig{Workers: 2, GracePeriod: time.Second})

	started := make(chan struct{}, 2)
	var folded int
	aborted := Run(ctx, p, 5,
		func(ctx context.Context, i int) testResult {
			started <- struct{}{}
			if len(started) == 2 {
				cancel()
			}
			<-ctx.Done()
			return testResult{err: ctx.Err()}
		},
		func(i int, r testResult) {
			folded++
		})

	if folded != 0 {
		t.Errorf("folded = %d, want interrupted tasks counted as aborted", folded)
	}
	if len(aborted.Aborted) != 5 || len(aborted.Unresolved) != 0 {
		t.Errorf("unfinished = %+v, want all 5 tasks aborted", aborted)
	}
}

func TestRunGracePeriodExpires(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(PoolConfig{Workers: 1, GracePeriod: 10 * time.Millisecond})

	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	unfinished := Run(ctx, p, 3,
		func(ctx context.Context, i int) testResult {
			cancel()
			<-release // ignores cancellation
			return testResult{}
		},
		func(i int, r testResult) {})

	if time.Since(start) > 2*time.Second {
		t.Error("Run() waited past the grace period")
	}
	if len(unfinished.Unresolved) != 1 || unfinished.Unresolved[0] != 0 {
		t.Errorf("Unresolved = %v, want the running task 0", unfinished.Unresolved)
	}
	if len(unfinished.Aborted) != 2 {
		t.Errorf("Aborted = %v, want the 2 queued tasks", unfinished.Aborted)
	}
}

func TestRunGracePeriodExpiresAfterAbort(t *testing.T) {
	p := NewPool(PoolConfig{Workers: 2, AbortOnError: true, GracePeriod: 20 * time.Millisecond})
	boom := errors.New("boom")

	slowStarted := make(chan struct{})
	var sideEffect atomic.Bool
	finished := make(chan struct{})

	unfinished := Run(context.Background(), p, 2,
		func(ctx context.Context, i int) testResult {
			if i == 0 {
				<-slowStarted
				return testResult{err: boom}
			}
			close(slowStarted)
			// an irreversible call that does not observe ctx
			time.Sleep(60 * time.Millisecond)
			sideEffect.Store(true)
			close(finished)
			return testResult{value: i}
		},
		func(i int, r testResult) {})

	if len(unfinished.Unresolved) != 1 || unfinished.Unresolved[0] != 1 {
		t.Errorf("Unresolved = %v, want task 1", unfinished.Unresolved)
	}
	if len(unfinished.Aborted) != 0 {
		t.Errorf("Aborted = %v, a started task must not be reported as never run", unfinished.Aborted)
	}

	<-finished
	if !sideEffect.Load() {
		t.Error("task 1 should have finished in the background")
	}
}

func TestHeartbeat(t *testing.T) {
	var mu sync.Mutex
	var beats [][3]int

	p := NewPool(PoolConfig{
		Workers:   2,
		Heartbeat: time.Millisecond,
		OnHeartbeat: func(completed, active, total int) {
			mu.Lock()
			beats = append(beats, [3]int{completed, active, total})
			mu.Unlock()
		},
	})

	Run(context.Background(), p, 6,
		func(ctx context.Context, i int) testResult {
			time.Sleep(3 * time.Millisecond)
			return testResult{}
		},
		func(i int, r testResult) {})

	mu.Lock()
	defer mu.Unlock()
	if len(beats) == 0 {
		t.Fatal("no heartbeat received")
	}
	last := beats[len(beats)-1]
	if last != [3]int{6, 0, 6} {
		t.Errorf("final heartbeat = %v, want [6 0 6]", last)
	}
	completed := make([]int, len(beats))
	for i, b := range beats {
		completed[i] = b[0]
	}
	if !sort.IntsAreSorted(completed) {
		t.Errorf("completed counts went backwards: %v", completed)
	}
}
