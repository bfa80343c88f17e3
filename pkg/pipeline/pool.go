package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Result is a task outcome. A non-nil Failure counts toward abort-on-error.
type Result interface {
	Failure() error
}

// PoolConfig holds configuration for the worker pool
type PoolConfig struct {
	Workers      int
	AbortOnError bool
	// GracePeriod bounds how long in-flight tasks are awaited after cancellation
	GracePeriod time.Duration
	// Heartbeat is the interval of OnHeartbeat calls, 0 disables them
	Heartbeat   time.Duration
	OnHeartbeat func(completed, active, total int)
}

// Pool runs independent tasks on a bounded set of workers
type Pool struct {
	cfg PoolConfig

	completed atomic.Int64
	active    atomic.Int64
}

// NewPool creates a pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Pool{cfg: cfg}
}

// Completed returns the number of tasks finished in the current run
func (p *Pool) Completed() int {
	return int(p.completed.Load())
}

// Active returns the number of tasks currently running
func (p *Pool) Active() int {
	return int(p.active.Load())
}

// Unfinished lists the tasks of a cancelled batch that produced no folded result
type Unfinished struct {
	// Aborted tasks never started, or stopped on cancellation before acting
	Aborted []int
	// Unresolved tasks were still running when the grace period expired.
	// Their side effects may or may not have happened.
	Unresolved []int
}

// Len returns the number of unfinished tasks
func (u Unfinished) Len() int {
	return len(u.Aborted) + len(u.Unresolved)
}

type indexed[T Result] struct {
	index  int
	result T
}

// Run executes work for every index in [0, n) and folds each result on the
// calling goroutine, in completion order. It returns the indices that never
// produced a folded result because the batch was cancelled.
func Run[T Result](ctx context.Context, p *Pool, n int, work func(ctx context.Context, i int) T, fold func(i int, r T)) Unfinished {
	p.completed.Store(0)
	p.active.Store(0)
	if n == 0 {
		return Unfinished{}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make(chan int)
	// Buffered for every task so workers never block after a grace timeout
	results := make(chan indexed[T], n)

	started := make([]atomic.Bool, n)

	var wg sync.WaitGroup
	for w := 0; w < p.cfg.Workers && w < n; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				if runCtx.Err() != nil {
					continue
				}
				started[i].Store(true)
				p.active.Add(1)
				r := work(runCtx, i)
				p.active.Add(-1)
				p.completed.Add(1)
				results <- indexed[T]{index: i, result: r}
			}
		}()
	}

	go func() {
		defer close(tasks)
		for i := 0; i < n; i++ {
			select {
			case <-runCtx.Done():
				return
			case tasks <- i:
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	stopHeartbeat := p.startHeartbeat(n)
	defer stopHeartbeat()

	folded := make([]bool, n)
	dropped := make([]bool, n)
	accept := func(r indexed[T]) {
		err := r.result.Failure()
		// In-flight work interrupted by cancellation is aborted, not failed
		if err != nil && runCtx.Err() != nil && errors.Is(err, context.Canceled) {
			dropped[r.index] = true
			return
		}
		folded[r.index] = true
		fold(r.index, r.result)
		if err != nil && p.cfg.AbortOnError {
			cancel()
		}
	}

	cancelled := runCtx.Done()
	var grace <-chan time.Time

loop:
	for {
		select {
		case r := <-results:
			accept(r)
		case <-done:
			for {
				select {
				case r := <-results:
					accept(r)
				default:
					break loop
				}
			}
		case <-cancelled:
			cancelled = nil
			timer := time.NewTimer(p.cfg.GracePeriod)
			defer timer.Stop()
			grace = timer.C
		case <-grace:
			break loop
		}
	}

	// Results sent between the grace timeout and now are still known
drain:
	for {
		select {
		case r := <-results:
			accept(r)
		default:
			break drain
		}
	}

	var out Unfinished
	for i, ok := range folded {
		switch {
		case ok:
		case started[i].Load() && !dropped[i]:
			out.Unresolved = append(out.Unresolved, i)
		default:
			out.Aborted = append(out.Aborted, i)
		}
	}
	return out
}

func (p *Pool) startHeartbeat(total int) func() {
	if p.cfg.Heartbeat <= 0 || p.cfg.OnHeartbeat == nil {
		return func() {}
	}

	stop := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(p.cfg.Heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				p.cfg.OnHeartbeat(p.Completed(), p.Active(), total)
			}
		}
	}()

	return func() {
		close(stop)
		<-stopped
		p.cfg.OnHeartbeat(p.Completed(), p.Active(), total)
	}
}
