package threadpool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/orion-udf/core/queue"
)

// job pairs a unit of work with a cleanup invoked instead of Run when the
// job is drained by Stop without ever being dispatched to a worker.
type job struct {
	run     func(ctx context.Context)
	cleanup func()
}

// Pool runs a fixed number of worker goroutines pulling from a bounded job
// queue.
type Pool struct {
	queue   *queue.Queue[job]
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	stopped atomic.Bool
}

// New starts workers goroutines backed by a job queue with the given
// capacity, deriving their context from parent.
func New(parent context.Context, workers, queueCapacity int) *Pool {
	ctx, cancel := context.WithCancel(parent)
	p := &Pool{
		queue:  queue.New[job](queueCapacity),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		if p.stopped.Load() {
			return
		}
		if !p.queue.WaitFor(250 * time.Millisecond) {
			continue
		}
		j, ok := p.queue.Pop()
		if !ok {
			continue
		}
		j.run(p.ctx)
	}
}

// Submit enqueues fn for a worker to run with cleanup as its drain-time
// fallback. It reports false, without queuing anything, if the job queue is
// at capacity or the pool has been stopped — the "full-queue indicator"
// callers use to apply their own backpressure policy.
func (p *Pool) Submit(fn func(ctx context.Context), cleanup func()) bool {
	if p.stopped.Load() {
		return false
	}
	return p.queue.Push(job{run: fn, cleanup: cleanup})
}

// Stop halts the pool: no further Submit calls are accepted, every job
// still sitting in the queue has its cleanup run (instead of fn) rather
// than being silently discarded, the pool's context is cancelled so
// in-flight jobs can observe it, and Stop blocks until every worker
// goroutine has returned.
func (p *Pool) Stop() {
	p.stopped.Store(true)
	p.cancel()
	p.queue.Close(func(j job) {
		if j.cleanup != nil {
			j.cleanup()
		}
	})
	p.wg.Wait()
}
