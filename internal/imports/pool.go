package imports

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Pool runs submitted jobs on at most size goroutines. Jobs beyond capacity
// wait in submission order.
type Pool struct {
	sem   *semaphore.Weighted
	mu    sync.Mutex
	queue []func(context.Context)
	wg    sync.WaitGroup
	ctx   context.Context
}

// NewPool returns a pool whose jobs run with ctx, which should outlive any
// single request.
func NewPool(ctx context.Context, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), ctx: ctx}
}

// Submit hands job to the pool and returns immediately.
func (p *Pool) Submit(job func(ctx context.Context)) {
	p.wg.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sem.TryAcquire(1) {
		go p.run(job)
		return
	}
	p.queue = append(p.queue, job)
}

// run executes job and then keeps the slot busy with queued jobs until the
// queue is empty.
func (p *Pool) run(job func(ctx context.Context)) {
	for job != nil {
		p.exec(job)
		p.mu.Lock()
		if len(p.queue) > 0 {
			job = p.queue[0]
			p.queue[0] = nil
			p.queue = p.queue[1:]
		} else {
			job = nil
			p.sem.Release(1)
		}
		p.mu.Unlock()
	}
}

func (p *Pool) exec(job func(ctx context.Context)) {
	defer p.wg.Done()
	job(p.ctx)
}

// Queued returns the number of jobs waiting for a free slot.
func (p *Pool) Queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Wait blocks until every submitted job has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}
