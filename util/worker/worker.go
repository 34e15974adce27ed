package worker

import (
	"sync"

	"github.com/pingcap/log"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Task is a unit of work with no result handle.
type Task func()

// taskStop tells the worker receiving it to exit.
type taskStop struct{}

// Pool runs submitted tasks on a fixed number of goroutines draining one shared, unbounded FIFO.
// Submit never blocks.
type Pool struct {
	name string
	size int

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []interface{}
	pending int
	stopped bool

	wg       sync.WaitGroup
	finished atomic.Int64
}

// NewPool starts a pool of n workers.
func NewPool(name string, n int) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{name: name, size: n}
	p.cond = sync.NewCond(&p.mu)
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.run(i)
	}
	return p
}

func (p *Pool) run(id int) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 {
			p.cond.Wait()
		}
		item := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		if _, ok := item.(taskStop); ok {
			log.Debug("worker stopped", zap.String("pool", p.name), zap.Int("id", id))
			return
		}
		item.(Task)()
		p.finished.Inc()

		p.mu.Lock()
		p.pending--
		if p.pending == 0 {
			p.cond.Broadcast()
		}
		p.mu.Unlock()
	}
}

// Submit enqueues t. Tasks submitted after Stop are dropped.
func (p *Pool) Submit(t Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		log.Warn("task submitted to stopped pool", zap.String("pool", p.name))
		return
	}
	p.pending++
	p.queue = append(p.queue, t)
	p.cond.Broadcast()
}

// Wait blocks until every submitted task has finished.
func (p *Pool) Wait() {
	p.mu.Lock()
	for p.pending > 0 {
		p.cond.Wait()
	}
	p.mu.Unlock()
}

// Stop lets the workers finish the tasks already queued, then waits for them to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	for i := 0; i < p.size; i++ {
		p.queue = append(p.queue, taskStop{})
	}
	p.cond.Broadcast()
	p.mu.Unlock()
	p.wg.Wait()
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Finished returns the number of tasks run so far.
func (p *Pool) Finished() int64 {
	return p.finished.Load()
}
