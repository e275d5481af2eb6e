package lesion

import (
	"sync"

	"github.com/skinmetric/go-lesion/metrics"
)

// Pool is a simple pool of metrics engines bounding how many features of a
// capture are measured at once
type Pool struct {
	// pool of engines
	engines chan *metrics.Engine
	// size of pool
	size   int
	closed bool
	sync.Mutex
}

// NewPool creates a new engine pool of the given size, sizes below one are
// raised to one
func NewPool(size int, p metrics.Params) *Pool {

	if size < 1 {
		size = 1
	}

	pl := &Pool{
		engines: make(chan *metrics.Engine, size),
		size:    size,
	}

	for i := 0; i < size; i++ {
		// attach to pool
		pl.Return(metrics.NewEngine(p))
	}

	return pl
}

// Size returns the number of engines in the pool
func (p *Pool) Size() int {
	return p.size
}

// Get an engine from the pool, blocking until one is free.  ok is false once
// the pool is closed.
func (p *Pool) Get() (*metrics.Engine, bool) {
	e, ok := <-p.engines
	return e, ok
}

// Return an engine to the pool
func (p *Pool) Return(e *metrics.Engine) {
	p.Lock()
	defer p.Unlock()

	if p.closed {
		return
	}

	select {
	case p.engines <- e:
	default:
		// pool is full
	}
}

// Close the pool, engines returned afterwards are dropped
func (p *Pool) Close() {
	p.Lock()
	defer p.Unlock()

	if p.closed {
		return
	}

	p.closed = true
	close(p.engines)

	// drain so a blocked Get observes the close
	for range p.engines {
	}
}
