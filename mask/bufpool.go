package mask

import "sync"

// scratch is the package wide pool of temporary grids used by morphology
// operations so concurrent feature workers do not contend on allocation
var scratch = newBufferPool()

// bufferPool recycles []bool grids.  Buffers grow to the largest size
// requested and are sliced down on Get.
type bufferPool struct {
	pool sync.Pool
}

// newBufferPool returns an empty pool
func newBufferPool() *bufferPool {
	return &bufferPool{
		pool: sync.Pool{
			New: func() any {
				return make([]bool, 0)
			},
		},
	}
}

// get returns a []bool slice of length size.  Contents are undefined and
// must be fully overwritten by the caller.
func (b *bufferPool) get(size int) []bool {

	buf := b.pool.Get().([]bool)

	if cap(buf) < size {
		return make([]bool, size)
	}

	return buf[:size]
}

// put returns a buffer back into the pool
func (b *bufferPool) put(buf []bool) {
	b.pool.Put(buf[:0])
}
