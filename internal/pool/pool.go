// Package pool provides typed wrappers around sync.Pool.
package pool

import "sync"

// Pool is a generic wrapper around sync.Pool.
type Pool[T any] struct {
	internal sync.Pool
}

// New creates a new Pool with the given constructor.
func New[T any](newFn func() T) *Pool[T] {
	return &Pool[T]{
		internal: sync.Pool{
			New: func() any {
				return newFn()
			},
		},
	}
}

// Get retrieves an item from the pool.
func (p *Pool[T]) Get() T {
	return p.internal.Get().(T)
}

// Put returns an item to the pool.
func (p *Pool[T]) Put(item T) {
	p.internal.Put(item)
}

// BufferPool hands out fixed-size byte buffers by pointer, so heavy packet
// paths reuse allocations instead of churning the GC.
type BufferPool struct {
	p *Pool[*[]byte]
}

// NewBufferPool creates a pool of buffers with the given size in bytes.
func NewBufferPool(size int) *BufferPool {
	if size <= 0 {
		size = 1
	}
	return &BufferPool{
		p: New(func() *[]byte {
			buf := make([]byte, size)
			return &buf
		}),
	}
}

// Get retrieves a buffer from the pool.
func (b *BufferPool) Get() *[]byte {
	return b.p.Get()
}

// Put returns a buffer to the pool.
func (b *BufferPool) Put(buf *[]byte) {
	b.p.Put(buf)
}
