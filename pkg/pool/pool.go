// Package pool provides typed object pooling. The scanner uses it to reuse
// shard read buffers: one stream holds one buffer at a time, so a scan of n
// streams keeps at most n buffers checked out.
//
// Example usage:
//
//	buf := pool.GetBuffer(size)
//	defer pool.PutBuffer(buf)
//
//	myPool := pool.New(
//	    func() *MyType { return &MyType{} },
//	    func(obj *MyType) { obj.Reset() },
//	)
//	obj := myPool.Get()
//	defer myPool.Put(obj)
package pool

import (
	"sync"
	"sync/atomic"
)

// Pool represents a generic object pool with type safety.
// It wraps sync.Pool with statistics tracking and an optional reset
// function. The pool is safe for concurrent use.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)
	stats struct {
		allocated int64
		inUse     int64
		gets      int64
	}
}

// New creates a new typed pool. newFn is called when the pool is empty;
// reset, when non-nil, cleans an object before it is pooled again.
func New[T any](newFn func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{reset: reset}
	p.pool.New = func() interface{} {
		atomic.AddInt64(&p.stats.allocated, 1)
		return newFn()
	}
	return p
}

// Get retrieves an object from the pool, allocating one when it is empty.
func (p *Pool[T]) Get() T {
	atomic.AddInt64(&p.stats.inUse, 1)
	atomic.AddInt64(&p.stats.gets, 1)
	return p.pool.Get().(T)
}

// Put returns an object to the pool for reuse.
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	atomic.AddInt64(&p.stats.inUse, -1)
	p.pool.Put(obj)
}

// Stats returns the number of objects allocated, currently checked out,
// and the number of Get calls served from already-allocated objects.
func (p *Pool[T]) Stats() (allocated, inUse, hits int64) {
	allocated = atomic.LoadInt64(&p.stats.allocated)
	return allocated,
		atomic.LoadInt64(&p.stats.inUse),
		atomic.LoadInt64(&p.stats.gets) - allocated
}

// Buffers pools byte buffers for whole-shard reads.
var Buffers = New(
	func() *[]byte {
		b := make([]byte, 0, 64*1024)
		return &b
	},
	func(b *[]byte) { *b = (*b)[:0] },
)

// GetBuffer returns a pooled buffer of length n. Its previous contents are
// unspecified.
func GetBuffer(n int) *[]byte {
	b := Buffers.Get()
	if cap(*b) < n {
		*b = make([]byte, n)
	}
	*b = (*b)[:n]
	return b
}

// PutBuffer returns b to the pool. A nil b is ignored.
func PutBuffer(b *[]byte) {
	if b != nil {
		Buffers.Put(b)
	}
}
