// Package bufferbuilder provides growable buffers for accumulating message fragments.
package bufferbuilder

import (
	"github.com/logbuf/logbuf-go/core"
	"github.com/pkg/errors"
	"github.com/valyala/bytebufferpool"
	"go.uber.org/atomic"
)

// Pool lends storage to builders and counts how much of it is borrowed.
// The zero value is ready to use.
type Pool struct {
	inner    bytebufferpool.Pool
	borrowed atomic.Int64
}

// Borrowed returns the number of builders that have not been released yet.
func (p *Pool) Borrowed() int64 {
	return p.borrowed.Load()
}

func (p *Pool) get() *bytebufferpool.ByteBuffer {
	p.borrowed.Inc()
	return p.inner.Get()
}

func (p *Pool) put(bb *bytebufferpool.ByteBuffer) {
	p.inner.Put(bb)
	p.borrowed.Dec()
}

// Builder accumulates fragment payloads after a reserved prefix of core.HeaderLength bytes.
// The limit equals the prefix length exactly when the builder is empty.
type Builder struct {
	pool            *Pool
	bb              *bytebufferpool.ByteBuffer
	initialCapacity int
	maxCapacity     int
}

// New borrows storage from pool with at least initialCapacity bytes.
// Appends that would grow the builder past maxCapacity fail with core.ErrCapacityExceeded.
func New(pool *Pool, initialCapacity, maxCapacity int) *Builder {
	if maxCapacity < core.HeaderLength {
		maxCapacity = core.HeaderLength
	}
	if initialCapacity > maxCapacity {
		initialCapacity = maxCapacity
	}
	if initialCapacity < core.HeaderLength {
		initialCapacity = core.HeaderLength
	}
	bb := pool.get()
	if cap(bb.B) < initialCapacity {
		bb.B = make([]byte, core.HeaderLength, initialCapacity)
	} else {
		bb.B = bb.B[:core.HeaderLength]
	}
	return &Builder{
		pool:            pool,
		bb:              bb,
		initialCapacity: initialCapacity,
		maxCapacity:     maxCapacity,
	}
}

// Reset empties the builder and keeps its storage. It does nothing on a released builder.
func (p *Builder) Reset() *Builder {
	if p.bb != nil {
		p.bb.B = p.bb.B[:core.HeaderLength]
	}
	return p
}

// Append copies length bytes of src starting at offset.
func (p *Builder) Append(src []byte, offset, length int) error {
	limit := len(p.bb.B)
	if limit+length > p.maxCapacity {
		return errors.Wrapf(core.ErrCapacityExceeded, "append %d bytes at limit %d, max capacity is %d", length, limit, p.maxCapacity)
	}
	p.bb.B = append(p.bb.B, src[offset:offset+length]...)
	return nil
}

// Limit returns the write position.
func (p *Builder) Limit() int {
	return len(p.bb.B)
}

// Capacity returns the size of the storage.
func (p *Builder) Capacity() int {
	return cap(p.bb.B)
}

// IsEmpty returns true if nothing has been appended since the last reset.
func (p *Builder) IsEmpty() bool {
	return len(p.bb.B) == core.HeaderLength
}

// Buffer returns the storage up to the limit, prefix included.
func (p *Builder) Buffer() []byte {
	return p.bb.B
}

// Release returns the storage to the pool. The builder must not be used afterwards.
// Storage grown past the initial capacity is dropped instead of pooled.
func (p *Builder) Release() {
	if p.bb == nil {
		return
	}
	if cap(p.bb.B) > p.initialCapacity {
		p.bb.B = nil
	}
	p.pool.put(p.bb)
	p.bb = nil
}
