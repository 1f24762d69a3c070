// Package bufpool provides reusable, size-classed byte buffers for the
// socket reads both PFXP state machines perform, avoiding a fresh
// allocation on every datagram round trip.
package bufpool

import (
	"sync"

	"github.com/alxayo/pfxp/internal/pfxp/wire"
)

// SmallReplySize comfortably holds any non-DATA frame this protocol
// exchanges (HELLO, ACCEPT, ACK, FIN, FIN_ACK): a handful of short TLVs
// past the 24-byte header. A sender session never reads a DATA frame —
// it only ever receives control replies to its own HELLO/OFFER/DATA/FIN
// sends — so it can stay on this class for its whole lifetime instead of
// reserving a full-MTU buffer it will never fill.
const SmallReplySize = 128

// sizeClasses are PFXP's two realistic buffer shapes: a sender's small
// control replies, and the full advertised-MTU datagram a receiver must
// accept for incoming DATA frames (and for an OFFER with an unusually
// long filename). Unlike the RTMP chunk-size classes this pool is
// generalized from, nothing in this protocol emits a payload larger than
// one MTU-sized datagram, so there is no third "oversized" class
// reserving capacity nothing here produces; a request past
// wire.DefaultMaxDatagramSize just allocates fresh instead of pooling it.
var sizeClasses = []int{SmallReplySize, wire.DefaultMaxDatagramSize}

type classPool struct {
	size int
	pool *sync.Pool
}

// Pool provides sized byte slices backed by reusable buffers to reduce GC churn.
type Pool struct {
	pools []classPool
}

var defaultPool = New()

// Get acquires a buffer from the package-level default pool.
func Get(size int) []byte {
	return defaultPool.Get(size)
}

// Put releases a buffer back to the package-level default pool.
func Put(buf []byte) {
	defaultPool.Put(buf)
}

// New creates a buffer pool with PFXP's two datagram size classes (see
// sizeClasses above).
func New() *Pool {
	pools := make([]classPool, len(sizeClasses))
	for i, classSize := range sizeClasses {
		size := classSize
		pools[i] = classPool{
			size: size,
			pool: &sync.Pool{
				New: func() any {
					return make([]byte, size)
				},
			},
		}
	}
	return &Pool{pools: pools}
}

// Get returns a byte slice whose length matches the requested size and whose capacity is the
// nearest predefined size class that can accommodate the request. Requests larger than the
// maximum size class allocate a fresh slice without pooling.
func (p *Pool) Get(size int) []byte {
	if p == nil || size <= 0 {
		return nil
	}

	for i := range p.pools {
		class := &p.pools[i]
		if size <= class.size {
			buf := class.pool.Get().([]byte)
			return buf[:size]
		}
	}

	return make([]byte, size)
}

// Put returns the provided buffer to the pool if its capacity matches a predefined size class.
// Buffers that do not match any class are discarded. The buffer is zeroed before reuse to avoid
// leaking data across callers.
func (p *Pool) Put(buf []byte) {
	if p == nil || buf == nil {
		return
	}

	capBuf := cap(buf)
	for i := range p.pools {
		class := &p.pools[i]
		if capBuf == class.size {
			full := buf[:class.size]
			clear(full)
			class.pool.Put(full)
			return
		}
	}
}
