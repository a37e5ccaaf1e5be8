package envelope

import "sync/atomic"

// FreeFunc releases the bytes backing a Blob. It is called exactly once,
// when the blob's refcount drops to zero.
type FreeFunc func([]byte)

// Blob is a refcounted, shared-ownership byte buffer, the Go rendering of
// the source system's owned_blob_t. Multiple Values (and a Frame's planes)
// can reference the same Blob without copying; the buffer is freed by
// freeFn only once every holder has called Release.
//
// A Blob created with a nil FreeFunc is assumed to be backed by memory the
// runtime already manages (a plain Go slice) and Release becomes a no-op
// once the count reaches zero.
type Blob struct {
	data    []byte
	freeFn  FreeFunc
	refs    atomic.Int32
}

// NewBlob wraps data with an initial refcount of one. freeFn may be nil.
func NewBlob(data []byte, freeFn FreeFunc) *Blob {
	b := &Blob{data: data, freeFn: freeFn}
	b.refs.Store(1)
	return b
}

// Bytes returns the blob's backing buffer. The caller must not retain the
// slice past a matching Release unless it has called Retain first.
func (b *Blob) Bytes() []byte { return b.data }

// Len returns the number of bytes in the blob.
func (b *Blob) Len() int { return len(b.data) }

// Retain increments the blob's refcount and returns the blob, so callers
// can write b = b.Retain() when handing a shared reference to a second
// owner.
func (b *Blob) Retain() *Blob {
	b.refs.Add(1)
	return b
}

// Release decrements the blob's refcount, invoking freeFn once it reaches
// zero. Calling Release on an already-freed blob is a programmer error and
// is not guarded against, matching the source's non-defensive ownership
// contract.
func (b *Blob) Release() {
	if b.refs.Add(-1) == 0 && b.freeFn != nil {
		b.freeFn(b.data)
		b.data = nil
	}
}

// RefCount reports the blob's current refcount, for tests and diagnostics.
func (b *Blob) RefCount() int32 { return b.refs.Load() }
