// Package secmem provides pooled scratch buffers for sensitive
// intermediate data such as decrypted key material and derived
// encryption keys. Every buffer is wiped before it is returned to the
// pool, so plaintext never lingers in reusable memory.
package secmem

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Buffer is a pooled scratch buffer. It is exclusively owned by one
// caller between Get and Release and must not escape that window.
type Buffer struct {
	data     []byte
	released bool
}

var pool = sync.Pool{
	New: func() any { return new(Buffer) },
}

// Get returns a buffer with exactly n usable bytes. The contents are
// zeroed.
func Get(n int) *Buffer {
	b := pool.Get().(*Buffer)
	b.released = false
	if cap(b.data) < n {
		b.data = make([]byte, n)
	}
	b.data = b.data[:n]
	clear(b.data)
	return b
}

// Bytes returns the buffer contents. The slice is invalidated by
// Release and must not be retained past it.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the current length of the buffer.
func (b *Buffer) Len() int { return len(b.data) }

// Truncate shrinks the buffer to its first n bytes. The discarded tail
// is still wiped on Release.
func (b *Buffer) Truncate(n int) {
	if n < 0 || n > len(b.data) {
		return
	}
	b.data = b.data[:n]
}

// Release wipes the buffer, including any truncated tail, and returns
// it to the pool. Calling Release more than once is a no-op after the
// first call.
func (b *Buffer) Release() {
	if b.released {
		return
	}
	b.released = true
	memguard.WipeBytes(b.data[:cap(b.data)])
	b.data = b.data[:0]
	pool.Put(b)
}

// Wipe zeroes p in place. For sensitive material held in plain slices
// outside the pool.
func Wipe(p []byte) {
	memguard.WipeBytes(p)
}
