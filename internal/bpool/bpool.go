// Package bpool implements a leaky pool of *bytes.Buffer, adapted from the
// teacher's internal/bpool: outbound records are framed by appending a fixed
// sentinel to a per-write buffer, and every connection's Writer does this on
// every call, so reusing the backing array matters under load.
package bpool

import (
	"bytes"
	"sync"
)

var bpool sync.Pool

// Get returns a buffer from the pool or creates a new one if the pool is
// empty.
func Get() *bytes.Buffer {
	b, ok := bpool.Get().(*bytes.Buffer)
	if !ok {
		b = &bytes.Buffer{}
	}
	return b
}

// Put returns a buffer into the pool.
func Put(b *bytes.Buffer) {
	b.Reset()
	bpool.Put(b)
}
