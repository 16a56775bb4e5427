// Package bufpool reuses the buffers alert payloads are encoded into.
package bufpool

import (
	"bytes"
	"sync"
)

// Buffers that grew past this are left to the garbage collector.
const maxRetained = 64 << 10

type Pool struct {
	p sync.Pool
}

func New() *Pool {
	return &Pool{
		p: sync.Pool{
			New: func() interface{} { return new(bytes.Buffer) },
		},
	}
}

// Get returns an empty buffer.
func (p *Pool) Get() *bytes.Buffer {
	return p.p.Get().(*bytes.Buffer)
}

// Put resets b and makes it available to Get.
// b must not be used afterwards.
func (p *Pool) Put(b *bytes.Buffer) {
	if b.Cap() > maxRetained {
		return
	}
	b.Reset()
	p.p.Put(b)
}
