// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package val

import (
	"sync"
	"unsafe"
)

// Storage block headers are pooled: a header is recycled as soon as its
// refcount reaches zero, which in a correct program coincides with the
// owning container's teardown. A handle that (incorrectly) survives its
// container must not touch the header afterwards; the dereference guards
// panic on a cleared header, but a recycled one is unrecoverable, which is
// exactly the undefined behaviour the liveness check at teardown exists to
// make unreachable.

var blockPool = sync.Pool{New: func() any { return new(block) }}

// acquireBlock returns a pooled header wrapping data, with refcount 0.
// The first handle that wraps the header (the container's own) brings the
// count to 1. A nil data pointer is rejected; construction paths never
// produce one.
func acquireBlock(data unsafe.Pointer) (*block, error) {
	if data == nil {
		return nil, ErrInvalidBlock
	}
	b := blockPool.Get().(*block)
	b.count.Store(0)
	b.data.Store(data)
	return b, nil
}

// releaseBlock zeroes and returns b to the pool.
func releaseBlock(b *block) {
	b.data.Store(nil)
	blockPool.Put(b)
}
