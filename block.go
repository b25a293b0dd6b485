// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package val

import (
	"unsafe"

	"go.uber.org/atomic"
)

// block is the reference-counted storage header shared by a container and
// every handle borrowed from it. count tracks live references; data points
// at the concrete value (either the container's inline buffer or a heap
// allocation) and is cleared exactly once, by the container, at teardown.
//
// Both fields are atomic: increment/decrement are lock-free and may race
// freely across goroutines, and the data exchange at teardown is
// sequentially consistent, so a concurrent reader observes either the old
// valid pointer or nil, never a torn value.
type block struct {
	count atomic.Int64
	data  atomic.UnsafePointer
}

// increment records a new reference. Lock-free.
func (b *block) increment() {
	b.count.Inc()
}

// decrement drops a reference. The caller that observes the 1→0 transition
// recycles the header (not the concrete value, which the container destroys
// on its own teardown path).
func (b *block) decrement() {
	if b.count.Dec() == 0 {
		releaseBlock(b)
	}
}

// live returns the backing pointer, or nil after teardown.
func (b *block) live() unsafe.Pointer {
	return b.data.Load()
}
