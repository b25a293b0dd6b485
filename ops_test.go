// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package val

import (
	"reflect"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

type opsPoint struct{ x, y int64 }

type opsLocked struct {
	NonCopyable
	n int
}

func TestOpsSingleBindingPerType(t *testing.T) {
	rt := reflect.TypeOf(opsPoint{})
	a := opsFor(rt)
	b := opsFor(rt)
	require.Same(t, a, b)
	require.NotSame(t, a, opsFor(reflect.TypeOf(opsLocked{})))
}

func TestOpsMetadata(t *testing.T) {
	ops := opsFor(reflect.TypeOf(opsPoint{}))
	require.Equal(t, uintptr(16), ops.size)
	require.Equal(t, "val.opsPoint", ops.name)
	require.True(t, ops.copyable)
	require.True(t, ops.pointerFree)
	require.False(t, ops.closer)
}

func TestOpsNonCopyableMarker(t *testing.T) {
	ops := opsFor(reflect.TypeOf(opsLocked{}))
	require.False(t, ops.copyable)

	src := &opsLocked{n: 1}
	_, err := ops.clone(unsafe.Pointer(src), nil)
	require.ErrorIs(t, err, ErrNotCopyable)
}

func TestOpsCloneHeap(t *testing.T) {
	ops := opsFor(reflect.TypeOf(opsPoint{}))
	src := &opsPoint{x: 1, y: 2}

	p, err := ops.clone(unsafe.Pointer(src), nil)
	require.NoError(t, err)

	out := (*opsPoint)(p)
	require.Equal(t, opsPoint{x: 1, y: 2}, *out)

	// Independent storage.
	out.x = 9
	require.Equal(t, int64(1), src.x)
}

func TestOpsClonePlacement(t *testing.T) {
	ops := opsFor(reflect.TypeOf(opsPoint{}))
	src := &opsPoint{x: 3, y: 4}
	var buf [2]int64 // aligned placement buffer

	p, err := ops.clone(unsafe.Pointer(src), unsafe.Pointer(&buf[0]))
	require.NoError(t, err)
	require.Equal(t, unsafe.Pointer(&buf[0]), p)
	require.Equal(t, opsPoint{x: 3, y: 4}, *(*opsPoint)(p))

	ops.zero(p)
	require.Equal(t, opsPoint{}, *(*opsPoint)(p))
}

func TestOpsPackRoundTrip(t *testing.T) {
	ops := opsFor(reflect.TypeOf(opsPoint{}))
	src := &opsPoint{x: 7, y: 8}

	got, ok := ops.pack(unsafe.Pointer(src)).(*opsPoint)
	require.True(t, ok)
	require.Same(t, src, got)
}

func TestPointerFreeClassification(t *testing.T) {
	for _, tt := range []struct {
		v    any
		want bool
	}{
		{int(0), true},
		{complex128(0), true},
		{[4]int32{}, true},
		{opsPoint{}, true},
		{struct{ a [2]opsPoint }{}, true},
		{"", false},
		{[]int{}, false},
		{map[string]int{}, false},
		{new(int), false},
		{struct{ p *int }{}, false},
		{struct{ f func() }{}, false},
		{[3]*int{}, false},
	} {
		require.Equal(t, tt.want, pointerFree(reflect.TypeOf(tt.v)), "type %T", tt.v)
	}
}

func TestInlineStorageLivesInContainer(t *testing.T) {
	c, err := New[any](&opsPoint{x: 1, y: 2})
	require.NoError(t, err)
	defer c.MustClose()

	// A pointer-free value within capacity is placed in the container's
	// own buffer, not on the heap.
	require.Equal(t, unsafe.Pointer(&c.inline[0]), c.desc().block.live())

	// A value over capacity is not.
	type opsWide struct{ a, b, c int64 }
	w, err := New[any](&opsWide{})
	require.NoError(t, err)
	defer w.MustClose()
	require.NotEqual(t, unsafe.Pointer(&w.inline[0]), w.desc().block.live())
}

func TestAcquireBlockRejectsNil(t *testing.T) {
	_, err := acquireBlock(nil)
	require.ErrorIs(t, err, ErrInvalidBlock)
}

func TestBlockRefcountTransitions(t *testing.T) {
	var x int64
	b, err := acquireBlock(unsafe.Pointer(&x))
	require.NoError(t, err)

	b.increment()
	b.increment()
	require.Equal(t, int64(2), b.count.Load())
	require.Equal(t, unsafe.Pointer(&x), b.live())

	b.decrement()
	require.Equal(t, unsafe.Pointer(&x), b.live())

	// The 1→0 transition recycles the header and clears its data pointer.
	b.decrement()
	require.Nil(t, b.live())
}
