// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package val

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

// DefaultInlineCapacity is the size of a container's inline buffer in bytes.
// Pointer-free concrete values no larger than the effective capacity are
// placed in the buffer, avoiding a separate heap allocation;
// [WithInlineCapacity] narrows the effective capacity within this bound.
const DefaultInlineCapacity = 16

// Val is the owning container: it holds exactly one concrete value behind a
// view of type T (an interface type, or *U for a concrete view), with deep
// copy semantics the view type alone cannot express. Copying the container
// copies the underlying concrete value, never a reference to it.
//
// Borrowing handles obtained from [Val.Borrow], [Widen] or [Narrow] alias
// the container's storage without owning it; they must all be released
// before [Val.Close], which refuses teardown with a *[LivenessError] while
// any handle is outstanding.
//
// A Val holds an internal mutex and may point into its own inline buffer;
// it must not be copied by assignment. Constructors return *Val, and deep
// copies are made explicitly with [Val.Copy] or [Convert].
//
// Lifecycle is Live → Destroyed, irreversible, with [Val.Close] the sole
// transition.
type Val[T any] struct {
	// inline must stay the first field: at offset 0 it shares the
	// container allocation's alignment, which any placed value may need.
	inline  [DefaultInlineCapacity]byte
	cfg     config
	self    Ptr[T]
	closeMu sync.Mutex
}

// New constructs a container owning a copy of v. The concrete value's size
// decides its placement: pointer-free values that fit the inline capacity
// live in the container's own footprint, everything else heap-allocates
// (notifying the configured heap observer). Passing a pointer copies the
// pointee, so the container always owns its value exclusively.
//
// The concrete type's operation table is bound here; a pointer to the
// concrete type must satisfy the view T, otherwise New fails with a
// *[CastError]. A nil value fails with [ErrInvalidBlock].
func New[T any](v T, opts ...Option) (*Val[T], error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, fmt.Errorf("%w: nil value", ErrInvalidBlock)
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: nil value", ErrInvalidBlock)
		}
		rv = rv.Elem()
	}
	ops := opsFor(rv.Type())

	c := &Val[T]{cfg: defaultConfig()}
	for _, o := range opts {
		o(&c.cfg)
	}

	var data unsafe.Pointer
	if placement, reason := c.emplacement(ops); placement != nil {
		reflect.NewAt(ops.rtype, placement).Elem().Set(rv)
		data = placement
	} else {
		c.observeHeap(ops, reason)
		out := reflect.New(ops.rtype)
		out.Elem().Set(rv)
		data = out.UnsafePointer()
	}

	if _, ok := ops.pack(data).(T); !ok {
		if data == unsafe.Pointer(&c.inline[0]) {
			ops.zero(data)
		}
		return nil, &CastError{Concrete: ops.name, Target: viewName[T]()}
	}

	b, err := acquireBlock(data)
	if err != nil {
		return nil, err
	}
	c.self.d = descriptor{block: b, ops: ops}
	b.increment()
	return c, nil
}

// MustNew is New, panicking on error.
func MustNew[T any](v T, opts ...Option) *Val[T] {
	c, err := New(v, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Convert constructs a container with view B from a container with a
// related view, deep-cloning the source's concrete value; the result never
// aliases the source's storage. Both widening and narrowing views are
// accepted; the stored concrete type is validated against B at runtime,
// and a mismatch yields a *[CastError]. A concrete type that embeds
// [NonCopyable] yields [ErrNotCopyable].
//
// The source's configuration (inline capacity, heap observer) carries over
// unless overridden by opts.
func Convert[B, T any](src *Val[T], opts ...Option) (*Val[B], error) {
	d := src.desc()
	if d.block == nil {
		return nil, ErrInvalidBlock
	}
	data := d.block.live()
	if data == nil {
		return nil, ErrInvalidBlock
	}
	if _, ok := d.ops.pack(data).(B); !ok {
		return nil, &CastError{Concrete: d.ops.name, Target: viewName[B]()}
	}

	c := &Val[B]{cfg: src.cfg}
	for _, o := range opts {
		o(&c.cfg)
	}

	placement, reason := c.emplacement(d.ops)
	p, err := d.ops.clone(data, placement)
	if err != nil {
		return nil, err
	}
	if placement == nil {
		c.observeHeap(d.ops, reason)
	}

	b, err := acquireBlock(p)
	if err != nil {
		return nil, err
	}
	c.self.d = descriptor{block: b, ops: d.ops}
	b.increment()
	return c, nil
}

// Copy returns a deep copy of the container: independent storage, same
// view. Mutations of the copy's value are never observable through the
// original.
func (v *Val[T]) Copy(opts ...Option) (*Val[T], error) {
	return Convert[T](v, opts...)
}

// Clone returns an independent, heap-allocated copy of the stored value,
// viewed as T. Ownership passes to the caller; the clone has no further
// relationship with the container.
func (v *Val[T]) Clone() (T, error) {
	var zero T
	d := v.desc()
	if d.block == nil {
		return zero, ErrInvalidBlock
	}
	data := d.block.live()
	if data == nil {
		return zero, ErrInvalidBlock
	}
	p, err := d.ops.clone(data, nil)
	if err != nil {
		return zero, err
	}
	return d.ops.pack(p).(T), nil
}

// Value dereferences the container through its internal handle.
func (v *Val[T]) Value() T {
	return v.self.Value()
}

// Borrow returns a new borrowing handle aliasing the container's storage.
// The handle must be released before the container is closed.
func (v *Val[T]) Borrow() *Ptr[T] {
	return newPtr[T](v.desc())
}

// Size returns the stored concrete value's footprint in bytes. Panics on a
// closed container, like [Val.Value].
func (v *Val[T]) Size() uintptr { return v.self.Size() }

// TypeName returns the stored concrete type's string form. Panics on a
// closed container, like [Val.Value].
func (v *Val[T]) TypeName() string { return v.self.TypeName() }

// Close tears the container down: it atomically clears the block's data
// pointer, verifies that its own internal handle holds the only remaining
// refcount share, destroys the value (running its Close when the concrete
// type implements io.Closer, and scrubbing inline storage), and releases
// the block.
//
// If borrowing handles are still outstanding, Close restores the data
// pointer and returns a *[LivenessError] without destroying anything; the
// caller can release the handles and close again. Closing a closed
// container is a no-op.
//
// Concurrent Close calls are serialized: while handles are outstanding,
// every caller observes the refusal, and no caller is told the container
// closed while it stays live.
func (v *Val[T]) Close() error {
	v.closeMu.Lock()
	defer v.closeMu.Unlock()

	d := v.self.desc()
	if d.block == nil {
		return nil
	}
	data := d.block.data.Swap(nil)
	if data == nil {
		return nil
	}
	if n := d.block.count.Load(); n != 1 {
		d.block.data.Store(data)
		return &LivenessError{Dangling: n - 1}
	}

	err := d.ops.finalize(data)
	if data == unsafe.Pointer(&v.inline[0]) {
		d.ops.zero(data)
	}
	v.self.Release()
	return err
}

// MustClose is Close, panicking on error. It restores the strict policy of
// treating a dangling handle at teardown as an unrecoverable programming
// error.
func (v *Val[T]) MustClose() {
	if err := v.Close(); err != nil {
		panic(err)
	}
}

// desc implements Ref[T] via the internal handle.
func (v *Val[T]) desc() descriptor {
	return v.self.desc()
}

// emplacement decides the value's placement: the inline buffer when the
// concrete size fits the effective capacity and the type may legally live
// there, else nil with the reason heap storage is required.
func (v *Val[T]) emplacement(ops *opTable) (unsafe.Pointer, string) {
	switch {
	case !ops.pointerFree:
		return nil, "type contains pointers"
	case v.cfg.capacity <= 0:
		return nil, "inline storage disabled"
	case ops.size > uintptr(v.cfg.capacity):
		return nil, "value exceeds inline capacity"
	}
	return unsafe.Pointer(&v.inline[0]), ""
}

func (v *Val[T]) observeHeap(ops *opTable, reason string) {
	if v.cfg.onHeapAlloc == nil {
		return
	}
	v.cfg.onHeapAlloc(HeapAlloc{
		View:     viewName[T](),
		Concrete: ops.name,
		Size:     ops.size,
		Capacity: v.cfg.capacity,
		Reason:   reason,
	})
}
