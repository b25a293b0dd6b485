// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package val

import (
	"fmt"
	"sync"
)

// Ptr is a borrowing handle: a copyable reference that aliases a container's
// storage without owning it. T is the view type: an interface type, or *U
// for a concrete view. Every live handle holds one share of the block's
// refcount; the owning container's Close refuses to destroy the value while
// any handle is outstanding.
//
// A handle is non-null by construction: it is only obtained from a container
// ([Val.Borrow]), from another handle ([Ptr.AddRef], [Widen], [Narrow]), and
// ends its life with exactly one [Ptr.Release]. The zero Ptr is invalid.
//
// Handles are safe for concurrent bookkeeping: refcount updates are
// lock-free, and the descriptor is guarded by a per-handle mutex so a
// concurrent [Ptr.Set] and [Ptr.Value] on the same handle never observe a
// torn descriptor. The stored value itself gets no such protection; callers
// that mutate it concurrently must synchronize around the view.
type Ptr[T any] struct {
	mu sync.Mutex
	d  descriptor
}

// newPtr wraps a descriptor in a fresh handle, taking a refcount share.
func newPtr[T any](d descriptor) *Ptr[T] {
	if d.block == nil {
		panic(ErrInvalidBlock)
	}
	d.block.increment()
	return &Ptr[T]{d: d}
}

// desc returns a consistent snapshot of the descriptor.
func (p *Ptr[T]) desc() descriptor {
	p.mu.Lock()
	d := p.d
	p.mu.Unlock()
	return d
}

// exchange swaps in a new descriptor and returns the old one.
func (p *Ptr[T]) exchange(d descriptor) descriptor {
	p.mu.Lock()
	old := p.d
	p.d = d
	p.mu.Unlock()
	return old
}

// AddRef returns a new handle aliasing the same storage with the same view.
// Never fails.
func (p *Ptr[T]) AddRef() *Ptr[T] {
	return newPtr[T](p.desc())
}

// Set reseats the handle onto src's storage: the new block's count is
// incremented before the old block's is dropped, and the descriptor swap is
// atomic with respect to a concurrent Value on the same handle.
func (p *Ptr[T]) Set(src Ref[T]) {
	d := src.desc()
	if d.block == nil {
		panic(ErrInvalidBlock)
	}
	d.block.increment()
	old := p.exchange(d)
	old.block.decrement()
}

// Value dereferences the handle: it loads the block's data pointer and
// reinterprets it as the view type. Infallible on a live handle; panics if
// the handle was released, or if the owning container was torn down, a
// state the liveness check at [Val.Close] makes unreachable in a correct
// program.
func (p *Ptr[T]) Value() T {
	d := p.desc()
	if d.block == nil {
		panic("val: use of released handle")
	}
	data := d.block.live()
	if data == nil {
		panic("val: dereference after container teardown")
	}
	return d.ops.pack(data).(T)
}

// Release drops the handle's refcount share. Exactly one Release per handle;
// a second call panics.
func (p *Ptr[T]) Release() {
	old := p.exchange(descriptor{})
	if old.block == nil {
		panic("val: handle released twice")
	}
	old.block.decrement()
}

// Size returns the stored concrete value's footprint in bytes. Panics on a
// released handle, like [Ptr.Value].
func (p *Ptr[T]) Size() uintptr {
	d := p.desc()
	if d.block == nil {
		panic("val: use of released handle")
	}
	return d.ops.size
}

// TypeName returns the stored concrete type's string form. Panics on a
// released handle, like [Ptr.Value].
func (p *Ptr[T]) TypeName() string {
	d := p.desc()
	if d.block == nil {
		panic("val: use of released handle")
	}
	return d.ops.name
}

// Widen converts src to a handle with a wider view B, an interface embedded
// in (or otherwise satisfied through) the current view. The new handle
// aliases the same storage and takes its own refcount share; src remains
// valid. Widening to a genuinely embedded interface never fails; Widen
// panics when B is not satisfied by the stored concrete type: widening to
// an unsatisfied view is a programming error, not a runtime condition.
//
// Both type parameters are explicit at call sites: Widen[Base, Derived](h).
func Widen[B, T any](src Ref[T]) *Ptr[B] {
	d := src.desc()
	if d.block == nil {
		panic(ErrInvalidBlock)
	}
	data := d.block.live()
	if data == nil {
		panic("val: conversion after container teardown")
	}
	if _, ok := d.ops.pack(data).(B); !ok {
		panic(fmt.Sprintf("val: cannot widen %s to %s", d.ops.name, viewName[B]()))
	}
	return newPtr[B](d)
}

// Narrow converts src to a handle with a narrower view D: a concrete *U
// view or a more specific interface. The stored concrete type is validated
// once, here; a handle that Narrow returns dereferences without further
// checks. A mismatched target yields a *[CastError] (matching
// [ErrBadCast]); narrowing never succeeds silently on the wrong type.
//
// Both type parameters are explicit at call sites: Narrow[*Dog, Animal](h).
func Narrow[D, T any](src Ref[T]) (*Ptr[D], error) {
	d := src.desc()
	if d.block == nil {
		return nil, ErrInvalidBlock
	}
	data := d.block.live()
	if data == nil {
		return nil, ErrInvalidBlock
	}
	if _, ok := d.ops.pack(data).(D); !ok {
		return nil, &CastError{Concrete: d.ops.name, Target: viewName[D]()}
	}
	return newPtr[D](d), nil
}
