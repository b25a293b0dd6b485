// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package val provides a type-erased value container with deep-copy value
// semantics, plus a borrowing handle that aliases the container's storage
// without owning it.
//
// A [Val] is declared with an abstract view type (an interface, or *U for
// concrete access) and initialized with any concrete value satisfying that
// view. Unlike a bare interface variable, the container preserves value
// semantics: copying it copies the underlying concrete value, and it can
// report the value's size, clone it, and destroy it even though the view
// type never learns the concrete type.
//
// # Architecture
//
// Four layers, leaves first:
//
//   - Operation table: a per-concrete-type manual vtable (clone, destruct,
//     size, type identity), built once per type and immutable. Clone is the
//     single fallible operation: types embedding [NonCopyable] reject it
//     with [ErrNotCopyable] at the first copy attempt.
//   - Storage block: a reference-counted header with an atomic data pointer.
//     Refcount updates are lock-free; the data exchange at teardown is
//     sequentially consistent. Headers are pooled once the count reaches 0.
//   - Descriptor: the (block, operation table) pair identifying how to view
//     a block's data. No sub-object byte offset is stored: the interface
//     representation carries the view, and conversions validate the concrete
//     type once, at conversion time.
//   - [Ptr] and [Val]: the borrowing handle holding one descriptor behind a
//     per-handle lock, and the owning container holding inline storage plus
//     exactly one internal handle.
//
// # Ownership Discipline
//
// The container owns its value exclusively; any number of handles may alias
// the storage, each holding one refcount share:
//
//   - [New], [MustNew]: construct a container owning a copy of a value
//   - [Val.Borrow]: borrow a handle with the container's view
//   - [Ptr.AddRef]: copy a handle (same view, same storage)
//   - [Ptr.Set]: reseat a handle onto another container or handle
//   - [Ptr.Release]: drop a handle (exactly once per handle)
//   - [Val.Close]: destroy the value; refused with a *[LivenessError]
//     while handles are outstanding
//   - [Val.MustClose]: crash-only variant of Close
//
// A handle must be released before its container closes. The violation is
// detected at teardown and reported as a typed, recoverable error; the
// container stays live so that the caller can release the handles and close
// again.
//
// # Views and Conversions
//
// Views form a capability hierarchy over the same stored value:
//
//   - [Widen]: convert to a wider (embedded) interface view; never fails
//     when the wider view is genuinely embedded, panics on misuse
//   - [Narrow]: convert to a narrower view (a concrete *U, or a more
//     specific interface); explicit and fallible, a wrong target yields a
//     *[CastError], never a silent success
//   - [Convert]: clone-on-convert between container views; the result is an
//     independent deep copy, never an alias
//   - [Val.Copy]: deep copy with the same view
//   - [Val.Clone]: independent heap copy of the value, ownership handed to
//     the caller
//
// Conversion functions take both type parameters explicitly, e.g.
// Widen[Animal, Dog](h) and Narrow[*Dog, Animal](h).
//
// # Inline Storage
//
// Each container embeds a [DefaultInlineCapacity]-byte buffer. Pointer-free
// concrete values that fit the effective capacity ([WithInlineCapacity])
// are placed there, avoiding a separate heap allocation; pointer-bearing
// values always heap-allocate, because a raw buffer would hide their
// pointers from the garbage collector. Heap allocations can be observed via
// [WithHeapObserver] or logged via [WithLogger].
//
// # Concurrency
//
// The package is a passive data structure with no suspension points.
// Handle bookkeeping is safe across goroutines: lock-free refcounting, a
// per-handle mutex making reseat-vs-dereference on one handle torn-free,
// and a sequentially consistent data-pointer exchange at teardown. The
// stored value itself gets no synchronization; concurrent mutation through
// views is the caller's responsibility.
//
// # Example
//
//	type Animal interface{ Speak() string }
//
//	pet := val.MustNew[Animal](Dog{Name: "Rex"})
//	defer pet.MustClose()
//
//	h := pet.Borrow()
//	fmt.Println(h.Value().Speak())
//	h.Release()
//
//	copy, _ := pet.Copy() // independent deep copy
//	defer copy.MustClose()
package val
