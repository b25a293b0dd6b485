// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package val

import (
	"fmt"
	"io"
	"reflect"
	"sync"
	"unsafe"
)

// NonCopyable marks a concrete type as not clonable. Embed it in a type to
// make every clone attempt (container copy, conversion, explicit Clone) fail
// with [ErrNotCopyable]. Construction is unaffected: the failure is
// observable only at the first copy attempt, because the view type does not
// know the concrete type.
type NonCopyable struct{}

func (NonCopyable) nonCopyableMarker() {}

type nonCopyable interface{ nonCopyableMarker() }

var (
	nonCopyableType = reflect.TypeOf((*nonCopyable)(nil)).Elem()
	closerType      = reflect.TypeOf((*io.Closer)(nil)).Elem()
)

// eface mirrors the runtime layout of an empty interface: a type word and a
// data word. Dereference packs a view by pairing the concrete pointer type's
// word, captured once at table construction, with a raw storage pointer, so
// no per-dereference allocation occurs.
type eface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// opTable is the per-concrete-type dispatch table: a manual vtable built
// once per concrete type and shared by every container and handle that
// stores that type. It is immutable and carries no per-instance state.
type opTable struct {
	// rtype is the concrete type the table is bound to.
	rtype reflect.Type

	// size is the concrete value's footprint in bytes.
	size uintptr

	// name is the concrete type's string form.
	name string

	// copyable is false when the concrete type embeds [NonCopyable].
	copyable bool

	// pointerFree reports whether the type may live in a container's inline
	// buffer. A pointer-bearing value placed in a raw byte buffer would be
	// invisible to the garbage collector, so such types always heap-allocate.
	pointerFree bool

	// closer reports whether a pointer to the concrete type implements
	// io.Closer; teardown then runs the value's Close.
	closer bool

	// cloneFn is the optional type-preserving deep-copy hook: a
	// Clone() U method on U or *U. Zero when absent; clone then performs a
	// shallow memberwise copy.
	cloneFn reflect.Value

	// viewType is the runtime type word of *U, paired with a storage
	// pointer by pack.
	viewType unsafe.Pointer
}

// tables memoizes one immutable table per concrete type.
var tables sync.Map // reflect.Type → *opTable

// opsFor returns the operation table bound to rt, building it on first use.
// Exactly one binding exists per concrete type.
func opsFor(rt reflect.Type) *opTable {
	if t, ok := tables.Load(rt); ok {
		return t.(*opTable)
	}
	t, _ := tables.LoadOrStore(rt, buildTable(rt))
	return t.(*opTable)
}

func buildTable(rt reflect.Type) *opTable {
	pt := reflect.PointerTo(rt)
	t := &opTable{
		rtype:       rt,
		size:        rt.Size(),
		name:        rt.String(),
		copyable:    !pt.Implements(nonCopyableType),
		pointerFree: pointerFree(rt),
		closer:      pt.Implements(closerType),
	}

	proto := reflect.New(rt).Interface()
	t.viewType = (*eface)(unsafe.Pointer(&proto)).typ

	if m, ok := pt.MethodByName("Clone"); ok {
		mt := m.Type
		if mt.NumIn() == 1 && mt.NumOut() == 1 && mt.Out(0) == rt {
			t.cloneFn = m.Func
		}
	}
	return t
}

// pack reinterprets a raw storage pointer as a *U boxed in an interface.
// Views are obtained by asserting the result to the requested view type.
func (t *opTable) pack(p unsafe.Pointer) any {
	var i any
	e := (*eface)(unsafe.Pointer(&i))
	e.typ = t.viewType
	e.data = p
	return i
}

// clone copies the concrete value at src. With a nil placement it allocates
// fresh heap storage; otherwise it constructs the copy in the caller's
// buffer (the inline-storage path, reachable only for pointer-free types).
// This is the single fallible operation in the table.
func (t *opTable) clone(src, placement unsafe.Pointer) (unsafe.Pointer, error) {
	if !t.copyable {
		return nil, fmt.Errorf("%w: %s", ErrNotCopyable, t.name)
	}

	if t.cloneFn.IsValid() {
		out := reflect.New(t.rtype)
		out.Elem().Set(t.cloneFn.Call([]reflect.Value{reflect.NewAt(t.rtype, src)})[0])
		if placement == nil {
			return out.UnsafePointer(), nil
		}
		copyBytes(placement, out.UnsafePointer(), t.size)
		return placement, nil
	}

	if placement != nil {
		copyBytes(placement, src, t.size)
		return placement, nil
	}
	out := reflect.New(t.rtype)
	out.Elem().Set(reflect.NewAt(t.rtype, src).Elem())
	return out.UnsafePointer(), nil
}

// zero scrubs the value's bytes. Used to destruct in place when the value
// lives in a container's inline buffer; heap storage is simply released to
// the garbage collector.
func (t *opTable) zero(p unsafe.Pointer) {
	clear(unsafe.Slice((*byte)(p), t.size))
}

// finalize runs the value's Close when the concrete type implements
// io.Closer. Called once, on the container's teardown path.
func (t *opTable) finalize(p unsafe.Pointer) error {
	if !t.closer {
		return nil
	}
	return t.pack(p).(io.Closer).Close()
}

func copyBytes(dst, src unsafe.Pointer, n uintptr) {
	copy(unsafe.Slice((*byte)(dst), n), unsafe.Slice((*byte)(src), n))
}

// pointerFree reports whether a value of type t contains no pointers at any
// depth, making it safe to place in a raw byte buffer.
func pointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return pointerFree(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !pointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// viewName returns the string form of a view type parameter.
func viewName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
