// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package val

// descriptor identifies how to view a storage block's data as a given view
// type: the shared block plus the concrete type's operation table. The view
// adjustment itself is carried by Go's interface representation: pack pairs
// the concrete pointer type with the data pointer, and a type assertion
// selects the view, so no manual sub-object offset is stored.
//
// A descriptor is a plain value; handles copy it under their own lock so a
// reseat and a dereference on the same handle never interleave.
type descriptor struct {
	block *block
	ops   *opTable
}

// Ref is the common source of borrowing handles: both *[Val] and *[Ptr]
// satisfy it for their view type. It is sealed; outside implementations are
// not possible.
type Ref[T any] interface {
	desc() descriptor
}
