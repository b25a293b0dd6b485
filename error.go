// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package val

import (
	"errors"
	"fmt"
)

// Sentinel errors. Structured errors returned by this package wrap one of
// these, so callers can match with errors.Is regardless of the detail.
var (
	// ErrNotCopyable reports a clone attempt on a concrete type that embeds
	// [NonCopyable]. It surfaces at the first copy attempt, never at
	// construction: the view type does not know the concrete type.
	ErrNotCopyable = errors.New("val: type is not copyable")

	// ErrBadCast reports a failed narrowing conversion: the stored concrete
	// type does not satisfy the requested view.
	ErrBadCast = errors.New("val: bad cast")

	// ErrInvalidBlock reports an operation against a storage block with no
	// live backing pointer. It is returned when a conversion or copy follows
	// container teardown, and guards internal
	// construction paths that must never see a nil data pointer.
	ErrInvalidBlock = errors.New("val: invalid storage block")
)

// CastError is the detailed form of [ErrBadCast]. It reports which concrete
// type failed to satisfy which view.
type CastError struct {
	// Concrete is the stored concrete type.
	Concrete string

	// Target is the requested view type.
	Target string
}

func (e *CastError) Error() string {
	return fmt.Sprintf("val: bad cast: %s does not satisfy %s", e.Concrete, e.Target)
}

func (e *CastError) Unwrap() error { return ErrBadCast }

// LivenessError reports a container torn down while borrowing handles still
// alias its storage. [Val.Close] returns it without destroying the value, so
// the caller can release the outstanding handles and close again.
//
// Proceeding with teardown would leave every outstanding handle dangling;
// refusing is the recoverable form of that contract. [Val.MustClose] keeps
// the crash-only policy available for callers that treat a dangling handle
// as a programming error with no remediation.
type LivenessError struct {
	// Dangling is the number of borrowing handles still alive.
	Dangling int64
}

func (e *LivenessError) Error() string {
	return fmt.Sprintf("val: close with %d dangling handle(s)", e.Dangling)
}
