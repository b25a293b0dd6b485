// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package val

// HeapAlloc describes one heap allocation made by a container that declined
// inline placement. It is delivered to the observer installed with
// [WithHeapObserver] or [WithLogger]; with no observer installed, the
// allocation is silent.
type HeapAlloc struct {
	// View is the container's view type.
	View string

	// Concrete is the stored concrete type.
	Concrete string

	// Size is the concrete value's footprint in bytes.
	Size uintptr

	// Capacity is the container's effective inline capacity.
	Capacity int

	// Reason states why inline placement was declined.
	Reason string
}

// Loggable formats the allocation for structured logging.
func (a HeapAlloc) Loggable() map[string]any {
	return map[string]any{
		"view":     a.View,
		"concrete": a.Concrete,
		"size":     a.Size,
		"capacity": a.Capacity,
		"reason":   a.Reason,
	}
}
