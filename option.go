// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package val

import (
	"github.com/lthibault/log"
)

// config carries the per-container settings applied by options.
type config struct {
	capacity    int
	onHeapAlloc func(HeapAlloc)
}

func defaultConfig() config {
	return config{capacity: DefaultInlineCapacity}
}

// Option configures a container at construction. Options trade per-instance
// memory footprint against heap-allocation avoidance and attach optional
// diagnostics; a container's copies and conversions inherit its options
// unless overridden.
type Option func(*config)

// WithInlineCapacity sets the effective inline-storage capacity in bytes.
// The value is clamped to [0, DefaultInlineCapacity]; the buffer itself is a
// fixed part of the container's footprint, so the capacity can only narrow
// the size range placed there. Zero disables inline placement entirely.
func WithInlineCapacity(n int) Option {
	if n < 0 {
		n = 0
	}
	if n > DefaultInlineCapacity {
		n = DefaultInlineCapacity
	}
	return func(c *config) {
		c.capacity = n
	}
}

// WithHeapObserver sets the callback fired whenever a container heap-
// allocates instead of using inline storage. If f == nil, no observer is
// installed.
func WithHeapObserver(f func(HeapAlloc)) Option {
	return func(c *config) {
		c.onHeapAlloc = f
	}
}

// WithLogger installs a heap observer that emits a structured debug line
// for every heap allocation. If l == nil, a default logger is used.
func WithLogger(l log.Logger) Option {
	if l == nil {
		l = log.New()
	}
	return WithHeapObserver(func(a HeapAlloc) {
		l.With(a).Debug("allocated heap storage")
	})
}
