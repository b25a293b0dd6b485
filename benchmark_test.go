// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package val_test

import (
	"testing"

	"code.hybscloud.com/val"
)

func BenchmarkValue(b *testing.B) {
	c := val.MustNew[record](&pair{a: 1, b: 2})
	defer c.MustClose()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sinkRecord = c.Value()
	}
}

func BenchmarkBorrowRelease(b *testing.B) {
	c := val.MustNew[record](&pair{a: 1, b: 2})
	defer c.MustClose()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h := c.Borrow()
		h.Release()
	}
}

func BenchmarkAddRefRelease(b *testing.B) {
	c := val.MustNew[record](&pair{a: 1, b: 2})
	defer c.MustClose()
	h := c.Borrow()
	defer h.Release()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h2 := h.AddRef()
		h2.Release()
	}
}

func BenchmarkCopyInline(b *testing.B) {
	c := val.MustNew[record](&pair{a: 1, b: 2})
	defer c.MustClose()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cp, err := c.Copy()
		if err != nil {
			b.Fatal(err)
		}
		cp.MustClose()
	}
}

func BenchmarkCopyHeap(b *testing.B) {
	type wide struct{ a, b, c, d, e int64 }
	c := val.MustNew[any](&wide{})
	defer c.MustClose()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cp, err := c.Copy()
		if err != nil {
			b.Fatal(err)
		}
		cp.MustClose()
	}
}

func BenchmarkNarrow(b *testing.B) {
	c := val.MustNew[animal](&dog{})
	defer c.MustClose()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h, err := val.Narrow[pet, animal](c)
		if err != nil {
			b.Fatal(err)
		}
		h.Release()
	}
}
