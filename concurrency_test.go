// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package val_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"code.hybscloud.com/val"
)

func TestConcurrentHandleBookkeeping(t *testing.T) {
	const goroutines = 16
	const rounds = 200

	c := val.MustNew[record](&pair{a: 1, b: 2})

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				h := c.Borrow()
				h2 := h.AddRef()
				_ = h.Value().A()
				h.Release()
				_ = h2.Value().B()
				h2.Release()
			}
		}()
	}
	wg.Wait()

	// Balanced bookkeeping across goroutines leaves only the internal
	// handle, so the liveness check passes.
	require.NoError(t, c.Close())
}

func TestConcurrentReseatAndDereference(t *testing.T) {
	const rounds = 500

	c1 := val.MustNew[animal](&dog{})
	c2 := val.MustNew[animal](&cat{})

	h := c1.Borrow()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if i%2 == 0 {
				h.Set(c2)
			} else {
				h.Set(c1)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			// A torn descriptor would pair one container's block with the
			// other's operation table and misreport the sound.
			s := h.Value().Speak()
			if s != "woof" && s != "meow" {
				t.Errorf("torn descriptor: %q", s)
				return
			}
		}
	}()
	wg.Wait()

	h.Release()
	require.NoError(t, c1.Close())
	require.NoError(t, c2.Close())
}

func TestConcurrentCloseIsSerialized(t *testing.T) {
	c := val.MustNew[animal](&dog{})
	h := c.Borrow()

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.Close()
		}()
	}
	wg.Wait()
	close(errs)

	// With a handle outstanding every Close refuses; no caller is told the
	// container closed while it stays live.
	for err := range errs {
		var le *val.LivenessError
		require.ErrorAs(t, err, &le)
	}
	require.Equal(t, "woof", h.Value().Speak())

	h.Release()
	require.NoError(t, c.Close())
}

func TestConcurrentWidenNarrow(t *testing.T) {
	const goroutines = 8
	const rounds = 100

	c := val.MustNew[pet](&dog{barks: 1})

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				base := val.Widen[animal, pet](c)
				d, err := val.Narrow[*dog, animal](base)
				if err != nil {
					t.Error(err)
					base.Release()
					return
				}
				d.Release()
				base.Release()
			}
		}()
	}
	wg.Wait()

	require.NoError(t, c.Close())
}
