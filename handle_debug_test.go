//go:build debug

package extvideo

import "testing"

func TestHandleRef_DoubleReleasePanics(t *testing.T) {
	h, _ := newCountingHandle()
	ref, _ := h.Acquire()
	ref.Release()

	defer func() {
		if recover() == nil {
			t.Error("double release did not panic in a debug build")
		}
	}()
	ref.Release()
}
