package extvideo

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
)

// handleShutdownBit marks the shutdown request in NativeHandle.state; the low
// bits hold the reference count.
const handleShutdownBit = uint64(1) << 63

// NativeHandle is a ref-counted wrapper around an opaque token owned by the
// native runtime. The teardown function runs exactly once, after Shutdown was
// called and the last reference was released, in whichever order.
type NativeHandle struct {
	token    uintptr
	teardown func(token uintptr)

	state    atomic.Uint64
	released atomic.Bool
}

// NewNativeHandle wraps token. teardown may be nil.
func NewNativeHandle(token uintptr, teardown func(token uintptr)) *NativeHandle {
	return &NativeHandle{
		token:    token,
		teardown: teardown,
	}
}

// Token returns the raw boundary token.
func (h *NativeHandle) Token() uintptr { return h.token }

// Refs returns the current reference count.
func (h *NativeHandle) Refs() int {
	return int(h.state.Load() &^ handleShutdownBit)
}

// IsShutdown reports whether Shutdown has been called.
func (h *NativeHandle) IsShutdown() bool {
	return h.state.Load()&handleShutdownBit != 0
}

// IsReleased reports whether the native resource has been torn down.
func (h *NativeHandle) IsReleased() bool {
	return h.released.Load()
}

// Acquire takes a new reference. It fails with ErrHandleReleased once
// Shutdown has been called.
func (h *NativeHandle) Acquire() (*HandleRef, error) {
	for {
		old := h.state.Load()
		if old&handleShutdownBit != 0 {
			return nil, fmt.Errorf("acquire handle 0x%x: %w", h.token, ErrHandleReleased)
		}
		if h.state.CompareAndSwap(old, old+1) {
			return &HandleRef{handle: h}, nil
		}
	}
}

// Shutdown marks the handle for teardown and rejects further acquires.
// Calling it more than once is a no-op.
func (h *NativeHandle) Shutdown() {
	for {
		old := h.state.Load()
		if old&handleShutdownBit != 0 {
			return
		}
		if h.state.CompareAndSwap(old, old|handleShutdownBit) {
			if old == 0 {
				h.release()
			}
			return
		}
	}
}

func (h *NativeHandle) releaseRef(ctx context.Context) {
	for {
		old := h.state.Load()
		count := old &^ handleShutdownBit
		if count == 0 {
			reportHandleMisuse(ctx, h, "release with zero references")
			return
		}
		next := old - 1
		if h.state.CompareAndSwap(old, next) {
			if next == handleShutdownBit {
				h.release()
			}
			return
		}
	}
}

func (h *NativeHandle) release() {
	if !h.released.CompareAndSwap(false, true) {
		return
	}
	if h.teardown != nil {
		h.teardown(h.token)
	}
}

// HandleRef is one acquired reference to a NativeHandle. Release it exactly once.
type HandleRef struct {
	handle *NativeHandle
	done   atomic.Bool
}

// Handle returns the referenced handle.
func (r *HandleRef) Handle() *NativeHandle { return r.handle }

// Token returns the referenced handle's boundary token.
func (r *HandleRef) Token() uintptr { return r.handle.token }

// Release drops the reference. A second Release on the same ref is misuse.
func (r *HandleRef) Release() {
	r.ReleaseCtx(context.Background())
}

// ReleaseCtx is Release with a logging context.
func (r *HandleRef) ReleaseCtx(ctx context.Context) {
	if !r.done.CompareAndSwap(false, true) {
		reportHandleMisuse(ctx, r.handle, "double release")
		return
	}
	r.handle.releaseRef(ctx)
}

func handleMisuseContext(ctx context.Context, h *NativeHandle, what string) context.Context {
	ctx = belt.WithField(ctx, "handle", fmt.Sprintf("0x%x", h.token))
	ctx = belt.WithField(ctx, "misuse", what)
	return ctx
}

func logHandleMisuse(ctx context.Context, h *NativeHandle, what string) {
	logger.Errorf(handleMisuseContext(ctx, h, what), "native handle misuse: %s", what)
}
