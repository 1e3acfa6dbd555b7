package extvideo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/xsync"
)

// LoopbackCompletion records one completion received by a LoopbackBridge.
type LoopbackCompletion struct {
	RequestID uint32
	Format    PixelFormat
	Width     int
	Height    int
}

// LoopbackBridge is an in-process NativeBridge. Each source gets a
// FramePump that stands in for the native capture thread, and completions
// are recorded instead of being handed to an encoder.
type LoopbackBridge struct {
	nextToken atomic.Uintptr
	sources   xsync.Map[uintptr, *loopbackSource]
	failNext  atomic.Uint32
}

type loopbackSource struct {
	cfg      NativeSourceConfig
	pump     *FramePump
	refs     atomic.Int32
	shutdown atomic.Bool

	mu          sync.Mutex
	completions []LoopbackCompletion
}

var _ NativeBridge = (*LoopbackBridge)(nil)

// NewLoopbackBridge creates an empty loopback bridge.
func NewLoopbackBridge() *LoopbackBridge {
	return &LoopbackBridge{}
}

// CreateSource implements NativeBridge. With cfg.FPS > 0 requests are issued
// periodically; otherwise only through RequestFrame.
func (b *LoopbackBridge) CreateSource(ctx context.Context, cfg NativeSourceConfig, requests RequestCallback) (uintptr, error) {
	if requests == nil {
		return 0, fmt.Errorf("create loopback source: nil request callback")
	}
	token := b.nextToken.Add(1)
	src := &loopbackSource{
		cfg: cfg,
		pump: NewFramePump(FramePumpConfig{
			FPS:    cfg.FPS,
			Width:  cfg.Width,
			Height: cfg.Height,
		}, requests),
	}
	src.refs.Store(1)
	b.sources.Store(token, src)

	ctx = belt.WithField(ctx, "native_source", token)
	if err := src.pump.Start(ctx); err != nil {
		b.sources.Delete(token)
		return 0, fmt.Errorf("start loopback pump: %w", err)
	}
	logger.Debugf(ctx, "created loopback source %s %dx%d@%d", cfg.Format, cfg.Width, cfg.Height, cfg.FPS)
	return token, nil
}

// AddRef implements NativeBridge.
func (b *LoopbackBridge) AddRef(token uintptr) {
	if src, ok := b.sources.Load(token); ok {
		src.refs.Add(1)
	}
}

// RemoveRef implements NativeBridge. The source is destroyed with its last reference.
func (b *LoopbackBridge) RemoveRef(token uintptr) {
	src, ok := b.sources.Load(token)
	if !ok {
		return
	}
	if src.refs.Add(-1) == 0 {
		src.pump.Stop()
		b.sources.Delete(token)
	}
}

// Shutdown implements NativeBridge.
func (b *LoopbackBridge) Shutdown(token uintptr) {
	src, ok := b.sources.Load(token)
	if !ok {
		return
	}
	if src.shutdown.CompareAndSwap(false, true) {
		src.pump.Stop()
	}
}

// CompleteI420A implements NativeBridge.
func (b *LoopbackBridge) CompleteI420A(token uintptr, requestID uint32, frame *I420AFrame) ResultCode {
	if frame == nil || frame.Validate() != nil {
		return ResultInvalidParameter
	}
	return b.complete(token, LoopbackCompletion{
		RequestID: requestID,
		Format:    PixelFormatI420A,
		Width:     frame.Width,
		Height:    frame.Height,
	})
}

// CompleteARGB32 implements NativeBridge.
func (b *LoopbackBridge) CompleteARGB32(token uintptr, requestID uint32, frame *ARGB32Frame) ResultCode {
	if frame == nil || frame.Validate() != nil {
		return ResultInvalidParameter
	}
	return b.complete(token, LoopbackCompletion{
		RequestID: requestID,
		Format:    PixelFormatARGB32,
		Width:     frame.Width,
		Height:    frame.Height,
	})
}

func (b *LoopbackBridge) complete(token uintptr, c LoopbackCompletion) ResultCode {
	if code := ResultCode(b.failNext.Swap(0)); code != ResultSuccess {
		return code
	}
	src, ok := b.sources.Load(token)
	if !ok || src.shutdown.Load() {
		return ResultInvalidNativeHandle
	}
	if c.Format != src.cfg.Format {
		return ResultInvalidParameter
	}
	src.mu.Lock()
	src.completions = append(src.completions, c)
	src.mu.Unlock()
	return ResultSuccess
}

// FailNext makes the next completion return code.
func (b *LoopbackBridge) FailNext(code ResultCode) {
	b.failNext.Store(uint32(code))
}

// RequestFrame makes the source behind token issue one request and returns
// its id. It returns 0 for unknown or shut down sources.
func (b *LoopbackBridge) RequestFrame(token uintptr) uint32 {
	src, ok := b.sources.Load(token)
	if !ok || src.shutdown.Load() {
		return 0
	}
	return src.pump.RequestFrame()
}

// Completions returns the completions recorded for token.
func (b *LoopbackBridge) Completions(token uintptr) []LoopbackCompletion {
	src, ok := b.sources.Load(token)
	if !ok {
		return nil
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	out := make([]LoopbackCompletion, len(src.completions))
	copy(out, src.completions)
	return out
}

// Refs returns the native reference count of token, or 0 once destroyed.
func (b *LoopbackBridge) Refs(token uintptr) int {
	src, ok := b.sources.Load(token)
	if !ok {
		return 0
	}
	return int(src.refs.Load())
}

// Alive reports whether the source behind token still exists.
func (b *LoopbackBridge) Alive(token uintptr) bool {
	_, ok := b.sources.Load(token)
	return ok
}
