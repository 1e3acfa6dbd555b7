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

// SourceStats provides request/completion counters for a source.
type SourceStats struct {
	Requested uint64 // Requests dispatched to the handler
	Completed uint64 // Requests completed across the boundary
	Skipped   uint64 // Requests dropped because the source was stopping
	Failed    uint64 // Completions rejected locally or by the native side
}

// ExternalVideoSource correlates native frame requests with completions for
// one track. It is created per Start and discarded on Stop.
type ExternalVideoSource struct {
	ctx     context.Context
	format  PixelFormat
	handler FrameRequestHandler
	onFrame func(*VideoFrame)

	bridge NativeBridge
	ref    atomic.Pointer[HandleRef]

	pending xsync.Map[uint32, *FrameRequest]

	// stopMu orders in-flight completions before teardown: completions hold
	// it shared, stop takes it exclusively to flip stopping.
	stopMu   sync.RWMutex
	stopping atomic.Bool

	requested atomic.Uint64
	completed atomic.Uint64
	skipped   atomic.Uint64
	failed    atomic.Uint64
}

func newExternalVideoSource(
	ctx context.Context,
	format PixelFormat,
	handler FrameRequestHandler,
	onFrame func(*VideoFrame),
) *ExternalVideoSource {
	return &ExternalVideoSource{
		ctx:     ctx,
		format:  format,
		handler: handler,
		onFrame: onFrame,
	}
}

// Format returns the pixel layout this source completes with.
func (s *ExternalVideoSource) Format() PixelFormat { return s.format }

// Stats returns a snapshot of the source counters.
func (s *ExternalVideoSource) Stats() SourceStats {
	return SourceStats{
		Requested: s.requested.Load(),
		Completed: s.completed.Load(),
		Skipped:   s.skipped.Load(),
		Failed:    s.failed.Load(),
	}
}

// Pending returns the number of requests awaiting completion.
func (s *ExternalVideoSource) Pending() int {
	n := 0
	s.pending.Range(func(uint32, *FrameRequest) bool {
		n++
		return true
	})
	return n
}

// attach takes the source's reference on the track's native handle.
func (s *ExternalVideoSource) attach(bridge NativeBridge, handle *NativeHandle) error {
	ref, err := handle.Acquire()
	if err != nil {
		return err
	}
	s.bridge = bridge
	s.ref.Store(ref)
	return nil
}

// Dispatch is the native request entry point. Requests that arrive before
// attach or after stop began are dropped without completion.
func (s *ExternalVideoSource) Dispatch(requestID uint32, width, height int) {
	ctx := s.ctx
	req, ok := s.register(requestID, width, height)
	if !ok || s.handler == nil {
		return
	}
	s.handler.OnFrameRequested(ctx, req)
}

// register records requestID as pending unless the source is not live.
// The handler runs after it returns, outside stopMu.
func (s *ExternalVideoSource) register(requestID uint32, width, height int) (*FrameRequest, bool) {
	s.stopMu.RLock()
	defer s.stopMu.RUnlock()

	ctx := s.ctx
	ref := s.ref.Load()
	if s.stopping.Load() || ref == nil || ref.Handle().IsShutdown() {
		s.skipped.Add(1)
		logger.Debugf(ctx, "dropping frame request %d: source is not live", requestID)
		return nil, false
	}
	req := &FrameRequest{
		ID:     requestID,
		Width:  width,
		Height: height,
		Format: s.format,
		source: s,
	}
	if _, dup := s.pending.LoadOrStore(requestID, req); dup {
		logger.Errorf(ctx, "native pipeline reissued pending request %d", requestID)
		return nil, false
	}
	s.requested.Add(1)
	return req, true
}

// CompleteI420A completes request id with a planar frame.
func (s *ExternalVideoSource) CompleteI420A(ctx context.Context, requestID uint32, frame *I420AFrame) error {
	return s.completeI420A(ctx, requestID, frame, false)
}

// CompleteARGB32 completes request id with a packed frame.
func (s *ExternalVideoSource) CompleteARGB32(ctx context.Context, requestID uint32, frame *ARGB32Frame) error {
	return s.completeARGB32(ctx, requestID, frame, false)
}

func (s *ExternalVideoSource) completeI420A(ctx context.Context, requestID uint32, frame *I420AFrame, skipOnShutdown bool) error {
	if frame == nil {
		s.failed.Add(1)
		return fmt.Errorf("complete request %d: %w: nil frame", requestID, ErrInvalidFrame)
	}
	if err := frame.Validate(); err != nil {
		s.failed.Add(1)
		return fmt.Errorf("complete request %d: %w", requestID, err)
	}
	return s.complete(ctx, requestID, PixelFormatI420A, skipOnShutdown,
		func(token uintptr) ResultCode {
			return s.bridge.CompleteI420A(token, requestID, frame)
		},
		frame.ToVideoFrame,
	)
}

func (s *ExternalVideoSource) completeARGB32(ctx context.Context, requestID uint32, frame *ARGB32Frame, skipOnShutdown bool) error {
	if frame == nil {
		s.failed.Add(1)
		return fmt.Errorf("complete request %d: %w: nil frame", requestID, ErrInvalidFrame)
	}
	if err := frame.Validate(); err != nil {
		s.failed.Add(1)
		return fmt.Errorf("complete request %d: %w", requestID, err)
	}
	return s.complete(ctx, requestID, PixelFormatARGB32, skipOnShutdown,
		func(token uintptr) ResultCode {
			return s.bridge.CompleteARGB32(token, requestID, frame)
		},
		frame.ToVideoFrame,
	)
}

func (s *ExternalVideoSource) complete(
	ctx context.Context,
	requestID uint32,
	format PixelFormat,
	skipOnShutdown bool,
	call func(token uintptr) ResultCode,
	toFrame func() *VideoFrame,
) error {
	s.stopMu.RLock()
	defer s.stopMu.RUnlock()

	if s.stopping.Load() {
		s.pending.Delete(requestID)
		if skipOnShutdown {
			s.skipped.Add(1)
			logger.Debugf(ctx, "skipping completion of request %d: source is stopping", requestID)
			return nil
		}
		s.failed.Add(1)
		return fmt.Errorf("complete request %d: %w: source is stopping", requestID, ErrHandleReleased)
	}

	req, ok := s.pending.Load(requestID)
	if !ok {
		s.failed.Add(1)
		return fmt.Errorf("complete request %d: %w: not pending", requestID, ErrProtocolViolation)
	}
	if req.Format != format {
		s.failed.Add(1)
		return fmt.Errorf("complete request %d: %w: completed as %s, requested %s",
			requestID, ErrProtocolViolation, format, req.Format)
	}
	if _, ok := s.pending.LoadAndDelete(requestID); !ok {
		s.failed.Add(1)
		return fmt.Errorf("complete request %d: %w: already completed", requestID, ErrProtocolViolation)
	}

	ref, err := s.acquire()
	if err != nil {
		if skipOnShutdown {
			s.skipped.Add(1)
			logger.Debugf(ctx, "skipping completion of request %d: %v", requestID, err)
			return nil
		}
		s.failed.Add(1)
		return fmt.Errorf("complete request %d: %w", requestID, err)
	}
	code := call(ref.Token())
	ref.ReleaseCtx(ctx)

	if err := checkResult(fmt.Sprintf("complete %s request %d", format, requestID), code); err != nil {
		// The caller owns the retry decision, so the request stays pending.
		s.pending.Store(requestID, req)
		s.failed.Add(1)
		return err
	}
	s.completed.Add(1)

	frame := toFrame()
	traceFrameReady(ctx, frameDirectionLocal, frame)
	if s.onFrame != nil {
		s.onFrame(frame)
	}
	return nil
}

// stop refuses further requests, waits out in-flight completions, abandons
// what is still pending and drops the source's handle reference.
func (s *ExternalVideoSource) stop(ctx context.Context) {
	s.stopMu.Lock()
	s.stopping.Store(true)
	s.stopMu.Unlock()

	abandoned := 0
	s.pending.Range(func(id uint32, _ *FrameRequest) bool {
		s.pending.Delete(id)
		abandoned++
		return true
	})
	if abandoned > 0 {
		logger.Debugf(belt.WithField(ctx, "abandoned", abandoned), "abandoned pending frame requests")
	}

	if ref := s.ref.Swap(nil); ref != nil {
		ref.Handle().Shutdown()
		ref.ReleaseCtx(ctx)
	}
}

func (s *ExternalVideoSource) acquire() (*HandleRef, error) {
	srcRef := s.ref.Load()
	if srcRef == nil {
		return nil, ErrHandleReleased
	}
	return srcRef.Handle().Acquire()
}
