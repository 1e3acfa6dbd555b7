package extvideo

import "context"

// FrameRequest is one pending pull from the native pipeline. Complete it
// exactly once with the method matching Format.
type FrameRequest struct {
	ID     uint32      // Request id, unique while pending
	Width  int         // Requested width (0 = producer decides)
	Height int         // Requested height (0 = producer decides)
	Format PixelFormat // Layout the completion must use

	source *ExternalVideoSource
}

// Source returns the source that issued the request.
func (r *FrameRequest) Source() *ExternalVideoSource { return r.source }

// CompleteI420A completes the request with a planar frame. If the source is
// stopping or its handle was shut down meanwhile, the frame is dropped and
// nil is returned.
func (r *FrameRequest) CompleteI420A(ctx context.Context, frame *I420AFrame) error {
	return r.source.completeI420A(ctx, r.ID, frame, true)
}

// CompleteARGB32 completes the request with a packed frame, with the same
// shutdown semantics as CompleteI420A.
func (r *FrameRequest) CompleteARGB32(ctx context.Context, frame *ARGB32Frame) error {
	return r.source.completeARGB32(ctx, r.ID, frame, true)
}

// FrameRequestHandler produces frames on demand. OnFrameRequested runs on
// the native pipeline's thread and must not block: fill a frame and complete
// the request, or return without completing.
type FrameRequestHandler interface {
	OnFrameRequested(ctx context.Context, req *FrameRequest)
}

// FrameRequestHandlerFunc adapts a function to FrameRequestHandler.
type FrameRequestHandlerFunc func(ctx context.Context, req *FrameRequest)

func (f FrameRequestHandlerFunc) OnFrameRequested(ctx context.Context, req *FrameRequest) {
	f(ctx, req)
}

// RequestCallback is what the native side invokes for each frame it needs.
type RequestCallback func(requestID uint32, width, height int)
