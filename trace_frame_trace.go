//go:build debug_trace

package extvideo

import (
	"context"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
)

func traceFrameReady(ctx context.Context, dir frameDirection, frame *VideoFrame) {
	ctx = belt.WithField(ctx, "event", "frame_ready")
	ctx = belt.WithField(ctx, "direction", string(dir))
	logger.Tracef(ctx, "%s frame %dx%d", frame.Format, frame.Width, frame.Height)
}
