//go:build !debug_trace

package extvideo

import "context"

func traceFrameReady(context.Context, frameDirection, *VideoFrame) {}
