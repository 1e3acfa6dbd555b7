package extvideo

import (
	"context"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
)

// frameDirection tells whether a frame was produced locally or received.
type frameDirection string

const (
	frameDirectionLocal  frameDirection = "local"
	frameDirectionRemote frameDirection = "remote"
)

func traceTrackAdded(ctx context.Context, name string, format PixelFormat) {
	ctx = belt.WithField(ctx, "event", "track_added")
	ctx = belt.WithField(ctx, "format", format.String())
	logger.Debugf(ctx, "track %q added", name)
}

func traceTrackRemoved(ctx context.Context, name string) {
	ctx = belt.WithField(ctx, "event", "track_removed")
	logger.Debugf(ctx, "track %q removed", name)
}

func traceBufferingChanged(ctx context.Context, previous, current, limit int) {
	ctx = belt.WithField(ctx, "event", "buffering_changed")
	logger.Tracef(ctx, "frame queue %d -> %d (limit %d)", previous, current, limit)
}
