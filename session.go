package extvideo

import "context"

// Session is the peer session a VideoTrackSource adds its track to.
type Session interface {
	// Ready reports whether the session accepts tracks.
	Ready() bool

	// CreateTrack creates a native external video source that calls
	// requests for every frame it needs and adds it to the session as a
	// track named name.
	CreateTrack(ctx context.Context, name string, format PixelFormat, requests RequestCallback) (SessionTrack, error)

	// RemoveTrack detaches track from the session and shuts its handle down.
	RemoveTrack(ctx context.Context, track SessionTrack) error
}

// SessionTrack is a track added to a Session.
type SessionTrack interface {
	Name() string
	Handle() *NativeHandle
	Bridge() NativeBridge
	SetEnabled(enabled bool)
	Enabled() bool
}

// SessionEvents is implemented by sessions that announce their lifecycle.
// The returned functions cancel the subscription.
type SessionEvents interface {
	SubscribeReady(fn func(ctx context.Context)) (unsubscribe func())
	SubscribeShutdown(fn func(ctx context.Context)) (unsubscribe func())
}
