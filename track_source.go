package extvideo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/xsync"
)

// VideoTrackSourceConfig configures a VideoTrackSource.
type VideoTrackSourceConfig struct {
	Name          string              // Track name; empty generates one per Start
	Format        PixelFormat         // I420A or ARGB32
	AutoStart     bool                // Start when the session becomes ready
	Enabled       bool                // Initial enabled flag of the session track
	QueueCapacity int                 // Preview queue capacity (0 = DefaultQueueCapacity)
	Handler       FrameRequestHandler // Produces frames on request
}

// Listener observes stream start and stop of a VideoTrackSource.
// Notifications are delivered on their own goroutine.
type Listener interface {
	OnStreamStarted(name string)
	OnStreamStopped(name string)
}

// VideoTrackSource owns a video track fed by a pull-based external source.
// It attaches the track to a Session on Start and detaches it on Stop.
type VideoTrackSource struct {
	session Session
	config  VideoTrackSourceConfig
	queue   *FrameQueue

	locker   xsync.Mutex
	state    atomic.Int32
	enabled  atomic.Bool
	name     string // active name while Live
	track    SessionTrack
	source   *ExternalVideoSource
	lastSeen atomic.Pointer[ExternalVideoSource]

	listenersMu sync.RWMutex
	listeners   []Listener

	unsubscribe []func()
	closed      atomic.Bool
}

// NewVideoTrackSource creates an idle track source. If session implements
// SessionEvents, the source follows its ready and shutdown notifications.
func NewVideoTrackSource(ctx context.Context, session Session, config VideoTrackSourceConfig) (*VideoTrackSource, error) {
	if session == nil {
		return nil, errors.New("nil session")
	}
	if config.Name != "" {
		if err := ValidateTrackName(config.Name); err != nil {
			return nil, err
		}
	}
	t := &VideoTrackSource{
		session: session,
		config:  config,
		queue:   NewFrameQueue(config.QueueCapacity),
	}
	t.state.Store(int32(TrackStateIdle))
	t.enabled.Store(config.Enabled)
	t.queue.SetOnBufferingChanged(func(previous, current, limit int) {
		traceBufferingChanged(ctx, previous, current, limit)
	})

	if events, ok := session.(SessionEvents); ok {
		t.unsubscribe = append(t.unsubscribe,
			events.SubscribeReady(t.HandleSessionReady),
			events.SubscribeShutdown(t.HandleSessionShutdown),
		)
	}
	return t, nil
}

// Name returns the active track name while live, otherwise the configured one.
func (t *VideoTrackSource) Name() string {
	return xsync.DoR1(xsync.WithNoLogging(context.Background(), true), &t.locker, func() string {
		if t.name != "" {
			return t.name
		}
		return t.config.Name
	})
}

// Format returns the configured pixel format.
func (t *VideoTrackSource) Format() PixelFormat { return t.config.Format }

// State returns the current lifecycle state.
func (t *VideoTrackSource) State() TrackState { return TrackState(t.state.Load()) }

// Enabled returns the enabled flag.
func (t *VideoTrackSource) Enabled() bool { return t.enabled.Load() }

// FrameQueue returns the preview queue completed frames are copied into.
func (t *VideoTrackSource) FrameQueue() *FrameQueue { return t.queue }

// Source returns the external source of the current or most recent run.
func (t *VideoTrackSource) Source() *ExternalVideoSource { return t.lastSeen.Load() }

// AddListener registers l for stream notifications.
func (t *VideoTrackSource) AddListener(l Listener) {
	t.listenersMu.Lock()
	defer t.listenersMu.Unlock()
	t.listeners = append(t.listeners, l)
}

// Start adds the track to the session. It is a no-op unless the source is
// idle. On failure the source stays idle.
func (t *VideoTrackSource) Start(ctx context.Context) error {
	return xsync.DoA1R1(ctx, &t.locker, t.startLocked, ctx)
}

func (t *VideoTrackSource) startLocked(ctx context.Context) (_err error) {
	if t.closed.Load() {
		return fmt.Errorf("start track: source is closed")
	}
	if t.State() != TrackStateIdle {
		return nil
	}
	t.setState(ctx, TrackStateStarting)
	defer func() {
		if _err != nil {
			t.setState(ctx, TrackStateIdle)
		}
	}()

	if !t.session.Ready() {
		return fmt.Errorf("start track: %w", ErrSessionNotReady)
	}
	name, err := normalizeTrackName(t.config.Name)
	if err != nil {
		return fmt.Errorf("start track: %w", err)
	}
	if !t.config.Format.Supported() {
		return fmt.Errorf("start track %q: %w: %s", name, ErrUnsupportedPixelFormat, t.config.Format)
	}
	ctx = belt.WithField(ctx, "track", name)

	source := newExternalVideoSource(ctx, t.config.Format, t.config.Handler, t.onFrame)
	track, err := t.session.CreateTrack(ctx, name, t.config.Format, source.Dispatch)
	if err != nil {
		return fmt.Errorf("start track %q: %w", name, err)
	}
	if err := source.attach(track.Bridge(), track.Handle()); err != nil {
		if rmErr := t.session.RemoveTrack(ctx, track); rmErr != nil {
			logger.Errorf(ctx, "unable to remove track after failed attach: %v", rmErr)
		}
		return fmt.Errorf("start track %q: %w", name, err)
	}
	track.SetEnabled(t.enabled.Load())

	t.name = name
	t.track = track
	t.source = source
	t.lastSeen.Store(source)
	t.setState(ctx, TrackStateLive)

	traceTrackAdded(ctx, name, t.config.Format)
	t.notify(ctx, func(l Listener) { l.OnStreamStarted(name) })
	return nil
}

// Stop removes the track from the session, abandons pending requests,
// releases the native handle and clears the preview queue. It is idempotent.
func (t *VideoTrackSource) Stop(ctx context.Context) error {
	return xsync.DoA1R1(ctx, &t.locker, t.stopLocked, ctx)
}

func (t *VideoTrackSource) stopLocked(ctx context.Context) error {
	if t.State() != TrackStateLive {
		return nil
	}
	name, track, source := t.name, t.track, t.source
	ctx = belt.WithField(ctx, "track", name)
	t.setState(ctx, TrackStateStopping)

	source.stop(ctx)
	var result error
	if err := t.session.RemoveTrack(ctx, track); err != nil {
		result = fmt.Errorf("stop track %q: %w", name, err)
	}
	t.queue.Clear()

	t.name = ""
	t.track = nil
	t.source = nil
	t.setState(ctx, TrackStateIdle)

	traceTrackRemoved(ctx, name)
	t.notify(ctx, func(l Listener) { l.OnStreamStopped(name) })
	return result
}

// HandleSessionReady starts the track if AutoStart is set.
func (t *VideoTrackSource) HandleSessionReady(ctx context.Context) {
	if !t.config.AutoStart {
		return
	}
	if err := t.Start(ctx); err != nil {
		logger.Errorf(ctx, "unable to auto-start track: %v", err)
	}
}

// HandleSessionShutdown stops the track.
func (t *VideoTrackSource) HandleSessionShutdown(ctx context.Context) {
	if err := t.Stop(ctx); err != nil {
		logger.Errorf(ctx, "unable to stop track on session shutdown: %v", err)
	}
}

// SetEnabled sets the enabled flag, on the live track too. The native handle
// is left alone.
func (t *VideoTrackSource) SetEnabled(ctx context.Context, enabled bool) {
	xsync.DoR1(ctx, &t.locker, func() struct{} {
		t.enabled.Store(enabled)
		if t.track != nil {
			t.track.SetEnabled(enabled)
		}
		return struct{}{}
	})
}

// Close stops the source and drops its session subscriptions.
func (t *VideoTrackSource) Close(ctx context.Context) error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	for _, unsubscribe := range t.unsubscribe {
		unsubscribe()
	}
	return t.Stop(ctx)
}

// PushRemoteFrame queues a copy of a frame received from the remote peer
// for the preview renderer. Frames are only accepted while the track is
// live, so nothing stale survives Stop.
func (t *VideoTrackSource) PushRemoteFrame(ctx context.Context, frame *VideoFrame) bool {
	if frame == nil || t.State() != TrackStateLive {
		return false
	}
	traceFrameReady(ctx, frameDirectionRemote, frame)
	t.queue.PushCopy(frame)
	return true
}

func (t *VideoTrackSource) onFrame(frame *VideoFrame) {
	t.queue.PushCopy(frame)
}

func (t *VideoTrackSource) setState(ctx context.Context, s TrackState) {
	old := TrackState(t.state.Swap(int32(s)))
	logger.Debugf(ctx, "track state %s -> %s", old, s)
}

func (t *VideoTrackSource) notify(ctx context.Context, fn func(Listener)) {
	t.listenersMu.RLock()
	listeners := make([]Listener, len(t.listeners))
	copy(listeners, t.listeners)
	t.listenersMu.RUnlock()

	if len(listeners) == 0 {
		return
	}
	observability.Go(ctx, func(ctx context.Context) {
		for _, l := range listeners {
			fn(l)
		}
	})
}
