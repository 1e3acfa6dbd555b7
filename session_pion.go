package extvideo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/pion/webrtc/v4"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/xsync"
)

// PeerSessionConfig configures a PeerSession.
type PeerSessionConfig struct {
	Bridge   NativeBridge              // Native runtime the track sources live in
	Width    int                       // Requested frame width (0 = producer decides)
	Height   int                       // Requested frame height (0 = producer decides)
	FPS      int                       // Request rate
	StreamID string                    // msid stream id of added tracks
	Codec    webrtc.RTPCodecCapability // Advertised codec (zero = DefaultVideoCodec)
}

// PeerSession is a Session over a pion PeerConnection. It becomes ready
// when MarkReady is called and stops being ready on Close.
type PeerSession struct {
	pc     *webrtc.PeerConnection
	config PeerSessionConfig

	ready  atomic.Bool
	closed atomic.Bool

	mu     sync.Mutex
	tracks map[string]*peerTrack

	nextSubID    atomic.Uint64
	readySubs    xsync.Map[uint64, func(context.Context)]
	shutdownSubs xsync.Map[uint64, func(context.Context)]
}

var (
	_ Session       = (*PeerSession)(nil)
	_ SessionEvents = (*PeerSession)(nil)
)

// NewPeerSession wraps pc. The session owns pc and closes it on Close.
func NewPeerSession(pc *webrtc.PeerConnection, config PeerSessionConfig) (*PeerSession, error) {
	if pc == nil {
		return nil, errors.New("nil peer connection")
	}
	if config.Bridge == nil {
		return nil, errors.New("nil native bridge")
	}
	if config.StreamID == "" {
		config.StreamID = "extvideo"
	}
	return &PeerSession{
		pc:     pc,
		config: config,
		tracks: map[string]*peerTrack{},
	}, nil
}

// PeerConnection returns the underlying peer connection.
func (s *PeerSession) PeerConnection() *webrtc.PeerConnection { return s.pc }

// Ready implements Session.
func (s *PeerSession) Ready() bool { return s.ready.Load() }

// MarkReady makes the session accept tracks and notifies ready subscribers.
func (s *PeerSession) MarkReady(ctx context.Context) {
	if s.closed.Load() || !s.ready.CompareAndSwap(false, true) {
		return
	}
	logger.Debugf(ctx, "peer session ready")
	s.readySubs.Range(func(_ uint64, fn func(context.Context)) bool {
		fn(ctx)
		return true
	})
}

// SubscribeReady implements SessionEvents.
func (s *PeerSession) SubscribeReady(fn func(ctx context.Context)) func() {
	id := s.nextSubID.Add(1)
	s.readySubs.Store(id, fn)
	return func() { s.readySubs.Delete(id) }
}

// SubscribeShutdown implements SessionEvents.
func (s *PeerSession) SubscribeShutdown(fn func(ctx context.Context)) func() {
	id := s.nextSubID.Add(1)
	s.shutdownSubs.Store(id, fn)
	return func() { s.shutdownSubs.Delete(id) }
}

// Tracks returns the names of the tracks currently added.
func (s *PeerSession) Tracks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tracks))
	for name := range s.tracks {
		names = append(names, name)
	}
	return names
}

// CreateTrack implements Session.
func (s *PeerSession) CreateTrack(
	ctx context.Context,
	name string,
	format PixelFormat,
	requests RequestCallback,
) (SessionTrack, error) {
	if !s.Ready() {
		return nil, ErrSessionNotReady
	}
	if err := ValidateTrackName(name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tracks[name]; ok {
		return nil, fmt.Errorf("track %q already exists", name)
	}

	token, err := s.config.Bridge.CreateSource(ctx, NativeSourceConfig{
		Format: format,
		Width:  s.config.Width,
		Height: s.config.Height,
		FPS:    s.config.FPS,
	}, requests)
	if err != nil {
		return nil, fmt.Errorf("create native source: %w", err)
	}
	handle := NewBridgedHandle(s.config.Bridge, token)

	local := NewLocalVideoTrack(s.config.Codec, name, s.config.StreamID)
	sender, err := s.pc.AddTrack(local)
	if err != nil {
		handle.Shutdown()
		return nil, fmt.Errorf("add track %q: %w", name, err)
	}

	t := &peerTrack{
		name:   name,
		handle: handle,
		bridge: s.config.Bridge,
		local:  local,
		sender: sender,
	}
	s.tracks[name] = t

	// Read incoming RTCP packets so interceptors run.
	observability.Go(belt.WithField(ctx, "track", name), func(ctx context.Context) {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	})
	return t, nil
}

// RemoveTrack implements Session.
func (s *PeerSession) RemoveTrack(ctx context.Context, track SessionTrack) error {
	t, ok := track.(*peerTrack)
	if !ok {
		return fmt.Errorf("track %q was not created by this session", track.Name())
	}

	s.mu.Lock()
	if s.tracks[t.name] != t {
		s.mu.Unlock()
		return nil
	}
	delete(s.tracks, t.name)
	s.mu.Unlock()

	t.handle.Shutdown()
	_ = t.local.Close()
	if s.pc.ConnectionState() == webrtc.PeerConnectionStateClosed {
		return nil
	}
	if err := s.pc.RemoveTrack(t.sender); err != nil {
		return fmt.Errorf("remove track %q: %w", t.name, err)
	}
	logger.Debugf(ctx, "removed track %q", t.name)
	return nil
}

// Close notifies shutdown subscribers, removes the remaining tracks and
// closes the peer connection.
func (s *PeerSession) Close(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.ready.Store(false)
	s.shutdownSubs.Range(func(_ uint64, fn func(context.Context)) bool {
		fn(ctx)
		return true
	})

	s.mu.Lock()
	remaining := make([]*peerTrack, 0, len(s.tracks))
	for _, t := range s.tracks {
		remaining = append(remaining, t)
	}
	s.mu.Unlock()
	for _, t := range remaining {
		if err := s.RemoveTrack(ctx, t); err != nil {
			logger.Warnf(ctx, "unable to remove track %q on close: %v", t.name, err)
		}
	}
	return s.pc.Close()
}

type peerTrack struct {
	name   string
	handle *NativeHandle
	bridge NativeBridge
	local  *LocalVideoTrack
	sender *webrtc.RTPSender
}

var _ SessionTrack = (*peerTrack)(nil)

func (t *peerTrack) Name() string          { return t.name }
func (t *peerTrack) Handle() *NativeHandle { return t.handle }
func (t *peerTrack) Bridge() NativeBridge  { return t.bridge }
func (t *peerTrack) SetEnabled(e bool)     { t.local.SetEnabled(e) }
func (t *peerTrack) Enabled() bool         { return t.local.Enabled() }
