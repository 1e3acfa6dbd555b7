package extvideo

import (
	"sync"
	"sync/atomic"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

// TrackState represents the lifecycle state of a VideoTrackSource.
type TrackState int32

const (
	TrackStateIdle     TrackState = iota // No session track
	TrackStateStarting                   // Creating the session track
	TrackStateLive                       // Track added, requests are served
	TrackStateStopping                   // Tearing the track down
)

func (s TrackState) String() string {
	switch s {
	case TrackStateIdle:
		return "idle"
	case TrackStateStarting:
		return "starting"
	case TrackStateLive:
		return "live"
	case TrackStateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// DefaultVideoCodec is the capability LocalVideoTrack advertises when none is
// configured.
var DefaultVideoCodec = webrtc.RTPCodecCapability{
	MimeType:  webrtc.MimeTypeVP8,
	ClockRate: 90000,
}

// LocalVideoTrack implements pion's webrtc.TrackLocal for a track whose
// frames come from an external source. Packets written while the track is
// disabled are dropped.
type LocalVideoTrack struct {
	id       string
	streamID string
	codec    webrtc.RTPCodecCapability

	enabled atomic.Bool
	closed  atomic.Bool

	bindMu   sync.RWMutex
	bindings []webrtc.TrackLocalContext
}

// NewLocalVideoTrack creates an enabled track.
func NewLocalVideoTrack(codec webrtc.RTPCodecCapability, id, streamID string) *LocalVideoTrack {
	if codec.MimeType == "" {
		codec = DefaultVideoCodec
	}
	t := &LocalVideoTrack{
		id:       id,
		streamID: streamID,
		codec:    codec,
	}
	t.enabled.Store(true)
	return t
}

func (t *LocalVideoTrack) ID() string                       { return t.id }
func (t *LocalVideoTrack) RID() string                      { return "" }
func (t *LocalVideoTrack) StreamID() string                 { return t.streamID }
func (t *LocalVideoTrack) Kind() webrtc.RTPCodecType        { return webrtc.RTPCodecTypeVideo }
func (t *LocalVideoTrack) Codec() webrtc.RTPCodecCapability { return t.codec }
func (t *LocalVideoTrack) Enabled() bool                    { return t.enabled.Load() }
func (t *LocalVideoTrack) SetEnabled(e bool)                { t.enabled.Store(e) }

// Bind implements webrtc.TrackLocal.
func (t *LocalVideoTrack) Bind(ctx webrtc.TrackLocalContext) (webrtc.RTPCodecParameters, error) {
	t.bindMu.Lock()
	defer t.bindMu.Unlock()

	t.bindings = append(t.bindings, ctx)

	// Find matching codec from negotiated parameters
	for _, p := range ctx.CodecParameters() {
		if p.MimeType == t.codec.MimeType {
			return p, nil
		}
	}

	return webrtc.RTPCodecParameters{
		RTPCodecCapability: t.codec,
	}, nil
}

// Unbind implements webrtc.TrackLocal.
func (t *LocalVideoTrack) Unbind(ctx webrtc.TrackLocalContext) error {
	t.bindMu.Lock()
	defer t.bindMu.Unlock()

	for i, b := range t.bindings {
		if b.ID() == ctx.ID() {
			t.bindings = append(t.bindings[:i], t.bindings[i+1:]...)
			break
		}
	}
	return nil
}

// Bindings returns the number of active bindings.
func (t *LocalVideoTrack) Bindings() int {
	t.bindMu.RLock()
	defer t.bindMu.RUnlock()
	return len(t.bindings)
}

// WriteRTP writes an RTP packet to all bound contexts.
func (t *LocalVideoTrack) WriteRTP(p *rtp.Packet) error {
	if !t.enabled.Load() || t.closed.Load() {
		return nil
	}
	t.bindMu.RLock()
	defer t.bindMu.RUnlock()

	for _, b := range t.bindings {
		if _, err := b.WriteStream().WriteRTP(&p.Header, p.Payload); err != nil {
			return err
		}
	}
	return nil
}

// Write writes raw RTP bytes to all bound contexts.
func (t *LocalVideoTrack) Write(b []byte) (int, error) {
	var p rtp.Packet
	if err := p.Unmarshal(b); err != nil {
		return 0, err
	}
	return len(b), t.WriteRTP(&p)
}

// Close implements io.Closer. Later writes are dropped.
func (t *LocalVideoTrack) Close() error {
	t.closed.Store(true)
	return nil
}

// Verify LocalVideoTrack implements webrtc.TrackLocal
var _ webrtc.TrackLocal = (*LocalVideoTrack)(nil)
