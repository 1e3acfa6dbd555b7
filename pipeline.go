package extvideo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/observability"
)

// PumpState represents the state of a frame pump.
type PumpState int32

const (
	PumpStateIdle    PumpState = iota // Not started
	PumpStateRunning                  // Issuing requests
	PumpStateStopped                  // Stopped
)

func (s PumpState) String() string {
	switch s {
	case PumpStateIdle:
		return "idle"
	case PumpStateRunning:
		return "running"
	case PumpStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// FramePumpConfig configures a frame pump.
type FramePumpConfig struct {
	FPS    int // Request rate; 0 disables the ticker (manual RequestFrame only)
	Width  int // Width carried by every request
	Height int // Height carried by every request
}

// PumpStats provides pump statistics.
type PumpStats struct {
	Requested uint64
	LastID    uint32
}

// FramePump is the pipeline side of the pull protocol: it issues frame
// requests with monotonically increasing ids on its own goroutine, the way a
// native capture thread does.
type FramePump struct {
	config   FramePumpConfig
	requests RequestCallback

	nextID    atomic.Uint32
	requested atomic.Uint64
	state     atomic.Int32

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewFramePump creates a pump delivering requests to cb.
func NewFramePump(config FramePumpConfig, cb RequestCallback) *FramePump {
	p := &FramePump{
		config:   config,
		requests: cb,
	}
	p.state.Store(int32(PumpStateIdle))
	return p
}

// Start starts the request ticker. It is a no-op when FPS is 0.
func (p *FramePump) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.State() == PumpStateRunning {
		return fmt.Errorf("frame pump already running")
	}
	p.state.Store(int32(PumpStateRunning))
	if p.config.FPS <= 0 {
		return nil
	}

	ctx, p.cancel = context.WithCancel(ctx)
	interval := time.Second / time.Duration(p.config.FPS)
	p.wg.Add(1)
	observability.Go(ctx, func(ctx context.Context) {
		defer p.wg.Done()
		p.loop(ctx, interval)
	})
	return nil
}

// Stop halts the ticker and waits for the in-flight request to return.
func (p *FramePump) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.State() != PumpStateRunning {
		return nil
	}
	p.state.Store(int32(PumpStateStopped))
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

// State returns the current pump state.
func (p *FramePump) State() PumpState {
	return PumpState(p.state.Load())
}

// Stats returns pump statistics.
func (p *FramePump) Stats() PumpStats {
	return PumpStats{
		Requested: p.requested.Load(),
		LastID:    p.nextID.Load(),
	}
}

// RequestFrame issues one request synchronously and returns its id.
// Ids start at 1.
func (p *FramePump) RequestFrame() uint32 {
	id := p.nextID.Add(1)
	p.requested.Add(1)
	p.requests(id, p.config.Width, p.config.Height)
	return id
}

func (p *FramePump) loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		id := p.RequestFrame()
		logger.Tracef(ctx, "issued frame request %d", id)
	}
}
