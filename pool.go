package extvideo

import "sync"

// FramePool provides pooled VideoFrame allocation for the preview path.
// Frames taken from the pool keep their plane buffers, so cloning into them
// stops allocating once the frame size is stable.
type FramePool struct {
	pool sync.Pool
}

// NewFramePool creates an empty frame pool.
func NewFramePool() *FramePool {
	return &FramePool{
		pool: sync.Pool{
			New: func() interface{} {
				return &VideoFrame{}
			},
		},
	}
}

// Get gets a frame from the pool. Its contents are unspecified.
func (p *FramePool) Get() *VideoFrame {
	return p.pool.Get().(*VideoFrame)
}

// Put returns a frame to the pool.
func (p *FramePool) Put(frame *VideoFrame) {
	if frame == nil {
		return
	}
	p.pool.Put(frame)
}

// Clone deep-copies frame into a pooled frame.
func (p *FramePool) Clone(frame *VideoFrame) *VideoFrame {
	return frame.cloneInto(p.Get())
}
