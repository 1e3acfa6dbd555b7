package extvideo

import "sync"

// DefaultQueueCapacity is the frame queue capacity used when none is given.
const DefaultQueueCapacity = 3

// QueueStats provides frame queue counters.
type QueueStats struct {
	Pushed  uint64 // Frames accepted by Push
	Popped  uint64 // Frames returned by TryPop
	Dropped uint64 // Frames evicted on overflow or discarded by Clear
}

// FrameQueue is a bounded FIFO of video frames between a producer and a
// renderer that drains at its own pace. Push never blocks: when the queue is
// full the oldest frame is dropped.
type FrameQueue struct {
	mu     sync.Mutex
	frames []*VideoFrame // ring buffer, len == capacity
	head   int
	size   int
	stats  QueueStats

	pool               *FramePool
	onBufferingChanged func(previous, current, limit int)
}

// NewFrameQueue creates a queue holding at most capacity frames. A capacity
// <= 0 uses DefaultQueueCapacity.
func NewFrameQueue(capacity int) *FrameQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &FrameQueue{
		frames: make([]*VideoFrame, capacity),
		pool:   NewFramePool(),
	}
}

// SetOnBufferingChanged sets a callback fired, outside the queue lock,
// whenever the number of buffered frames changes.
func (q *FrameQueue) SetOnBufferingChanged(fn func(previous, current, limit int)) {
	q.mu.Lock()
	q.onBufferingChanged = fn
	q.mu.Unlock()
}

// Push enqueues frame, evicting the oldest frame if the queue is full.
// The queue takes ownership of frame.
func (q *FrameQueue) Push(frame *VideoFrame) {
	if frame == nil {
		return
	}
	q.mu.Lock()
	prev := q.size
	limit := len(q.frames)
	if q.size == limit {
		evicted := q.frames[q.head]
		q.frames[q.head] = nil
		q.head = (q.head + 1) % limit
		q.size--
		q.stats.Dropped++
		q.pool.Put(evicted)
	}
	q.frames[(q.head+q.size)%limit] = frame
	q.size++
	q.stats.Pushed++
	cur := q.size
	cb := q.onBufferingChanged
	q.mu.Unlock()

	if cb != nil && prev != cur {
		cb(prev, cur, limit)
	}
}

// PushCopy enqueues a deep copy of frame, so the caller keeps ownership of
// the original and its planes.
func (q *FrameQueue) PushCopy(frame *VideoFrame) {
	if frame == nil {
		return
	}
	q.Push(q.pool.Clone(frame))
}

// TryPop dequeues the oldest frame without blocking.
func (q *FrameQueue) TryPop() (*VideoFrame, bool) {
	q.mu.Lock()
	if q.size == 0 {
		q.mu.Unlock()
		return nil, false
	}
	prev := q.size
	limit := len(q.frames)
	frame := q.frames[q.head]
	q.frames[q.head] = nil
	q.head = (q.head + 1) % limit
	q.size--
	q.stats.Popped++
	cur := q.size
	cb := q.onBufferingChanged
	q.mu.Unlock()

	if cb != nil {
		cb(prev, cur, limit)
	}
	return frame, true
}

// Recycle hands a popped frame back for reuse by later PushCopy calls.
func (q *FrameQueue) Recycle(frame *VideoFrame) {
	q.pool.Put(frame)
}

// Clear discards every buffered frame.
func (q *FrameQueue) Clear() {
	q.mu.Lock()
	prev := q.size
	limit := len(q.frames)
	for q.size > 0 {
		q.pool.Put(q.frames[q.head])
		q.frames[q.head] = nil
		q.head = (q.head + 1) % limit
		q.size--
		q.stats.Dropped++
	}
	q.head = 0
	cb := q.onBufferingChanged
	q.mu.Unlock()

	if cb != nil && prev != 0 {
		cb(prev, 0, limit)
	}
}

// Len returns the number of buffered frames.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the queue capacity.
func (q *FrameQueue) Cap() int {
	return len(q.frames)
}

// Stats returns a snapshot of the queue counters.
func (q *FrameQueue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}
