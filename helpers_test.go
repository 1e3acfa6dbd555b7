package extvideo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	l := logrus.Default().WithLevel(logger.LevelDebug)
	return logger.CtxWithLogger(context.Background(), l)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// mockSession is a Session backed by a LoopbackBridge with manual requests.
type mockSession struct {
	bridge *LoopbackBridge

	mu        sync.Mutex
	ready     bool
	createErr error
	removeErr error
	created   []*mockTrack
	removed   []string
}

func newMockSession() *mockSession {
	return &mockSession{
		bridge: NewLoopbackBridge(),
		ready:  true,
	}
}

func (s *mockSession) setReady(ready bool) {
	s.mu.Lock()
	s.ready = ready
	s.mu.Unlock()
}

func (s *mockSession) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *mockSession) CreateTrack(ctx context.Context, name string, format PixelFormat, requests RequestCallback) (SessionTrack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	token, err := s.bridge.CreateSource(ctx, NativeSourceConfig{Format: format, Width: 64, Height: 48}, requests)
	if err != nil {
		return nil, err
	}
	tr := &mockTrack{
		name:   name,
		handle: NewBridgedHandle(s.bridge, token),
		bridge: s.bridge,
	}
	s.created = append(s.created, tr)
	return tr, nil
}

func (s *mockSession) RemoveTrack(ctx context.Context, track SessionTrack) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	track.Handle().Shutdown()
	s.removed = append(s.removed, track.Name())
	return s.removeErr
}

func (s *mockSession) lastTrack() *mockTrack {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.created) == 0 {
		return nil
	}
	return s.created[len(s.created)-1]
}

func (s *mockSession) removedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.removed)
}

type mockTrack struct {
	name    string
	handle  *NativeHandle
	bridge  *LoopbackBridge
	mu      sync.Mutex
	enabled bool
}

func (t *mockTrack) Name() string          { return t.name }
func (t *mockTrack) Handle() *NativeHandle { return t.handle }
func (t *mockTrack) Bridge() NativeBridge  { return t.bridge }

func (t *mockTrack) SetEnabled(e bool) {
	t.mu.Lock()
	t.enabled = e
	t.mu.Unlock()
}

func (t *mockTrack) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// request makes the native side issue one frame request.
func (t *mockTrack) request() uint32 {
	return t.bridge.RequestFrame(t.handle.Token())
}

var errMock = errors.New("mock failure")
