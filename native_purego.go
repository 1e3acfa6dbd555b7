//go:build darwin || linux

// Native bridge to libmedia_extvideo loaded with purego.
//
// Library locations checked (in order):
//   - MEDIA_EXTVIDEO_LIB_PATH environment variable
//   - MEDIA_SDK_LIB_PATH environment variable
//   - build/ and build/ffi directories (development)
//   - System library paths

package extvideo

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/xsync"
)

var (
	mediaExtVideoOnce    sync.Once
	mediaExtVideoHandle  uintptr
	mediaExtVideoInitErr error
)

// libmedia_extvideo function pointers
var (
	mediaExtVideoSourceCreate         func(format, width, height, fps int32, callback, userData, outHandle uintptr) uint32
	mediaExtVideoSourceAddRef         func(handle uintptr)
	mediaExtVideoSourceRemoveRef      func(handle uintptr)
	mediaExtVideoSourceShutdown       func(handle uintptr)
	mediaExtVideoSourceCompleteI420A  func(handle uintptr, requestID uint32, frame uintptr) uint32
	mediaExtVideoSourceCompleteARGB32 func(handle uintptr, requestID uint32, frame uintptr) uint32
	mediaExtVideoGetError             func() unsafe.Pointer
)

// Pixel format ids from media_extvideo.h
const (
	mediaExtVideoFormatI420A  = 0
	mediaExtVideoFormatARGB32 = 1
)

// nativeI420AFrame matches media_extvideo_i420a_frame_t in C.
// It must be heap-allocated for purego to work correctly on arm64.
type nativeI420AFrame struct {
	Width   uint32
	Height  uint32
	YData   uintptr
	UData   uintptr
	VData   uintptr
	AData   uintptr // 0 for opaque frames
	StrideY int32
	StrideU int32
	StrideV int32
	StrideA int32
}

// nativeARGB32Frame matches media_extvideo_argb32_frame_t in C.
type nativeARGB32Frame struct {
	Width    uint32
	Height   uint32
	Data     uintptr
	Stride   int32
	Reserved int32 // Padding for alignment
}

// Native request callbacks are routed by user data to the registered source.
var (
	nativeRequestCallbacks  xsync.Map[uintptr, RequestCallback]
	nativeRequestCounter    atomic.Uintptr
	nativeRequestTrampoline uintptr
	nativeTrampolineOnce    sync.Once
)

func initNativeRequestTrampoline() {
	nativeTrampolineOnce.Do(func() {
		nativeRequestTrampoline = purego.NewCallback(nativeFrameRequestHandler)
	})
}

// nativeFrameRequestHandler is called by C code on the capture thread.
func nativeFrameRequestHandler(userData uintptr, requestID uint32, width, height int32) {
	cb, ok := nativeRequestCallbacks.Load(userData)
	if !ok || cb == nil {
		return
	}
	cb(requestID, int(width), int(height))
}

// loadMediaExtVideo loads the libmedia_extvideo shared library once.
func loadMediaExtVideo() error {
	mediaExtVideoOnce.Do(func() {
		mediaExtVideoInitErr = loadMediaExtVideoLib()
	})
	return mediaExtVideoInitErr
}

func loadMediaExtVideoLib() error {
	var lastErr error
	for _, path := range nativeLibPaths("media_extvideo", "MEDIA_EXTVIDEO_LIB_PATH") {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		mediaExtVideoHandle = handle
		if err := loadMediaExtVideoSymbols(); err != nil {
			purego.Dlclose(handle)
			lastErr = err
			continue
		}
		return nil
	}

	if lastErr != nil {
		return fmt.Errorf("failed to load libmedia_extvideo: %w", lastErr)
	}
	return errors.New("libmedia_extvideo not found in any standard location")
}

func loadMediaExtVideoSymbols() (err error) {
	// RegisterLibFunc panics on missing symbols.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("libmedia_extvideo: %v", r)
		}
	}()
	purego.RegisterLibFunc(&mediaExtVideoSourceCreate, mediaExtVideoHandle, "media_extvideo_source_create")
	purego.RegisterLibFunc(&mediaExtVideoSourceAddRef, mediaExtVideoHandle, "media_extvideo_source_add_ref")
	purego.RegisterLibFunc(&mediaExtVideoSourceRemoveRef, mediaExtVideoHandle, "media_extvideo_source_remove_ref")
	purego.RegisterLibFunc(&mediaExtVideoSourceShutdown, mediaExtVideoHandle, "media_extvideo_source_shutdown")
	purego.RegisterLibFunc(&mediaExtVideoSourceCompleteI420A, mediaExtVideoHandle, "media_extvideo_source_complete_i420a")
	purego.RegisterLibFunc(&mediaExtVideoSourceCompleteARGB32, mediaExtVideoHandle, "media_extvideo_source_complete_argb32")
	purego.RegisterLibFunc(&mediaExtVideoGetError, mediaExtVideoHandle, "media_extvideo_get_error")
	return nil
}

func getMediaExtVideoError() string {
	if mediaExtVideoGetError == nil {
		return "unknown error"
	}
	if msg := goStringFromPtr(mediaExtVideoGetError()); msg != "" {
		return msg
	}
	return "unknown error"
}

// IsNativeBridgeAvailable reports whether libmedia_extvideo can be loaded.
func IsNativeBridgeAvailable() bool {
	return loadMediaExtVideo() == nil
}

// PuregoBridge implements NativeBridge on top of libmedia_extvideo.
type PuregoBridge struct {
	// user data per token, to unregister callbacks when the source dies
	userData xsync.Map[uintptr, uintptr]
}

var _ NativeBridge = (*PuregoBridge)(nil)

// LoadNativeBridge loads libmedia_extvideo and returns a bridge to it.
func LoadNativeBridge() (NativeBridge, error) {
	if err := loadMediaExtVideo(); err != nil {
		return nil, err
	}
	initNativeRequestTrampoline()
	return &PuregoBridge{}, nil
}

// CreateSource implements NativeBridge.
func (b *PuregoBridge) CreateSource(ctx context.Context, cfg NativeSourceConfig, requests RequestCallback) (uintptr, error) {
	var format int32
	switch cfg.Format {
	case PixelFormatI420A:
		format = mediaExtVideoFormatI420A
	case PixelFormatARGB32:
		format = mediaExtVideoFormatARGB32
	default:
		return 0, fmt.Errorf("create native source: %w: %s", ErrUnsupportedPixelFormat, cfg.Format)
	}

	userData := nativeRequestCounter.Add(1)
	nativeRequestCallbacks.Store(userData, requests)

	out := new(uintptr)
	code := ResultCode(mediaExtVideoSourceCreate(
		format,
		int32(cfg.Width), int32(cfg.Height), int32(cfg.FPS),
		nativeRequestTrampoline, userData,
		uintptr(unsafe.Pointer(out)),
	))
	if err := checkResult("create native source", code); err != nil {
		nativeRequestCallbacks.Delete(userData)
		return 0, fmt.Errorf("%w (%s)", err, getMediaExtVideoError())
	}
	token := *out
	b.userData.Store(token, userData)
	logger.Debugf(ctx, "created native source 0x%x (%s)", token, cfg.Format)
	return token, nil
}

// AddRef implements NativeBridge.
func (b *PuregoBridge) AddRef(token uintptr) {
	mediaExtVideoSourceAddRef(token)
}

// RemoveRef implements NativeBridge.
func (b *PuregoBridge) RemoveRef(token uintptr) {
	mediaExtVideoSourceRemoveRef(token)
}

// Shutdown implements NativeBridge. No request callback fires after it returns.
func (b *PuregoBridge) Shutdown(token uintptr) {
	mediaExtVideoSourceShutdown(token)
	if userData, ok := b.userData.LoadAndDelete(token); ok {
		nativeRequestCallbacks.Delete(userData)
	}
}

// CompleteI420A implements NativeBridge.
func (b *PuregoBridge) CompleteI420A(token uintptr, requestID uint32, frame *I420AFrame) ResultCode {
	params := &nativeI420AFrame{
		Width:   uint32(frame.Width),
		Height:  uint32(frame.Height),
		YData:   uintptr(unsafe.Pointer(unsafe.SliceData(frame.Y))),
		UData:   uintptr(unsafe.Pointer(unsafe.SliceData(frame.U))),
		VData:   uintptr(unsafe.Pointer(unsafe.SliceData(frame.V))),
		StrideY: int32(frame.StrideY),
		StrideU: int32(frame.StrideU),
		StrideV: int32(frame.StrideV),
	}
	if frame.A != nil {
		params.AData = uintptr(unsafe.Pointer(unsafe.SliceData(frame.A)))
		params.StrideA = int32(frame.StrideA)
	}
	code := ResultCode(mediaExtVideoSourceCompleteI420A(token, requestID, uintptr(unsafe.Pointer(params))))
	runtime.KeepAlive(frame.Y)
	runtime.KeepAlive(frame.U)
	runtime.KeepAlive(frame.V)
	runtime.KeepAlive(frame.A)
	runtime.KeepAlive(params)
	return code
}

// CompleteARGB32 implements NativeBridge.
func (b *PuregoBridge) CompleteARGB32(token uintptr, requestID uint32, frame *ARGB32Frame) ResultCode {
	params := &nativeARGB32Frame{
		Width:  uint32(frame.Width),
		Height: uint32(frame.Height),
		Data:   uintptr(unsafe.Pointer(unsafe.SliceData(frame.Data))),
		Stride: int32(frame.Stride),
	}
	code := ResultCode(mediaExtVideoSourceCompleteARGB32(token, requestID, uintptr(unsafe.Pointer(params))))
	runtime.KeepAlive(frame.Data)
	runtime.KeepAlive(params)
	return code
}
