package extvideo

import "context"

// NativeSourceConfig describes the capture a native source is created for.
type NativeSourceConfig struct {
	Format PixelFormat // Layout requests are issued for
	Width  int         // Requested width (0 = producer decides)
	Height int         // Requested height (0 = producer decides)
	FPS    int         // Request rate, if the native side paces requests itself
}

// NativeBridge is the boundary-crossing call surface of the native media
// runtime. Every completion returns a ResultCode; 0 means success.
type NativeBridge interface {
	// CreateSource creates a native external video source that invokes
	// requests, on a thread it controls, whenever it needs a frame. The
	// returned token carries one native reference owned by the caller.
	CreateSource(ctx context.Context, cfg NativeSourceConfig, requests RequestCallback) (uintptr, error)

	AddRef(token uintptr)
	RemoveRef(token uintptr)

	// Shutdown irreversibly stops frame production of the source.
	Shutdown(token uintptr)

	CompleteI420A(token uintptr, requestID uint32, frame *I420AFrame) ResultCode
	CompleteARGB32(token uintptr, requestID uint32, frame *ARGB32Frame) ResultCode
}

// NewBridgedHandle wraps a token returned by bridge.CreateSource. The final
// release shuts the native source down and drops the creation reference.
func NewBridgedHandle(bridge NativeBridge, token uintptr) *NativeHandle {
	return NewNativeHandle(token, func(token uintptr) {
		bridge.Shutdown(token)
		bridge.RemoveRef(token)
	})
}
