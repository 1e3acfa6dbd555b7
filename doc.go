// Package extvideo bridges application-produced video frames into a native
// media pipeline (libmedia_extvideo) that pulls them on its own schedule.
//
// Key pieces include:
//   - NativeHandle, a ref-counted wrapper around native source tokens
//   - ExternalVideoSource and FrameRequest, the request/completion protocol
//   - I420AFrame and ARGB32Frame, the two layouts a completion can carry
//   - FrameQueue, a bounded drop-oldest queue for local preview
//   - VideoTrackSource, the track lifecycle (idle, starting, live, stopping)
//   - PeerSession, a Session over a pion PeerConnection
//
// # Architecture
//
//	Native pipeline -> RequestCallback -> ExternalVideoSource.Dispatch -> FrameRequestHandler
//	FrameRequestHandler -> FrameRequest.Complete* -> NativeBridge.Complete* (ResultCode)
//	                                              -> FrameQueue (preview copy)
//
// # Native Libraries
//
// LoadNativeBridge loads libmedia_extvideo with purego (no cgo required).
// Set MEDIA_EXTVIDEO_LIB_PATH to the library file, or MEDIA_SDK_LIB_PATH to
// the directory containing it. LoopbackBridge is an in-process stand-in used
// by tests and the examples.
//
// # Build Tags
//
//   - debug: releasing a handle reference twice panics instead of logging
//   - debug_trace: log every completed frame at trace level
package extvideo
