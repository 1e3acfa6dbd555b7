package extvideo

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the track source and its boundary calls.
var (
	ErrInvalidName            = errors.New("invalid track name")
	ErrUnsupportedPixelFormat = errors.New("unsupported pixel format")
	ErrSessionNotReady        = errors.New("session not ready")
	ErrHandleReleased         = errors.New("native handle released")
	ErrProtocolViolation      = errors.New("frame request protocol violation")
	ErrNativeCallFailure      = errors.New("native call failed")
	ErrInvalidFrame           = errors.New("invalid video frame")
)

// Named kinds for native result codes that have no closer lifecycle error.
var (
	ErrNativeUnknown          = errors.New("unknown native error")
	ErrNativeInvalidParameter = errors.New("invalid parameter")
	ErrNativeInvalidOperation = errors.New("invalid operation")
	ErrNativeWrongThread      = errors.New("call made on the wrong thread")
	ErrNativeNotFound         = errors.New("object not found")
	ErrNativeOutOfRange       = errors.New("value out of range")
	ErrNativeBufferTooSmall   = errors.New("buffer too small")
)

// ResultCode is the numeric status returned by every boundary call.
type ResultCode uint32

const (
	ResultSuccess             ResultCode = 0
	ResultUnknown             ResultCode = 0x80000000
	ResultInvalidParameter    ResultCode = 0x80000001
	ResultInvalidOperation    ResultCode = 0x80000002
	ResultWrongThread         ResultCode = 0x80000003
	ResultNotFound            ResultCode = 0x80000004
	ResultInvalidNativeHandle ResultCode = 0x80000005
	ResultNotInitialized      ResultCode = 0x80000006
	ResultUnsupported         ResultCode = 0x80000007
	ResultOutOfRange          ResultCode = 0x80000008
	ResultBufferTooSmall      ResultCode = 0x80000009
)

type resultMeta struct {
	name string
	kind error
}

// Fixed lookup from result code to error kind. Codes not listed map to
// ErrNativeUnknown.
var resultTable = map[ResultCode]resultMeta{
	ResultSuccess:             {"success", nil},
	ResultUnknown:             {"unknown", ErrNativeUnknown},
	ResultInvalidParameter:    {"invalid_parameter", ErrNativeInvalidParameter},
	ResultInvalidOperation:    {"invalid_operation", ErrNativeInvalidOperation},
	ResultWrongThread:         {"wrong_thread", ErrNativeWrongThread},
	ResultNotFound:            {"not_found", ErrNativeNotFound},
	ResultInvalidNativeHandle: {"invalid_native_handle", ErrHandleReleased},
	ResultNotInitialized:      {"not_initialized", ErrSessionNotReady},
	ResultUnsupported:         {"unsupported", ErrUnsupportedPixelFormat},
	ResultOutOfRange:          {"out_of_range", ErrNativeOutOfRange},
	ResultBufferTooSmall:      {"buffer_too_small", ErrNativeBufferTooSmall},
}

func (c ResultCode) String() string {
	if m, ok := resultTable[c]; ok {
		return m.name
	}
	return fmt.Sprintf("0x%08X", uint32(c))
}

// Kind returns the named error kind for the code, or nil for success.
func (c ResultCode) Kind() error {
	if m, ok := resultTable[c]; ok {
		return m.kind
	}
	return ErrNativeUnknown
}

// Err returns nil for ResultSuccess and a *NativeCallError otherwise.
func (c ResultCode) Err() error {
	if c == ResultSuccess {
		return nil
	}
	return &NativeCallError{Code: c}
}

// NativeCallError wraps a non-zero result code from a boundary call.
// It matches ErrNativeCallFailure and the code's named kind via errors.Is.
type NativeCallError struct {
	Code ResultCode
	Op   string
}

func (e *NativeCallError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: native call failed with code %s: %v", e.Op, e.Code, e.Code.Kind())
	}
	return fmt.Sprintf("native call failed with code %s: %v", e.Code, e.Code.Kind())
}

func (e *NativeCallError) Is(target error) bool {
	return target == ErrNativeCallFailure
}

func (e *NativeCallError) Unwrap() error {
	return e.Code.Kind()
}

// checkResult converts a boundary result into an error tagged with op.
func checkResult(op string, code ResultCode) error {
	if code == ResultSuccess {
		return nil
	}
	return &NativeCallError{Code: code, Op: op}
}
