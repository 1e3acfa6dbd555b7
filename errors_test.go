package extvideo

import (
	"errors"
	"strings"
	"testing"
)

func TestResultCode_Err(t *testing.T) {
	tests := []struct {
		code ResultCode
		kind error
	}{
		{ResultUnknown, ErrNativeUnknown},
		{ResultInvalidParameter, ErrNativeInvalidParameter},
		{ResultInvalidOperation, ErrNativeInvalidOperation},
		{ResultWrongThread, ErrNativeWrongThread},
		{ResultNotFound, ErrNativeNotFound},
		{ResultInvalidNativeHandle, ErrHandleReleased},
		{ResultNotInitialized, ErrSessionNotReady},
		{ResultUnsupported, ErrUnsupportedPixelFormat},
		{ResultOutOfRange, ErrNativeOutOfRange},
		{ResultBufferTooSmall, ErrNativeBufferTooSmall},
		{ResultCode(0x8000ABCD), ErrNativeUnknown},
		{ResultCode(1), ErrNativeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			err := tt.code.Err()
			if err == nil {
				t.Fatal("Err() = nil for a failure code")
			}
			if !errors.Is(err, ErrNativeCallFailure) {
				t.Errorf("errors.Is(%v, ErrNativeCallFailure) = false", err)
			}
			if !errors.Is(err, tt.kind) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.kind)
			}
			var nce *NativeCallError
			if !errors.As(err, &nce) || nce.Code != tt.code {
				t.Errorf("errors.As did not recover code %s", tt.code)
			}
		})
	}
}

func TestResultCode_Success(t *testing.T) {
	if err := ResultSuccess.Err(); err != nil {
		t.Errorf("ResultSuccess.Err() = %v, want nil", err)
	}
	if err := checkResult("op", ResultSuccess); err != nil {
		t.Errorf("checkResult(success) = %v, want nil", err)
	}
	if k := ResultSuccess.Kind(); k != nil {
		t.Errorf("ResultSuccess.Kind() = %v, want nil", k)
	}
}

func TestResultCode_String(t *testing.T) {
	if got := ResultInvalidNativeHandle.String(); got != "invalid_native_handle" {
		t.Errorf("String() = %q", got)
	}
	if got := ResultCode(0x12345678).String(); got != "0x12345678" {
		t.Errorf("String() of unlisted code = %q", got)
	}
}

func TestCheckResult_Op(t *testing.T) {
	err := checkResult("complete I420A request 7", ResultOutOfRange)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "complete I420A request 7") {
		t.Errorf("error %q does not name the operation", err)
	}
	if errors.Is(err, ErrHandleReleased) {
		t.Errorf("out of range must not match ErrHandleReleased")
	}
}
