//go:build darwin || linux

package extvideo

import (
	"strings"
	"testing"
	"unsafe"
)

func TestGoStringFromPtr(t *testing.T) {
	if got := goStringFromPtr(nil); got != "" {
		t.Errorf("goStringFromPtr(nil) = %q", got)
	}

	msg := []byte("invalid native handle\x00")
	if got := goStringFromPtr(unsafe.Pointer(&msg[0])); got != "invalid native handle" {
		t.Errorf("goStringFromPtr() = %q", got)
	}

	empty := []byte{0}
	if got := goStringFromPtr(unsafe.Pointer(&empty[0])); got != "" {
		t.Errorf("goStringFromPtr(empty) = %q", got)
	}

	long := append([]byte(strings.Repeat("x", 2000)), 0)
	if got := goStringFromPtr(unsafe.Pointer(&long[0])); len(got) != 1025 {
		t.Errorf("unterminated read stopped at %d bytes, want 1025", len(got))
	}
}

func TestSharedLibName(t *testing.T) {
	name := sharedLibName("media_extvideo")
	if !strings.HasPrefix(name, "libmedia_extvideo.") {
		t.Errorf("sharedLibName() = %q", name)
	}
}
