//go:build !darwin && !linux

package extvideo

import (
	"fmt"
	"runtime"
)

// IsNativeBridgeAvailable reports whether libmedia_extvideo can be loaded.
func IsNativeBridgeAvailable() bool { return false }

// LoadNativeBridge loads libmedia_extvideo and returns a bridge to it.
func LoadNativeBridge() (NativeBridge, error) {
	return nil, fmt.Errorf("native bridge is not supported on %s", runtime.GOOS)
}
