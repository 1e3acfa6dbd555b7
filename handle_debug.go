//go:build debug

package extvideo

import (
	"context"
	"fmt"
)

// HandleMisusePanics reports whether ref-count misuse panics in this build.
const HandleMisusePanics = true

func reportHandleMisuse(ctx context.Context, h *NativeHandle, what string) {
	logHandleMisuse(ctx, h, what)
	panic(fmt.Sprintf("native handle 0x%x: %s", h.token, what))
}
