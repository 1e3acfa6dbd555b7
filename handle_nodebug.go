//go:build !debug

package extvideo

import "context"

// HandleMisusePanics reports whether ref-count misuse panics in this build.
const HandleMisusePanics = false

// Without the debug tag misuse is logged and otherwise ignored.
func reportHandleMisuse(ctx context.Context, h *NativeHandle, what string) {
	logHandleMisuse(ctx, h, what)
}
