// Core frame types exchanged across the native boundary.
package extvideo

import (
	"fmt"
	"math"
	"strings"
)

// PixelFormat represents video pixel formats.
type PixelFormat int

const (
	PixelFormatUnknown PixelFormat = iota
	PixelFormatI420A                // YUV 4:2:0 planar with alpha (Y + U + V + A)
	PixelFormatARGB32               // Packed ARGB, 4 bytes per pixel
	PixelFormatI420                 // YUV 4:2:0 planar (Y + U + V)
	PixelFormatNV12                 // YUV 4:2:0 semi-planar (Y + interleaved UV)
)

func (p PixelFormat) String() string {
	switch p {
	case PixelFormatI420A:
		return "I420A"
	case PixelFormatARGB32:
		return "ARGB32"
	case PixelFormatI420:
		return "I420"
	case PixelFormatNV12:
		return "NV12"
	default:
		return "Unknown"
	}
}

// PlaneCount returns the number of planes for this pixel format.
func (p PixelFormat) PlaneCount() int {
	switch p {
	case PixelFormatI420A:
		return 4 // Y, U, V, A
	case PixelFormatI420:
		return 3
	case PixelFormatNV12:
		return 2
	case PixelFormatARGB32:
		return 1
	default:
		return 0
	}
}

// Supported reports whether external track sources can deliver this format.
func (p PixelFormat) Supported() bool {
	return p == PixelFormatI420A || p == PixelFormatARGB32
}

// ParsePixelFormat parses the String form of a pixel format, case-insensitively.
func ParsePixelFormat(s string) (PixelFormat, error) {
	switch strings.ToUpper(s) {
	case "I420A":
		return PixelFormatI420A, nil
	case "ARGB32", "ARGB":
		return PixelFormatARGB32, nil
	case "I420":
		return PixelFormatI420, nil
	case "NV12":
		return PixelFormatNV12, nil
	default:
		return PixelFormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedPixelFormat, s)
	}
}

// VideoFrame represents a raw video frame in either supported layout.
// The Data slices may point to external memory (e.g., C memory via FFI).
// Callers must ensure the data remains valid for the lifetime of the frame.
type VideoFrame struct {
	Data      [][]byte    // Plane data (1 or 4 planes depending on format)
	Stride    []int       // Stride for each plane in bytes
	Width     int         // Frame width in pixels
	Height    int         // Frame height in pixels
	Format    PixelFormat // Pixel format
	Timestamp int64       // Capture timestamp in nanoseconds
}

// Clone creates a deep copy of the video frame.
// Use this when you need to keep the frame data beyond its original lifetime.
func (f *VideoFrame) Clone() *VideoFrame {
	return f.cloneInto(&VideoFrame{})
}

// cloneInto copies f into dst, reusing dst's plane buffers when they are
// large enough.
func (f *VideoFrame) cloneInto(dst *VideoFrame) *VideoFrame {
	dst.Width = f.Width
	dst.Height = f.Height
	dst.Format = f.Format
	dst.Timestamp = f.Timestamp

	if cap(dst.Stride) < len(f.Stride) {
		dst.Stride = make([]int, len(f.Stride))
	}
	dst.Stride = dst.Stride[:len(f.Stride)]
	copy(dst.Stride, f.Stride)

	if cap(dst.Data) < len(f.Data) {
		dst.Data = make([][]byte, len(f.Data))
	}
	dst.Data = dst.Data[:len(f.Data)]
	for i, plane := range f.Data {
		if plane == nil {
			dst.Data[i] = nil
			continue
		}
		if cap(dst.Data[i]) < len(plane) {
			dst.Data[i] = make([]byte, len(plane))
		}
		dst.Data[i] = dst.Data[i][:len(plane)]
		copy(dst.Data[i], plane)
	}
	return dst
}

// I420AFrame is a planar YUV 4:2:0 frame with an optional alpha plane.
// U and V have (Height+1)/2 rows; Y and A have Height rows.
// A nil A plane means the frame is opaque.
type I420AFrame struct {
	Width, Height int

	Y, U, V, A []byte

	StrideY, StrideU, StrideV, StrideA int
}

// ChromaWidth returns the width of the U and V planes.
func (f *I420AFrame) ChromaWidth() int { return (f.Width + 1) / 2 }

// ChromaHeight returns the number of rows in the U and V planes.
func (f *I420AFrame) ChromaHeight() int { return (f.Height + 1) / 2 }

// Validate checks that every present plane holds stride*rows bytes.
func (f *I420AFrame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 || f.Width > math.MaxInt32 || f.Height > math.MaxInt32 {
		return fmt.Errorf("%w: I420A size %dx%d", ErrInvalidFrame, f.Width, f.Height)
	}
	cw, ch := f.ChromaWidth(), f.ChromaHeight()
	if err := validatePlane("Y", f.Y, f.StrideY, f.Width, f.Height); err != nil {
		return err
	}
	if err := validatePlane("U", f.U, f.StrideU, cw, ch); err != nil {
		return err
	}
	if err := validatePlane("V", f.V, f.StrideV, cw, ch); err != nil {
		return err
	}
	if f.A != nil {
		if err := validatePlane("A", f.A, f.StrideA, f.Width, f.Height); err != nil {
			return err
		}
	}
	return nil
}

// ToVideoFrame returns a VideoFrame pointing to this frame's planes.
func (f *I420AFrame) ToVideoFrame() *VideoFrame {
	return &VideoFrame{
		Data:   [][]byte{f.Y, f.U, f.V, f.A},
		Stride: []int{f.StrideY, f.StrideU, f.StrideV, f.StrideA},
		Width:  f.Width,
		Height: f.Height,
		Format: PixelFormatI420A,
	}
}

// ARGB32Frame is a packed 32-bit ARGB frame.
type ARGB32Frame struct {
	Width, Height int
	Stride        int
	Data          []byte
}

// Validate checks the buffer holds Stride*Height bytes of at least 4*Width per row.
func (f *ARGB32Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 || f.Width > math.MaxInt32/4 || f.Height > math.MaxInt32 {
		return fmt.Errorf("%w: ARGB32 size %dx%d", ErrInvalidFrame, f.Width, f.Height)
	}
	return validatePlane("ARGB", f.Data, f.Stride, f.Width*4, f.Height)
}

// ToVideoFrame returns a VideoFrame pointing to this frame's buffer.
func (f *ARGB32Frame) ToVideoFrame() *VideoFrame {
	return &VideoFrame{
		Data:   [][]byte{f.Data},
		Stride: []int{f.Stride},
		Width:  f.Width,
		Height: f.Height,
		Format: PixelFormatARGB32,
	}
}

// validatePlane checks that plane holds rows lines of stride bytes. Strides
// must fit the native int32 fields. The size check divides instead of
// multiplying so it cannot wrap.
func validatePlane(name string, plane []byte, stride, rowBytes, rows int) error {
	if stride < rowBytes {
		return fmt.Errorf("%w: plane %s stride %d < row size %d", ErrInvalidFrame, name, stride, rowBytes)
	}
	if stride > math.MaxInt32 {
		return fmt.Errorf("%w: plane %s stride %d exceeds %d", ErrInvalidFrame, name, stride, math.MaxInt32)
	}
	if rows <= 0 || stride > len(plane)/rows {
		return fmt.Errorf("%w: plane %s has %d bytes, need %d rows of %d", ErrInvalidFrame, name, len(plane), rows, stride)
	}
	return nil
}

// I420ASize returns the total buffer size of a tightly packed I420A frame.
func I420ASize(width, height int) int {
	cw, ch := (width+1)/2, (height+1)/2
	return 2*width*height + 2*cw*ch
}

// NewI420AFrame allocates a tightly packed I420A frame.
func NewI420AFrame(width, height int, withAlpha bool) *I420AFrame {
	cw, ch := (width+1)/2, (height+1)/2
	f := &I420AFrame{
		Width:   width,
		Height:  height,
		Y:       make([]byte, width*height),
		U:       make([]byte, cw*ch),
		V:       make([]byte, cw*ch),
		StrideY: width,
		StrideU: cw,
		StrideV: cw,
	}
	if withAlpha {
		f.A = make([]byte, width*height)
		f.StrideA = width
	}
	return f
}

// NewARGB32Frame allocates a tightly packed ARGB32 frame.
func NewARGB32Frame(width, height int) *ARGB32Frame {
	return &ARGB32Frame{
		Width:  width,
		Height: height,
		Stride: width * 4,
		Data:   make([]byte, width*height*4),
	}
}
