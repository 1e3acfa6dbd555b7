package extvideo

import (
	"errors"
	"math"
	"testing"
)

// hugeInt is large enough for stride and size products to wrap int.
const hugeInt = int(^uint(0) >> 2)

func TestPixelFormat_String(t *testing.T) {
	tests := []struct {
		format PixelFormat
		want   string
	}{
		{PixelFormatI420A, "I420A"},
		{PixelFormatARGB32, "ARGB32"},
		{PixelFormatI420, "I420"},
		{PixelFormatNV12, "NV12"},
		{PixelFormat(99), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.format.String(); got != tt.want {
				t.Errorf("PixelFormat.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPixelFormat_PlaneCount(t *testing.T) {
	tests := []struct {
		format PixelFormat
		want   int
	}{
		{PixelFormatI420A, 4},
		{PixelFormatARGB32, 1},
		{PixelFormatI420, 3},
		{PixelFormatNV12, 2},
		{PixelFormat(99), 0},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			if got := tt.format.PlaneCount(); got != tt.want {
				t.Errorf("PixelFormat.PlaneCount() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsePixelFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    PixelFormat
		wantErr bool
	}{
		{"I420A", PixelFormatI420A, false},
		{"i420a", PixelFormatI420A, false},
		{"ARGB32", PixelFormatARGB32, false},
		{"argb", PixelFormatARGB32, false},
		{"NV12", PixelFormatNV12, false},
		{"RGB24", PixelFormatUnknown, true},
		{"", PixelFormatUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePixelFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePixelFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnsupportedPixelFormat) {
				t.Errorf("error %v is not ErrUnsupportedPixelFormat", err)
			}
			if got != tt.want {
				t.Errorf("ParsePixelFormat(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPixelFormat_Supported(t *testing.T) {
	for _, f := range []PixelFormat{PixelFormatI420A, PixelFormatARGB32} {
		if !f.Supported() {
			t.Errorf("%v should be supported", f)
		}
	}
	for _, f := range []PixelFormat{PixelFormatUnknown, PixelFormatI420, PixelFormatNV12} {
		if f.Supported() {
			t.Errorf("%v should not be supported", f)
		}
	}
}

func TestI420ASize(t *testing.T) {
	tests := []struct {
		width, height int
		want          int
	}{
		{1920, 1080, 2*1920*1080 + 2*(960*540)},
		{640, 480, 2*640*480 + 2*(320*240)},
		{3, 3, 2*9 + 2*(2*2)},
		{1, 1, 2 + 2},
	}

	for _, tt := range tests {
		if got := I420ASize(tt.width, tt.height); got != tt.want {
			t.Errorf("I420ASize(%d, %d) = %d, want %d", tt.width, tt.height, got, tt.want)
		}
	}
}

func TestNewI420AFrame(t *testing.T) {
	f := NewI420AFrame(5, 3, true)
	if f.ChromaWidth() != 3 || f.ChromaHeight() != 2 {
		t.Errorf("chroma = %dx%d, want 3x2", f.ChromaWidth(), f.ChromaHeight())
	}
	if len(f.Y) != 15 || len(f.U) != 6 || len(f.V) != 6 || len(f.A) != 15 {
		t.Errorf("plane sizes Y=%d U=%d V=%d A=%d", len(f.Y), len(f.U), len(f.V), len(f.A))
	}
	if err := f.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	opaque := NewI420AFrame(4, 4, false)
	if opaque.A != nil {
		t.Error("opaque frame should have no alpha plane")
	}
	if err := opaque.Validate(); err != nil {
		t.Errorf("Validate() opaque = %v", err)
	}
}

func TestI420AFrame_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *I420AFrame)
	}{
		{"zero width", func(f *I420AFrame) { f.Width = 0 }},
		{"negative height", func(f *I420AFrame) { f.Height = -1 }},
		{"short Y", func(f *I420AFrame) { f.Y = f.Y[:len(f.Y)-1] }},
		{"short U", func(f *I420AFrame) { f.U = f.U[:1] }},
		{"short V", func(f *I420AFrame) { f.V = nil }},
		{"short A", func(f *I420AFrame) { f.A = f.A[:3] }},
		{"small Y stride", func(f *I420AFrame) { f.StrideY = f.Width - 1 }},
		{"small U stride", func(f *I420AFrame) { f.StrideU = 1 }},
		{"wrapping Y stride", func(f *I420AFrame) { f.StrideY = hugeInt; f.Y = nil }},
		{"wrapping A stride", func(f *I420AFrame) { f.StrideA = hugeInt }},
		{"width beyond int32", func(f *I420AFrame) { f.Width = hugeInt }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewI420AFrame(8, 6, true)
			tt.mutate(f)
			if err := f.Validate(); !errors.Is(err, ErrInvalidFrame) {
				t.Errorf("Validate() = %v, want ErrInvalidFrame", err)
			}
		})
	}
}

func TestI420AFrame_PaddedStride(t *testing.T) {
	f := &I420AFrame{
		Width: 4, Height: 2,
		Y: make([]byte, 16*2), StrideY: 16,
		U: make([]byte, 16), StrideU: 16,
		V: make([]byte, 16), StrideV: 16,
	}
	if err := f.Validate(); err != nil {
		t.Errorf("Validate() padded = %v", err)
	}
}

func TestARGB32Frame_Validate(t *testing.T) {
	f := NewARGB32Frame(4, 3)
	if f.Stride != 16 || len(f.Data) != 48 {
		t.Fatalf("NewARGB32Frame stride=%d len=%d", f.Stride, len(f.Data))
	}
	if err := f.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	short := NewARGB32Frame(4, 3)
	short.Data = short.Data[:47]
	if err := short.Validate(); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("Validate() short = %v, want ErrInvalidFrame", err)
	}

	narrow := NewARGB32Frame(4, 3)
	narrow.Stride = 12
	if err := narrow.Validate(); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("Validate() narrow stride = %v, want ErrInvalidFrame", err)
	}
}

func TestARGB32Frame_ValidateOverflow(t *testing.T) {
	tests := []struct {
		name  string
		frame ARGB32Frame
	}{
		{"wrapping row size", ARGB32Frame{Width: hugeInt / 2, Height: 1, Stride: 1, Data: make([]byte, 1)}},
		{"width beyond int32 row", ARGB32Frame{Width: math.MaxInt32/4 + 1, Height: 1, Stride: hugeInt, Data: make([]byte, 1)}},
		{"wrapping stride times height", ARGB32Frame{Width: 1, Height: 4, Stride: hugeInt, Data: nil}},
		{"height beyond int32", ARGB32Frame{Width: 1, Height: hugeInt, Stride: 4, Data: make([]byte, 4)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.frame.Validate(); !errors.Is(err, ErrInvalidFrame) {
				t.Errorf("Validate() = %v, want ErrInvalidFrame", err)
			}
		})
	}
}

func TestVideoFrame_Clone(t *testing.T) {
	src := NewI420AFrame(4, 4, true)
	for i := range src.Y {
		src.Y[i] = byte(i)
	}
	frame := src.ToVideoFrame()
	frame.Timestamp = 42

	clone := frame.Clone()
	if clone.Width != 4 || clone.Height != 4 || clone.Format != PixelFormatI420A || clone.Timestamp != 42 {
		t.Errorf("clone metadata = %+v", clone)
	}
	if len(clone.Data) != 4 {
		t.Fatalf("clone has %d planes, want 4", len(clone.Data))
	}

	// Modify original, clone should be unaffected
	src.Y[0] = 255
	if clone.Data[0][0] != 0 {
		t.Error("clone shares Y plane with the original")
	}
}

func TestVideoFrame_CloneOpaque(t *testing.T) {
	frame := NewI420AFrame(2, 2, false).ToVideoFrame()
	clone := frame.Clone()
	if clone.Data[3] != nil {
		t.Error("clone of an opaque frame grew an alpha plane")
	}
}

func TestVideoFrame_CloneIntoReuses(t *testing.T) {
	frame := NewARGB32Frame(8, 8).ToVideoFrame()
	dst := frame.Clone()
	buf := &dst.Data[0][0]

	frame.Data[0][0] = 7
	frame.cloneInto(dst)
	if &dst.Data[0][0] != buf {
		t.Error("cloneInto reallocated a large enough plane")
	}
	if dst.Data[0][0] != 7 {
		t.Error("cloneInto did not copy plane data")
	}
}
