package extvideo

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// PatternType defines the type of test pattern to generate.
type PatternType int

const (
	PatternColorBars    PatternType = iota // SMPTE color bars
	PatternGradient                        // Horizontal gradient
	PatternCheckerboard                    // Checkerboard pattern
	PatternSolidColor                      // Solid color
	PatternMovingBox                       // Moving box (animated)
)

func (p PatternType) String() string {
	switch p {
	case PatternColorBars:
		return "ColorBars"
	case PatternGradient:
		return "Gradient"
	case PatternCheckerboard:
		return "Checkerboard"
	case PatternSolidColor:
		return "SolidColor"
	case PatternMovingBox:
		return "MovingBox"
	default:
		return "Unknown"
	}
}

// PatternConfig configures a PatternSource.
type PatternConfig struct {
	Width   int         // Frame width used when a request leaves it to the producer (default: 640)
	Height  int         // Frame height used when a request leaves it to the producer (default: 480)
	Pattern PatternType // Pattern type (default: ColorBars)
	Alpha   uint8       // Alpha of every pixel (0 = opaque; I420A frames then carry no alpha plane)

	// For SolidColor pattern
	SolidR, SolidG, SolidB uint8

	// For Checkerboard pattern
	CheckerSize int // Size of each checker square (default: 32)
}

// PatternSource is a FrameRequestHandler that answers every request with a
// synthetic frame in the request's pixel format.
type PatternSource struct {
	config PatternConfig

	frameCount atomic.Uint64

	mu    sync.Mutex
	i420a *I420AFrame
	argb  *ARGB32Frame
}

var _ FrameRequestHandler = (*PatternSource)(nil)

// NewPatternSource creates a pattern source.
func NewPatternSource(config PatternConfig) *PatternSource {
	if config.Width <= 0 {
		config.Width = 640
	}
	if config.Height <= 0 {
		config.Height = 480
	}
	if config.CheckerSize <= 0 {
		config.CheckerSize = 32
	}
	return &PatternSource{config: config}
}

// Frames returns the number of frames generated.
func (s *PatternSource) Frames() uint64 { return s.frameCount.Load() }

// OnFrameRequested implements FrameRequestHandler.
func (s *PatternSource) OnFrameRequested(ctx context.Context, req *FrameRequest) {
	w, h := req.Width, req.Height
	if w <= 0 || h <= 0 {
		w, h = s.config.Width, s.config.Height
	}
	n := s.frameCount.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch req.Format {
	case PixelFormatI420A:
		err = req.CompleteI420A(ctx, s.renderI420A(w, h, n))
	case PixelFormatARGB32:
		err = req.CompleteARGB32(ctx, s.renderARGB32(w, h, n))
	default:
		logger.Errorf(ctx, "pattern source cannot produce %s", req.Format)
		return
	}
	if err != nil {
		logger.Warnf(ctx, "unable to complete frame request %d: %v", req.ID, err)
	}
}

// RenderI420A renders frame number n of the pattern into a new frame.
func (s *PatternSource) RenderI420A(width, height int, n uint64) *I420AFrame {
	f := NewI420AFrame(width, height, s.config.Alpha != 0)
	s.fillI420A(f, n)
	return f
}

// RenderARGB32 renders frame number n of the pattern into a new frame.
func (s *PatternSource) RenderARGB32(width, height int, n uint64) *ARGB32Frame {
	f := NewARGB32Frame(width, height)
	s.fillARGB32(f, n)
	return f
}

func (s *PatternSource) renderI420A(w, h int, n uint64) *I420AFrame {
	if s.i420a == nil || s.i420a.Width != w || s.i420a.Height != h {
		s.i420a = NewI420AFrame(w, h, s.config.Alpha != 0)
	}
	s.fillI420A(s.i420a, n)
	return s.i420a
}

func (s *PatternSource) renderARGB32(w, h int, n uint64) *ARGB32Frame {
	if s.argb == nil || s.argb.Width != w || s.argb.Height != h {
		s.argb = NewARGB32Frame(w, h)
	}
	s.fillARGB32(s.argb, n)
	return s.argb
}

func (s *PatternSource) fillI420A(f *I420AFrame, n uint64) {
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r, g, b := s.colorAt(x, y, f.Width, f.Height, n)
			yVal, u, v := rgbToYUV(r, g, b)
			f.Y[y*f.StrideY+x] = yVal

			// UV planes (subsampled 2x2)
			if x%2 == 0 && y%2 == 0 {
				f.U[(y/2)*f.StrideU+x/2] = u
				f.V[(y/2)*f.StrideV+x/2] = v
			}
			if f.A != nil {
				f.A[y*f.StrideA+x] = s.config.Alpha
			}
		}
	}
}

func (s *PatternSource) fillARGB32(f *ARGB32Frame, n uint64) {
	alpha := s.config.Alpha
	if alpha == 0 {
		alpha = 255
	}
	for y := 0; y < f.Height; y++ {
		row := f.Data[y*f.Stride:]
		for x := 0; x < f.Width; x++ {
			r, g, b := s.colorAt(x, y, f.Width, f.Height, n)
			px := row[x*4 : x*4+4]
			px[0], px[1], px[2], px[3] = alpha, r, g, b
		}
	}
}

// SMPTE color bars (simplified 8-bar pattern)
var colorBarsRGB = [][3]uint8{
	{192, 192, 192}, // White (75%)
	{192, 192, 0},   // Yellow
	{0, 192, 192},   // Cyan
	{0, 192, 0},     // Green
	{192, 0, 192},   // Magenta
	{192, 0, 0},     // Red
	{0, 0, 192},     // Blue
	{16, 16, 16},    // Black
}

func (s *PatternSource) colorAt(x, y, w, h int, n uint64) (r, g, b uint8) {
	switch s.config.Pattern {
	case PatternGradient:
		v := uint8((x * 255) / w)
		return v, v, v
	case PatternCheckerboard:
		size := s.config.CheckerSize
		if ((x/size)+(y/size))%2 == 0 {
			return 235, 235, 235
		}
		return 16, 16, 16
	case PatternSolidColor:
		return s.config.SolidR, s.config.SolidG, s.config.SolidB
	case PatternMovingBox:
		if insideMovingBox(x, y, w, h, n) {
			return 235, 235, 235
		}
		return 16, 16, 16
	default:
		barIdx := x * 8 / w
		if barIdx >= 8 {
			barIdx = 7
		}
		rgb := colorBarsRGB[barIdx]
		return rgb[0], rgb[1], rgb[2]
	}
}

// insideMovingBox reports whether (x, y) is inside a box circling the
// frame center.
func insideMovingBox(x, y, w, h int, n uint64) bool {
	boxSize := min(w, h) / 5
	radius := float64(min(w, h)) / 4
	angle := float64(n) * 0.05 // Radians per frame
	boxX := w/2 + int(radius*math.Cos(angle)) - boxSize/2
	boxY := h/2 + int(radius*math.Sin(angle)) - boxSize/2
	return x >= boxX && x < boxX+boxSize && y >= boxY && y < boxY+boxSize
}

// rgbToYUV converts RGB to YUV (BT.601)
func rgbToYUV(r, g, b uint8) (y, u, v uint8) {
	yf := 16.0 + 65.481*float64(r)/255.0 + 128.553*float64(g)/255.0 + 24.966*float64(b)/255.0
	uf := 128.0 - 37.797*float64(r)/255.0 - 74.203*float64(g)/255.0 + 112.0*float64(b)/255.0
	vf := 128.0 + 112.0*float64(r)/255.0 - 93.786*float64(g)/255.0 - 18.214*float64(b)/255.0

	y = uint8(clamp(yf, 16, 235))
	u = uint8(clamp(uf, 16, 240))
	v = uint8(clamp(vf, 16, 240))
	return
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
