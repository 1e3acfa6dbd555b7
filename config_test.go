package extvideo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, PixelFormatI420A, cfg.PixelFormat())
	assert.Equal(t, DefaultQueueCapacity, cfg.Queue.Capacity)
	assert.True(t, cfg.Track.AutoStart)
	assert.True(t, cfg.Track.Enabled)
	assert.Equal(t, 30, cfg.Capture.FPS)
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
track:
  name: camera-1
  format: argb
  auto_start: false
queue:
  capacity: 5
capture:
  width: 320
  height: 240
pattern:
  type: checkerboard
  alpha: 200
log_level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, "camera-1", cfg.Track.Name)
	assert.Equal(t, PixelFormatARGB32, cfg.PixelFormat())
	assert.False(t, cfg.Track.AutoStart)
	assert.True(t, cfg.Track.Enabled, "omitted fields keep their defaults")
	assert.Equal(t, 30, cfg.Capture.FPS)
	assert.Equal(t, "debug", cfg.LogLevel)

	ts := cfg.TrackSourceConfig(nil)
	assert.Equal(t, VideoTrackSourceConfig{
		Name:          "camera-1",
		Format:        PixelFormatARGB32,
		Enabled:       true,
		QueueCapacity: 5,
	}, ts)

	pc := cfg.PatternConfig()
	assert.Equal(t, PatternCheckerboard, pc.Pattern)
	assert.Equal(t, uint8(200), pc.Alpha)
	assert.Equal(t, 320, pc.Width)
	assert.Equal(t, 240, pc.Height)
}

func TestParseConfig_ExpandsEnv(t *testing.T) {
	t.Setenv("EXTVIDEO_TEST_TRACK", "from-env")
	cfg, err := ParseConfig([]byte("track:\n  name: ${EXTVIDEO_TEST_TRACK}\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Track.Name)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{"bad yaml", "track: [", nil},
		{"bad name", "track:\n  name: 'track#1'\n", ErrInvalidName},
		{"unknown format", "track:\n  format: yuv9\n", nil},
		{"unsupported format", "track:\n  format: nv12\n", ErrUnsupportedPixelFormat},
		{"negative capacity", "queue:\n  capacity: -1\n", nil},
		{"negative size", "capture:\n  width: -2\n", nil},
		{"negative fps", "capture:\n  fps: -1\n", nil},
		{"unknown pattern", "pattern:\n  type: plasma\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extvideo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("track:\n  format: ARGB32\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, PixelFormatARGB32, cfg.PixelFormat())

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParsePatternType(t *testing.T) {
	for in, want := range map[string]PatternType{
		"":             PatternColorBars,
		"COLOR_BARS":   PatternColorBars,
		"gradient":     PatternGradient,
		"solid":        PatternSolidColor,
		"moving_box":   PatternMovingBox,
		"checkerboard": PatternCheckerboard,
	} {
		got, err := ParsePatternType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
