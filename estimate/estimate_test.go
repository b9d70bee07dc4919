package estimate

import (
	"math"
	"testing"
	"testing/quick"

	"recompress/video"
)

// Property: a higher CRF never produces a larger size estimate.
func TestCRFSizeFactor_Monotonic(t *testing.T) {
	f := func(a, b uint8) bool {
		lo, hi := int(a%52), int(b%52)
		if lo > hi {
			lo, hi = hi, lo
		}
		return CRFSizeFactor(hi) <= CRFSizeFactor(lo)
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 1000}); err != nil {
		t.Error(err)
	}
}

func TestCRFSizeFactor_Reference(t *testing.T) {
	if got := CRFSizeFactor(23); got != 1.0 {
		t.Errorf("CRFSizeFactor(23) = %f, want 1.0", got)
	}
	// One step above reference shrinks by the step constant.
	if got := CRFSizeFactor(24); math.Abs(got-0.92) > 1e-9 {
		t.Errorf("CRFSizeFactor(24) = %f, want 0.92", got)
	}
}

// Property: the bitrate estimate is always positive for positive inputs.
func TestOptimalBitrate_Positive(t *testing.T) {
	f := func(w, h uint16, fps uint8, bitrate uint32) bool {
		width := int(w%3840) + 1
		height := int(h%2160) + 1
		framerate := float64(fps%120) + 1
		for _, info := range Codecs() {
			if OptimalBitrate(width, height, framerate, info, float64(bitrate)) <= 0 {
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 500}); err != nil {
		t.Error(err)
	}
}

// Property: with a known original bitrate, a higher-compression codec never
// recommends more bitrate than a lower-compression one, until the min-bpp
// floor kicks in.
func TestOptimalBitrate_FloorNeverCollapses(t *testing.T) {
	av1, _ := CodecByFamily(video.CodecAV1)

	// Tiny original bitrate: the floor must win.
	got := OptimalBitrate(1920, 1080, 30, av1, 1000)
	floor := math.Round(1920 * 1080 * 30 * 0.025)
	if got != floor {
		t.Errorf("OptimalBitrate floored = %f, want %f", got, floor)
	}
}

func TestOptimalBitrate_UnknownUsesTiers(t *testing.T) {
	h264, _ := CodecByFamily(video.CodecH264)
	tests := []struct {
		name   string
		w, h   int
		fps    float64
		bpp    float64
		fpsMul float64
	}{
		{"4k", 3840, 2160, 30, 0.12, 1},
		{"1080p", 1920, 1080, 30, 0.08, 1},
		{"720p", 1280, 720, 30, 0.06, 1},
		{"sd", 640, 480, 30, 0.05, 1},
		{"1080p60", 1920, 1080, 60, 0.08, 1.15},
		{"1080p48", 1920, 1080, 48, 0.08, 1.1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			want := math.Round(float64(tc.w) * float64(tc.h) * tc.fps * tc.bpp * tc.fpsMul / h264.CompressionRatio)
			got := OptimalBitrate(tc.w, tc.h, tc.fps, h264, 0)
			if got != want {
				t.Errorf("OptimalBitrate = %f, want %f", got, want)
			}
		})
	}
}

func TestOptimalCRF(t *testing.T) {
	tests := []struct {
		codec video.Codec
		want  int
	}{
		{video.CodecH264, 26},
		{video.CodecH265, 30},
		{video.CodecVP9, 36},
		{video.CodecAV1, 40},
	}
	for _, tc := range tests {
		if got := OptimalCRF(tc.codec); got != tc.want {
			t.Errorf("OptimalCRF(%s) = %d, want %d", tc.codec, got, tc.want)
		}
	}
}

func TestOptimalPreset_SizeThresholds(t *testing.T) {
	const mb = 1024 * 1024
	tests := []struct {
		size int64
		want string
	}{
		{501 * mb, "slow"},
		{500 * mb, "medium"},
		{101 * mb, "medium"},
		{100 * mb, "fast"},
		{1 * mb, "fast"},
	}
	for _, tc := range tests {
		if got := OptimalPreset(tc.size); got != tc.want {
			t.Errorf("OptimalPreset(%d MB) = %q, want %q", tc.size/mb, got, tc.want)
		}
	}
}

func TestEstimateSize_AudioDefault(t *testing.T) {
	// Zero audio bitrate falls back to 128k.
	withDefault := EstimateSize(1_000_000, 60, 0)
	explicit := EstimateSize(1_000_000, 60, 128_000)
	if withDefault != explicit {
		t.Errorf("EstimateSize default audio = %f, want %f", withDefault, explicit)
	}
	want := (1_000_000.0*60 + 128_000.0*60) / 8
	if explicit != want {
		t.Errorf("EstimateSize = %f, want %f", explicit, want)
	}
}

func TestEstimateEncodeTime(t *testing.T) {
	tests := []struct {
		preset string
		speed  SpeedClass
		want   float64
	}{
		{"fast", SpeedFast, 30},
		{"medium", SpeedMedium, 45},
		{"slow", SpeedSlow, 90},
		{"veryslow", SpeedSlow, 90},
		{"fast", SpeedSlow, 45},
	}
	for _, tc := range tests {
		if got := EstimateEncodeTime(60, tc.preset, tc.speed); got != tc.want {
			t.Errorf("EstimateEncodeTime(60, %q, %v) = %f, want %f", tc.preset, tc.speed, got, tc.want)
		}
	}
}

func TestOptimalResolution_Policy(t *testing.T) {
	tests := []struct {
		codec     video.Codec
		w, h      int
		wantW     int
		wantScale ScaleMode
	}{
		{video.CodecAV1, 3840, 2160, 3840, ScaleOriginal},
		{video.CodecAV1, 7680, 4320, 1920, ScaleDownscale},
		{video.CodecH265, 2560, 1440, 2560, ScaleOriginal},
		{video.CodecH264, 2560, 1440, 1920, ScaleDownscale},
		{video.CodecVP9, 3840, 2160, 1920, ScaleDownscale},
		{video.CodecH264, 1920, 1080, 1920, ScaleOriginal},
		{video.CodecVP9, 1280, 720, 1280, ScaleOriginal},
	}
	for _, tc := range tests {
		got := OptimalResolution(tc.w, tc.h, tc.codec)
		if got.Width != tc.wantW || got.Scale != tc.wantScale {
			t.Errorf("OptimalResolution(%dx%d, %s) = %dx%d %s, want width %d scale %s",
				tc.w, tc.h, tc.codec, got.Width, got.Height, got.Scale, tc.wantW, tc.wantScale)
		}
	}
}

// Property: BitrateFromCRF never goes non-positive even at absurd CRF values.
func TestBitrateFromCRF_FloorsFactor(t *testing.T) {
	f := func(crf uint8) bool {
		return BitrateFromCRF(1920, 1080, 30, int(crf), video.CodecH265) > 0
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 300}); err != nil {
		t.Error(err)
	}
}

func TestBitrateFromCRF_CodecBase(t *testing.T) {
	// av1 < h265 < h264 base bits-per-pixel at the same CRF.
	av1 := BitrateFromCRF(1920, 1080, 30, 24, video.CodecAV1)
	h265 := BitrateFromCRF(1920, 1080, 30, 24, video.CodecH265)
	h264 := BitrateFromCRF(1920, 1080, 30, 24, video.CodecH264)
	if !(av1 < h265 && h265 < h264) {
		t.Errorf("expected av1 < h265 < h264, got %f %f %f", av1, h265, h264)
	}
}
