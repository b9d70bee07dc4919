// Package estimate is the pure analytical model behind the compression
// recommendations: per-codec bitrate, size, savings, and encode-time
// estimates derived from input metadata and the codec constant table.
package estimate

import (
	"math"

	"recompress/video"
)

const (
	// referenceCRF anchors the CRF size correction; each CRF unit away from
	// it shifts the estimated size by about 8%.
	referenceCRF = 23
	crfSizeStep  = 0.92

	defaultAudioBitrate = 128_000 // bps
)

// OptimalBitrate estimates a target video bitrate in bits/sec. With a known
// original bitrate the target is the original reduced by the codec's combined
// compression factor, floored by a resolution-tiered minimum bits-per-pixel so
// the estimate can never collapse to a degenerate near-zero rate. Without one
// it is built up from tiered bits-per-pixel constants.
func OptimalBitrate(width, height int, framerate float64, info CodecInfo, originalBitrate float64) float64 {
	pixels := float64(width) * float64(height)
	pixelRate := pixels * framerate

	if originalBitrate > 0 {
		factor := info.CompressionRatio * info.ExtraFactor
		optimized := originalBitrate / factor

		minBpp := 0.015
		switch {
		case pixels >= 3840*2160:
			minBpp = 0.03
		case pixels >= 1920*1080:
			minBpp = 0.025
		case pixels >= 1280*720:
			minBpp = 0.02
		}
		return math.Max(math.Round(optimized), math.Round(pixelRate*minBpp))
	}

	bpp := 0.05
	switch {
	case pixels >= 3840*2160:
		bpp = 0.12
	case pixels >= 1920*1080:
		bpp = 0.08
	case pixels >= 1280*720:
		bpp = 0.06
	}

	if framerate > 50 {
		bpp *= 1.15
	} else if framerate > 30 {
		bpp *= 1.1
	}

	bpp /= info.CompressionRatio
	return math.Round(pixelRate * bpp)
}

// OptimalCRF returns the codec's equivalent-visual-quality operating point.
// Higher-compression codecs run at a numerically higher CRF for the same
// perceived fidelity.
func OptimalCRF(codec video.Codec) int {
	if info, ok := CodecByFamily(codec); ok {
		return info.ReferenceCRF
	}
	return 26
}

// OptimalPreset picks a speed token from the input size: bigger files earn
// slower presets since the relative payoff is larger.
func OptimalPreset(fileSize int64) string {
	switch {
	case fileSize > 500*1024*1024:
		return "slow"
	case fileSize > 100*1024*1024:
		return "medium"
	default:
		return "fast"
	}
}

// CRFSizeFactor is the multiplicative size correction for encoding at crf
// instead of the reference point.
func CRFSizeFactor(crf int) float64 {
	return math.Pow(crfSizeStep, float64(crf-referenceCRF))
}

// EstimateSize predicts the output size in bytes for a video bitrate,
// duration, and audio bitrate (bps; zero means the 128k default).
func EstimateSize(bitrate, duration, audioBitrate float64) float64 {
	if audioBitrate <= 0 {
		audioBitrate = defaultAudioBitrate
	}
	return (bitrate*duration + audioBitrate*duration) / 8
}

// EstimateEncodeTime predicts wall-clock encode seconds: half of realtime as
// the base, scaled up for slower presets and slow-class codecs.
func EstimateEncodeTime(duration float64, preset string, speed SpeedClass) float64 {
	base := duration * 0.5
	multiplier := 1.0

	switch preset {
	case "slow", "slower", "veryslow":
		multiplier = 2.0
	case "medium":
		multiplier = 1.5
	}
	if speed == SpeedSlow {
		multiplier *= 1.5
	}
	return base * multiplier
}

// ScaleMode tags whether a recommended resolution changes the source.
type ScaleMode string

const (
	ScaleOriginal  ScaleMode = "original"
	ScaleDownscale ScaleMode = "downscale"
	ScaleUpscale   ScaleMode = "upscale"
)

// Resolution is a recommended output resolution.
type Resolution struct {
	Width  int
	Height int
	Scale  ScaleMode
}

// OptimalResolution applies the per-codec resolution policy: modern codecs
// keep anything up to 4K, older ones downscale above 1080p.
func OptimalResolution(width, height int, codec video.Codec) Resolution {
	if codec == video.CodecAV1 || codec == video.CodecH265 {
		if width > 3840 || height > 2160 {
			return Resolution{Width: 1920, Height: 1080, Scale: ScaleDownscale}
		}
		return Resolution{Width: width, Height: height, Scale: ScaleOriginal}
	}

	if width > 1920 || height > 1080 {
		return Resolution{Width: 1920, Height: 1080, Scale: ScaleDownscale}
	}
	return Resolution{Width: width, Height: height, Scale: ScaleOriginal}
}

// BitrateFromCRF estimates the bitrate a CRF encode will land at, used when a
// preset supplies the CRF directly instead of the sweep choosing a bitrate.
func BitrateFromCRF(width, height int, framerate float64, crf int, codec video.Codec) float64 {
	pixelRate := float64(width) * float64(height) * framerate

	crfFactor := 1 - float64(crf-18)/30
	if crfFactor < 0.05 {
		crfFactor = 0.05
	}

	baseBpp := 0.1
	switch codec {
	case video.CodecAV1:
		baseBpp = 0.06
	case video.CodecH265:
		baseBpp = 0.08
	}
	return math.Round(pixelRate * baseBpp * crfFactor)
}
