// Package convert executes conversion jobs: it routes each job to the
// hardware-accelerated path or the software engine path, translates free-text
// engine logs into a structured progress stream, and applies the layered
// fallback policy between the two backends.
package convert

import (
	"fmt"
	"strconv"
	"strings"

	"recompress/estimate"
	"recompress/video"
)

// Resolution is an explicit output resolution override.
type Resolution struct {
	Width  int
	Height int
}

// Crop is a crop filter region.
type Crop struct {
	Width  int
	Height int
	X      int
	Y      int
}

// Options is the full conversion option surface. All fields except Codec are
// optional; codec-conditional fields are validated at construction time
// rather than silently ignored at render time.
type Options struct {
	Codec   video.Codec
	Bitrate string // e.g. "5M", "128k"
	CRF     *int
	Quality *int // vp9/av1 constant-quality scale
	Preset  string

	Resolution  *Resolution
	Framerate   float64
	PixelFormat string
	Profile     string // h264/h265 only
	Level       string // h264/h265 only

	KeyframeInterval int
	Tune             string // h264/h265 only
	Threads          *int
	BFrames          *int   // h264/h265 only
	RefFrames        *int   // h264/h265 only
	MEMethod         string // h264/h265 only
	SubME            *int   // h264/h265 only

	AudioBitrate    string
	AudioCodec      string
	AudioSampleRate string
	AudioChannels   string

	VideoFilter string
	Deinterlace bool
	Denoise     bool
	Crop        *Crop
	ColorSpace  string
	ColorRange  string
}

// FromRecommendation builds Options from an accepted recommendation.
func FromRecommendation(rec estimate.Recommendation) Options {
	opts := Options{
		Codec:      rec.Codec,
		CRF:        rec.CRF,
		Quality:    rec.Quality,
		Preset:     rec.Preset,
		AudioCodec: rec.AudioCodec,
	}
	if rec.AudioBitrate > 0 {
		opts.AudioBitrate = fmt.Sprintf("%dk", rec.AudioBitrate)
	}
	if rec.Resolution.Scale != estimate.ScaleOriginal {
		opts.Resolution = &Resolution{Width: rec.Resolution.Width, Height: rec.Resolution.Height}
	}
	return opts
}

func (o *Options) isH26x() bool {
	return o.Codec == video.CodecH264 || o.Codec == video.CodecH265
}

// Validate rejects option combinations the encoders would silently ignore.
func (o *Options) Validate() error {
	switch o.Codec {
	case video.CodecH264, video.CodecH265, video.CodecVP9, video.CodecAV1:
	default:
		return fmt.Errorf("unsupported codec %q", o.Codec)
	}

	if !o.isH26x() {
		for name, set := range map[string]bool{
			"profile":   o.Profile != "",
			"level":     o.Level != "",
			"tune":      o.Tune != "",
			"bframes":   o.BFrames != nil,
			"refFrames": o.RefFrames != nil,
			"meMethod":  o.MEMethod != "",
			"subMe":     o.SubME != nil,
		} {
			if set {
				return fmt.Errorf("option %s applies only to h264/h265, not %s", name, o.Codec)
			}
		}
	}
	if o.Quality != nil && o.isH26x() {
		return fmt.Errorf("quality applies only to vp9/av1; use crf for %s", o.Codec)
	}
	if o.Bitrate != "" && estimate.ParseBitrate(o.Bitrate) == 0 {
		return fmt.Errorf("unparseable bitrate %q", o.Bitrate)
	}
	if o.AudioBitrate != "" && estimate.ParseBitrate(o.AudioBitrate) == 0 {
		return fmt.Errorf("unparseable audio bitrate %q", o.AudioBitrate)
	}
	return nil
}

// encoderName maps the codec family to its software encoder.
func (o *Options) encoderName() string {
	switch o.Codec {
	case video.CodecH264:
		return "libx264"
	case video.CodecH265:
		return "libx265"
	case video.CodecVP9:
		return "libvpx-vp9"
	default:
		return "libaom-av1"
	}
}

// buildArgs produces the ordered engine flag list for the software path.
func (o *Options) buildArgs(input, output string) []string {
	args := []string{"-hide_banner", "-i", input, "-c:v", o.encoderName()}

	// Exactly one rate-control mode: crf, quality (with zeroed bitrate for
	// the vp9/av1 constant-quality mode), or a plain bitrate.
	switch {
	case o.CRF != nil:
		args = append(args, "-crf", strconv.Itoa(*o.CRF))
		if o.Codec == video.CodecVP9 || o.Codec == video.CodecAV1 {
			args = append(args, "-b:v", "0")
		}
	case o.Quality != nil:
		args = append(args, "-crf", strconv.Itoa(*o.Quality), "-b:v", "0")
	case o.Bitrate != "":
		args = append(args, "-b:v", o.Bitrate)
	}

	if o.Preset != "" {
		args = append(args, "-preset", o.Preset)
	} else {
		args = append(args, "-preset", "veryfast")
	}

	// Filter chain in fixed order: crop, deinterlace, denoise, scale, custom.
	var filters []string
	if o.Crop != nil {
		filters = append(filters, fmt.Sprintf("crop=%d:%d:%d:%d", o.Crop.Width, o.Crop.Height, o.Crop.X, o.Crop.Y))
	}
	if o.Deinterlace {
		filters = append(filters, "yadif")
	}
	if o.Denoise {
		filters = append(filters, "hqdn3d")
	}
	if o.Resolution != nil {
		filters = append(filters, fmt.Sprintf("scale=%d:%d", o.Resolution.Width, o.Resolution.Height))
	}
	if o.VideoFilter != "" {
		filters = append(filters, o.VideoFilter)
	}
	if len(filters) > 0 {
		args = append(args, "-vf", strings.Join(filters, ","))
	}

	if o.ColorSpace != "" {
		args = append(args, "-colorspace", o.ColorSpace)
	}
	if o.ColorRange != "" {
		args = append(args, "-color_range", o.ColorRange)
	}
	if o.Framerate > 0 {
		args = append(args, "-r", strconv.FormatFloat(o.Framerate, 'f', -1, 64))
	}
	if o.PixelFormat != "" {
		args = append(args, "-pix_fmt", o.PixelFormat)
	}

	if o.Profile != "" && o.isH26x() {
		profile := o.Profile
		if o.Codec == video.CodecH265 && profile == "high" {
			// x265 has no "high" profile; main is the closest equivalent.
			profile = "main"
		}
		args = append(args, "-profile:v", profile)
	}
	if o.Level != "" && o.isH26x() {
		args = append(args, "-level", o.Level)
	}
	if o.KeyframeInterval > 0 {
		args = append(args, "-g", strconv.Itoa(o.KeyframeInterval))
	}

	if o.AudioCodec != "" {
		args = append(args, "-c:a", o.AudioCodec)
	} else if o.Codec == video.CodecVP9 || o.Codec == video.CodecAV1 {
		args = append(args, "-c:a", "libopus")
	} else {
		args = append(args, "-c:a", "aac")
	}
	if o.AudioBitrate != "" {
		args = append(args, "-b:a", o.AudioBitrate)
	}
	if o.AudioSampleRate != "" {
		args = append(args, "-ar", o.AudioSampleRate)
	}
	if o.AudioChannels != "" {
		args = append(args, "-ac", o.AudioChannels)
	}

	if o.Tune != "" && o.isH26x() {
		args = append(args, "-tune", o.Tune)
	}
	if o.Threads != nil {
		args = append(args, "-threads", strconv.Itoa(*o.Threads))
	} else {
		args = append(args, "-threads", "0")
	}
	if o.BFrames != nil && o.isH26x() {
		args = append(args, "-bf", strconv.Itoa(*o.BFrames))
	}
	if o.RefFrames != nil && o.isH26x() {
		args = append(args, "-refs", strconv.Itoa(*o.RefFrames))
	}
	if o.MEMethod != "" && o.isH26x() {
		args = append(args, "-me_method", o.MEMethod)
	}
	if o.SubME != nil && o.isH26x() {
		args = append(args, "-subq", strconv.Itoa(*o.SubME))
	}

	return append(args, "-y", output)
}
