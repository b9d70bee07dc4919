package video

import (
	"mime"
	"path/filepath"
	"strings"
)

// Codec identifies one of the supported target codec families.
type Codec string

const (
	CodecH264 Codec = "h264"
	CodecH265 Codec = "h265"
	CodecVP9  Codec = "vp9"
	CodecAV1  Codec = "av1"
)

// Codecs returns the supported codecs in sweep order.
func Codecs() []Codec {
	return []Codec{CodecH264, CodecH265, CodecVP9, CodecAV1}
}

// MIMEType returns the container MIME type produced for this codec family.
func (c Codec) MIMEType() string {
	switch c {
	case CodecVP9, CodecAV1:
		return "video/webm"
	default:
		return "video/mp4"
	}
}

// OutputExt returns the container extension used for this codec family.
func (c Codec) OutputExt() string {
	switch c {
	case CodecVP9, CodecAV1:
		return ".webm"
	default:
		return ".mp4"
	}
}

// File describes an input video file: on-disk location plus the caller-declared
// name, size and MIME type.
type File struct {
	Path string
	Name string
	Size int64
	MIME string
}

// SizeMB returns the file size in megabytes.
func (f File) SizeMB() float64 {
	return float64(f.Size) / 1024 / 1024
}

// Metadata holds the normalized facts extracted from an input file. Produced
// once per file by the probe chain and immutable thereafter. Width, height and
// duration are always positive in usable metadata; extraction paths that
// cannot establish them fail instead of returning zeros.
type Metadata struct {
	Filename     string
	FileSize     int64
	Duration     float64 // seconds, possibly estimated
	Width        int
	Height       int
	Bitrate      float64 // bits/sec, estimated or measured
	Codec        string  // best-effort guess, e.g. "h264"
	CodecName    string  // human name for the guess
	Framerate    float64 // defaults to 30 when unknowable
	PixelFormat  string  // defaults to "yuv420p"
	AudioCodec   string
	AudioBitrate float64 // bits/sec
	Thumbnail    []byte  // JPEG bytes, may be empty
}

// Usable reports whether the metadata satisfies the minimum invariant.
func (m *Metadata) Usable() bool {
	return m != nil && m.Width > 0 && m.Height > 0 && m.Duration > 0
}

// Progress is the single normalized progress shape consumed by both encode
// paths. Values are heuristic proxies, not ground truth.
type Progress struct {
	Progress      float64 // 0-100
	Time          float64 // elapsed seconds
	Speed         string  // e.g. "2.5x"
	Message       string
	FramesEncoded int64
	TotalFrames   int64
}

// ProgressFunc receives progress events. Callbacks run on the job's goroutine
// and must not block; there is no backpressure, a slow consumer misses ticks.
type ProgressFunc func(Progress)

// Result is the terminal artifact of a conversion job.
type Result struct {
	Data     []byte
	MIMEType string
}

// GuessCodec infers the codec from the file's extension and declared MIME
// type. The native probe cannot see the true codec string, so the guess is
// container-level only.
func GuessCodec(name, mimeType string) (codec, display string) {
	ext := strings.ToLower(filepath.Ext(name))
	mt := strings.ToLower(mimeType)
	if mt == "" {
		mt = mime.TypeByExtension(ext)
	}

	switch {
	case strings.Contains(mt, "h264") || ext == ".mp4" || ext == ".m4v":
		return "h264", "H.264 (AVC)"
	case strings.Contains(mt, "hevc") || strings.Contains(mt, "h265"):
		return "h265", "H.265 (HEVC)"
	case strings.Contains(mt, "vp9") || ext == ".webm":
		return "vp9", "VP9"
	case strings.Contains(mt, "vp8"):
		return "vp8", "VP8"
	case strings.Contains(mt, "av1"):
		return "av1", "AV1"
	}

	switch ext {
	case ".avi":
		return "unknown", "AVI (codec unknown)"
	case ".mov":
		return "unknown", "QuickTime (codec unknown)"
	case ".mkv":
		return "unknown", "Matroska (codec unknown)"
	}
	return "unknown", "Unknown codec"
}
