package video

import (
	"strings"
	"testing"
)

func TestGuessCodec(t *testing.T) {
	tests := []struct {
		name  string
		mime  string
		codec string
	}{
		{"movie.mp4", "video/mp4", "h264"},
		{"movie.m4v", "", "h264"},
		{"clip.webm", "video/webm", "vp9"},
		{"clip.mov", `video/quicktime; codecs="vp8"`, "vp8"},
		{"stream.mkv", `video/x-matroska; codecs="hevc"`, "h265"},
		{"stream.mkv", `video/x-matroska; codecs="av1"`, "av1"},
		{"old.avi", "", "unknown"},
		{"cam.mov", "", "unknown"},
		{"mystery.bin", "", "unknown"},
	}
	for _, tc := range tests {
		codec, display := GuessCodec(tc.name, tc.mime)
		if codec != tc.codec {
			t.Errorf("GuessCodec(%q, %q) = %q, want %q", tc.name, tc.mime, codec, tc.codec)
		}
		if display == "" {
			t.Errorf("GuessCodec(%q, %q) returned empty display name", tc.name, tc.mime)
		}
	}
}

func TestCodecContainers(t *testing.T) {
	tests := []struct {
		codec Codec
		mime  string
		ext   string
	}{
		{CodecH264, "video/mp4", ".mp4"},
		{CodecH265, "video/mp4", ".mp4"},
		{CodecVP9, "video/webm", ".webm"},
		{CodecAV1, "video/webm", ".webm"},
	}
	for _, tc := range tests {
		if got := tc.codec.MIMEType(); got != tc.mime {
			t.Errorf("%s.MIMEType() = %q, want %q", tc.codec, got, tc.mime)
		}
		if got := tc.codec.OutputExt(); got != tc.ext {
			t.Errorf("%s.OutputExt() = %q, want %q", tc.codec, got, tc.ext)
		}
	}
}

func TestMetadataUsable(t *testing.T) {
	var nilMeta *Metadata
	if nilMeta.Usable() {
		t.Error("nil metadata must not be usable")
	}

	tests := []struct {
		name string
		meta Metadata
		want bool
	}{
		{"complete", Metadata{Width: 1920, Height: 1080, Duration: 10}, true},
		{"zero width", Metadata{Height: 1080, Duration: 10}, false},
		{"zero height", Metadata{Width: 1920, Duration: 10}, false},
		{"zero duration", Metadata{Width: 1920, Height: 1080}, false},
	}
	for _, tc := range tests {
		if got := tc.meta.Usable(); got != tc.want {
			t.Errorf("%s: Usable() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSizeLimitError_Messages(t *testing.T) {
	sw := &SizeLimitError{Path: "software", SizeMB: 75.5, LimitMB: 50}
	msg := sw.Error()
	if !strings.Contains(msg, "75.50MB") || !strings.Contains(msg, "50MB") {
		t.Errorf("software message %q missing sizes", msg)
	}
	if !strings.Contains(msg, "smaller file") {
		t.Errorf("software message %q not actionable", msg)
	}

	hw := &SizeLimitError{Path: "hardware", SizeMB: 250, LimitMB: 200}
	msg = hw.Error()
	if !strings.Contains(msg, "250.00MB") || !strings.Contains(msg, "200MB") {
		t.Errorf("hardware message %q missing sizes", msg)
	}
}

func TestDecodeError_Codes(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{1, "aborted"},
		{2, "i/o error"},
		{3, "could not be decoded"},
		{4, "not supported"},
		{99, "unknown"},
	}
	for _, tc := range tests {
		err := &DecodeError{Code: tc.code}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("DecodeError{%d} = %q, want substring %q", tc.code, err.Error(), tc.want)
		}
	}
}

func TestFileSizeMB(t *testing.T) {
	f := File{Size: 50 * 1024 * 1024}
	if got := f.SizeMB(); got != 50 {
		t.Errorf("SizeMB = %f, want 50", got)
	}
}
