package probe

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"recompress/video"
)

// Banner regexps, fixed per the engine's free-text startup output.
var (
	durationRe   = regexp.MustCompile(`Duration:\s*(\d{2}):(\d{2}):(\d{2})\.(\d{2})`)
	resolutionRe = regexp.MustCompile(`(\d{3,5})x(\d{3,5})`)
	fpsRe        = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*fps`)
	bitrateRe    = regexp.MustCompile(`bitrate:\s*(\d+(?:\.\d+)?)\s*kb/s`)
	audioRe      = regexp.MustCompile(`Audio:\s*([a-z0-9_]+)`)
)

// parseBanner recovers metadata from the engine's startup banner text. The
// banner is unstructured, so width/height and duration are the hard
// requirements; everything else degrades to defaults.
func parseBanner(lines []string, file video.File) (*video.Metadata, error) {
	text := strings.Join(lines, "\n")

	var duration float64
	if m := durationRe.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		s, _ := strconv.Atoi(m[3])
		cs, _ := strconv.Atoi(m[4])
		duration = float64(h)*3600 + float64(min)*60 + float64(s) + float64(cs)/100
	}

	var width, height int
	if m := resolutionRe.FindStringSubmatch(text); m != nil {
		width, _ = strconv.Atoi(m[1])
		height, _ = strconv.Atoi(m[2])
	}

	framerate := 30.0
	if m := fpsRe.FindStringSubmatch(text); m != nil {
		if fps, err := strconv.ParseFloat(m[1], 64); err == nil && fps > 0 {
			framerate = fps
		}
	}

	var bitrate float64
	if m := bitrateRe.FindStringSubmatch(text); m != nil {
		if kbps, err := strconv.ParseFloat(m[1], 64); err == nil {
			bitrate = kbps * 1000
		}
	}
	if bitrate <= 0 && duration > 0 {
		bitrate = float64(file.Size) * 8 / duration
	}

	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("could not extract resolution from engine log")
	}
	if duration <= 0 {
		return nil, fmt.Errorf("could not extract duration from engine log")
	}

	codec, codecName := video.GuessCodec(file.Name, file.MIME)
	meta := &video.Metadata{
		Filename:    file.Name,
		FileSize:    file.Size,
		Duration:    duration,
		Width:       width,
		Height:      height,
		Bitrate:     bitrate,
		Codec:       codec,
		CodecName:   codecName,
		Framerate:   framerate,
		PixelFormat: "yuv420p",
	}
	if m := audioRe.FindStringSubmatch(text); m != nil {
		meta.AudioCodec = m[1]
	}
	return meta, nil
}

// assumedBitrate is the flat bitrate the synthesis tier assumes regardless of
// the resolution guessed from the filename. A 4K guess paired with a 2 Mbps
// assumption is inconsistent, but the behavior is kept as-is; changing it
// silently would shift every derived duration.
const assumedBitrate = 2_000_000

// synthesizeMinimal is tier 3: derive metadata from the filename and size
// alone. It never fails.
func synthesizeMinimal(file video.File) *video.Metadata {
	name := strings.ToLower(file.Name)

	width, height := 1920, 1080
	switch {
	case strings.Contains(name, "480p") || strings.Contains(name, "480"):
		width, height = 854, 480
	case strings.Contains(name, "720p") || strings.Contains(name, "720"):
		width, height = 1280, 720
	case strings.Contains(name, "1080p") || strings.Contains(name, "1080"):
		width, height = 1920, 1080
	case strings.Contains(name, "4k") || strings.Contains(name, "2160"):
		width, height = 3840, 2160
	}

	duration := float64(file.Size) * 8 / assumedBitrate
	if duration <= 0 {
		duration = 1
	}

	codec, codecName := video.GuessCodec(file.Name, file.MIME)
	return &video.Metadata{
		Filename:    file.Name,
		FileSize:    file.Size,
		Duration:    duration,
		Width:       width,
		Height:      height,
		Bitrate:     assumedBitrate,
		Codec:       codec,
		CodecName:   codecName,
		Framerate:   30,
		PixelFormat: "yuv420p",
	}
}

func readInput(file video.File) ([]byte, error) {
	return os.ReadFile(file.Path)
}
