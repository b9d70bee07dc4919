package estimate

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strings"

	"recompress/video"
)

// Command renders a recommendation into the ffmpeg command line a user would
// run with standalone tooling. Rendering is a pure function of the
// recommendation fields: identical recommendations produce byte-identical
// strings.
func Command(inputFile string, rec Recommendation) string {
	output := outputName(inputFile, rec.Codec)

	var b strings.Builder
	fmt.Fprintf(&b, "ffmpeg -i %q", inputFile)

	switch rec.Codec {
	case video.CodecH264:
		b.WriteString(" -c:v libx264")
		writeQuality(&b, rec, false)
		fmt.Fprintf(&b, " -preset %s", rec.Preset)
	case video.CodecH265:
		b.WriteString(" -c:v libx265")
		writeQuality(&b, rec, false)
		fmt.Fprintf(&b, " -preset %s", rec.Preset)
	case video.CodecVP9:
		b.WriteString(" -c:v libvpx-vp9")
		writeQuality(&b, rec, true)
	case video.CodecAV1:
		b.WriteString(" -c:v libaom-av1")
		writeQuality(&b, rec, true)
	}

	if rec.Resolution.Scale != ScaleOriginal {
		fmt.Fprintf(&b, " -vf scale=%d:%d", rec.Resolution.Width, rec.Resolution.Height)
	}

	audioCodec := rec.AudioCodec
	if audioCodec == "" {
		audioCodec = defaultAudioCodec(rec.Codec, "")
	}
	audioBitrate := rec.AudioBitrate
	if audioBitrate <= 0 {
		audioBitrate = 128
	}
	fmt.Fprintf(&b, " -c:a %s -b:a %dk", audioCodec, audioBitrate)

	fmt.Fprintf(&b, " %q", output)
	return b.String()
}

// writeQuality emits exactly one rate-control flag set: CRF, quality with a
// zeroed bitrate for the VP9/AV1 constant-quality mode, or a plain bitrate.
func writeQuality(b *strings.Builder, rec Recommendation, zeroBitrate bool) {
	if q, ok := rec.QualityValue(); ok {
		fmt.Fprintf(b, " -crf %d", q)
		if zeroBitrate {
			b.WriteString(" -b:v 0")
		}
		return
	}
	fmt.Fprintf(b, " -b:v %d", int64(rec.Bitrate))
}

func outputName(inputFile string, codec video.Codec) string {
	base := strings.TrimSuffix(inputFile, filepath.Ext(inputFile))
	return base + codec.OutputExt()
}

var bitrateRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)([KMkm]?)$`)

// ParseBitrate converts a bitrate string like "5M" or "128k" to bits/sec.
// Returns 0 for anything it cannot parse.
func ParseBitrate(s string) int64 {
	m := bitrateRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0
	}
	var value float64
	fmt.Sscanf(m[1], "%f", &value)

	switch strings.ToUpper(m[2]) {
	case "M":
		return int64(math.Round(value * 1_000_000))
	case "K":
		return int64(math.Round(value * 1_000))
	default:
		return int64(math.Round(value))
	}
}

// FormatBitrate renders bits/sec for humans.
func FormatBitrate(bps float64) string {
	switch {
	case bps < 1000:
		return fmt.Sprintf("%d bps", int64(math.Round(bps)))
	case bps < 1_000_000:
		return fmt.Sprintf("%.1f Kbps", bps/1000)
	default:
		return fmt.Sprintf("%.1f Mbps", bps/1_000_000)
	}
}

// FormatSize renders bytes for humans.
func FormatSize(bytes float64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	i := 0
	for bytes >= 1024 && i < len(units)-1 {
		bytes /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", bytes, units[i])
}

// FormatDuration renders seconds as m:ss or h:mm:ss.
func FormatDuration(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
