// Package probe extracts normalized metadata from a video file through an
// ordered fallback chain. Each tier is an explicit function returning a value
// or an error; the orchestrator tries tiers in order and only full exhaustion
// is a true failure. The last tier synthesizes metadata from the filename and
// never fails, so Probe practically always succeeds.
package probe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"recompress/engine"
	"recompress/video"
)

const (
	nativeTimeout = 10 * time.Second
	engineTimeout = 2 * time.Second
)

// Chain is the tiered metadata extractor.
type Chain struct {
	engine engine.Engine
	logger hclog.Logger
}

// NewChain builds a probe chain on top of the given engine.
func NewChain(eng engine.Engine, logger hclog.Logger) *Chain {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Chain{engine: eng, logger: logger.Named("probe")}
}

// Probe extracts metadata for file, falling through the tiers as needed, then
// attaches a thumbnail on a best-effort basis. Thumbnail failure never blocks
// the metadata return.
func (c *Chain) Probe(ctx context.Context, file video.File) (*video.Metadata, error) {
	meta, err := c.probeNative(ctx, file)
	if err != nil {
		c.logger.Warn("native probe failed, falling back", "file", file.Name, "error", err)

		if file.Size > engine.MaxInputSize {
			// The engine tier cannot hold a file this large; go straight to
			// synthesis.
			c.logger.Info("file exceeds engine ceiling, synthesizing metadata",
				"file", file.Name, "size_mb", fmt.Sprintf("%.2f", file.SizeMB()))
			meta = synthesizeMinimal(file)
		} else {
			meta, err = c.probeEngine(ctx, file)
			if err != nil {
				c.logger.Warn("engine probe failed, synthesizing metadata",
					"file", file.Name, "error", err)
				meta = synthesizeMinimal(file)
			}
		}
	}

	if !meta.Usable() {
		// Unreachable: synthesis always produces positive dimensions and
		// duration. Guard anyway so a broken tier cannot leak zeros.
		return nil, video.ErrMetadataUnavailable
	}

	meta.Thumbnail = c.thumbnail(ctx, file, meta.Duration)
	return meta, nil
}

// Facts runs only the native tier and returns its result. The hardware encode
// path uses this to learn dimensions, duration and framerate without paying
// for the full chain and thumbnail work.
func (c *Chain) Facts(ctx context.Context, file video.File) (*video.Metadata, error) {
	return c.probeNative(ctx, file)
}

// probeNative is tier 1: a structured ffprobe query bounded by a 10s timeout.
// The container-level codec guess comes from the extension/MIME pair since
// this tier does not surface a reliable codec string for every container.
func (c *Chain) probeNative(ctx context.Context, file video.File) (*video.Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, nativeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,avg_frame_rate",
		"-show_entries", "format=duration,bit_rate",
		"-of", "default=noprint_wrappers=1",
		file.Path,
	)
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &video.TimeoutError{Op: "native metadata probe", Seconds: nativeTimeout.Seconds()}
		}
		return nil, classifyDecodeError(err)
	}

	fields := parseKeyValues(string(out))

	width, _ := strconv.Atoi(fields["width"])
	height, _ := strconv.Atoi(fields["height"])
	duration, _ := strconv.ParseFloat(fields["duration"], 64)
	if width <= 0 || height <= 0 || duration <= 0 {
		return nil, fmt.Errorf("native probe returned incomplete metadata (width=%d height=%d duration=%.2f)",
			width, height, duration)
	}

	framerate := parseFrameRate(fields["r_frame_rate"])
	if framerate <= 0 {
		framerate = parseFrameRate(fields["avg_frame_rate"])
	}
	if framerate <= 0 {
		framerate = 30
	}

	bitrate, _ := strconv.ParseFloat(fields["bit_rate"], 64)
	if bitrate <= 0 {
		bitrate = float64(file.Size) * 8 / duration
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
	c.probeAudio(ctx, file, meta)
	return meta, nil
}

// probeAudio fills in the optional audio fields. Failures are not fatal.
func (c *Chain) probeAudio(ctx context.Context, file video.File, meta *video.Metadata) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=codec_name,bit_rate",
		"-of", "default=noprint_wrappers=1",
		file.Path,
	)
	out, err := cmd.Output()
	if err != nil {
		return
	}
	fields := parseKeyValues(string(out))
	meta.AudioCodec = fields["codec_name"]
	if br, err := strconv.ParseFloat(fields["bit_rate"], 64); err == nil && br > 0 {
		meta.AudioBitrate = br
	}
}

// probeEngine is tier 2: stage the file into the engine's virtual filesystem
// and run a zero-frame decode whose only purpose is to make the engine print
// its startup banner, then parse the banner text. The decode call itself is
// expected to error; only the absence of any log output is a real failure.
func (c *Chain) probeEngine(ctx context.Context, file video.File) (*video.Metadata, error) {
	if file.Size > engine.MaxInputSize {
		return nil, &video.SizeLimitError{Path: "software", SizeMB: file.SizeMB(), LimitMB: engine.MaxInputSize / 1024 / 1024}
	}

	data, err := readInput(file)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	staged := uuid.NewString() + engine.InputExt(file.Name)
	if err := c.engine.WriteInput(staged, data); err != nil {
		return nil, &video.FilesystemError{Op: "probe staging", SizeMB: file.SizeMB(), Attempts: 3, Err: err}
	}
	defer c.engine.Remove(staged)

	execCtx, cancel := context.WithTimeout(ctx, engineTimeout)
	defer cancel()

	var lines []string
	execErr := c.engine.Exec(execCtx, []string{
		"-hide_banner",
		"-i", staged,
		"-frames:v", "0",
		"-f", "null", "-",
	}, func(line string) {
		lines = append(lines, line)
	})
	if execErr != nil {
		// Expected: the zero-frame pass usually exits nonzero, and the 2s
		// watchdog may cut it off. The banner is already in the log either way.
		c.logger.Debug("engine probe exec ended", "error", execErr)
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("engine emitted no log output; format may be unsupported or the file corrupt")
	}
	return parseBanner(lines, file)
}

func parseKeyValues(out string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		parts := strings.SplitN(strings.TrimSpace(line), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if v := strings.TrimSpace(parts[1]); v != "" && v != "N/A" {
			fields[strings.TrimSpace(parts[0])] = v
		}
	}
	return fields
}

// parseFrameRate handles fractional forms like "24000/1001" and plain floats.
func parseFrameRate(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if strings.Contains(s, "/") {
		parts := strings.Split(s, "/")
		if len(parts) == 2 {
			num, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
			den, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if err1 == nil && err2 == nil && den > 0 {
				return num / den
			}
		}
		return 0
	}
	fps, _ := strconv.ParseFloat(s, 64)
	return fps
}

// classifyDecodeError maps probe process failures onto the decoder error
// classes so callers get a human-readable cause.
func classifyDecodeError(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.ToLower(string(exitErr.Stderr))
		switch {
		case strings.Contains(stderr, "invalid data found"):
			return &video.DecodeError{Code: 3, Err: err}
		case strings.Contains(stderr, "moov atom not found"),
			strings.Contains(stderr, "unknown format"),
			strings.Contains(stderr, "invalid argument"):
			return &video.DecodeError{Code: 4, Err: err}
		case strings.Contains(stderr, "input/output error"):
			return &video.DecodeError{Code: 2, Err: err}
		}
		return &video.DecodeError{Code: 3, Err: err}
	}
	return &video.DecodeError{Code: 4, Err: err}
}
