package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"sync"

	"github.com/hashicorp/go-hclog"

	"recompress/estimate"
	"recompress/probe"
	"recompress/video"
)

// HardwarePath converts through the host's hardware encoder. It decodes the
// source into raw frames, feeds them to the accelerated encoder one frame at
// a time, and accumulates the elementary-stream chunks the encoder emits.
// The result is the raw coded stream, not a playable container; callers who
// need a container remux it afterwards.
type HardwarePath struct {
	capability Capability
	prober     *probe.Chain
	logger     hclog.Logger

	// newCommand builds the decoder and encoder processes. Tests swap it to
	// stand in fake processes.
	newCommand func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewHardwarePath builds the hardware conversion path.
func NewHardwarePath(capability Capability, prober *probe.Chain, logger hclog.Logger) *HardwarePath {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &HardwarePath{
		capability: capability,
		prober:     prober,
		logger:     logger.Named("hardware"),
		newCommand: exec.CommandContext,
	}
}

// Run converts file with opts through the hardware encoder.
func (h *HardwarePath) Run(ctx context.Context, file video.File, opts Options, onProgress video.ProgressFunc) (*video.Result, error) {
	encoderName, ok := h.capability.HardwareEncoder(opts.Codec)
	if !ok {
		return nil, &video.CapabilityError{Codec: opts.Codec, Backend: "hardware"}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	tracker := newProgressTracker(onProgress)
	tracker.set(0, "Probing input")

	meta, err := h.prober.Facts(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("hardware path probe: %w", err)
	}

	totalFrames := int64(math.Ceil(meta.Duration * meta.Framerate))
	frameSize := meta.Width * meta.Height * 3 / 2 // yuv420p

	h.logger.Info("hardware conversion started",
		"file", file.Name, "encoder", encoderName,
		"frames", totalFrames, "resolution", fmt.Sprintf("%dx%d", meta.Width, meta.Height))

	// Best-effort audio extraction runs alongside the video pipeline. A
	// failure here degrades the result to video-only, never fails the job.
	var audioWG sync.WaitGroup
	var audio []byte
	audioWG.Add(1)
	go func() {
		defer audioWG.Done()
		audio = h.extractAudio(ctx, file)
	}()

	chunks, framesEncoded, err := h.transcode(ctx, file, opts, encoderName, meta, frameSize, totalFrames, tracker)
	if err != nil {
		return nil, err
	}
	audioWG.Wait()

	var buf bytes.Buffer
	for _, chunk := range chunks {
		buf.Write(chunk)
	}
	if audio != nil {
		buf.Write(audio)
	}
	if buf.Len() == 0 {
		return nil, video.ErrEmptyOutput
	}

	tracker.finish("Conversion complete")
	h.logger.Info("hardware conversion finished",
		"file", file.Name, "frames_encoded", framesEncoded, "output_bytes", buf.Len())
	return &video.Result{Data: buf.Bytes(), MIMEType: opts.Codec.MIMEType()}, nil
}

// transcode runs the decoder and encoder processes, pumping raw frames from
// one to the other and collecting the encoder's output chunks.
func (h *HardwarePath) transcode(ctx context.Context, file video.File, opts Options, encoderName string,
	meta *video.Metadata, frameSize int, totalFrames int64, tracker *progressTracker) ([][]byte, int64, error) {

	decoder := h.newCommand(ctx, "ffmpeg",
		"-hide_banner", "-v", "error",
		"-i", file.Path,
		"-f", "rawvideo",
		"-pix_fmt", "yuv420p",
		"pipe:1",
	)
	rawFrames, err := decoder.StdoutPipe()
	if err != nil {
		return nil, 0, fmt.Errorf("decoder stdout pipe: %w", err)
	}
	if err := decoder.Start(); err != nil {
		return nil, 0, &video.DecodeError{Code: 4, Err: err}
	}
	// When the pump stops early the decoder is still streaming into a pipe
	// nobody reads anymore; kill it before reaping so Wait cannot block on a
	// writer stalled against a full pipe.
	defer func() {
		_ = decoder.Process.Kill()
		_ = decoder.Wait()
	}()

	encoder := h.newCommand(ctx, "ffmpeg", h.encoderArgs(opts, encoderName, meta)...)
	encIn, err := encoder.StdinPipe()
	if err != nil {
		return nil, 0, fmt.Errorf("encoder stdin pipe: %w", err)
	}
	encOut, err := encoder.StdoutPipe()
	if err != nil {
		return nil, 0, fmt.Errorf("encoder stdout pipe: %w", err)
	}
	if err := encoder.Start(); err != nil {
		return nil, 0, fmt.Errorf("hardware encoder start: %w", err)
	}

	// The encoder emits coded chunks as frames complete; drain them
	// concurrently so neither pipe can fill up and deadlock the pump.
	var chunks [][]byte
	var collectWG sync.WaitGroup
	collectWG.Add(1)
	go func() {
		defer collectWG.Done()
		for {
			chunk := make([]byte, 256*1024)
			n, readErr := encOut.Read(chunk)
			if n > 0 {
				chunks = append(chunks, chunk[:n])
			}
			if readErr != nil {
				return
			}
		}
	}()

	frame := make([]byte, frameSize)
	var framesEncoded int64
	var pumpErr error
	for {
		_, readErr := io.ReadFull(rawFrames, frame)
		if readErr == io.EOF {
			break
		}
		if readErr == io.ErrUnexpectedEOF {
			// Trailing partial frame; the stream is done.
			break
		}
		if readErr != nil {
			pumpErr = &video.DecodeError{Code: 2, Err: readErr}
			break
		}
		if _, writeErr := encIn.Write(frame); writeErr != nil {
			pumpErr = fmt.Errorf("hardware encoder rejected frame %d: %w", framesEncoded, writeErr)
			break
		}
		framesEncoded++

		if totalFrames > 0 {
			pct := float64(framesEncoded) / float64(totalFrames) * 100
			if pct > 95 {
				pct = 95
			}
			tracker.frames(framesEncoded, totalFrames, pct, "Converting")
		}
	}

	encIn.Close()
	waitErr := encoder.Wait()
	collectWG.Wait()

	if pumpErr != nil {
		return nil, framesEncoded, pumpErr
	}
	if waitErr != nil {
		return nil, framesEncoded, fmt.Errorf("hardware encoder failed: %w", waitErr)
	}
	if ctx.Err() != nil {
		return nil, framesEncoded, ctx.Err()
	}
	return chunks, framesEncoded, nil
}

// encoderArgs builds the hardware encoder invocation reading raw frames from
// stdin and writing the elementary stream to stdout.
func (h *HardwarePath) encoderArgs(opts Options, encoderName string, meta *video.Metadata) []string {
	args := []string{
		"-hide_banner", "-v", "error",
		"-f", "rawvideo",
		"-pix_fmt", "yuv420p",
		"-s", fmt.Sprintf("%dx%d", meta.Width, meta.Height),
		"-r", strconv.FormatFloat(meta.Framerate, 'f', -1, 64),
		"-i", "pipe:0",
		"-c:v", encoderName,
		"-b:v", strconv.FormatInt(h.targetBitrate(opts, meta), 10),
	}

	var format string
	switch opts.Codec {
	case video.CodecH265:
		format = "hevc"
	case video.CodecAV1:
		format = "ivf"
	default:
		format = "h264"
	}
	return append(args, "-f", format, "pipe:1")
}

// targetBitrate converts the requested rate control into the bitrate mode
// hardware encoders expect, applying the CRF size correction when the request
// was quality-based.
func (h *HardwarePath) targetBitrate(opts Options, meta *video.Metadata) int64 {
	base := estimate.ParseBitrate(opts.Bitrate)
	if base <= 0 {
		base = int64(meta.Bitrate)
	}
	if base <= 0 {
		base = 5_000_000
	}
	if q, ok := qualityOf(opts); ok {
		base = int64(float64(base) * estimate.CRFSizeFactor(q))
	}
	return base
}

func qualityOf(opts Options) (int, bool) {
	if opts.CRF != nil {
		return *opts.CRF, true
	}
	if opts.Quality != nil {
		return *opts.Quality, true
	}
	return 0, false
}

// extractAudio pulls the audio track as a self-framing ADTS stream. Any
// failure returns nil and the result stays video-only.
func (h *HardwarePath) extractAudio(ctx context.Context, file video.File) []byte {
	out, err := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-v", "error",
		"-i", file.Path,
		"-vn",
		"-c:a", "aac",
		"-f", "adts",
		"pipe:1",
	).Output()
	if err != nil || len(out) == 0 {
		h.logger.Debug("audio extraction skipped", "file", file.Name, "error", err)
		return nil
	}
	return out
}
