package probe

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"recompress/engine"
	"recompress/video"
)

const thumbnailTimeout = 10 * time.Second

// thumbnail extracts a small JPEG preview. Engine-based grab first for files
// inside the engine's ceiling, native-decoder capture otherwise or on
// failure. Any failure yields an empty thumbnail; it never blocks metadata.
func (c *Chain) thumbnail(ctx context.Context, file video.File, duration float64) []byte {
	if file.Size <= engine.MaxInputSize {
		if thumb, err := c.engineThumbnail(ctx, file); err == nil {
			return thumb
		} else {
			c.logger.Debug("engine thumbnail failed, using native capture",
				"file", file.Name, "error", err)
		}
	}

	thumb, err := c.nativeThumbnail(ctx, file, duration)
	if err != nil {
		c.logger.Debug("thumbnail extraction failed", "file", file.Name, "error", err)
		return nil
	}
	return thumb
}

// engineThumbnail grabs one frame at t=1s scaled to 320px width inside the
// engine's virtual filesystem.
func (c *Chain) engineThumbnail(ctx context.Context, file video.File) ([]byte, error) {
	data, err := readInput(file)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	staged := id + engine.InputExt(file.Name)
	out := "thumb_" + id + ".jpg"

	if err := c.engine.WriteInput(staged, data); err != nil {
		return nil, &video.FilesystemError{Op: "thumbnail staging", SizeMB: file.SizeMB(), Attempts: 3, Err: err}
	}
	defer c.engine.Remove(staged)
	defer c.engine.Remove(out)

	execCtx, cancel := context.WithTimeout(ctx, thumbnailTimeout)
	defer cancel()

	if err := c.engine.Exec(execCtx, []string{
		"-hide_banner",
		"-i", staged,
		"-ss", "00:00:01",
		"-frames:v", "1",
		"-vf", "scale=320:-1",
		"-q:v", "2",
		out,
	}, nil); err != nil {
		return nil, fmt.Errorf("engine thumbnail grab: %w", err)
	}

	thumb, err := c.engine.ReadOutput(out)
	if err != nil || len(thumb) == 0 {
		return nil, fmt.Errorf("thumbnail output missing or empty")
	}
	return thumb, nil
}

// nativeThumbnail captures a frame with the host decoder at min(1, duration/4)
// and downscales it to 320px width. Used for files beyond the engine ceiling
// and as the general fallback.
func (c *Chain) nativeThumbnail(ctx context.Context, file video.File, duration float64) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, thumbnailTimeout)
	defer cancel()

	seek := 1.0
	if duration > 0 {
		seek = math.Min(1, duration/4)
	}

	tmp := filepath.Join(os.TempDir(), "recompress-thumb-"+uuid.NewString()+".jpg")
	defer os.Remove(tmp)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner",
		"-ss", fmt.Sprintf("%.2f", seek),
		"-i", file.Path,
		"-frames:v", "1",
		"-q:v", "2",
		"-y", tmp,
	)
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &video.TimeoutError{Op: "thumbnail capture", Seconds: thumbnailTimeout.Seconds()}
		}
		return nil, fmt.Errorf("native frame capture: %w", err)
	}

	img, err := imaging.Open(tmp)
	if err != nil {
		return nil, fmt.Errorf("decode captured frame: %w", err)
	}
	if img.Bounds().Dx() > 320 {
		img = imaging.Resize(img, 320, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
